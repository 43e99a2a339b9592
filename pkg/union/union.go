// Package union implements marshaling and unmarshaling of tagged-union
// configuration structs. A union struct has one pointer field per variant,
// each carrying a `union:"key,value"` struct tag; the JSON object's key field
// selects which variant is populated.
package union

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

const unionTag = "union"

type variantField struct {
	index int
	field reflect.StructField
}

// parseUnionStructTag parses the "union" struct tag. The format of the tag is
// "key,value" where key is the common union type name for all variants and
// value is the name of this field's variant.
func parseUnionStructTag(tagValue string) (string, string, error) {
	parsed := strings.Split(tagValue, ",")
	if len(parsed) != 2 {
		return "", "", errors.Errorf("unexpected union tag format: %s", tagValue)
	}
	return parsed[0], parsed[1], nil
}

// parseVariants maps the union key to its variant fields for the given
// struct type.
func parseVariants(elem reflect.Type) (string, map[string]variantField, error) {
	key := ""
	variants := make(map[string]variantField)
	for i := 0; i < elem.NumField(); i++ {
		field := elem.Field(i)
		tagValue, ok := field.Tag.Lookup(unionTag)
		if !ok {
			continue
		}
		fieldKey, fieldValue, err := parseUnionStructTag(tagValue)
		if err != nil {
			return "", nil, err
		}
		if key != "" && key != fieldKey {
			return "", nil, errors.Errorf("conflicting union keys: %s, %s", key, fieldKey)
		}
		key = fieldKey
		variants[fieldValue] = variantField{index: i, field: field}
	}
	if key == "" {
		return "", nil, errors.Errorf("no union fields found in %s", elem)
	}
	return key, variants, nil
}

// getTagValue returns the value of the union key defined in the data bytes.
// The second result is false when the key is absent.
func getTagValue(data []byte, key string) (string, bool, error) {
	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", false, err
	}
	tagValue, ok := parsed[key]
	if !ok {
		return "", false, nil
	}
	typed, ok := tagValue.(string)
	if !ok {
		return "", false, errors.Errorf("%s must be a string: got %T", key, tagValue)
	}
	return typed, true, nil
}

// Unmarshal unmarshals the provided union type from a JSON byte array.
func Unmarshal(data []byte, v interface{}) error {
	value := reflect.ValueOf(v)
	key, variants, err := parseVariants(value.Type().Elem())
	if err != nil {
		return err
	}

	tagValue, ok, err := getTagValue(data, key)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	variant, ok := variants[tagValue]
	if !ok {
		return errors.Errorf("unexpected %s: %s", key, tagValue)
	}

	nested := reflect.New(variant.field.Type.Elem())
	if err := json.Unmarshal(data, nested.Interface()); err != nil {
		return err
	}
	value.Elem().Field(variant.index).Set(nested)

	for _, other := range variants {
		if other.index != variant.index {
			value.Elem().Field(other.index).Set(reflect.Zero(other.field.Type))
		}
	}
	return nil
}

// Marshal marshals the provided union type into a JSON byte array containing
// the fields of the populated variant plus the union key itself.
func Marshal(v interface{}) ([]byte, error) {
	value := reflect.Indirect(reflect.ValueOf(v))
	key, variants, err := parseVariants(value.Type())
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	for tagValue, variant := range variants {
		fieldValue := value.Field(variant.index)
		if fieldValue.IsNil() {
			continue
		}
		bs, err := json.Marshal(fieldValue.Interface())
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(bs, &fields); err != nil {
			return nil, err
		}
		fields[key] = tagValue
	}
	return json.Marshal(fields)
}
