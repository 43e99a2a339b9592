// Package check implements assertion-style configuration validation. Checks
// return an error describing the failed condition rather than panicking, so
// callers can surface all configuration problems at once.
package check

import (
	"fmt"

	"github.com/pkg/errors"
)

func check(condition bool, msgAndArgs []interface{}, internalFormat string,
	internalArgs ...interface{},
) error {
	if condition {
		return nil
	}
	msg := messageFromMsgAndArgs(msgAndArgs...)
	if msg == "" {
		msg = fmt.Sprintf(internalFormat, internalArgs...)
	}
	return errors.New(msg)
}

// True checks whether the condition holds. This method returns an error with
// the provided message if the check fails.
func True(condition bool, msgAndArgs ...interface{}) error {
	return check(condition, msgAndArgs, "expected true, got false")
}

// GreaterThan checks whether the first argument is greater than the second.
func GreaterThan(actual, expected float64, msgAndArgs ...interface{}) error {
	return check(actual > expected, msgAndArgs, "%v is not greater than %v", actual, expected)
}

// GreaterThanOrEqualTo checks whether the first argument is greater than or
// equal to the second.
func GreaterThanOrEqualTo(actual, expected float64, msgAndArgs ...interface{}) error {
	return check(actual >= expected, msgAndArgs, "%v is not greater than or equal to %v",
		actual, expected)
}

// Contains checks whether the actual value is contained in the expected list.
func Contains(actual interface{}, expected []interface{}, msgAndArgs ...interface{}) error {
	for _, value := range expected {
		if value == actual {
			return nil
		}
	}
	return check(false, msgAndArgs, "%v not in %v", actual, expected)
}

func messageFromMsgAndArgs(msgAndArgs ...interface{}) string {
	switch {
	case len(msgAndArgs) == 1:
		if msg, ok := msgAndArgs[0].(string); ok {
			return msg
		}
		return fmt.Sprintf("%+v", msgAndArgs[0])
	case len(msgAndArgs) > 1:
		return fmt.Sprintf(msgAndArgs[0].(string), msgAndArgs[1:]...)
	default:
		return ""
	}
}
