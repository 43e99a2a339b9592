package union

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type aConfig struct {
	Host string `json:"host"`
}

type bConfig struct {
	Path string `json:"path"`
}

type testUnion struct {
	A *aConfig `union:"type,a" json:"-"`
	B *bConfig `union:"type,b" json:"-"`
}

func TestUnmarshalSelectsVariant(t *testing.T) {
	var u testUnion
	require.NoError(t, Unmarshal([]byte(`{"type":"a","host":"localhost"}`), &u))
	require.NotNil(t, u.A)
	require.Nil(t, u.B)
	require.Equal(t, "localhost", u.A.Host)
}

func TestUnmarshalClearsOtherVariants(t *testing.T) {
	u := testUnion{A: &aConfig{Host: "stale"}}
	require.NoError(t, Unmarshal([]byte(`{"type":"b","path":"/tmp/x"}`), &u))
	require.Nil(t, u.A)
	require.NotNil(t, u.B)
	require.Equal(t, "/tmp/x", u.B.Path)
}

func TestUnmarshalMissingKeyLeavesUnionEmpty(t *testing.T) {
	var u testUnion
	require.NoError(t, Unmarshal([]byte(`{}`), &u))
	require.Nil(t, u.A)
	require.Nil(t, u.B)
}

func TestUnmarshalUnknownVariant(t *testing.T) {
	var u testUnion
	err := Unmarshal([]byte(`{"type":"c"}`), &u)
	require.ErrorContains(t, err, "unexpected type: c")
}

func TestMarshalRoundTrip(t *testing.T) {
	u := testUnion{B: &bConfig{Path: "/data"}}
	out, err := Marshal(u)
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"b","path":"/data"}`, string(out))

	var parsed testUnion
	require.NoError(t, Unmarshal(out, &parsed))
	require.Equal(t, u, parsed)
}
