package value

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalSortsKeys(t *testing.T) {
	data, err := MarshalCanonical(Map{
		"zebra": Int(1),
		"apple": List{Bool(true), Null{}},
		"mango": Map{"b": String("x"), "a": Float(0.5)},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"apple":[true,null],"mango":{"a":0.5,"b":"x"},"zebra":1}`, string(data))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	data, err := MarshalCanonical(String("<a & b>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a & b>"`, string(data))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "e" + combining acute accent normalizes to U+00E9
	data, err := MarshalCanonical(String("e\u0301"))
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(data))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	data, err := MarshalCanonical(String("a\u2028b"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(data))

	// A literal backslash followed by "u2028" text stays escaped.
	data, err = MarshalCanonical(String(`a\u2028b`))
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(data))
}

func TestMarshalCanonicalFloats(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1.5, "1.5"},
		{-2, "-2"},
		{1e21, "1e+21"},
		{1e-7, "1e-07"},
	}
	for _, tt := range tests {
		data, err := MarshalCanonical(Float(tt.in))
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(data))
	}

	_, err := MarshalCanonical(Float(math.NaN()))
	require.Error(t, err)
}

func TestMarshalCanonicalOpaque(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	data, err := MarshalCanonical(Map{"at": Time(ts), "raw": Bytes("hi")})
	require.NoError(t, err)
	assert.Equal(t, `{"at":"2024-05-06T07:08:09Z","raw":"aGk="}`, string(data))
}

func TestFromJSONNumbers(t *testing.T) {
	v, err := FromJSON([]byte(`{"i": 18, "f": 1.5, "e": 1e3, "n": null, "l": ["x"]}`))
	require.NoError(t, err)

	m := v.(Map)
	assert.Equal(t, Int(18), m["i"])
	assert.Equal(t, Float(1.5), m["f"])
	assert.Equal(t, Float(1000), m["e"])
	assert.Equal(t, Null{}, m["n"])
	assert.Equal(t, List{String("x")}, m["l"])
}

func TestMapJSONRoundTrip(t *testing.T) {
	in := Map{"b": Int(2), "a": String("x")}

	data, err := in.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":2}`, string(data))

	var out Map
	require.NoError(t, out.UnmarshalJSON(data))
	assert.Equal(t, in, out)

	require.Error(t, out.UnmarshalJSON([]byte(`[1]`)))
}

func TestFingerprintStable(t *testing.T) {
	a, err := Fingerprint(Map{"x": Int(1), "y": Int(2)})
	require.NoError(t, err)
	b, err := Fingerprint(Map{"y": Int(2), "x": Int(1)})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	s, err := StateFingerprint(Map{"x": Int(1), "y": Int(2)})
	require.NoError(t, err)
	assert.NotEqual(t, a, s, "domain separation")
}
