package vars

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromJSON_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Value
	}{
		{"string", `"world"`, String("world")},
		{"int", `42`, Number("42")},
		{"float", `1.5`, Number("1.5")},
		{"bool", `true`, Bool(true)},
		{"null", `null`, Null{}},
		{"list", `["a","b"]`, List{String("a"), String("b")}},
		{"map", `{"hello":"world"}`, Map{"hello": String("world")}},
		{
			"nested",
			`{"ports":[80,443],"tls":{"enabled":true}}`,
			Map{
				"ports": List{Number("80"), Number("443")},
				"tls":   Map{"enabled": Bool(true)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromJSON([]byte(tt.input))
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "got %#v", got)
		})
	}
}

func TestFromJSON_LargeIntExact(t *testing.T) {
	// 2^53+1 is not representable as float64; the decimal text must survive.
	got, err := FromJSON([]byte(`9007199254740993`))
	require.NoError(t, err)
	require.Equal(t, Number("9007199254740993"), got)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Equal(t, `9007199254740993`, string(data))
}

func TestMarshal_RoundTrip(t *testing.T) {
	inputs := []string{
		`"world"`,
		`42`,
		`true`,
		`["a","b",1]`,
		`{"hello":"world"}`,
	}
	for _, input := range inputs {
		v, err := FromJSON([]byte(input))
		require.NoError(t, err)
		data, err := json.Marshal(v)
		require.NoError(t, err)
		assert.JSONEq(t, input, string(data))
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"equal strings", String("a"), String("a"), true},
		{"different strings", String("a"), String("b"), false},
		{"string vs number", String("1"), Number("1"), false},
		{"equal numbers", Number("1.5"), Number("1.5"), true},
		{"equal lists", List{String("a")}, List{String("a")}, true},
		{"list order matters", List{String("a"), String("b")}, List{String("b"), String("a")}, false},
		{"equal maps", Map{"k": Number("1")}, Map{"k": Number("1")}, true},
		{"map missing key", Map{"k": Number("1")}, Map{}, false},
		{"null equal", Null{}, Null{}, true},
		{"null vs bool", Null{}, Bool(false), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestClone_Isolated(t *testing.T) {
	orig := Map{"list": List{String("a")}}
	cloned := Clone(orig).(Map)

	cloned["list"].(List)[0] = String("changed")
	assert.True(t, Equal(orig["list"], List{String("a")}), "clone must not share storage")
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "world", Display(String("world")))
	assert.Equal(t, "42", Display(Number("42")))
	assert.Equal(t, `["a","b"]`, Display(List{String("a"), String("b")}))
	assert.Equal(t, `{"hello":"world"}`, Display(Map{"hello": String("world")}))
}
