package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/cairn/internal/vars"
)

func TestParseValueArg(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want vars.Value
	}{
		{"plain string", "pool.ntp.org", vars.String("pool.ntp.org")},
		{"quoted string", `"hello"`, vars.String("hello")},
		{"integer", "42", vars.Number("42")},
		{"big integer stays exact", "9007199254740993", vars.Number("9007199254740993")},
		{"bool", "true", vars.Bool(true)},
		{"null", "null", vars.Null{}},
		{"list", `["a","b"]`, vars.List{vars.String("a"), vars.String("b")}},
		{"map", `{"k":1}`, vars.Map{"k": vars.Number("1")}},
		{"broken json is a string", `{"k":`, vars.String(`{"k":`)},
		{"empty is a string", "", vars.String("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseValueArg(tt.arg))
		})
	}
}

func TestVarCommandTagFlag(t *testing.T) {
	cmd := NewRootCommand()
	varCmd, _, err := cmd.Find([]string{"var"})
	assert.NoError(t, err)

	tagFlag := varCmd.PersistentFlags().Lookup("tag")
	assert.NotNil(t, tagFlag)
	assert.Equal(t, "false", tagFlag.DefValue)
}
