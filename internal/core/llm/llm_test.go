package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/lueurxax/scholarfeed/internal/core/errors"
)

type testAnswer struct {
	Summary string   `json:"summary"`
	Flag    bool     `json:"flag"`
	Tags    []string `json:"tags"`
}

func TestDecode(t *testing.T) {
	schema, err := SchemaFor[testAnswer]()
	require.NoError(t, err)

	tests := []struct {
		name    string
		content string
		want    testAnswer
		wantErr bool
	}{
		{
			name:    "valid",
			content: `{"summary":"s","flag":true,"tags":["a"]}`,
			want:    testAnswer{Summary: "s", Flag: true, Tags: []string{"a"}},
		},
		{
			name:    "code fence",
			content: "```json\n{\"summary\":\"s\",\"flag\":false,\"tags\":[]}\n```",
			want:    testAnswer{Summary: "s", Tags: []string{}},
		},
		{
			name:    "missing required field",
			content: `{"summary":"s","tags":[]}`,
			wantErr: true,
		},
		{
			name:    "wrong type",
			content: `{"summary":"s","flag":"yes","tags":[]}`,
			wantErr: true,
		},
		{
			name:    "not json",
			content: "I cannot help with that",
			wantErr: true,
		},
		{
			name:    "empty",
			content: "   ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode[testAnswer](tt.content, schema)
			if tt.wantErr {
				require.ErrorIs(t, err, coreerrors.ErrSchemaMismatch)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "pure_object", input: `{"key":"value"}`, want: `{"key":"value"}`},
		{name: "object_with_preamble", input: `Here: {"key":"value"} done.`, want: `{"key":"value"}`},
		{name: "nested", input: `{"a":{"b":1}}`, want: `{"a":{"b":1}}`},
		{name: "no_json", input: `plain`, want: `plain`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.input))
		})
	}
}

func TestSchemaFor_RequiresAllFields(t *testing.T) {
	schema := MustSchemaFor[testAnswer]()

	assert.ElementsMatch(t, []string{"summary", "flag", "tags"}, schema.Required)
}
