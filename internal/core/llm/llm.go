// Package llm is the chat-completion boundary of the enrichment stage.
// Callers describe the expected answer as a JSON schema and get raw JSON back;
// validation against the schema happens in Decode.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	coreerrors "github.com/lueurxax/scholarfeed/internal/core/errors"
)

// StructuredRequest asks the model for one JSON object matching Schema.
type StructuredRequest struct {
	System      string
	User        string
	SchemaName  string
	Schema      *jsonschema.Definition
	Temperature float32
	// Model overrides the client's default model when set.
	Model string
}

// Client returns the raw JSON content of a structured completion.
type Client interface {
	CompleteJSON(ctx context.Context, req StructuredRequest) (string, error)
}

// SchemaFor derives a strict JSON schema from the json tags of T.
// Fields without omitempty become required.
func SchemaFor[T any]() (*jsonschema.Definition, error) {
	var v T

	schema, err := jsonschema.GenerateSchemaForType(v)
	if err != nil {
		return nil, fmt.Errorf("generate schema for %T: %w", v, err)
	}

	return schema, nil
}

// MustSchemaFor is SchemaFor for package-level schema variables.
func MustSchemaFor[T any]() *jsonschema.Definition {
	schema, err := SchemaFor[T]()
	if err != nil {
		panic(err)
	}

	return schema
}

// Decode validates content against schema and unmarshals it into T.
// Any mismatch, including unparseable JSON and missing required fields,
// wraps ErrSchemaMismatch.
func Decode[T any](content string, schema *jsonschema.Definition) (T, error) {
	var v T

	content = extractJSON(content)
	if content == "" {
		return v, fmt.Errorf("%w: %w", coreerrors.ErrSchemaMismatch, coreerrors.ErrEmptyResponse)
	}

	if err := schema.Unmarshal(content, &v); err != nil {
		return v, fmt.Errorf("%w: %w", coreerrors.ErrSchemaMismatch, err)
	}

	return v, nil
}

// extractJSON trims code fences or chatter around a JSON object.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")

	if start != -1 && end != -1 && end > start {
		return text[start : end+1]
	}

	return text
}
