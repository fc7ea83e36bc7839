package llm

import (
	"reflect"
	"testing"
)

func TestReduceParameterSchema(t *testing.T) {
	schema := map[string]any{
		"type":                 "object",
		"description":          "query arguments",
		"additionalProperties": false,
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"properties": map[string]any{
			"collection": map[string]any{
				"type":        "string",
				"description": "collection to query",
				"minLength":   1,
			},
			"fields": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":    "string",
					"pattern": "^[a-z]+$",
				},
				"maxItems": 50,
			},
		},
	}

	got := ReduceParameterSchema(schema)

	want := map[string]any{
		"type":        "object",
		"description": "query arguments",
		"properties": map[string]any{
			"collection": map[string]any{
				"type":        "string",
				"description": "collection to query",
			},
			"fields": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "string",
				},
			},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReduceParameterSchema() = %#v, want %#v", got, want)
	}
}

func TestReduceParameterSchemaNil(t *testing.T) {
	if got := ReduceParameterSchema(nil); got != nil {
		t.Errorf("expected nil, got %#v", got)
	}
}

func TestNewToolDefinition(t *testing.T) {
	def := NewToolDefinition(
		"count_documents",
		"Count documents matching a filter",
		map[string]ParameterProperty{
			"collection": {Type: "string", Description: "collection name"},
			"mode":       {Type: "string", Enum: []string{"exact", "estimate"}},
		},
		[]string{"collection"},
	)

	if def.Name != "count_documents" {
		t.Errorf("Name = %q", def.Name)
	}
	props, ok := def.Parameters["properties"].(map[string]any)
	if !ok {
		t.Fatalf("properties missing from parameters: %#v", def.Parameters)
	}
	mode, ok := props["mode"].(map[string]any)
	if !ok {
		t.Fatalf("mode property missing")
	}
	if _, ok := mode["enum"]; !ok {
		t.Errorf("enum not propagated: %#v", mode)
	}
	if required, _ := def.Parameters["required"].([]string); len(required) != 1 || required[0] != "collection" {
		t.Errorf("required = %#v", def.Parameters["required"])
	}
}
