package llm

// ToolDefinition defines a tool that can be offered to the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ParameterProperty defines a parameter property in JSON Schema format.
type ParameterProperty struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// NewToolDefinition creates a tool definition with standard JSON Schema parameters.
func NewToolDefinition(name, description string, properties map[string]ParameterProperty, required []string) ToolDefinition {
	props := make(map[string]any)
	for k, v := range properties {
		props[k] = map[string]any{
			"type":        v.Type,
			"description": v.Description,
		}
		if len(v.Enum) > 0 {
			props[k].(map[string]any)["enum"] = v.Enum
		}
	}

	return ToolDefinition{
		Name:        name,
		Description: description,
		Parameters: map[string]any{
			"type":       "object",
			"properties": props,
			"required":   required,
		},
	}
}

// ReduceParameterSchema strips a JSON Schema down to the keys models reliably
// honor: description, type, properties and items. Vendor extensions and
// validation keywords beyond those are dropped so the same tool catalog works
// across providers.
func ReduceParameterSchema(schema map[string]any) map[string]any {
	if schema == nil {
		return nil
	}

	reduced := make(map[string]any)
	if v, ok := schema["description"]; ok {
		reduced["description"] = v
	}
	if v, ok := schema["type"]; ok {
		reduced["type"] = v
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		reducedProps := make(map[string]any, len(props))
		for name, prop := range props {
			if propSchema, ok := prop.(map[string]any); ok {
				reducedProps[name] = ReduceParameterSchema(propSchema)
			}
		}
		reduced["properties"] = reducedProps
	}
	if items, ok := schema["items"].(map[string]any); ok {
		reduced["items"] = ReduceParameterSchema(items)
	}
	return reduced
}
