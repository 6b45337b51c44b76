package llm

// BuildItemsArraySchema returns the structural constraint we hold model replies
// to: a JSON array of objects whose values are strings, numbers, booleans or
// null. Business fields are deliberately unconstrained; rate sheets have no
// fixed schema.
func BuildItemsArraySchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"additionalProperties": map[string]any{
				"type": []string{"string", "number", "boolean", "null"},
			},
		},
	}
}
