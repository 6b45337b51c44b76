package llm

import "testing"

func TestValidateItemsArrayShape(t *testing.T) {
	schema := BuildItemsArraySchema()

	cases := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"flat objects", `[{"product_name":"Widget","price":10,"mrp":null,"in_stock":true}]`, false},
		{"empty array", `[]`, false},
		{"top-level object", `{"items":[]}`, true},
		{"non-object element", `[1]`, true},
		{"nested object value", `[{"a":{"b":1}}]`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateJSONAgainstSchema(schema, []byte(tc.data))
			if tc.wantErr && err == nil {
				t.Fatal("expect validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}
