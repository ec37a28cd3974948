package store

import "encoding/json"

// marshalStrings converts []string to JSON text for storage.
func marshalStrings(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(values)
	return string(b)
}

// unmarshalStrings converts JSON text back to []string.
func unmarshalStrings(s string) []string {
	if s == "" || s == "null" || s == "[]" {
		return nil
	}
	var values []string
	_ = json.Unmarshal([]byte(s), &values)
	return values
}
