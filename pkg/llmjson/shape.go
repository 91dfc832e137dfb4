package llmjson

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// HasArray reports whether obj has an array at path.
func HasArray(obj json.RawMessage, path string) bool {
	return gjson.GetBytes(obj, path).IsArray()
}

// HasString reports whether obj has a non-empty string at path.
func HasString(obj json.RawMessage, path string) bool {
	res := gjson.GetBytes(obj, path)
	return res.Type == gjson.String && res.Str != ""
}

// String returns the string at path, or "" when absent or not a string.
func String(obj json.RawMessage, path string) string {
	res := gjson.GetBytes(obj, path)
	if res.Type != gjson.String {
		return ""
	}
	return res.Str
}
