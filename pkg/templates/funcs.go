package templates

import (
	"encoding/json"
	"strings"
	"text/template"
)

var funcMap = template.FuncMap{
	"json": toJSON,
	"join": strings.Join,
}

// toJSON renders v as indented JSON for embedding data in prompts.
func toJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
