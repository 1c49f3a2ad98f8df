package selector

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// LoadJSON parses data as the JSON selector-map format spec.md §6
// documents and validates it. A parse failure is wrapped as a single
// root-level issue, per spec.md §4.1 ("parsing wraps parse failures as a
// single root-level issue").
func LoadJSON(data []byte) (SelectorMap, error) {
	var m SelectorMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &Error{Issues: []Issue{{Path: "$", Message: "invalid JSON: " + err.Error()}}}
	}
	if err := MustBeValid(Validate(m)); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadYAML parses data as a YAML selector map (gopkg.in/yaml.v3, matching
// the rest of this module's configuration format) and validates it.
func LoadYAML(data []byte) (SelectorMap, error) {
	var m SelectorMap
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &Error{Issues: []Issue{{Path: "$", Message: "invalid YAML: " + err.Error()}}}
	}
	if err := MustBeValid(Validate(m)); err != nil {
		return nil, err
	}
	return m, nil
}
