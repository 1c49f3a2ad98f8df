package wfcore

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DefinitionError is the error LoadDefinitionYAML and ValidateDefinition
// return when issues are non-empty, mirroring pkg/selector.Error's
// "collect every issue, wrap parse failures as one root issue" shape.
type DefinitionError struct {
	Issues []string
}

func (e *DefinitionError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("workflow definition invalid: %s", e.Issues[0])
	}
	return fmt.Sprintf("workflow definition invalid: %d issues, first: %s", len(e.Issues), e.Issues[0])
}

// LoadDefinitionYAML parses data as a YAML workflow definition
// (gopkg.in/yaml.v3, matching pkg/selector.LoadYAML's format) and
// validates its static structure.
func LoadDefinitionYAML(data []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, &DefinitionError{Issues: []string{"invalid YAML: " + err.Error()}}
	}
	if issues := ValidateDefinition(def); len(issues) > 0 {
		return Definition{}, &DefinitionError{Issues: issues}
	}
	return def, nil
}

// ValidateDefinition checks the static shape of def without touching any
// selector map or handler registry: every step has an ID, every atomic
// step names a handler, every if/foreach/retry step has at least one
// nested step, and step IDs are unique within their own step list.
func ValidateDefinition(def Definition) []string {
	var issues []string
	if def.ID == "" {
		issues = append(issues, "$.id: workflow id must not be empty")
	}
	if len(def.Steps) == 0 {
		issues = append(issues, "$.steps: workflow must have at least one step")
	}
	issues = append(issues, validateSteps("$.steps", def.Steps)...)
	return issues
}

func validateSteps(path string, steps []Step) []string {
	var issues []string
	seen := make(map[string]bool, len(steps))
	for i, step := range steps {
		stepPath := fmt.Sprintf("%s[%d]", path, i)
		if step.ID == "" {
			issues = append(issues, stepPath+".id: step id must not be empty")
		} else if seen[step.ID] {
			issues = append(issues, fmt.Sprintf("%s.id: duplicate step id %q", stepPath, step.ID))
		} else {
			seen[step.ID] = true
		}

		switch step.Kind {
		case KindAtomic:
			if step.Handler == "" {
				issues = append(issues, stepPath+".handler: atomic step must name a handler")
			}
		case KindIf:
			if step.When == nil {
				issues = append(issues, stepPath+".when: if step must have a condition")
			}
			if len(step.Then) == 0 {
				issues = append(issues, stepPath+".then: if step must have at least one then step")
			}
			issues = append(issues, validateSteps(stepPath+".then", step.Then)...)
			issues = append(issues, validateSteps(stepPath+".else", step.Else)...)
		case KindForeach:
			if step.List == "" {
				issues = append(issues, stepPath+".list: foreach step must name a context key")
			}
			if len(step.Steps) == 0 {
				issues = append(issues, stepPath+".steps: foreach step must have at least one nested step")
			}
			issues = append(issues, validateSteps(stepPath+".steps", step.Steps)...)
		case KindRetry:
			if len(step.Steps) == 0 {
				issues = append(issues, stepPath+".steps: retry step must have at least one nested step")
			}
			issues = append(issues, validateSteps(stepPath+".steps", step.Steps)...)
		default:
			issues = append(issues, fmt.Sprintf("%s.kind: unknown step kind %q", stepPath, step.Kind))
		}
	}
	return issues
}
