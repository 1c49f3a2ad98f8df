package wfcore

import "testing"

const validDefYAML = `
id: login-flow
label: Login flow
steps:
  - id: click-submit
    kind: atomic
    handler: click
    key: submit-button
  - id: maybe-retry
    kind: retry
    steps:
      - id: wait-for-dashboard
        kind: atomic
        handler: waitFor
        key: dashboard-heading
`

func TestLoadDefinitionYAML_ValidDocumentParses(t *testing.T) {
	def, err := LoadDefinitionYAML([]byte(validDefYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def.ID != "login-flow" {
		t.Fatalf("expected id login-flow, got %q", def.ID)
	}
	if len(def.Steps) != 2 {
		t.Fatalf("expected 2 top-level steps, got %d", len(def.Steps))
	}
	if def.Steps[1].Kind != KindRetry || len(def.Steps[1].Steps) != 1 {
		t.Fatalf("expected nested retry step, got %+v", def.Steps[1])
	}
}

func TestLoadDefinitionYAML_InvalidYAMLReportsParseIssue(t *testing.T) {
	_, err := LoadDefinitionYAML([]byte("id: [this is not"))
	if err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}

func TestValidateDefinition_MissingHandlerAndEmptyStepsReported(t *testing.T) {
	def := Definition{
		ID: "broken",
		Steps: []Step{
			{ID: "no-handler", Kind: KindAtomic},
			{ID: "empty-if", Kind: KindIf},
			{ID: "", Kind: KindForeach, List: "items"},
		},
	}
	issues := ValidateDefinition(def)
	if len(issues) < 4 {
		t.Fatalf("expected at least 4 issues, got %d: %v", len(issues), issues)
	}
}

func TestValidateDefinition_DuplicateStepIDsReported(t *testing.T) {
	def := Definition{
		ID: "dup",
		Steps: []Step{
			{ID: "a", Kind: KindAtomic, Handler: "click"},
			{ID: "a", Kind: KindAtomic, Handler: "click"},
		},
	}
	issues := ValidateDefinition(def)
	found := false
	for _, i := range issues {
		if i == `$.steps[1].id: duplicate step id "a"` {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected duplicate id issue, got %v", issues)
	}
}
