// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package timing

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewCommand_UseAndFlags(t *testing.T) {
	cmd := NewCommand()
	if cmd.Use != "timing" {
		t.Errorf("expected use 'timing', got %q", cmd.Use)
	}
	if cmd.Flags().Lookup("workflow") == nil {
		t.Error("--workflow flag not defined")
	}
}

func TestRun_DefaultsWithoutWorkflow(t *testing.T) {
	os.Unsetenv("WAITCORE_TIMEOUT_MS")
	if err := run("", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRun_LayersWorkflowDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workflow.yaml")
	contents := `
id: custom-timing
steps:
  - id: one
    kind: atomic
    handler: noop
defaults:
  timeoutMs: 30000
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	if err := run(path, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRun_MissingWorkflowReportsError(t *testing.T) {
	if err := run(filepath.Join(t.TempDir(), "missing.yaml"), false); err == nil {
		t.Fatal("expected an error for a missing workflow file")
	}
}
