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

package validate

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewCommand_UseAndFlags(t *testing.T) {
	cmd := NewCommand()
	if cmd.Use != "validate <selector-map>" {
		t.Errorf("expected use 'validate <selector-map>', got %q", cmd.Use)
	}
	if cmd.Flags().Lookup("json") == nil {
		t.Error("--json flag not defined")
	}
	if cmd.Flags().Lookup("glob") == nil {
		t.Error("--glob flag not defined")
	}
}

func TestRunValidate_ValidYAMLMapSucceeds(t *testing.T) {
	path := writeTempMap(t, `
submit-button:
  tries:
    - type: id
      id: submit
`)
	if err := runValidate(path, false, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunValidate_InvalidMapReportsIssues(t *testing.T) {
	path := writeTempMap(t, `
submit-button:
  tries: []
`)
	if err := runValidate(path, false, false); err == nil {
		t.Fatal("expected an error for an empty tries list")
	}
}

func TestRunValidate_MissingFileReportsError(t *testing.T) {
	if err := runValidate(filepath.Join(t.TempDir(), "missing.yaml"), false, false); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestRunValidate_GlobModeMergesMatchedFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(`
submit-button:
  tries:
    - type: id
      id: submit
`), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(`
dashboard-heading:
  tries:
    - type: css
      css: h1
`), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	defer os.Chdir(cwd)
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}

	if err := runValidate("*.yaml", true, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func writeTempMap(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}
