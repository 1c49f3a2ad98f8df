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

package dryrun

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tombee/waitcore/pkg/wfcore"
)

func TestNewCommand_UseAndFlags(t *testing.T) {
	cmd := NewCommand()
	if cmd.Use != "dryrun <workflow>" {
		t.Errorf("expected use 'dryrun <workflow>', got %q", cmd.Use)
	}
	if cmd.Flags().Lookup("selectors") == nil {
		t.Error("--selectors flag not defined")
	}
}

func TestRun_SucceedsWithoutSelectorlessKeylessDefinition(t *testing.T) {
	path := writeTempDef(t, `
id: no-keys
steps:
  - id: first
    kind: atomic
    handler: noop
`)
	if err := run(path, "", "", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRun_QueryFlagExtractsContextValue(t *testing.T) {
	path := writeTempDef(t, `
id: no-keys
steps:
  - id: first
    kind: atomic
    handler: noop
`)
	if err := run(path, "", ".", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRun_InvalidQueryReportsError(t *testing.T) {
	path := writeTempDef(t, `
id: no-keys
steps:
  - id: first
    kind: atomic
    handler: noop
`)
	if err := run(path, "", ".[", false); err == nil {
		t.Fatal("expected an error for an invalid jq expression")
	}
}

func TestRun_ExhaustedResolverMissReportsRunError(t *testing.T) {
	path := writeTempDef(t, `
id: missing-key
steps:
  - id: click-something
    kind: atomic
    handler: click
    key: does-not-exist
`)
	if err := run(path, "", "", false); err == nil {
		t.Fatal("expected an error for an unresolvable selector key")
	}
}

func TestCollectHandlerNames_WalksNestedControlFlow(t *testing.T) {
	steps := []wfcore.Step{
		{
			ID:   "cond",
			Kind: wfcore.KindIf,
			When: &wfcore.Condition{Kind: wfcore.CondCtxDefined, Key: "x"},
			Then: []wfcore.Step{{ID: "a", Kind: wfcore.KindAtomic, Handler: "handlerA"}},
			Else: []wfcore.Step{{ID: "b", Kind: wfcore.KindAtomic, Handler: "handlerB"}},
		},
		{
			ID:    "loop",
			Kind:  wfcore.KindForeach,
			List:  "items",
			Steps: []wfcore.Step{{ID: "c", Kind: wfcore.KindAtomic, Handler: "handlerC"}},
		},
	}
	reg := stubRegistry(steps)
	for _, name := range []string{"handlerA", "handlerB", "handlerC"} {
		if _, ok := reg.Lookup(name); !ok {
			t.Errorf("expected handler %q to be registered", name)
		}
	}
}

func writeTempDef(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workflow.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}
