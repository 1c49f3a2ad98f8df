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

// Package validate implements "waitctl validate", which checks a
// selector map file's YAML/JSON syntax and structural invariants.
// Validation never touches a document; it only checks the map's shape.
package validate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/waitcore/pkg/selector"
	"github.com/tombee/waitcore/pkg/werrors"
)

// NewCommand creates the validate command.
func NewCommand() *cobra.Command {
	var (
		jsonOut bool
		glob    bool
	)

	cmd := &cobra.Command{
		Use:   "validate <selector-map>",
		Short: "Validate a selector map's syntax and structural invariants",
		Long: `Validate parses a selector map file (YAML or JSON, detected by
extension) and reports every structural issue at once: empty tries
lists, a scopeKey referencing its own key, and fallback tries listed
out of canonical priority order (role < name < label < testId < text
< dataAttr < id < css < xpath).

With --glob, <selector-map> is a doublestar pattern (relative to the
working directory) matching several YAML files to merge into one map;
a key defined in more than one matched file is an error.

See also: waitctl dryrun`,
		Example: `  waitctl validate selectors.yaml
  waitctl validate selectors.json --json
  waitctl validate 'selectors/**/*.yaml' --glob`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args[0], glob, jsonOut)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	cmd.Flags().BoolVar(&glob, "glob", false, "Treat <selector-map> as a doublestar glob over several YAML files")
	return cmd
}

func runValidate(path string, glob, jsonOut bool) error {
	var (
		m   selector.SelectorMap
		err error
	)

	if glob {
		m, err = selector.LoadMapGlob(os.DirFS("."), path)
	} else {
		var data []byte
		data, err = os.ReadFile(path)
		if err != nil {
			return emitError(jsonOut, "file-not-found", fmt.Sprintf("failed to read selector map: %v", err))
		}
		if strings.EqualFold(filepath.Ext(path), ".json") {
			m, err = selector.LoadJSON(data)
		} else {
			m, err = selector.LoadYAML(data)
		}
	}

	if err != nil {
		if selErr, ok := err.(*selector.Error); ok {
			return emitIssues(jsonOut, path, selErr.Issues)
		}
		return emitError(jsonOut, "invalid-selector-map", err.Error())
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	if jsonOut {
		return werrors.Emit(struct {
			werrors.Envelope
			Keys []string `json:"keys"`
		}{
			Envelope: werrors.Envelope{Version: "1.0", Command: "validate", Success: true},
			Keys:     keys,
		})
	}
	fmt.Printf("%s: valid, %d key(s)\n", path, len(m))
	return nil
}

func emitIssues(jsonOut bool, path string, issues []selector.Issue) error {
	if jsonOut {
		jsonIssues := make([]werrors.Issue, 0, len(issues))
		for _, iss := range issues {
			jsonIssues = append(jsonIssues, werrors.Issue{Code: "invalid-selector-map", Message: iss.Error()})
		}
		if err := werrors.EmitIssues("validate", jsonIssues); err != nil {
			return err
		}
		return fmt.Errorf("%s: %d issue(s)", path, len(issues))
	}
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", path, iss.Path, iss.Message)
	}
	return fmt.Errorf("%s: %d issue(s)", path, len(issues))
}

func emitError(jsonOut bool, code, msg string) error {
	if jsonOut {
		if err := werrors.EmitIssue("validate", code, msg); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(os.Stderr, msg)
	}
	return fmt.Errorf("%s", msg)
}
