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

// Package dryrun implements "waitctl dryrun", which runs a workflow
// definition against an in-memory DOM fake with stub step handlers:
// real selector resolution and real control flow, fabricated step
// work. It surfaces shape problems (unresolved keys, bad conditions,
// exhausted retries) without needing a live page or LLM handlers.
package dryrun

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tombee/waitcore/internal/waitconfig"
	"github.com/tombee/waitcore/pkg/domshim/memdom"
	"github.com/tombee/waitcore/pkg/selector"
	"github.com/tombee/waitcore/pkg/werrors"
	"github.com/tombee/waitcore/pkg/wfcore"
	"github.com/tombee/waitcore/pkg/wfcore/debug"
)

// NewCommand creates the dryrun command.
func NewCommand() *cobra.Command {
	var (
		selectorsPath string
		query         string
		jsonOut       bool
	)

	cmd := &cobra.Command{
		Use:   "dryrun <workflow>",
		Short: "Run a workflow definition against an empty in-memory document",
		Long: `Dryrun loads a workflow definition, resolves every atomic step's key
against an optional selector map (or an empty one, which makes every
keyed step report a resolver miss), and drives the definition through
the scheduler with stub handlers that succeed immediately. It reports
the resulting run outcome and its telemetry trail without touching a
real page or any step's real side effects.

--query runs a jq expression against the finished run's context
snapshot, for picking a single value out of a large result.

See also: waitctl validate, waitctl timing`,
		Example: `  waitctl dryrun workflow.yaml
  waitctl dryrun workflow.yaml --selectors selectors.yaml --json
  waitctl dryrun workflow.yaml --query '.total'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], selectorsPath, query, jsonOut)
		},
	}

	cmd.Flags().StringVar(&selectorsPath, "selectors", "", "Path to a YAML selector map (default: empty map)")
	cmd.Flags().StringVar(&query, "query", "", "jq expression to run against the finished context snapshot")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	return cmd
}

func run(defPath, selectorsPath, query string, jsonOut bool) error {
	defData, err := os.ReadFile(defPath)
	if err != nil {
		return fail(jsonOut, "file-not-found", fmt.Sprintf("failed to read workflow definition: %v", err))
	}
	def, err := wfcore.LoadDefinitionYAML(defData)
	if err != nil {
		return fail(jsonOut, "invalid-definition", err.Error())
	}

	selMap := selector.SelectorMap{}
	if selectorsPath != "" {
		selData, err := os.ReadFile(selectorsPath)
		if err != nil {
			return fail(jsonOut, "file-not-found", fmt.Sprintf("failed to read selector map: %v", err))
		}
		selMap, err = selector.LoadYAML(selData)
		if err != nil {
			return fail(jsonOut, "invalid-selector-map", err.Error())
		}
	}

	doc := memdom.NewDocument()
	resolver := selector.NewResolver(nil)
	handlers := stubRegistry(def.Steps)
	sched := wfcore.NewScheduler(doc, selMap, resolver, handlers)

	timing := waitconfig.Merge(wfcore.DefaultTimingConfig(), def.Defaults, wfcore.TimingConfig{})
	outcome, runErr := sched.Run(context.Background(), def, wfcore.RunOptions{Timing: timing})

	var queryResult any
	if query != "" {
		q := debug.NewQuerier(0)
		res, qErr := q.QueryContext(context.Background(), outcome.ContextSnapshot, query)
		if qErr != nil {
			return fail(jsonOut, "invalid-query", qErr.Error())
		}
		queryResult = res
	}

	if jsonOut {
		return werrors.Emit(struct {
			werrors.Envelope
			Outcome wfcore.Outcome `json:"outcome"`
			Query   any            `json:"query,omitempty"`
		}{
			Envelope: werrors.Envelope{Version: "1.0", Command: "dryrun", Success: runErr == nil},
			Outcome:  outcome,
			Query:    queryResult,
		})
	}

	fmt.Printf("%s: status=%s\n", defPath, outcome.Status)
	if query != "" {
		fmt.Printf("  query result: %v\n", queryResult)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "  error: %v\n", runErr)
		return runErr
	}
	return nil
}

// stubRegistry builds a handler for every distinct handler name
// referenced anywhere in steps (recursively). Each stub succeeds
// immediately, so a dryrun exercises control flow and key resolution
// without any handler's real side effects.
func stubRegistry(steps []wfcore.Step) wfcore.MapRegistry {
	reg := wfcore.MapRegistry{}
	collectHandlerNames(steps, reg)
	return reg
}

func collectHandlerNames(steps []wfcore.Step, reg wfcore.MapRegistry) {
	for _, step := range steps {
		switch step.Kind {
		case wfcore.KindAtomic:
			if step.Handler != "" {
				reg[step.Handler] = stubHandler
			}
		case wfcore.KindIf:
			collectHandlerNames(step.Then, reg)
			collectHandlerNames(step.Else, reg)
		case wfcore.KindForeach, wfcore.KindRetry:
			collectHandlerNames(step.Steps, reg)
		}
	}
}

func stubHandler(ctx context.Context, in wfcore.HandlerInput) (wfcore.StepResult, error) {
	return wfcore.StepResult{}, nil
}

func fail(jsonOut bool, code, msg string) error {
	if jsonOut {
		if err := werrors.EmitIssue("dryrun", code, msg); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(os.Stderr, msg)
	}
	return fmt.Errorf("%s", msg)
}
