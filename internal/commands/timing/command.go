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

// Package timing implements "waitctl timing", which prints the
// TimingConfig the process would use: internal/waitconfig's
// WAITCORE_* environment defaults, overridden by an optional workflow
// definition's own defaults. Scheduler.Run does not read the
// environment: it layers Definition.Defaults and then RunOptions.Timing
// over DefaultTimingConfig().
package timing

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tombee/waitcore/internal/waitconfig"
	"github.com/tombee/waitcore/pkg/werrors"
	"github.com/tombee/waitcore/pkg/wfcore"
)

// NewCommand creates the timing command.
func NewCommand() *cobra.Command {
	var (
		defPath string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "timing",
		Short: "Print the resolved TimingConfig for this process",
		Long: `Timing prints a TimingConfig built from the defaults
overridden by the WAITCORE_* environment variables internal/waitconfig
reads, further layered with a workflow definition's own Defaults when
--workflow is given.

See also: waitctl dryrun`,
		Example: `  waitctl timing
  WAITCORE_TIMEOUT_MS=20000 waitctl timing --json
  waitctl timing --workflow workflow.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(defPath, jsonOut)
		},
	}

	cmd.Flags().StringVar(&defPath, "workflow", "", "Optional workflow definition whose Defaults layer on top")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	return cmd
}

func run(defPath string, jsonOut bool) error {
	cfg := waitconfig.FromEnv()

	if defPath != "" {
		data, err := os.ReadFile(defPath)
		if err != nil {
			return fail(jsonOut, "file-not-found", err.Error())
		}
		def, err := wfcore.LoadDefinitionYAML(data)
		if err != nil {
			return fail(jsonOut, "invalid-definition", err.Error())
		}
		cfg = waitconfig.Merge(cfg, def.Defaults, wfcore.TimingConfig{})
	}

	if jsonOut {
		return werrors.Emit(struct {
			werrors.Envelope
			Timing wfcore.TimingConfig `json:"timing"`
		}{
			Envelope: werrors.Envelope{Version: "1.0", Command: "timing", Success: true},
			Timing:   cfg,
		})
	}

	fmt.Printf("timeoutMs: %d\n", cfg.TimeoutMs)
	fmt.Printf("intervalMs: %d\n", cfg.IntervalMs)
	fmt.Printf("retries: %d\n", cfg.Retries)
	fmt.Printf("backoffMs: %d\n", cfg.BackoffMs)
	fmt.Printf("maxBackoffMs: %d\n", cfg.MaxBackoffMs)
	fmt.Printf("jitterMs: %d\n", cfg.JitterMs)
	return nil
}

func fail(jsonOut bool, code, msg string) error {
	if jsonOut {
		if err := werrors.EmitIssue("timing", code, msg); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(os.Stderr, msg)
	}
	return errors.New(msg)
}
