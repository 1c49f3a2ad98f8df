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

// Command waitctl is a small demo/debug CLI over pkg/wfcore and
// pkg/selector: validating a selector map, dry-running a workflow
// definition against an in-memory document, and printing the
// TimingConfig resolved from the environment. It is ambient tooling around the
// library, not a daemon or a controller.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tombee/waitcore/internal/commands/dryrun"
	"github.com/tombee/waitcore/internal/commands/timing"
	"github.com/tombee/waitcore/internal/commands/validate"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "waitctl",
		Short: "waitctl - selector map and workflow definition debug CLI",
		Long: `waitctl is a small companion CLI for the waitcore library: it
validates selector maps, dry-runs workflow definitions against an
in-memory document, and prints resolved timing configuration. It does
not execute real page automation; pkg/wfcore and pkg/selector are
meant to be embedded in a host application that owns the real
document.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
	}

	rootCmd.AddCommand(validate.NewCommand())
	rootCmd.AddCommand(dryrun.NewCommand())
	rootCmd.AddCommand(timing.NewCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
