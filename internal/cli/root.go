// Package cli wires the loader subcommands onto cobra.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"csvwarehouse/internal/config"
	"csvwarehouse/internal/etlerr"
	"csvwarehouse/internal/pipeline"
	"csvwarehouse/internal/warehouse"
)

const longHelp = `loader loads CSV extracts into a warehouse table: the original extract in
full, then every incremental extract filtered against the table's timestamp
watermark, reconciling exact duplicates after each load.

Settings come from flags, then the environment (and a .env file), then
built-in defaults.

Exit Codes:
  0  - Success, every table deduplicated
  1  - General error (usage, invalid job)
  2  - Warehouse connection failed
  3  - Schema error (missing table, DDL conflict)
  4  - Data error (missing or unparseable timestamp)
  5  - Load error (batch rolled back)
  6  - Reconciliation error (loaded data stands)`

type app struct {
	settings *config.Settings
	stdout   io.Writer
	stderr   io.Writer
}

// NewRootCmd builds the command tree. getenv seeds flag defaults.
func NewRootCmd(getenv func(string) string, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:           "loader",
		Short:         "Incremental CSV to warehouse loader",
		Long:          longHelp,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.settings.Check()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	a.settings = config.BindFlags(root.PersistentFlags(), getenv)

	root.AddCommand(a.runCmd(), a.watermarkCmd(), a.dedupCmd(), a.validateCmd(), a.probeCmd(), a.versionCmd())
	return root
}

// Execute runs the command line args and returns the process exit code.
func Execute(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	root := NewRootCmd(getenv, stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return etlerr.ExitCode(err)
}

func (a *app) logger() pipeline.Logger {
	return pipeline.NewLogger(a.stderr, a.settings.Verbose)
}

func (a *app) pipelineConfig() pipeline.Config {
	return pipeline.Config{
		Warehouse: warehouse.Config{
			Driver:   a.settings.Driver,
			DSN:      a.settings.DSN,
			Attempts: a.settings.ConnectAttempts,
		},
		ProgressEvery: a.settings.ProgressEvery,
	}
}

// loadJob picks the job file when one is configured, else the built-in
// master_list job over the given extract paths.
func (a *app) loadJob(original string, incremental []string) (config.Job, error) {
	switch {
	case a.settings.JobFile != "" && (original != "" || len(incremental) > 0):
		return config.Job{}, fmt.Errorf("--original/--incremental cannot be combined with --job; list extracts in the job file")
	case a.settings.JobFile != "":
		return config.LoadJob(a.settings.JobFile)
	}
	return config.MasterList(original, incremental), nil
}
