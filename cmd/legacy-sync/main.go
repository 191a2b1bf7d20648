// Command legacy-sync imports legacy MRS requests into the workflow store.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/garyjia/workflow-reconciler/internal/application/reconcile"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

type globalOptions struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	var opts globalOptions

	root := &cobra.Command{
		Use:           "legacy-sync",
		Short:         "Reconcile legacy material requests into the workflow store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file (default: environment only)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Optional KEY=VALUE file loaded before the config")

	root.AddCommand(newRunCmd(&opts))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "legacy-sync:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var usage *usageError
	if errors.As(err, &usage) || errors.Is(err, reconcile.ErrInvalidInput) {
		return exitUsage
	}
	return exitFailure
}

type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }
