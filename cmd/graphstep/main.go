// graphstep runs traversal scenarios described in YAML.
//
// Usage:
//
//	graphstep run -f <scenario.yaml> [--mode standard|computer] [--workers N] [--output json|yaml]
//	graphstep version [--output text|json|yaml]
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	apperrors "github.com/kbukum/graphstep/errors"
	"github.com/kbukum/graphstep/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "graphstep",
		Short: "Run graph traversal scenarios",
		Long:  "graphstep builds a traversal from a YAML scenario and runs it\nsequentially or on the bulk-synchronous computer engine.",
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newVersionCmd())
	root.Version = version.Get().Short()
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError writes application errors as a JSON error response and anything
// else as plain text.
func printError(w io.Writer, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		fmt.Fprintln(w, err)
		return
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(appErr.ToResponse()); encErr != nil {
		fmt.Fprintln(w, err)
	}
}
