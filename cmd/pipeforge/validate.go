package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/pipeforge/pkg/schema"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the document for consistency",
	Long: `Loads the document, which resolves every reference, then checks the
arguments passed to executors, staged jobs and commands against their
declared parameters.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, done, err := openWorkspace(cmd.Context())
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		defer done()

		out := cmd.OutOrStdout()
		if err := schema.Check(ws.Document, ws.Registry); err != nil {
			var joined interface{ Unwrap() []error }
			if errors.As(err, &joined) {
				for _, e := range joined.Unwrap() {
					fmt.Fprintf(out, "- %v\n", e)
				}
			}
			return errors.New("validation failed")
		}
		fmt.Fprintln(out, "Document is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
