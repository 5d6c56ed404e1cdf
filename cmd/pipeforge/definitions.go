package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/pipeforge/internal/presentation/tui"
	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/spf13/cobra"
)

var definitionsCmd = &cobra.Command{
	Use:     "definitions [kind]",
	Aliases: []string{"defs", "ls"},
	Short:   "List the definitions a document can reference",
	Long: `Without --plain, renders a summary of the document. With --plain, prints every
selectable reference per kind: local definitions first, then orb entities as
namespace/name.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds := domain.DefinitionKinds
		if len(args) == 1 {
			k, err := parseKind(args[0])
			if err != nil {
				return err
			}
			kinds = []domain.Kind{k}
		}

		ws, done, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		out := cmd.OutOrStdout()
		if plain, _ := cmd.Flags().GetBool("plain"); plain {
			for _, k := range kinds {
				for _, o := range ws.Registry.Options(k) {
					fmt.Fprintf(out, "%s\t%s\n", k, o.Value)
				}
			}
			return nil
		}

		rendered, err := tui.NewRenderer()(tui.Summary(ws.Document))
		if err != nil {
			return err
		}
		fmt.Fprintln(out, strings.TrimSpace(rendered))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(definitionsCmd)
	definitionsCmd.Flags().Bool("plain", false, "print one reference per line")
}
