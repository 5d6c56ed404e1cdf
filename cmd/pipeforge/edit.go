package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/pipeforge"
	"github.com/aretw0/pipeforge/internal/presentation/tui"
	"github.com/aretw0/pipeforge/pkg/form"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var editCmd = &cobra.Command{
	Use:   "edit <kind> <name>",
	Short: "Change fields of a definition and save the document",
	Long: `Opens the definition, applies --set and --unset, validates and saves it.
Values are parsed as YAML scalars, so --set parallelism=4 stores a number.`,
	Example: `  pipeforge edit jobs build --set name=build-linux
  pipeforge edit commands greet --unset description`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		sets, _ := cmd.Flags().GetStringArray("set")
		unsets, _ := cmd.Flags().GetStringArray("unset")
		changes, err := parseEdits(sets, unsets)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		ws, done, err := openWorkspace(ctx)
		if err != nil {
			return err
		}
		defer done()

		es := ws.Session()
		defer es.Close(ctx)
		if err := es.EditDefinition(ctx, kind, args[1]); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, tui.Breadcrumbs(termenv.NewOutput(out), es.Breadcrumbs()))

		if err := es.Update(changes); err != nil {
			return err
		}
		node, err := es.Submit(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "saved %s %q\n", kind.Noun(), node.NodeName())
		return persist(cmd, ws)
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringArray("set", nil, "key=value to assign (repeatable)")
	editCmd.Flags().StringArray("unset", nil, "key to clear (repeatable)")
	editCmd.Flags().Bool("dry-run", false, "print the resulting document instead of writing it")
}

// parseEdits turns --set and --unset flags into an edit map.
func parseEdits(sets, unsets []string) (map[string]any, error) {
	out := make(map[string]any, len(sets)+len(unsets))
	for _, s := range sets {
		key, raw, ok := strings.Cut(s, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, want key=value", s)
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil || v == nil {
			v = raw
		}
		out[key] = v
	}
	for _, key := range unsets {
		out[key] = form.Unset
	}
	return out, nil
}

// persist saves the workspace, or prints it when --dry-run is set.
func persist(cmd *cobra.Command, ws *pipeforge.Workspace) error {
	if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
		data, err := ws.Encode()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	return ws.Save()
}
