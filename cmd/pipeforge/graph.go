package main

import (
	"fmt"

	"github.com/aretw0/pipeforge/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the definition graph visualization",
	Long:  `Loads the document and outputs a Mermaid diagram (graph LR) of its executors, jobs, commands and workflows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, done, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		var overlay *graph.GraphOverlay
		if focus, _ := cmd.Flags().GetString("focus"); focus != "" {
			overlay = &graph.GraphOverlay{CurrentNode: focus}
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(ws.Document, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("focus", "", "node id to highlight, e.g. jobs/build")
}
