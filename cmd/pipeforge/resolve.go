package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <kind> <reference>",
	Short: "Print the definition a reference resolves to",
	Long: `Resolves a local name ("base") or an orb reference ("node/default") the same
way the document does and prints the definition as YAML.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		ws, done, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		node, err := ws.Registry.ResolveString(kind, args[1])
		if err != nil {
			return err
		}
		raw, err := ws.Parser().Serialize(node)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(raw)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", args[1], err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
