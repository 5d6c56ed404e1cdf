package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/pipeforge/internal/compiler"
	"github.com/spf13/cobra"
)

var errNoCatalog = errors.New("no orb catalog configured (set --orbs-dir or --redis-addr)")

var orbsCmd = &cobra.Command{
	Use:   "orbs",
	Short: "Manage the orb catalog",
	Long:  `List, show and publish orb manifests in the catalog selected by --orbs-dir or --redis-addr.`,
}

var orbsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the namespaces the catalog serves",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, done, err := requireCatalog()
		if err != nil {
			return err
		}
		defer done()

		namespaces, err := c.List(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(namespaces) == 0 {
			fmt.Fprintln(out, "No orbs published.")
			return nil
		}
		for _, ns := range namespaces {
			fmt.Fprintln(out, ns)
		}
		return nil
	},
}

var orbsShowCmd = &cobra.Command{
	Use:   "show <namespace>",
	Short: "Print the manifest of an orb",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, done, err := requireCatalog()
		if err != nil {
			return err
		}
		defer done()

		orb, err := c.Fetch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		data, err := compiler.NewParser(compiler.WithLogger(logger)).EncodeOrb(orb)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var orbsPublishCmd = &cobra.Command{
	Use:   "publish <namespace> <manifest>",
	Short: "Validate an orb manifest and publish it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("failed to read manifest: %w", err)
		}
		orb, err := compiler.NewParser(compiler.WithLogger(logger)).DecodeOrb(args[0], data)
		if err != nil {
			return err
		}

		c, done, err := requireCatalog()
		if err != nil {
			return err
		}
		defer done()

		if err := c.Publish(cmd.Context(), orb); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "published %s (%d executors, %d jobs, %d commands)\n",
			orb.Namespace, len(orb.Executors), len(orb.Jobs), len(orb.Commands))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(orbsCmd)
	orbsCmd.AddCommand(orbsLsCmd, orbsShowCmd, orbsPublishCmd)
}

func requireCatalog() (catalog, func(), error) {
	c, done, err := openCatalog()
	if err != nil {
		return nil, nil, err
	}
	if c == nil {
		return nil, nil, errNoCatalog
	}
	return c, done, nil
}
