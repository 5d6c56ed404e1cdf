package main

import (
	"fmt"
	"os"

	"github.com/aretw0/pipeforge/internal/config"
	"github.com/aretw0/pipeforge/internal/logging"
	"github.com/aretw0/pipeforge/internal/presentation/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     config.Config
	logger  = logging.NewNop()
)

// Flags bound to configuration keys.
var flagKeys = map[string]string{
	"file":       "document",
	"log-level":  "log_level",
	"log-format": "log_format",
	"orbs-dir":   "orbs.dir",
	"redis-addr": "orbs.redis_addr",
}

var rootCmd = &cobra.Command{
	Use:   "pipeforge",
	Short: "pipeforge edits CI pipeline configuration documents",
	Long: `pipeforge loads a pipeline configuration, resolves its reusable executors,
jobs and commands (including those imported from orbs) and edits them safely.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	Run: func(cmd *cobra.Command, args []string) {
		tui.PrintBanner(cmd.OutOrStdout())
		_ = cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: ./"+config.DefaultFile+" if present)")
	flags.StringP("file", "f", config.Defaults().Document, "pipeline document to operate on")
	flags.String("log-level", config.Defaults().LogLevel, "log level (debug, info, warn, error)")
	flags.String("log-format", config.Defaults().LogFormat, "log format (text, json)")
	flags.String("orbs-dir", "", "directory holding orb manifests")
	flags.String("redis-addr", "", "redis address of the shared orb catalog")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	v := viper.New()
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}
	c, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = c
	logger = logging.New(logging.ParseLevel(cfg.LogLevel),
		logging.WithWriter(cmd.ErrOrStderr()),
		logging.WithFormat(logging.Format(cfg.LogFormat)))
	return nil
}
