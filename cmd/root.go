package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/meghashyamc/facetsearch/config"
	"github.com/spf13/cobra"
)

var (
	envName string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "facetsearch",
	Short:         "faceted, owner-scoped search over projects",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env file is fine; the environment may already be set.
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(envName)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "config environment to load (defaults to $ENV, then local)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reindexCmd)
}
