package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"restaurant-api/internal/config"
	"restaurant-api/internal/env"
)

const serviceName = "restaurant-api"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Pickup order API for the restaurant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "optional YAML config file")

	load := func() (config.Config, error) {
		if err := env.Load(".env", ".env.local"); err != nil {
			return config.Config{}, fmt.Errorf("load .env: %w", err)
		}
		return config.Load(cfgPath)
	}
	root.AddCommand(newServeCmd(load), newMigrateCmd(load), newTokenCmd(load))
	return root
}
