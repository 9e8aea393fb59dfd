package main

import (
	"github.com/spf13/cobra"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/config"
)

var (
	siteFile string
	envFile  string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kidsdev",
		Short:         "KidsDev Academy site server and static exporter",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&siteFile, "site", "", "site.yaml path (default ./site.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with local overrides")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newCheckContentCmd())

	return rootCmd
}

func loadConfig() (config.Config, error) {
	opts := []config.Option{config.WithEnvFile(envFile)}
	if siteFile != "" {
		opts = append(opts, config.WithSiteFile(siteFile))
	}
	return config.Load(opts...)
}
