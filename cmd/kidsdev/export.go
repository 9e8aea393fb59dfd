package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/export"
)

func newExportCmd() *cobra.Command {
	var (
		outDir      string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the site as static files",
		Long:  "Render every page, the curriculum levels and the markdown pages to static HTML. Search and sign-in need the server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			a, err := loadApp(ctx, cfg, logger, appOptions{})
			if err != nil {
				return err
			}
			defer a.close()
			if failed := a.report.Failed(); len(failed) > 0 {
				return fmt.Errorf("export: %d content source(s) failed to load; run check-content", len(failed))
			}

			report, err := export.Run(ctx, export.Options{
				Site:        a.site,
				Library:     a.library,
				Curriculum:  a.curriculum,
				DataFS:      a.dataFS(),
				OutDir:      outDir,
				Concurrency: concurrency,
				Logger:      logger,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d pages, %d assets and %d data files to %s\n",
				len(report.Pages), len(report.Assets), len(report.Data), outDir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "public", "output directory")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "parallel page renders (0 picks a default)")
	return cmd
}
