package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCheckContentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-content",
		Short: "Load every content source and report problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := loadApp(cmd.Context(), cfg, zap.NewNop(), appOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SOURCE\tITEMS\tSKIPPED\tERROR")
			for _, src := range a.report.Sources {
				msg := "-"
				if src.Err != nil {
					msg = src.Err.Error()
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", src.Source, src.Items, src.Skipped, msg)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\npages: %d, curriculum levels: %d\n", len(a.library.Slugs()), len(a.curriculum.Levels()))

			if failed := a.report.Failed(); len(failed) > 0 {
				return fmt.Errorf("%d content source(s) failed", len(failed))
			}
			return nil
		},
	}
}
