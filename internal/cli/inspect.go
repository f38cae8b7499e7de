package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"csvwarehouse/internal/pipeline"
)

func (a *app) watermarkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watermark",
		Short: "Print the current watermark of every job table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			job, err := a.loadJob("", nil)
			if err != nil {
				return err
			}
			ws, err := pipeline.Watermarks(cmd.Context(), a.pipelineConfig(), pipeline.Deps{Logger: a.logger()}, job)
			for _, w := range ws {
				if w.Err != nil {
					fmt.Fprintf(a.stdout, "%s\terror: %v\n", w.Table, w.Err)
					continue
				}
				fmt.Fprintf(a.stdout, "%s\t%s\n", w.Table, w.Watermark.Format(time.RFC3339Nano))
			}
			return err
		},
	}
}

func (a *app) dedupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dedup",
		Short: "Remove exact duplicate rows from every job table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			job, err := a.loadJob("", nil)
			if err != nil {
				return err
			}
			rs, err := pipeline.Dedup(cmd.Context(), a.pipelineConfig(), pipeline.Deps{Logger: a.logger()}, job)
			for _, r := range rs {
				if r.Err != nil {
					fmt.Fprintf(a.stdout, "%s\terror: %v\n", r.Table, r.Err)
					continue
				}
				fmt.Fprintf(a.stdout, "%s\tremoved=%d\n", r.Table, r.Removed)
			}
			return err
		},
	}
}
