package cli

import (
	"context"

	"github.com/spf13/cobra"

	"mmcli/internal/batch"
	"mmcli/internal/convert"
)

func newConvertCmd(a *app) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "convert PATH_OR_GLOB... --to FORMAT",
		Short: "Convert local media files to another container format",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := convert.New(a.cfg)
			return a.runBatch(cmd, "Converting", func(ctx context.Context, obs batch.Observer) (*batch.Report, error) {
				return c.Run(ctx, convert.Request{
					Patterns:  args,
					Format:    to,
					OutputDir: a.outputDir,
					Workers:   a.workers,
					Observer:  obs,
				})
			})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "target format alias (see 'mmcli formats')")
	_ = cmd.MarkFlagRequired("to")
	cmd.Flags().StringVar(&a.outputDir, "output-dir", "", "conversion output directory (default from config)")
	cmd.Flags().IntVar(&a.workers, "workers", 0, "concurrent conversions (default from config)")
	return cmd
}
