package cli

import (
	"encoding/json"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"mmcli/internal/mediafmt"
)

func newFormatsCmd(a *app) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "formats",
		Short: "List the supported target formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := mediafmt.All()
			if kind != "" {
				formats = mediafmt.ByKind(mediafmt.Kind(kind))
			}

			if a.jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(formats)
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Alias", "Muxer", "Kind", "Description"})
			table.SetBorder(false)
			for _, f := range formats {
				table.Append([]string{f.Alias, f.Muxer, string(f.Kind), f.Desc})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "filter by kind: video, audio, image or subtitle")
	return cmd
}
