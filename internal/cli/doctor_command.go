package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"mmcli/internal/fsio"
	"mmcli/internal/ytdl"
)

type doctorReport struct {
	Dependencies ytdl.DependencyReport `json:"dependencies"`
	OutputDirOK  bool                  `json:"output_dir_ok"`
	OutputDir    string                `json:"output_dir"`
}

func newDoctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external dependencies and the configured output directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report := doctorReport{
				Dependencies: ytdl.DependencyStatus(),
				OutputDir:    a.cfg.Downloads.OutputDir,
			}
			report.OutputDirOK = fsio.Mkdir(report.OutputDir) == nil

			if a.jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "yt-dlp:     %s\n", checkmark(report.Dependencies.YTDLPFound, report.Dependencies.YTDLPPath))
				fmt.Fprintf(out, "ffmpeg:     %s\n", checkmark(report.Dependencies.FFmpegFound, report.Dependencies.FFmpegPath))
				fmt.Fprintf(out, "output dir: %s\n", checkmark(report.OutputDirOK, report.OutputDir))
			}

			if !report.Dependencies.YTDLPFound || !report.Dependencies.FFmpegFound || !report.OutputDirOK {
				return fmt.Errorf("environment is not ready")
			}
			return nil
		},
	}
}

func checkmark(ok bool, detail string) string {
	if ok {
		return "ok (" + detail + ")"
	}
	return "missing"
}
