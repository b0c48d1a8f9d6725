// Package cli wires the command surface: download, convert, formats, doctor
// and version, all sharing one loaded configuration.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mmcli/internal/batch"
	"mmcli/internal/config"
)

// ErrItemsFailed marks a batch that finished with at least one failed item.
// The process exits non-zero without treating the run as a crash.
var ErrItemsFailed = errors.New("some items failed")

// app carries the loaded configuration and the flags shared by every
// subcommand.
type app struct {
	configPath string
	jsonOut    bool
	reportPath string
	progress   bool
	outputDir  string
	workers    int

	cfg config.Config
}

// Run executes the CLI against args and returns the first error. The caller
// maps it to an exit status with ExitCode.
func Run(args []string) error {
	root := NewRootCmd()
	root.SetArgs(args)
	return root.Execute()
}

// ExitCode maps a CLI error to a process exit status: 0 for success, 2 for
// validation errors that rejected the invocation before any work ran, 1 for
// everything else including batches with failed items.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case batch.IsValidation(err):
		return 2
	default:
		return 1
	}
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "mmcli",
		Short:         "Download YouTube media and convert local files in batches",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			a.cfg = cfg
			if !cmd.Flags().Changed("progress") {
				a.progress = cfg.General.ProgressBar
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "path to a config file (default: search ./mmcli.* and ~/.config/mmcli)")
	pf.BoolVar(&a.jsonOut, "json", false, "emit the batch report as JSON on stdout")
	pf.StringVar(&a.reportPath, "report-json", "", "also write the batch report to this file")
	pf.BoolVar(&a.progress, "progress", true, "show the live progress dashboard")

	root.AddCommand(
		newDownloadCmd(a),
		newConvertCmd(a),
		newFormatsCmd(a),
		newDoctorCmd(a),
		newVersionCmd(),
	)
	return root
}
