package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"mmcli/internal/batch"
	"mmcli/internal/fsio"
	"mmcli/internal/tui"
)

// runBatch handles everything around one batch invocation: interrupt wiring,
// observer selection, report rendering, artifact writing and the failed-items
// exit signal.
func (a *app) runBatch(cmd *cobra.Command, title string, run func(ctx context.Context, obs batch.Observer) (*batch.Report, error)) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var obs batch.Observer
	var dash *tui.Dashboard
	switch {
	case a.jsonOut:
		// keep stdout clean for the JSON document
		obs = batch.NopObserver{}
	case a.progress:
		dash = tui.NewDashboard(title)
		dash.Start()
		obs = dash
	default:
		obs = tui.NewPrinter(cmd.OutOrStdout(), a.cfg.General.Verbose)
	}

	report, err := run(ctx, obs)
	if dash != nil {
		if err != nil {
			dash.Quit()
		} else if werr := dash.Wait(); werr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "dashboard error: %v\n", werr)
		}
	}
	if err != nil {
		return err
	}

	if err := a.renderReport(cmd, report); err != nil {
		return err
	}
	if a.reportPath != "" {
		if err := fsio.WriteJSON(a.reportPath, report); err != nil {
			return err
		}
	}
	if report.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrItemsFailed, report.Failed, report.Total)
	}
	return nil
}

func (a *app) renderReport(cmd *cobra.Command, report *batch.Report) error {
	if a.jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	// the dashboard and printer already narrated per-item progress; the
	// table recaps failures so they survive scrollback
	if report.Failed == 0 && report.Skipped == 0 {
		return nil
	}
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Item", "Status", "Error", "Detail"})
	table.SetBorder(false)
	for _, out := range report.Outcomes {
		if out.Status == batch.StatusSuccess {
			continue
		}
		table.Append([]string{
			fmt.Sprintf("%d", out.ItemID),
			string(out.Status),
			string(out.ErrKind),
			out.ErrMessage,
		})
	}
	table.Render()
	return nil
}
