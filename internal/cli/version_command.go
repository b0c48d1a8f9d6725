package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// version is stamped at build time via -ldflags "-X mmcli/internal/cli.version=...".
var version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the mmcli version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mmcli %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)
		},
	}
}
