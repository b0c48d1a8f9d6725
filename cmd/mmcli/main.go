package main

import (
	"errors"
	"fmt"
	"os"

	"mmcli/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		if !errors.Is(err, cli.ErrItemsFailed) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(cli.ExitCode(err))
	}
}
