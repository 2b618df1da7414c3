package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := ctx.apiAddress()
			if err != nil {
				return err
			}
			client := newDaemonClient(address)
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, renderStateLine("Daemon", status.Running, colorize))
			fmt.Fprintf(out, "  %-14s %d\n", "PID:", status.PID)
			fmt.Fprintf(out, "  %-14s %s\n", "Store dir:", status.StoreDir)
			fmt.Fprintf(out, "  %-14s %s\n", "Lock file:", status.LockFilePath)
			fmt.Fprintf(out, "  %-14s %d\n", "Sessions:", status.Sessions)
			return nil
		},
	}
}

func renderStateLine(label string, healthy bool, colorize bool) string {
	state := "STOPPED"
	color := ansiRed
	if healthy {
		state = "RUNNING"
		color = ansiGreen
	}
	line := fmt.Sprintf("%s: %s", label, state)
	if colorize {
		return color + line + ansiReset
	}
	return line
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
