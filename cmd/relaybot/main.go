package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/relaybot/cmd/relaybot/internal"
	"github.com/tinyland-inc/relaybot/cmd/relaybot/internal/run"
	"github.com/tinyland-inc/relaybot/cmd/relaybot/internal/version"
)

func NewRelaybotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "relaybot",
		Short:   "relaybot " + internal.GetVersion() + " - forwards messages between Discord channels",
		Example: "relaybot run",
	}

	cmd.AddCommand(
		run.NewRunCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewRelaybotCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
