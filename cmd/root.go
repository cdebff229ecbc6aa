package cmd

import (
	"github.com/spf13/cobra"

	"github.com/homefleet/fleetd/cmd/target"
	"github.com/homefleet/fleetd/internal/cmd"
	cmdopts "github.com/homefleet/fleetd/internal/cmd/options"
	"github.com/homefleet/fleetd/internal/flags"
)

var version = "dev" // Set at build time using -ldflags

// RootCmd should be used to represent the root 'fleetd' command.
type RootCmd struct {
	*cmd.BaseCmd
}

// Execute builds and runs the root command.
func Execute() error {
	cmd.SetVersion(version)

	baseCmd := &cmd.BaseCmd{}

	rootCmd, err := NewRootCmd(baseCmd)
	if err != nil {
		return err
	}

	return rootCmd.Execute()
}

// NewRootCmd creates a newly configured (Cobra) command.
func NewRootCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	c := &RootCmd{
		BaseCmd: baseCmd,
	}

	rootCmd := &cobra.Command{
		Use:          "fleetd <command> [args]",
		Short:        "'fleetd' watches homelab services and heals them when they fail.",
		Long:         c.longDescription(),
		SilenceUsage: true,
		Version:      version,
	}

	// Global flags
	flags.InitFlags(rootCmd.PersistentFlags())

	subCommands := []func(*cmd.BaseCmd, ...cmdopts.CmdOption) (*cobra.Command, error){
		NewInitCmd,
		NewDaemonCmd,
		NewCheckCmd,
		NewHealCmd,
		target.NewTargetCmd,
	}

	for _, newCmd := range subCommands {
		subCmd, err := newCmd(baseCmd, opt...)
		if err != nil {
			return nil, err
		}
		rootCmd.AddCommand(subCmd)
	}

	return rootCmd, nil
}

// longDescription returns the long version of the command description.
func (c *RootCmd) longDescription() string {
	return `The 'fleetd' CLI watches configured homelab services, probes their health on
a schedule, and dispatches cooldown-gated remediation actions when they fail.`
}
