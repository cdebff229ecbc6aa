package target

import (
	"github.com/spf13/cobra"

	"github.com/homefleet/fleetd/internal/cmd"
	cmdopts "github.com/homefleet/fleetd/internal/cmd/options"
)

// NewTargetCmd creates the 'target' command group.
func NewTargetCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	cobraCommand := &cobra.Command{
		Use:   "target",
		Short: "Manages watched targets.",
		Long:  "Manages the watched target entries in the fleetd configuration file.",
	}

	subCommands := []func(*cmd.BaseCmd, ...cmdopts.CmdOption) (*cobra.Command, error){
		NewAddCmd,
		NewRemoveCmd,
		NewListCmd,
	}

	for _, newCmd := range subCommands {
		subCmd, err := newCmd(baseCmd, opt...)
		if err != nil {
			return nil, err
		}
		cobraCommand.AddCommand(subCmd)
	}

	return cobraCommand, nil
}
