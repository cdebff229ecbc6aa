package target

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/homefleet/fleetd/internal/cmd"
	cmdopts "github.com/homefleet/fleetd/internal/cmd/options"
	"github.com/homefleet/fleetd/internal/config"
	"github.com/homefleet/fleetd/internal/flags"
)

// ListCmd should be used to represent the 'target list' command.
type ListCmd struct {
	*cmd.BaseCmd
	cfgLoader config.Loader
}

// NewListCmd creates a newly configured (Cobra) command.
func NewListCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &ListCmd{
		BaseCmd:   baseCmd,
		cfgLoader: opts.ConfigLoader,
	}

	cobraCommand := &cobra.Command{
		Use:   "list",
		Short: "Lists the watched targets in the project.",
		RunE:  c.run,
	}

	return cobraCommand, nil
}

// run is configured (via NewListCmd) to be called by the Cobra framework when the command is executed.
// It may return an error (or nil, when there is no error).
func (c *ListCmd) run(cobraCmd *cobra.Command, _ []string) error {
	cfg, err := c.cfgLoader.Load(flags.ConfigFile)
	if err != nil {
		return err
	}

	entries := cfg.ListTargets()
	if len(entries) == 0 {
		_, err := fmt.Fprintln(cobraCmd.OutOrStdout(), "No watched targets configured.")
		return err
	}

	slices.SortFunc(entries, func(a, b config.TargetEntry) int {
		return strings.Compare(a.Name, b.Name)
	})

	for _, entry := range entries {
		line := fmt.Sprintf("%s (%s)", entry.Name, entry.Probe)
		if entry.Address != "" {
			line += fmt.Sprintf(" %s", entry.Address)
		}
		line += fmt.Sprintf(" interval=%s cooldown=%s", entry.ProbeInterval(), entry.Cooldown.Std())

		if _, err := fmt.Fprintln(cobraCmd.OutOrStdout(), line); err != nil {
			return err
		}
	}

	return nil
}
