package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/homefleet/fleetd/internal/cmd"
	cmdopts "github.com/homefleet/fleetd/internal/cmd/options"
	"github.com/homefleet/fleetd/internal/config"
	"github.com/homefleet/fleetd/internal/domain"
	"github.com/homefleet/fleetd/internal/flags"
	"github.com/homefleet/fleetd/internal/probe"
)

// CheckCmd should be used to represent the 'check' command.
type CheckCmd struct {
	*cmd.BaseCmd
	cfgLoader config.Loader
}

// NewCheckCmd creates a newly configured (Cobra) command.
func NewCheckCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &CheckCmd{
		BaseCmd:   baseCmd,
		cfgLoader: opts.ConfigLoader,
	}

	cobraCommand := &cobra.Command{
		Use:   "check [target-name]",
		Short: "Probes a watched target once and prints the result",
		Long: "Probes a watched target once and prints the result. " +
			"When no target name is given, all configured targets are probed.",
		RunE: c.run,
	}

	return cobraCommand, nil
}

// run is configured (via NewCheckCmd) to be called by the Cobra framework when the command is executed.
// It may return an error (or nil, when there is no error).
func (c *CheckCmd) run(cobraCmd *cobra.Command, args []string) error {
	cfg, err := c.cfgLoader.Load(flags.ConfigFile)
	if err != nil {
		return err
	}

	entries := cfg.ListTargets()
	if len(args) > 0 {
		name := strings.TrimSpace(args[0])
		entry, ok := cfg.Target(name)
		if !ok {
			return fmt.Errorf("target '%s' not found in config", name)
		}
		entries = []config.TargetEntry{entry}
	}

	if len(entries) == 0 {
		return fmt.Errorf("no watched targets configured")
	}

	slices.SortFunc(entries, func(a, b config.TargetEntry) int {
		return strings.Compare(a.Name, b.Name)
	})

	unhealthy := 0
	for _, entry := range entries {
		prober, err := probe.New(entry)
		if err != nil {
			return err
		}

		res := prober.Check(cobraCmd.Context())
		if res.Unhealthy() {
			unhealthy++
		}

		if _, err := fmt.Fprintln(cobraCmd.OutOrStdout(), formatProbeResult(entry.Name, res)); err != nil {
			return err
		}
	}

	if unhealthy > 0 {
		return fmt.Errorf("%d of %d targets unhealthy", unhealthy, len(entries))
	}

	return nil
}

// formatProbeResult renders a single probe outcome as one line of output.
func formatProbeResult(name string, res domain.ProbeResult) string {
	line := fmt.Sprintf("%s: %s", name, res.Status)
	if res.Latency != nil {
		line += fmt.Sprintf(" (%s)", res.Latency)
	}
	if res.Detail != "" {
		line += fmt.Sprintf(" [%s]", res.Detail)
	}
	return line
}
