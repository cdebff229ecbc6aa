package target

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/homefleet/fleetd/internal/cmd"
	cmdopts "github.com/homefleet/fleetd/internal/cmd/options"
	"github.com/homefleet/fleetd/internal/config"
	"github.com/homefleet/fleetd/internal/flags"
)

// AddCmd should be used to represent the 'target add' command.
type AddCmd struct {
	*cmd.BaseCmd
	Probe            string
	Address          string
	Command          []string
	Timeout          time.Duration
	Interval         time.Duration
	Cooldown         time.Duration
	HealCommand      []string
	HealTimeout      time.Duration
	Notify           string
	NotifySuppressed bool
	cfgLoader        config.Loader
}

// NewAddCmd creates a newly configured (Cobra) command.
func NewAddCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &AddCmd{
		BaseCmd:   baseCmd,
		cfgLoader: opts.ConfigLoader,
	}

	cobraCommand := &cobra.Command{
		Use:   "add <target-name>",
		Short: "Adds a watched target to the project.",
		Long: "Adds a watched target to the fleetd configuration file. " +
			"The target is probed on a schedule by the daemon and remediated when unhealthy.",
		Args: cobra.ExactArgs(1),
		RunE: c.run,
	}

	cobraCommand.Flags().StringVar(
		&c.Probe,
		"probe",
		config.ProbeKindHTTP,
		"Probe kind for the target (http, tcp or command)",
	)

	cobraCommand.Flags().StringVar(
		&c.Address,
		"address",
		"",
		"Probe address: URL for http probes, host:port for tcp probes",
	)

	cobraCommand.Flags().StringArrayVar(
		&c.Command,
		"command",
		nil,
		"Probe command argument for command probes (can be repeated)",
	)

	cobraCommand.Flags().DurationVar(
		&c.Timeout,
		"timeout",
		config.DefaultProbeTimeout(),
		"Timeout for a single probe invocation",
	)

	cobraCommand.Flags().DurationVar(
		&c.Interval,
		"interval",
		config.DefaultProbeInterval(),
		"Watch loop cadence for the target",
	)

	cobraCommand.Flags().DurationVar(
		&c.Cooldown,
		"cooldown",
		10*time.Minute,
		"Minimum time between two remediation dispatches",
	)

	cobraCommand.Flags().StringArrayVar(
		&c.HealCommand,
		"heal-command",
		nil,
		"Remediation command argument (can be repeated, required)",
	)

	cobraCommand.Flags().DurationVar(
		&c.HealTimeout,
		"heal-timeout",
		config.DefaultHealTimeout(),
		"Timeout for the remediation action",
	)

	cobraCommand.Flags().StringVar(
		&c.Notify,
		"notify",
		"",
		"Optional, notification destination for remediation events",
	)

	cobraCommand.Flags().BoolVar(
		&c.NotifySuppressed,
		"notify-suppressed",
		false,
		"Also notify when remediation is suppressed by an active cooldown",
	)

	return cobraCommand, nil
}

// run is configured (via NewAddCmd) to be called by the Cobra framework when the command is executed.
// It may return an error (or nil, when there is no error).
func (c *AddCmd) run(cobraCmd *cobra.Command, args []string) error {
	logger, err := c.Logger()
	if err != nil {
		return err
	}

	name := strings.TrimSpace(args[0])
	if name == "" {
		return fmt.Errorf("target name cannot be empty")
	}

	cfg, err := c.cfgLoader.Load(flags.ConfigFile)
	if err != nil {
		return err
	}

	entry := config.TargetEntry{
		Name:             name,
		Probe:            strings.TrimSpace(c.Probe),
		Address:          strings.TrimSpace(c.Address),
		Command:          c.Command,
		Timeout:          config.Duration(c.Timeout),
		Interval:         config.Duration(c.Interval),
		Cooldown:         config.Duration(c.Cooldown),
		HealCommand:      c.HealCommand,
		HealTimeout:      config.Duration(c.HealTimeout),
		Notify:           strings.TrimSpace(c.Notify),
		NotifySuppressed: c.NotifySuppressed,
	}

	if err := cfg.AddTarget(entry); err != nil {
		logger.Error("Failed to add target", "name", name, "error", err)
		return fmt.Errorf("failed to add target '%s': %w", name, err)
	}

	if _, err := fmt.Fprintf(cobraCmd.OutOrStdout(), "Added target: %s\n", name); err != nil {
		return err
	}

	return nil
}
