package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/homefleet/fleetd/internal/cmd"
	cmdopts "github.com/homefleet/fleetd/internal/cmd/options"
	"github.com/homefleet/fleetd/internal/config"
	"github.com/homefleet/fleetd/internal/daemon"
	"github.com/homefleet/fleetd/internal/domain"
	"github.com/homefleet/fleetd/internal/flags"
	"github.com/homefleet/fleetd/internal/heal"
	"github.com/homefleet/fleetd/internal/notify"
	"github.com/homefleet/fleetd/internal/probe"
	"github.com/homefleet/fleetd/internal/remedy"
	"github.com/homefleet/fleetd/internal/state"
)

// HealCmd should be used to represent the 'heal' command.
type HealCmd struct {
	*cmd.BaseCmd
	cfgLoader config.Loader
}

// NewHealCmd creates a newly configured (Cobra) command.
func NewHealCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &HealCmd{
		BaseCmd:   baseCmd,
		cfgLoader: opts.ConfigLoader,
	}

	cobraCommand := &cobra.Command{
		Use:   "heal <target-name>",
		Short: "Runs one watchdog cycle for a target",
		Long: "Runs one watchdog cycle for a target: probe, cooldown decision and " +
			"(cooldown permitting) the remediation action. The persisted cooldown " +
			"state is shared with the daemon.",
		Args: cobra.ExactArgs(1),
		RunE: c.run,
	}

	return cobraCommand, nil
}

// run is configured (via NewHealCmd) to be called by the Cobra framework when the command is executed.
// It may return an error (or nil, when there is no error).
func (c *HealCmd) run(cobraCmd *cobra.Command, args []string) error {
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

	entry, ok := cfg.Target(name)
	if !ok {
		return fmt.Errorf("target '%s' not found in config", name)
	}

	stateDir, err := resolveStateDir(cfg.Daemon())
	if err != nil {
		return err
	}

	store, err := state.NewFileStore(stateDir)
	if err != nil {
		return fmt.Errorf("failed to create heal state store: %w", err)
	}

	prober, err := probe.New(entry)
	if err != nil {
		return err
	}

	remediator, err := remedy.NewCommandRunner(logger, entry)
	if err != nil {
		return err
	}

	deps, err := heal.NewDependencies(
		logger.Named("watchdog"),
		entry,
		prober,
		remediator,
		notify.NewWebhookNotifier(logger, cfg.Notifier()),
		store,
		daemon.NewHealthTracker([]string{entry.Name}),
	)
	if err != nil {
		return err
	}

	controller, err := heal.NewController(deps)
	if err != nil {
		return err
	}

	outcome, err := controller.RunCycle(cobraCmd.Context())
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintln(cobraCmd.OutOrStdout(), formatOutcome(entry.Name, outcome)); err != nil {
		return err
	}

	return nil
}

// formatOutcome renders a cycle outcome as one line of output.
func formatOutcome(name string, outcome domain.CycleOutcome) string {
	line := fmt.Sprintf("%s: probe=%s decision=%s", name, outcome.Probe.Status, outcome.Decision)
	if outcome.Event != nil {
		line += fmt.Sprintf(" result=%s (%s)", outcome.Event.Result, outcome.Event.Message)
	}
	return line
}
