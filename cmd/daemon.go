package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/homefleet/fleetd/internal/cmd"
	cmdopts "github.com/homefleet/fleetd/internal/cmd/options"
	"github.com/homefleet/fleetd/internal/config"
	"github.com/homefleet/fleetd/internal/daemon"
	"github.com/homefleet/fleetd/internal/flags"
	"github.com/homefleet/fleetd/internal/state"
)

// DaemonCmd should be used to represent the 'daemon' command.
type DaemonCmd struct {
	*cmd.BaseCmd
	Dev       bool
	Addr      string
	cfgLoader config.Loader
}

// NewDaemonCmd creates a newly configured (Cobra) command.
func NewDaemonCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &DaemonCmd{
		BaseCmd:   baseCmd,
		cfgLoader: opts.ConfigLoader,
	}

	cobraCommand := &cobra.Command{
		Use:   "daemon [--dev] [--addr]",
		Short: "Launches a fleetd daemon instance",
		Long:  "Launches a fleetd daemon instance, which watches configured targets and provides a control HTTP API",
		RunE:  c.run,
	}

	cobraCommand.Flags().BoolVar(
		&c.Dev,
		"dev",
		false,
		"Run the daemon in development-focused mode",
	)

	cobraCommand.Flags().StringVar(
		&c.Addr,
		"addr",
		"",
		"Address for the daemon to bind (not applicable in --dev mode)",
	)

	cobraCommand.MarkFlagsMutuallyExclusive("dev", "addr")

	return cobraCommand, nil
}

// run is configured (via NewDaemonCmd) to be called by the Cobra framework when the command is executed.
// It may return an error (or nil, when there is no error).
func (c *DaemonCmd) run(_ *cobra.Command, _ []string) error {
	logger, err := c.Logger()
	if err != nil {
		return err
	}

	cfg, err := c.cfgLoader.Load(flags.ConfigFile)
	if err != nil {
		return err
	}

	addr := resolveAddr(strings.TrimSpace(c.Addr), cfg.Daemon().Addr)

	// Override address for dev mode.
	if c.Dev {
		devAddr := "localhost:8090"
		logger.Info("Development-focused mode", "addr", addr, "override", devAddr)
		addr = devAddr
	}

	if err := daemon.IsValidAddr(addr); err != nil {
		return err
	}

	stateDir, err := resolveStateDir(cfg.Daemon())
	if err != nil {
		return err
	}

	deps, err := daemon.NewDependencies(logger, cfg, addr, stateDir)
	if err != nil {
		return fmt.Errorf("error configuring fleetd daemon: %w", err)
	}

	d, err := daemon.NewDaemon(deps, daemonOptions(cfg.Daemon())...)
	if err != nil {
		return fmt.Errorf("failed to create fleetd daemon instance: %w", err)
	}

	// Create the signal handling context for the application.
	daemonCtx, daemonCtxCancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM, syscall.SIGINT,
	)
	defer daemonCtxCancel()

	runErr := make(chan error, 1)
	go func() {
		if err := d.StartAndManage(daemonCtx); err != nil && !errors.Is(err, context.Canceled) {
			runErr <- err
		}
		close(runErr)
	}()

	// Print --dev mode banner if required.
	if c.Dev {
		logger.Info("Launching daemon in dev mode", "addr", addr)
		banner := fmt.Sprintf("fleetd daemon running in 'dev' mode.\n\n"+
			"  Local API:\thttp://%s/api/v1\n"+
			"  OpenAPI UI:\thttp://%s/docs\n"+
			"  Config file:\t%s\n"+
			"  State dir:\t%s\n",
			addr, addr, flags.ConfigFile, stateDir)

		if flags.LogPath != "" {
			banner += fmt.Sprintf("  Log file:\t%s => (%s)\n", flags.LogPath, flags.LogLevel)
		}

		banner += "\nPress Ctrl+C to stop.\n\n"
		fmt.Print(banner)
	}

	select {
	case <-daemonCtx.Done():
		logger.Info("Shutting down daemon")
		err := <-runErr // Wait for cleanup and deferred logging.
		return err      // Graceful Ctrl+C / SIGTERM.
	case err := <-runErr:
		logger.Error("daemon exited with error", "error", err)
		return err // Propagate daemon failure.
	}
}

// resolveAddr picks the bind address: flag first, then config, then default.
func resolveAddr(flagAddr string, cfgAddr string) string {
	if flagAddr != "" {
		return flagAddr
	}
	if strings.TrimSpace(cfgAddr) != "" {
		return strings.TrimSpace(cfgAddr)
	}
	return "0.0.0.0:8090"
}

// resolveStateDir picks the heal state directory: flag first, then config,
// then the default location under the user's home directory.
func resolveStateDir(cfg config.DaemonConfig) (string, error) {
	if flags.StateDir != "" {
		return flags.StateDir, nil
	}
	if strings.TrimSpace(cfg.StateDir) != "" {
		return strings.TrimSpace(cfg.StateDir), nil
	}
	return state.DefaultDir()
}

// daemonOptions translates daemon-related config into daemon options.
func daemonOptions(cfg config.DaemonConfig) []daemon.Option {
	var opts []daemon.Option

	if cfg.ReportMaxAge.Std() > 0 {
		opts = append(opts, daemon.WithReportMaxAge(cfg.ReportMaxAge.Std()))
	}

	if cfg.CORS.Enabled {
		opts = append(opts, daemon.WithAPIOptions(
			daemon.WithCORSEnabled(true),
			daemon.WithCORSAllowOrigins(cfg.CORS.AllowOrigins),
		))
	}

	return opts
}
