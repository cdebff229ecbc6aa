package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/homefleet/fleetd/internal/cmd"
	cmdopts "github.com/homefleet/fleetd/internal/cmd/options"
	"github.com/homefleet/fleetd/internal/config"
	"github.com/homefleet/fleetd/internal/flags"
)

// InitCmd should be used to represent the 'init' command.
type InitCmd struct {
	*cmd.BaseCmd
	cfgInitializer config.Initializer
}

// NewInitCmd creates a newly configured (Cobra) command.
func NewInitCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &InitCmd{
		BaseCmd:        baseCmd,
		cfgInitializer: opts.ConfigInitializer,
	}

	cobraCommand := &cobra.Command{
		Use:   "init",
		Short: "Initializes the current directory as a fleetd project",
		Long:  c.longDescription(),
		RunE:  c.run,
	}

	return cobraCommand, nil
}

// longDescription returns the long version of the command description.
func (c *InitCmd) longDescription() string {
	return fmt.Sprintf(
		"Initializes the current directory as a fleetd project, creating a %s configuration file.\n\n"+
			"The configuration file path can be overridden using the `--%s` flag or the `%s` environment variable",
		flags.DefaultConfigFile,
		flags.FlagNameConfigFile,
		flags.EnvVarConfigFile,
	)
}

// run is configured (via NewInitCmd) to be called by the Cobra framework when the command is executed.
// It may return an error (or nil, when there is no error).
func (c *InitCmd) run(cobraCmd *cobra.Command, _ []string) error {
	logger, err := c.Logger()
	if err != nil {
		return err
	}

	var initFilePath string

	// If the config file flag just has the default value, create it in the current working directory.
	if flags.ConfigFile == flags.DefaultConfigFile {
		cwd, err := os.Getwd()
		if err != nil {
			logger.Error("Failed to get working directory", "error", err)
			return fmt.Errorf("error getting current directory: %w", err)
		}
		initFilePath = filepath.Join(cwd, flags.DefaultConfigFile)
	} else {
		initFilePath = flags.ConfigFile
	}

	if _, err := fmt.Fprintf(
		cobraCmd.OutOrStdout(),
		"Initializing fleetd project at: %s\n", initFilePath,
	); err != nil {
		return err
	}

	if err := c.cfgInitializer.Init(initFilePath); err != nil {
		logger.Error("Project initialization failed", "error", err)
		return fmt.Errorf("error initializing fleetd project: %w", err)
	}

	if _, err := fmt.Fprintf(
		cobraCmd.OutOrStdout(),
		"Config file created: %s\n", initFilePath,
	); err != nil {
		return err
	}

	return nil
}
