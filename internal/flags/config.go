package flags

import (
	"os"
	"strings"

	"github.com/spf13/pflag"
)

const (
	// Env vars
	EnvVarConfigFile = "FLEETD_CONFIG_FILE"
	EnvVarLogPath    = "FLEETD_LOG_PATH"
	EnvVarLogLevel   = "FLEETD_LOG_LEVEL"
	EnvVarStateDir   = "FLEETD_STATE_DIR"

	// Defaults
	DefaultConfigFile = ".fleetd.toml"
	DefaultLogPath    = ""
	DefaultLogLevel   = "info"
	DefaultStateDir   = ""

	// Flag names
	FlagNameConfigFile = "config-file"
	FlagNameLogPath    = "log-path"
	FlagNameLogLevel   = "log-level"
	FlagNameStateDir   = "state-dir"
)

var (
	ConfigFile string
	LogPath    string
	LogLevel   string
	StateDir   string
)

func InitFlags(fs *pflag.FlagSet) {
	initConfigFile(fs)
	initLogger(fs)
	initStateDir(fs)
}

func initConfigFile(fs *pflag.FlagSet) {
	if ConfigFile == "" {
		if env := strings.TrimSpace(os.Getenv(EnvVarConfigFile)); env != "" {
			ConfigFile = env
		} else {
			ConfigFile = DefaultConfigFile
		}
	}
	fs.StringVar(&ConfigFile, FlagNameConfigFile, ConfigFile, "path to config file")
}

func initLogger(fs *pflag.FlagSet) {
	if LogPath == "" {
		if env := strings.TrimSpace(os.Getenv(EnvVarLogPath)); env != "" {
			LogPath = env
		} else {
			LogPath = DefaultLogPath
		}
	}
	fs.StringVar(&LogPath, FlagNameLogPath, LogPath, "path to generated log file")

	if LogLevel == "" {
		if env := strings.TrimSpace(os.Getenv(EnvVarLogLevel)); env != "" {
			LogLevel = strings.ToLower(env)
		} else {
			LogLevel = DefaultLogLevel
		}
	}
	fs.StringVar(&LogLevel, FlagNameLogLevel, LogLevel, "log level for fleetd logs")
}

func initStateDir(fs *pflag.FlagSet) {
	if StateDir == "" {
		if env := strings.TrimSpace(os.Getenv(EnvVarStateDir)); env != "" {
			StateDir = env
		} else {
			StateDir = DefaultStateDir
		}
	}
	fs.StringVar(&StateDir, FlagNameStateDir, StateDir, "directory for persisted heal state markers")
}
