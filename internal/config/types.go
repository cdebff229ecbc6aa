package config

import (
	"fmt"
	"strings"
	"time"
)

var (
	_ Provider = (*DefaultLoader)(nil)
	_ Modifier = (*Config)(nil)
)

type Loader interface {
	Load(path string) (Modifier, error)
}

type Initializer interface {
	Init(path string) error
}

type Provider interface {
	Initializer
	Loader
}

type Modifier interface {
	AddTarget(entry TargetEntry) error
	RemoveTarget(name string) error
	ListTargets() []TargetEntry
	Target(name string) (TargetEntry, bool)
	Notifier() NotifierConfig
	Bot() BotConfig
	Daemon() DaemonConfig
	InventoryFile() string
}

type DefaultLoader struct{}

// Duration wraps time.Duration so values can be written as strings
// (e.g. "30s", "10m") in the TOML config file.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

const (
	ProbeKindHTTP    = "http"
	ProbeKindTCP     = "tcp"
	ProbeKindCommand = "command"
)

// Config represents the .fleetd.toml file structure.
type Config struct {
	Targets        []TargetEntry   `toml:"targets"`
	NotifierConfig NotifierConfig  `toml:"notifier"`
	BotConfig      BotConfig       `toml:"bot"`
	DaemonConfig   DaemonConfig    `toml:"daemon"`
	Inventory      InventoryConfig `toml:"inventory"`

	configFilePath string `toml:"-"`
}

// TargetEntry represents the configuration of a single watched target.
type TargetEntry struct {
	// Name is the unique identifier for the target, referenced by the user.
	// e.g. 'wireguard'
	Name string `json:"name" toml:"name" yaml:"name"`

	// Probe selects the probe implementation: http, tcp or command.
	Probe string `json:"probe" toml:"probe" yaml:"probe"`

	// Address is the probe target for http (URL) and tcp (host:port) probes.
	Address string `json:"address,omitempty" toml:"address,omitempty" yaml:"address,omitempty"`

	// Command is the probe command for command probes (argv form).
	Command []string `json:"command,omitempty" toml:"command,omitempty" yaml:"command,omitempty"`

	// Timeout bounds a single probe invocation. Defaults to 5s.
	Timeout Duration `json:"timeout,omitempty" toml:"timeout,omitempty" yaml:"timeout,omitempty"`

	// Interval is the watch loop cadence for this target. Defaults to 30s.
	Interval Duration `json:"interval,omitempty" toml:"interval,omitempty" yaml:"interval,omitempty"`

	// Cooldown is the minimum time between two remediation dispatches.
	Cooldown Duration `json:"cooldown" toml:"cooldown" yaml:"cooldown"`

	// HealCommand is the external remediation action (argv form).
	HealCommand []string `json:"healCommand" toml:"heal_command" yaml:"heal_command"`

	// HealTimeout bounds the remediation action. Defaults to 2m.
	HealTimeout Duration `json:"healTimeout,omitempty" toml:"heal_timeout,omitempty" yaml:"heal_timeout,omitempty"`

	// Notify is the destination identifier handed to the notifier.
	Notify string `json:"notify,omitempty" toml:"notify,omitempty" yaml:"notify,omitempty"`

	// NotifySuppressed opts the target into low-priority notifications for
	// cooldown-suppressed cycles.
	NotifySuppressed bool `json:"notifySuppressed,omitempty" toml:"notify_suppressed,omitempty" yaml:"notify_suppressed,omitempty"`
}

// NotifierConfig configures the webhook notification gateway.
type NotifierConfig struct {
	WebhookURL string   `toml:"webhook_url"`
	Timeout    Duration `toml:"timeout,omitempty"`
}

// BotConfig configures the chat-gateway command dispatcher.
type BotConfig struct {
	AllowedSenders []string `toml:"allowed_senders"`
}

// DaemonConfig configures the daemon's API server and state handling.
type DaemonConfig struct {
	Addr         string     `toml:"addr,omitempty"`
	StateDir     string     `toml:"state_dir,omitempty"`
	ReportMaxAge Duration   `toml:"report_max_age,omitempty"`
	CORS         CORSConfig `toml:"cors,omitempty"`
}

// CORSConfig configures cross-origin settings for the API server.
type CORSConfig struct {
	Enabled      bool     `toml:"enabled"`
	AllowOrigins []string `toml:"allow_origins,omitempty"`
}

// InventoryConfig points at the YAML host inventory used by chat commands.
type InventoryConfig struct {
	File string `toml:"file,omitempty"`
}

// DefaultProbeTimeout bounds a single probe when the target doesn't set one.
func DefaultProbeTimeout() time.Duration {
	return 5 * time.Second
}

// DefaultProbeInterval is the watch loop cadence when the target doesn't set one.
func DefaultProbeInterval() time.Duration {
	return 30 * time.Second
}

// DefaultHealTimeout bounds the remediation action when the target doesn't set one.
func DefaultHealTimeout() time.Duration {
	return 2 * time.Minute
}

// ProbeTimeout returns the configured probe timeout or the default.
func (e *TargetEntry) ProbeTimeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout.Std()
	}
	return DefaultProbeTimeout()
}

// ProbeInterval returns the configured watch interval or the default.
func (e *TargetEntry) ProbeInterval() time.Duration {
	if e.Interval > 0 {
		return e.Interval.Std()
	}
	return DefaultProbeInterval()
}

// RemediationTimeout returns the configured heal timeout or the default.
func (e *TargetEntry) RemediationTimeout() time.Duration {
	if e.HealTimeout > 0 {
		return e.HealTimeout.Std()
	}
	return DefaultHealTimeout()
}

func (e *TargetEntry) validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("target name cannot be empty")
	}

	switch e.Probe {
	case ProbeKindHTTP, ProbeKindTCP:
		if strings.TrimSpace(e.Address) == "" {
			return fmt.Errorf("target '%s': %s probe requires an address", e.Name, e.Probe)
		}
	case ProbeKindCommand:
		if len(e.Command) == 0 {
			return fmt.Errorf("target '%s': command probe requires a command", e.Name)
		}
	default:
		return fmt.Errorf("target '%s': unknown probe kind '%s'", e.Name, e.Probe)
	}

	if e.Cooldown <= 0 {
		return fmt.Errorf("target '%s': cooldown must be positive", e.Name)
	}

	if len(e.HealCommand) == 0 {
		return fmt.Errorf("target '%s': heal_command cannot be empty", e.Name)
	}

	return nil
}
