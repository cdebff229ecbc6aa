package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/homefleet/fleetd/internal/perms"
)

// Init creates the base skeleton configuration file for the fleetd project.
func (d *DefaultLoader) Init(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	content := `targets = []`

	if err := os.WriteFile(path, []byte(content), perms.RegularFile); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

func (d *DefaultLoader) Load(path string) (Modifier, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: path cannot be empty", ErrConfigLoadFailed)
	}

	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: config file cannot be found, run: 'fleetd init'", ErrConfigLoadFailed)
		}
		return nil, fmt.Errorf("%w: failed to stat config file (%s): %w", ErrConfigLoadFailed, path, err)
	}

	var cfg *Config
	_, err = toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode config from file (%s): %w", ErrConfigLoadFailed, path, err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: config file is empty (%s)", ErrConfigLoadFailed, path)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w: failed to validate existing config (%s): %w", ErrConfigLoadFailed, path, err)
	}

	// Update the path that loaded this file to track it.
	cfg.configFilePath = path

	return cfg, nil
}

// AddTarget attempts to persist a new watched target to the configuration file (.fleetd.toml).
func (c *Config) AddTarget(entry TargetEntry) error {
	c.Targets = append(c.Targets, entry)

	if err := c.validate(); err != nil {
		return err
	}

	if err := c.saveConfig(); err != nil {
		return fmt.Errorf("failed to save updated config: %w", err)
	}

	return nil
}

// RemoveTarget removes a target entry by name from the configuration file (.fleetd.toml).
func (c *Config) RemoveTarget(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("target name cannot be empty")
	}

	filtered := make([]TargetEntry, 0, len(c.Targets))
	for _, t := range c.Targets {
		if t.Name != name {
			filtered = append(filtered, t)
		}
	}

	if len(filtered) == len(c.Targets) {
		return fmt.Errorf("target '%s' not found in config", name)
	}

	c.Targets = filtered

	if err := c.validate(); err != nil {
		return err
	}

	if err := c.saveConfig(); err != nil {
		return fmt.Errorf("failed to save updated config: %w", err)
	}

	return nil
}

// ListTargets returns all configured targets.
func (c *Config) ListTargets() []TargetEntry {
	out := make([]TargetEntry, len(c.Targets))
	copy(out, c.Targets)
	return out
}

// Target returns the configured entry for the given name.
func (c *Config) Target(name string) (TargetEntry, bool) {
	for _, t := range c.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return TargetEntry{}, false
}

func (c *Config) Notifier() NotifierConfig {
	return c.NotifierConfig
}

func (c *Config) Bot() BotConfig {
	return c.BotConfig
}

func (c *Config) Daemon() DaemonConfig {
	return c.DaemonConfig
}

func (c *Config) InventoryFile() string {
	return c.Inventory.File
}

func (c *Config) validate() error {
	seen := make(map[string]struct{}, len(c.Targets))
	for i := range c.Targets {
		entry := &c.Targets[i]
		if err := entry.validate(); err != nil {
			return err
		}
		if _, dup := seen[entry.Name]; dup {
			return fmt.Errorf("duplicate target name '%s'", entry.Name)
		}
		seen[entry.Name] = struct{}{}
	}

	return nil
}

func (c *Config) saveConfig() error {
	if strings.TrimSpace(c.configFilePath) == "" {
		return fmt.Errorf("config file path is not set")
	}

	f, err := os.OpenFile(c.configFilePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perms.RegularFile)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing (%s): %w", c.configFilePath, err)
	}
	defer func() {
		_ = f.Close()
	}()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config (%s): %w", c.configFilePath, err)
	}

	return nil
}
