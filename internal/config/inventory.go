package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Inventory is the parsed YAML host inventory used by chat commands
// (reboot targeting, fleet summaries).
type Inventory struct {
	Hosts []InventoryHost `yaml:"hosts"`
}

// InventoryHost describes a single fleet host.
type InventoryHost struct {
	// Name is the short host identifier referenced in chat commands, e.g. 'aws'.
	Name string `yaml:"name"`

	// Groups the host belongs to, e.g. 'cloud', 'pi'.
	Groups []string `yaml:"groups,omitempty"`

	// RebootCommand is the argv used to reboot this host.
	RebootCommand []string `yaml:"reboot_command,omitempty"`
}

// LoadInventory reads and parses the YAML inventory at path.
// An empty path yields an empty inventory, not an error: the inventory is
// optional and only chat commands that reference hosts need it.
func LoadInventory(path string) (Inventory, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Inventory{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Inventory{}, fmt.Errorf("%w: failed to read inventory file (%s): %w", ErrInventoryLoadFailed, path, err)
	}

	var inv Inventory
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return Inventory{}, fmt.Errorf("%w: failed to parse inventory file (%s): %w", ErrInventoryLoadFailed, path, err)
	}

	seen := make(map[string]struct{}, len(inv.Hosts))
	for _, h := range inv.Hosts {
		if strings.TrimSpace(h.Name) == "" {
			return Inventory{}, fmt.Errorf("%w: inventory host with empty name (%s)", ErrInventoryLoadFailed, path)
		}
		if _, dup := seen[h.Name]; dup {
			return Inventory{}, fmt.Errorf("%w: duplicate inventory host '%s' (%s)", ErrInventoryLoadFailed, h.Name, path)
		}
		seen[h.Name] = struct{}{}
	}

	return inv, nil
}

// Host returns the inventory entry for the given name.
func (i Inventory) Host(name string) (InventoryHost, bool) {
	for _, h := range i.Hosts {
		if h.Name == name {
			return h, true
		}
	}
	return InventoryHost{}, false
}
