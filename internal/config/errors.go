package config

import "errors"

var (
	// ErrConfigLoadFailed indicates the config file could not be read, parsed or validated.
	ErrConfigLoadFailed = errors.New("config load failed")

	// ErrInventoryLoadFailed indicates the inventory file could not be read or parsed.
	ErrInventoryLoadFailed = errors.New("inventory load failed")
)
