//go:build rp2040

package config

import "uartlog-go/types"

// Load returns the configuration baked into the firmware. There is no
// filesystem on the MCU; path is ignored.
func Load(path string) (types.BootConfig, error) {
	return Embedded(), nil
}
