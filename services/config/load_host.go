//go:build !rp2040

package config

import (
	"hash/fnv"
	"os"
	"time"

	"github.com/denisbrodbeck/machineid"
	"gopkg.in/yaml.v3"

	"uartlog-go/errcode"
	"uartlog-go/types"
)

const appID = "uartlog"

// MachineID is the seed source used when no seed is configured.
var MachineID = func() (string, error) { return machineid.ProtectedID(appID) }

// fileConfig mirrors types.BootConfig; port and seed stay strings so that a
// malformed value falls back instead of failing the boot.
type fileConfig struct {
	SSID       *string            `yaml:"ssid"`
	Passphrase *string            `yaml:"passphrase"`
	Port       string             `yaml:"port"`
	Seed       string             `yaml:"seed"`
	Heartbeat  time.Duration      `yaml:"heartbeat"`
	Serial     types.SerialConfig `yaml:"serial"`
	Link       types.LinkConfig   `yaml:"link"`
}

// Load resolves the boot configuration: build-time values, overridden by
// the YAML file at path (optional when path is empty).
func Load(path string) (types.BootConfig, error) {
	cfg := Embedded()
	_, seeded := ParseSeed(NetSeed)

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, errcode.Wrap(errcode.InvalidConfig, "config.read", err)
		}
		fromFile, err := apply(&cfg, raw)
		if err != nil {
			return cfg, err
		}
		seeded = seeded || fromFile
	}

	if !seeded {
		cfg.Seed = seedFromMachine()
	}
	Normalize(&cfg)
	return cfg, nil
}

// apply overlays the YAML document onto cfg and reports whether it carried
// a usable seed.
func apply(cfg *types.BootConfig, raw []byte) (bool, error) {
	var fc fileConfig
	fc.Serial = cfg.Serial
	fc.Link = cfg.Link
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return false, errcode.Wrap(errcode.InvalidConfig, "config.parse", err)
	}
	if fc.SSID != nil {
		cfg.SSID = *fc.SSID
	}
	if fc.Passphrase != nil {
		cfg.Passphrase = *fc.Passphrase
	}
	if fc.Port != "" {
		cfg.Port = ParsePort(fc.Port)
	}
	s, seeded := ParseSeed(fc.Seed)
	if seeded {
		cfg.Seed = s
	}
	if fc.Heartbeat > 0 {
		cfg.Heartbeat = fc.Heartbeat
	}
	cfg.Serial = fc.Serial
	cfg.Link = fc.Link
	return seeded, nil
}

func seedFromMachine() uint64 {
	id, err := MachineID()
	if err != nil || id == "" {
		println("[config] machine id unavailable, using default seed")
		return DefaultSeed
	}
	h := fnv.New64a()
	h.Write([]byte(id))
	return h.Sum64()
}
