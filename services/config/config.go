package config

import (
	"strconv"
	"strings"
	"time"

	"uartlog-go/errcode"
	"uartlog-go/types"
	"uartlog-go/x/mathx"
)

// -----------------------------------------------------------------------------
// Build-time configuration
//
// Set with the linker, e.g.
//   tinygo build -ldflags "-X uartlog-go/services/config.WifiSSID=lab
//     -X uartlog-go/services/config.WifiPass=secret" ...
// Strings only; numbers are parsed at boot.
// -----------------------------------------------------------------------------

var (
	WifiSSID   string
	WifiPass   string
	ListenPort string
	NetSeed    string
)

const (
	DefaultPort = 3030
	DefaultSeed = 1234

	DefaultBaud     = 115200
	DefaultDataBits = 8
	DefaultStopBits = 1

	DefaultHeartbeat = 30 * time.Second
)

var (
	portRange     = mathx.Range[int]{Lo: 1, Hi: 65535}
	dataBitsRange = mathx.Range[int]{Lo: 5, Hi: 8}
	stopBitsRange = mathx.Range[int]{Lo: 1, Hi: 2}
)

// Embedded returns the configuration baked into the binary, with defaults
// applied. A missing or malformed NetSeed yields DefaultSeed.
func Embedded() types.BootConfig {
	cfg := types.BootConfig{
		SSID:       WifiSSID,
		Passphrase: WifiPass,
		Port:       ParsePort(ListenPort),
		Seed:       DefaultSeed,
	}
	if s, ok := ParseSeed(NetSeed); ok {
		cfg.Seed = s
	}
	Normalize(&cfg)
	return cfg
}

// ParsePort parses a TCP port, falling back to DefaultPort when s is empty,
// unparseable or out of range.
func ParsePort(s string) int {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return DefaultPort
	}
	return NormalizePort(p)
}

// NormalizePort returns p, or DefaultPort when p is outside 1..65535.
func NormalizePort(p int) int { return portRange.Or(p, DefaultPort) }

// ParseSeed accepts decimal or 0x-prefixed hex.
func ParseSeed(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Normalize fills defaults. It never fails.
func Normalize(cfg *types.BootConfig) {
	cfg.Port = NormalizePort(cfg.Port)
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = DefaultHeartbeat
	}
	if cfg.Serial.Baud <= 0 {
		cfg.Serial.Baud = DefaultBaud
	}
	if cfg.Serial.DataBits == 0 {
		cfg.Serial.DataBits = DefaultDataBits
	}
	cfg.Serial.DataBits = dataBitsRange.Clamp(cfg.Serial.DataBits)
	if cfg.Serial.StopBits == 0 {
		cfg.Serial.StopBits = DefaultStopBits
	}
	cfg.Serial.StopBits = stopBitsRange.Clamp(cfg.Serial.StopBits)
	cfg.Serial.Parity = types.ParseParity(cfg.Serial.Parity).String()
}

// Validate reports configuration the device cannot boot with.
func Validate(cfg types.BootConfig) error {
	if cfg.SSID == "" {
		return &errcode.E{C: errcode.InvalidConfig, Op: "config", Msg: "missing wifi ssid"}
	}
	if cfg.Passphrase != "" && len(cfg.Passphrase) < 8 {
		return &errcode.E{C: errcode.InvalidConfig, Op: "config", Msg: "wifi passphrase shorter than 8"}
	}
	return nil
}
