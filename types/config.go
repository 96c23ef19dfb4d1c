package types

import "time"

// BootConfig is resolved once at boot and never mutated afterwards.
type BootConfig struct {
	// Wireless credentials.
	SSID       string `yaml:"ssid"`
	Passphrase string `yaml:"passphrase"`

	// TCP listening port for the log client.
	Port int `yaml:"port"`

	// Seed for randomized state inside the network stack.
	Seed uint64 `yaml:"seed"`

	// Interval between stats lines on the console.
	Heartbeat time.Duration `yaml:"heartbeat"`

	Serial SerialConfig `yaml:"serial"`
	Link   LinkConfig   `yaml:"link"`
}

// SerialConfig is only consulted by host builds; MCU pin mapping and baud
// are fixed by the board file.
type SerialConfig struct {
	Device   string `yaml:"device"`
	Baud     int    `yaml:"baud"`
	DataBits int    `yaml:"data_bits"`
	StopBits int    `yaml:"stop_bits"`
	Parity   string `yaml:"parity"`
}

// LinkConfig carries link supervision timing and, on host builds, the
// network interface to supervise.
type LinkConfig struct {
	Interface       string        `yaml:"interface"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
	DisconnectDelay time.Duration `yaml:"disconnect_delay"`
	PollInterval    time.Duration `yaml:"poll_interval"`
}
