package types

import "net/netip"

// LinkState is the wireless link supervisor state.
type LinkState uint8

const (
	LinkDisconnected LinkState = iota
	LinkConnecting
	LinkConnected
	// LinkAwaitingDisconnectEvent is part of the state vocabulary but the
	// supervisor goes straight from Connected to Connecting after the
	// post-disconnect delay.
	LinkAwaitingDisconnectEvent
)

func (s LinkState) String() string {
	switch s {
	case LinkDisconnected:
		return "disconnected"
	case LinkConnecting:
		return "connecting"
	case LinkConnected:
		return "connected"
	case LinkAwaitingDisconnectEvent:
		return "awaiting_disconnect"
	default:
		return "unknown"
	}
}

// NetworkConfig is the DHCP-assigned IPv4 configuration. It is only valid
// while the link is Connected.
type NetworkConfig struct {
	Address netip.Prefix // host address + subnet
	Gateway netip.Addr   // may be invalid if none was offered
}

// Valid reports whether an IPv4 host address is present.
func (c NetworkConfig) Valid() bool {
	a := c.Address.Addr()
	return c.Address.IsValid() && a.Is4() && !a.IsUnspecified()
}
