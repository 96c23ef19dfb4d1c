// internal/platform/platform_nano.go
//go:build nano_rp2040

package platform

import (
	"machine"
	"net"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers/netlink/probe"

	"uartlog-go/errcode"
	"uartlog-go/services/link"
	"uartlog-go/types"
)

// Open configures UART0 on the board's default pins and probes the WiFi
// co-processor. probe also registers the netdev used by package net.
func Open(cfg types.BootConfig) (*Platform, error) {
	u := uartx.UART0
	if err := u.Configure(uartx.UARTConfig{
		BaudRate: uint32(cfg.Serial.Baud),
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	}); err != nil {
		return nil, errcode.Wrap(errcode.ReadFailed, "platform.uart", err)
	}

	nl, dev := probe.Probe()
	return &Platform{
		Serial: u,
		Radio:  link.NewNetlinkRadio(nl, dev),
		Listen: net.Listen,
	}, nil
}
