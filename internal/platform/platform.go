// internal/platform/platform.go
package platform

import (
	"uartlog-go/services/link"
	"uartlog-go/services/logsender"
	"uartlog-go/services/uartreader"
)

// Platform bundles the board-specific collaborators of the relay. Open is
// provided by the build-tagged files in this package.
type Platform struct {
	Serial uartreader.Port
	Radio  link.Radio
	Listen logsender.ListenFunc

	// Close releases host resources; nil on MCU builds.
	Close func() error
}
