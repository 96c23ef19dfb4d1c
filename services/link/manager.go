// services/link/manager.go
package link

import (
	"context"
	"sync"
	"time"

	"uartlog-go/types"
)

// Connect loop timing.
const (
	DefaultRetryDelay      = 5 * time.Second
	DefaultDisconnectDelay = 5 * time.Second
	DefaultPollInterval    = 500 * time.Millisecond
)

// Credentials are applied to the radio whenever it has to be (re)started.
type Credentials struct {
	SSID       string
	Passphrase string
	// Seed is handed to the radio for stacks that need an RNG seed. Neither
	// NetlinkRadio nor the host InterfaceRadio consumes it: their TCP/IP
	// stacks (co-processor firmware, the OS) seed themselves. It is recorded
	// only.
	Seed uint64
}

// Radio is the wireless controller as seen by the supervisor.
type Radio interface {
	// IsStarted reports whether the controller is configured and running.
	IsStarted() bool
	// Start applies credentials and starts the controller.
	Start(ctx context.Context, c Credentials) error
	// Connect requests association and blocks until it succeeds or fails.
	Connect(ctx context.Context) error
	// WaitDisconnect blocks until the association is lost.
	WaitDisconnect(ctx context.Context) error
	// LinkUp reports whether link layer is up.
	LinkUp() bool
	// Config returns the DHCP-assigned configuration, or an error if none.
	Config() (types.NetworkConfig, error)
}

type Options struct {
	// RetryDelay is the wait after a failed start or association.
	RetryDelay time.Duration
	// DisconnectDelay is the wait after a disconnect event before
	// reconnecting.
	DisconnectDelay time.Duration
	// PollInterval paces link-up and address polling in Handle.WaitConfig.
	PollInterval time.Duration
	// OnTransition, if set, is called on every state change, from the
	// manager's task.
	OnTransition func(from, to types.LinkState)
}

func (o *Options) normalise() {
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.DisconnectDelay <= 0 {
		o.DisconnectDelay = DefaultDisconnectDelay
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
}

// Manager supervises association with a fixed-delay retry loop. There is
// no retry cap: the device has nobody to report a permanent failure to.
type Manager struct {
	radio Radio
	creds Credentials
	opts  Options

	mu    sync.Mutex
	state types.LinkState

	handle *Handle
}

func NewManager(r Radio, c Credentials, opts Options) *Manager {
	opts.normalise()
	m := &Manager{
		radio: r,
		creds: c,
		opts:  opts,
		state: types.LinkDisconnected,
	}
	m.handle = &Handle{m: m}
	return m
}

// State returns the current link state.
func (m *Manager) State() types.LinkState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Handle returns the read-only view used by downstream tasks.
func (m *Manager) Handle() *Handle { return m.handle }

func (m *Manager) setState(s types.LinkState) {
	m.mu.Lock()
	from := m.state
	m.state = s
	m.mu.Unlock()
	if from == s {
		return
	}
	println("[link]", from.String(), "->", s.String())
	if m.opts.OnTransition != nil {
		m.opts.OnTransition(from, s)
	}
}

// Run drives the state machine until ctx ends. It only returns ctx.Err().
func (m *Manager) Run(ctx context.Context) error {
	m.setState(types.LinkConnecting)
	for {
		if m.State() == types.LinkConnected {
			if err := m.radio.WaitDisconnect(ctx); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			println("[link] disconnect event")
			// The link is gone; the reconnect itself waits out DisconnectDelay.
			m.setState(types.LinkConnecting)
			if !sleep(ctx, m.opts.DisconnectDelay) {
				return ctx.Err()
			}
		}

		if !m.radio.IsStarted() {
			println("[link] starting radio")
			if err := m.radio.Start(ctx, m.creds); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				println("[link] start failed:", err.Error())
				if !sleep(ctx, m.opts.RetryDelay) {
					return ctx.Err()
				}
				continue
			}
		}

		println("[link] connecting to", m.creds.SSID)
		if err := m.radio.Connect(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			println("[link] connect failed:", err.Error())
			if !sleep(ctx, m.opts.RetryDelay) {
				return ctx.Err()
			}
			continue
		}
		m.setState(types.LinkConnected)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
