package link

import (
	"context"

	"uartlog-go/errcode"
	"uartlog-go/types"
)

// Handle is a read-only view of the link shared with downstream tasks.
type Handle struct {
	m *Manager
}

// State returns the current link state.
func (h *Handle) State() types.LinkState { return h.m.State() }

// Config returns the current network configuration. It fails with
// errcode.NotReady unless the link is Connected and an IPv4 address has been
// assigned; the radio is queried every time so nothing stale is returned
// after a reconnect.
func (h *Handle) Config() (types.NetworkConfig, error) {
	if h.m.State() != types.LinkConnected || !h.m.radio.LinkUp() {
		return types.NetworkConfig{}, errcode.NotReady
	}
	cfg, err := h.m.radio.Config()
	if err != nil {
		return types.NetworkConfig{}, &errcode.E{C: errcode.NotReady, Op: "link.config", Err: err}
	}
	if !cfg.Valid() {
		return types.NetworkConfig{}, errcode.NotReady
	}
	return cfg, nil
}

// WaitConfig polls until link layer is up and an address is assigned.
func (h *Handle) WaitConfig(ctx context.Context) (types.NetworkConfig, error) {
	poll := h.m.opts.PollInterval

	for h.m.State() != types.LinkConnected || !h.m.radio.LinkUp() {
		if !sleep(ctx, poll) {
			return types.NetworkConfig{}, errcode.Wrap(errcode.NotReady, "link.wait", ctx.Err())
		}
	}

	println("[link] waiting for IP address")
	for {
		cfg, err := h.Config()
		if err == nil {
			println("[link] got IP", cfg.Address.String())
			return cfg, nil
		}
		if !sleep(ctx, poll) {
			return types.NetworkConfig{}, errcode.Wrap(errcode.NotReady, "link.wait", ctx.Err())
		}
	}
}
