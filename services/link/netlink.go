package link

import (
	"context"
	"net/netip"
	"sync"

	"tinygo.org/x/drivers/netlink"

	"uartlog-go/errcode"
	"uartlog-go/types"
)

// AddrSource reports the address assigned to the network device.
// tinygo.org/x/drivers/netdev.Netdever satisfies it.
type AddrSource interface {
	Addr() (netip.Addr, error)
}

// NetlinkRadio adapts a netlink driver (wifinina, rtl8720dn, espat, ...) to
// Radio. Association is NetConnect; link events arrive through NetNotify.
type NetlinkRadio struct {
	link netlink.Netlinker
	addr AddrSource

	mu      sync.Mutex
	started bool
	up      bool
	params  netlink.ConnectParams

	events chan netlink.Event
}

func NewNetlinkRadio(link netlink.Netlinker, addr AddrSource) *NetlinkRadio {
	return &NetlinkRadio{
		link:   link,
		addr:   addr,
		events: make(chan netlink.Event, 4),
	}
}

func (r *NetlinkRadio) IsStarted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

func (r *NetlinkRadio) Start(ctx context.Context, c Credentials) error {
	if c.SSID == "" {
		return &errcode.E{C: errcode.InvalidConfig, Op: "radio.start", Msg: "missing ssid"}
	}
	r.mu.Lock()
	first := !r.started
	r.params = netlink.ConnectParams{
		Ssid:       c.SSID,
		Passphrase: c.Passphrase,
	}
	r.started = true
	r.mu.Unlock()
	if first {
		r.link.NetNotify(r.onEvent)
	}
	return nil
}

func (r *NetlinkRadio) onEvent(e netlink.Event) {
	r.mu.Lock()
	switch e {
	case netlink.EventNetUp:
		r.up = true
	case netlink.EventNetDown:
		r.up = false
	}
	r.mu.Unlock()
	select {
	case r.events <- e:
	default:
	}
}

func (r *NetlinkRadio) Connect(ctx context.Context) error {
	// Events from a previous association are irrelevant now.
	for len(r.events) > 0 {
		<-r.events
	}
	r.mu.Lock()
	params := r.params
	r.mu.Unlock()

	if err := r.link.NetConnect(&params); err != nil {
		return errcode.Wrap(errcode.LinkDown, "radio.connect", err)
	}
	r.mu.Lock()
	r.up = true
	r.mu.Unlock()
	return nil
}

func (r *NetlinkRadio) WaitDisconnect(ctx context.Context) error {
	for {
		select {
		case e := <-r.events:
			if e == netlink.EventNetDown {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *NetlinkRadio) LinkUp() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.up
}

// Config reports the device address as a host prefix; netdev drivers do not
// expose the subnet mask or gateway.
func (r *NetlinkRadio) Config() (types.NetworkConfig, error) {
	a, err := r.addr.Addr()
	if err != nil {
		return types.NetworkConfig{}, err
	}
	if !a.Is4() || a.IsUnspecified() {
		return types.NetworkConfig{}, errcode.NotReady
	}
	return types.NetworkConfig{Address: netip.PrefixFrom(a, 32)}, nil
}
