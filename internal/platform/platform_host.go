// internal/platform/platform_host.go
//go:build !rp2040

package platform

import (
	"context"
	"errors"
	"io"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/goburrow/serial"

	"uartlog-go/errcode"
	"uartlog-go/services/link"
	"uartlog-go/types"
)

// serialReadTimeout bounds each blocking read so cancellation is observed.
const serialReadTimeout = 250 * time.Millisecond

// Open opens the serial device and supervises a host network interface.
func Open(cfg types.BootConfig) (*Platform, error) {
	if cfg.Serial.Device == "" {
		return nil, &errcode.E{C: errcode.InvalidConfig, Op: "platform.open", Msg: "missing serial device"}
	}
	port, err := serial.Open(&serial.Config{
		Address:  cfg.Serial.Device,
		BaudRate: cfg.Serial.Baud,
		DataBits: cfg.Serial.DataBits,
		StopBits: cfg.Serial.StopBits,
		Parity:   types.ParseParity(cfg.Serial.Parity).Letter(),
		Timeout:  serialReadTimeout,
	})
	if err != nil {
		return nil, errcode.Wrap(errcode.ReadFailed, "platform.serial", err)
	}
	return &Platform{
		Serial: &hostSerial{r: port},
		Radio:  NewInterfaceRadio(cfg.Link.Interface, time.Second),
		Listen: net.Listen,
		Close:  port.Close,
	}, nil
}

// ---- hostSerial: adapts a device file to uartreader.Port ----

type hostSerial struct {
	r io.Reader
}

func (s *hostSerial) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := s.r.Read(buf)
		if n == 0 && errors.Is(err, serial.ErrTimeout) {
			continue
		}
		if n > 0 {
			return n, nil
		}
		return 0, err
	}
}

// ---- InterfaceRadio: link supervision over an OS-managed interface ----

// InterfaceRadio treats an OS network interface as the radio. Association is
// owned by the OS; Connect only checks that the interface is up and
// WaitDisconnect polls until it goes down.
type InterfaceRadio struct {
	name string
	poll time.Duration

	// lookup is replaceable for tests.
	lookup func(name string) (iface, error)

	mu      sync.Mutex
	started bool
	up      bool
}

type iface interface {
	Up() bool
	IPv4() (netip.Prefix, bool)
}

func NewInterfaceRadio(name string, poll time.Duration) *InterfaceRadio {
	if poll <= 0 {
		poll = time.Second
	}
	return &InterfaceRadio{name: name, poll: poll, lookup: lookupInterface}
}

func (r *InterfaceRadio) IsStarted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

func (r *InterfaceRadio) Start(ctx context.Context, c link.Credentials) error {
	if _, err := r.lookup(r.name); err != nil {
		return errcode.Wrap(errcode.LinkDown, "radio.start", err)
	}
	r.mu.Lock()
	r.started = true
	r.mu.Unlock()
	return nil
}

func (r *InterfaceRadio) Connect(ctx context.Context) error {
	ifc, err := r.lookup(r.name)
	if err != nil {
		r.setStarted(false)
		return errcode.Wrap(errcode.LinkDown, "radio.connect", err)
	}
	if !ifc.Up() {
		return &errcode.E{C: errcode.LinkDown, Op: "radio.connect", Msg: "interface down"}
	}
	r.mu.Lock()
	r.up = true
	r.mu.Unlock()
	return nil
}

func (r *InterfaceRadio) WaitDisconnect(ctx context.Context) error {
	t := time.NewTicker(r.poll)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		ifc, err := r.lookup(r.name)
		if err != nil {
			r.setStarted(false)
		}
		if err != nil || !ifc.Up() {
			r.mu.Lock()
			r.up = false
			r.mu.Unlock()
			return nil
		}
	}
}

func (r *InterfaceRadio) LinkUp() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.up
}

func (r *InterfaceRadio) Config() (types.NetworkConfig, error) {
	ifc, err := r.lookup(r.name)
	if err != nil {
		return types.NetworkConfig{}, err
	}
	p, ok := ifc.IPv4()
	if !ok {
		return types.NetworkConfig{}, errcode.NotReady
	}
	return types.NetworkConfig{Address: p}, nil
}

func (r *InterfaceRadio) setStarted(v bool) {
	r.mu.Lock()
	r.started = v
	r.mu.Unlock()
}

// ---- net.Interface backed iface ----

type osIface struct{ ifc *net.Interface }

func (o osIface) Up() bool {
	return o.ifc.Flags&net.FlagUp != 0 && o.ifc.Flags&net.FlagRunning != 0
}

func (o osIface) IPv4() (netip.Prefix, bool) {
	addrs, err := o.ifc.Addrs()
	if err != nil {
		return netip.Prefix{}, false
	}
	for _, a := range addrs {
		ipn, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip, ok := netip.AddrFromSlice(ipn.IP.To4())
		if !ok {
			continue
		}
		bits, _ := ipn.Mask.Size()
		if len(ipn.Mask) == net.IPv6len {
			bits -= 96
		}
		return netip.PrefixFrom(ip, bits), true
	}
	return netip.Prefix{}, false
}

// lookupInterface resolves name, or the first running non-loopback
// interface carrying IPv4 when name is empty.
func lookupInterface(name string) (iface, error) {
	if name != "" {
		ifc, err := net.InterfaceByName(name)
		if err != nil {
			return nil, err
		}
		return osIface{ifc}, nil
	}
	all, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	for i := range all {
		o := osIface{&all[i]}
		if all[i].Flags&net.FlagLoopback != 0 || !o.Up() {
			continue
		}
		if _, ok := o.IPv4(); ok {
			return o, nil
		}
	}
	return nil, errcode.LinkDown
}
