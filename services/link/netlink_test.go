package link

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"sync"
	"testing"
	"time"

	"tinygo.org/x/drivers/netlink"

	"uartlog-go/errcode"
)

type fakeLink struct {
	mu       sync.Mutex
	cb       func(netlink.Event)
	params   []netlink.ConnectParams
	failNext error
}

func (f *fakeLink) NetConnect(p *netlink.ConnectParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params = append(f.params, *p)
	if err := f.failNext; err != nil {
		f.failNext = nil
		return err
	}
	return nil
}

func (f *fakeLink) NetDisconnect() {
	f.emit(netlink.EventNetDown)
}

func (f *fakeLink) NetNotify(cb func(netlink.Event)) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *fakeLink) GetHardwareAddr() (net.HardwareAddr, error) {
	return net.HardwareAddr{0x02, 0, 0, 0, 0, 1}, nil
}

func (f *fakeLink) emit(e netlink.Event) {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	if cb != nil {
		cb(e)
	}
}

type fakeAddr struct{ a netip.Addr }

func (f fakeAddr) Addr() (netip.Addr, error) { return f.a, nil }

func TestNetlinkRadio_Lifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	fl := &fakeLink{failNext: errors.New("no ap")}
	addr := &fakeAddr{}
	r := NewNetlinkRadio(fl, addr)

	if r.IsStarted() {
		t.Fatal("started before Start")
	}
	if err := r.Start(ctx, Credentials{}); !errors.Is(err, errcode.InvalidConfig) {
		t.Fatalf("Start without ssid = %v", err)
	}
	if err := r.Start(ctx, Credentials{SSID: "lab", Passphrase: "secret99"}); err != nil {
		t.Fatal(err)
	}
	if !r.IsStarted() {
		t.Fatal("not started after Start")
	}

	if err := r.Connect(ctx); !errors.Is(err, errcode.LinkDown) {
		t.Fatalf("first Connect = %v, want link_down", err)
	}
	if r.LinkUp() {
		t.Fatal("link up after failed connect")
	}
	if err := r.Connect(ctx); err != nil {
		t.Fatalf("second Connect = %v", err)
	}
	if !r.LinkUp() {
		t.Fatal("link down after connect")
	}
	fl.mu.Lock()
	p := fl.params[len(fl.params)-1]
	fl.mu.Unlock()
	if p.Ssid != "lab" || p.Passphrase != "secret99" {
		t.Fatalf("connect params %+v", p)
	}

	if _, err := r.Config(); !errors.Is(err, errcode.NotReady) {
		t.Fatalf("Config without address = %v", err)
	}
	addr.a = netip.MustParseAddr("10.0.0.9")
	cfg, err := r.Config()
	if err != nil || cfg.Address.Addr() != addr.a {
		t.Fatalf("Config = %+v, %v", cfg, err)
	}

	done := make(chan error, 1)
	go func() { done <- r.WaitDisconnect(ctx) }()
	fl.emit(netlink.EventNetUp) // ignored
	time.Sleep(10 * time.Millisecond)
	fl.NetDisconnect()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("WaitDisconnect = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitDisconnect missed EventNetDown")
	}
	if r.LinkUp() {
		t.Fatal("link still up after EventNetDown")
	}
}
