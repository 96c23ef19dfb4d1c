//go:build !rp2040

package platform

import (
	"context"
	"errors"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/goburrow/serial"

	"uartlog-go/errcode"
	"uartlog-go/services/link"
)

// --- fake serial: scripted Read results ---

type readStep struct {
	data string
	err  error
}

type scriptedReader struct {
	mu    sync.Mutex
	steps []readStep
}

func (s *scriptedReader) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.steps) == 0 {
		return 0, serial.ErrTimeout
	}
	st := s.steps[0]
	s.steps = s.steps[1:]
	return copy(p, st.data), st.err
}

func TestHostSerial_SkipsTimeouts(t *testing.T) {
	r := &scriptedReader{steps: []readStep{
		{err: serial.ErrTimeout},
		{err: serial.ErrTimeout},
		{data: "log line"},
		{err: errors.New("device gone")},
	}}
	hs := &hostSerial{r: r}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	buf := make([]byte, 32)
	n, err := hs.RecvSomeContext(ctx, buf)
	if err != nil || string(buf[:n]) != "log line" {
		t.Fatalf("first read = %q, %v", buf[:n], err)
	}
	if _, err := hs.RecvSomeContext(ctx, buf); err == nil || err.Error() != "device gone" {
		t.Fatalf("second read err = %v", err)
	}

	cancel()
	if _, err := hs.RecvSomeContext(ctx, buf); !errors.Is(err, context.Canceled) {
		t.Fatalf("read after cancel = %v", err)
	}
}

// --- fake interface ---

type fakeIface struct {
	up   bool
	addr netip.Prefix
}

func (f fakeIface) Up() bool { return f.up }
func (f fakeIface) IPv4() (netip.Prefix, bool) {
	return f.addr, f.addr.IsValid()
}

type ifaceTable struct {
	mu  sync.Mutex
	cur *fakeIface
}

func (t *ifaceTable) set(f *fakeIface) { t.mu.Lock(); t.cur = f; t.mu.Unlock() }
func (t *ifaceTable) lookup(name string) (iface, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cur == nil {
		return nil, errors.New("no such interface")
	}
	return *t.cur, nil
}

func TestInterfaceRadio(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	tbl := &ifaceTable{}
	r := NewInterfaceRadio("wlan0", 5*time.Millisecond)
	r.lookup = tbl.lookup

	if err := r.Start(ctx, link.Credentials{SSID: "x"}); !errors.Is(err, errcode.LinkDown) {
		t.Fatalf("Start without interface = %v", err)
	}
	tbl.set(&fakeIface{up: false})
	if err := r.Start(ctx, link.Credentials{SSID: "x"}); err != nil {
		t.Fatal(err)
	}
	if !r.IsStarted() {
		t.Fatal("not started")
	}
	if err := r.Connect(ctx); !errors.Is(err, errcode.LinkDown) {
		t.Fatalf("Connect while down = %v", err)
	}

	p := netip.MustParsePrefix("192.168.1.20/24")
	tbl.set(&fakeIface{up: true, addr: p})
	if err := r.Connect(ctx); err != nil {
		t.Fatal(err)
	}
	if !r.LinkUp() {
		t.Fatal("link not up")
	}
	cfg, err := r.Config()
	if err != nil || cfg.Address != p {
		t.Fatalf("Config = %+v, %v", cfg, err)
	}

	done := make(chan error, 1)
	go func() { done <- r.WaitDisconnect(ctx) }()
	time.Sleep(20 * time.Millisecond)
	tbl.set(nil)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("WaitDisconnect = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("disconnect not detected")
	}
	if r.LinkUp() || r.IsStarted() {
		t.Fatal("radio should be down and stopped after interface vanished")
	}
}
