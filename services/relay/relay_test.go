package relay

import (
	"context"
	"errors"
	"io"
	"net"
	"net/netip"
	"sync"
	"testing"
	"time"

	"uartlog-go/errcode"
	"uartlog-go/services/link"
	"uartlog-go/types"
)

// --- fakes ---

type scriptedPort struct{ ch chan []byte }

func (p *scriptedPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	select {
	case b := <-p.ch:
		return copy(buf, b), nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// upRadio associates on the first Connect and holds the link until ctx ends.
type upRadio struct {
	mu      sync.Mutex
	started bool
	up      bool
	creds   link.Credentials
}

func (r *upRadio) IsStarted() bool { r.mu.Lock(); defer r.mu.Unlock(); return r.started }
func (r *upRadio) Start(ctx context.Context, c link.Credentials) error {
	r.mu.Lock()
	r.started, r.creds = true, c
	r.mu.Unlock()
	return nil
}
func (r *upRadio) Connect(ctx context.Context) error {
	r.mu.Lock()
	r.up = true
	r.mu.Unlock()
	return nil
}
func (r *upRadio) WaitDisconnect(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}
func (r *upRadio) LinkUp() bool { r.mu.Lock(); defer r.mu.Unlock(); return r.up }
func (r *upRadio) Config() (types.NetworkConfig, error) {
	return types.NetworkConfig{Address: netip.MustParsePrefix("127.0.0.1/8")}, nil
}

func loopback(addrs chan<- string) func(string, string) (net.Listener, error) {
	return func(network, _ string) (net.Listener, error) {
		ln, err := net.Listen(network, "127.0.0.1:0")
		if err == nil {
			addrs <- ln.Addr().String()
		}
		return ln, err
	}
}

func bootConfig() types.BootConfig {
	return types.BootConfig{
		SSID:       "lab",
		Passphrase: "secret99",
		Port:       3030,
		Seed:       1234,
		Link: types.LinkConfig{
			RetryDelay:      10 * time.Millisecond,
			DisconnectDelay: 10 * time.Millisecond,
			PollInterval:    5 * time.Millisecond,
		},
	}
}

// --- tests ---

func TestRelay_SerialToClient(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	port := &scriptedPort{ch: make(chan []byte, 8)}
	radio := &upRadio{}
	addrs := make(chan string, 1)
	r := New(Deps{Config: bootConfig(), Serial: port, Radio: radio, Listen: loopback(addrs)})
	r.Start(ctx)

	var addr string
	select {
	case addr = <-addrs:
	case <-ctx.Done():
		t.Fatal("sender never listened")
	}
	c, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	for _, p := range []string{"AB", "CD", "EF"} {
		port.ch <- []byte(p)
	}
	got := make([]byte, 6)
	_ = c.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, err := io.ReadFull(c, got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "ABCDEF" {
		t.Fatalf("stream %q", got)
	}
	if s := r.LinkState(); s != types.LinkConnected {
		t.Fatalf("link state %s", s)
	}
	if s := r.ReaderStats(); s.Chunks != 3 || s.Bytes != 6 {
		t.Fatalf("reader stats %+v", s)
	}
	radio.mu.Lock()
	creds := radio.creds
	radio.mu.Unlock()
	if creds.SSID != "lab" || creds.Seed != 1234 {
		t.Fatalf("credentials %+v", creds)
	}

	cancel()
	r.Wait()
}

func TestRelay_SenderFailureLeavesOthersRunning(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	boom := errors.New("address in use")
	port := &scriptedPort{ch: make(chan []byte, 64)}
	r := New(Deps{
		Config: bootConfig(),
		Serial: port,
		Radio:  &upRadio{},
		Listen: func(string, string) (net.Listener, error) { return nil, boom },
	})
	r.Start(ctx)

	select {
	case e := <-r.Exits():
		if e.Task != "sender" || e.Restarted || !errors.Is(e.Err, errcode.ListenFailed) {
			t.Fatalf("exit %+v", e)
		}
	case <-ctx.Done():
		t.Fatal("no exit reported")
	}

	// The reader keeps producing into the orphaned mailbox until it fills.
	for i := 0; i < 4; i++ {
		port.ch <- []byte{byte(i)}
	}
	deadline := time.Now().Add(time.Second)
	for r.ReaderStats().Chunks < 4 {
		if time.Now().After(deadline) {
			t.Fatalf("reader stalled at %d chunks", r.ReaderStats().Chunks)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if s := r.LinkState(); s != types.LinkConnected {
		t.Fatalf("link state %s", s)
	}

	select {
	case e := <-r.Exits():
		t.Fatalf("unexpected exit %+v", e)
	default:
	}
	cancel()
	r.Wait()
}

func TestRelay_LinkPolicyFollowsConfig(t *testing.T) {
	cfg := bootConfig()
	cfg.Link.RetryDelay = 750 * time.Millisecond
	p := New(Deps{Config: cfg, Radio: &upRadio{}}).linkPolicy()
	if !p.Restarts() || p.Delay() != 750*time.Millisecond {
		t.Fatalf("link policy restarts=%v delay=%v", p.Restarts(), p.Delay())
	}

	cfg.Link.RetryDelay = 0
	if d := New(Deps{Config: cfg, Radio: &upRadio{}}).linkPolicy().Delay(); d != link.DefaultRetryDelay {
		t.Fatalf("default delay %v", d)
	}
}
