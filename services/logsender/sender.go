// services/logsender/sender.go
package logsender

import (
	"context"
	"net"
	"net/netip"
	"strconv"
	"sync"

	"uartlog-go/actor"
	"uartlog-go/errcode"
	"uartlog-go/services/config"
	"uartlog-go/types"
)

// NetworkSource blocks until the link has an address. *link.Handle
// satisfies it.
type NetworkSource interface {
	WaitConfig(ctx context.Context) (types.NetworkConfig, error)
}

// ListenFunc opens the listening socket. net.Listen by default.
type ListenFunc func(network, address string) (net.Listener, error)

type Config struct {
	Port   int
	Listen ListenFunc
}

// Sender is the consumer actor. It serves exactly one TCP client and writes
// every received chunk to it, in order, as one write per chunk.
type Sender struct {
	net    NetworkSource
	port   int
	listen ListenFunc
}

func New(src NetworkSource, cfg Config) *Sender {
	if cfg.Listen == nil {
		cfg.Listen = net.Listen
	}
	return &Sender{net: src, port: config.NormalizePort(cfg.Port), listen: cfg.Listen}
}

// Run waits for an address, accepts one client and streams chunks to it.
// The listener is closed as soon as that client is accepted, so later
// connection attempts are refused. Every failure past that point is terminal
// for this task and returned as an *errcode.E; there is no re-accept.
func (s *Sender) Run(ctx context.Context, inbox *actor.Inbox[types.Chunk]) error {
	cfg, err := s.net.WaitConfig(ctx)
	if err != nil {
		return err
	}

	ap := netip.AddrPortFrom(cfg.Address.Addr(), uint16(s.port))
	ln, err := s.listen("tcp", ap.String())
	if err != nil {
		return errcode.Wrap(errcode.ListenFailed, "sender.listen", err)
	}
	var once sync.Once
	closeLn := func() { once.Do(func() { ln.Close() }) }
	defer closeLn()
	println("[sender] listening on", ap.String())

	conn, err := accept(ctx, ln, closeLn)
	if err != nil {
		return errcode.Wrap(errcode.AcceptFailed, "sender.accept", err)
	}
	closeLn()
	defer conn.Close()
	println("[sender] client", conn.RemoteAddr().String())

	for {
		c, err := inbox.Receive(ctx)
		if err != nil {
			return nil
		}
		p := c.Bytes()
		n, err := conn.Write(p)
		if err != nil {
			return errcode.Wrap(errcode.WriteFailed, "sender.write", err)
		}
		if n != len(p) {
			return &errcode.E{C: errcode.ShortWrite, Op: "sender.write",
				Msg: strconv.Itoa(n) + "/" + strconv.Itoa(len(p))}
		}
	}
}

// accept unblocks on ctx by closing the listener.
func accept(ctx context.Context, ln net.Listener, closeLn func()) (net.Conn, error) {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			closeLn()
		case <-stop:
		}
	}()
	return ln.Accept()
}
