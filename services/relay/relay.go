// services/relay/relay.go
package relay

import (
	"context"
	"time"

	"uartlog-go/actor"
	"uartlog-go/services/heartbeat"
	"uartlog-go/services/link"
	"uartlog-go/services/logsender"
	"uartlog-go/services/uartreader"
	"uartlog-go/types"
)

// Supervision policy per task, decided here rather than inside the actors.
var (
	// The sink serves one client for the life of the process; once it fails
	// there is nothing to retry to.
	SenderPolicy = actor.Halt
	// The reader swallows read errors itself; a panic in a driver is worth a
	// restart.
	ReaderPolicy = actor.Restart(100 * time.Millisecond)
	// Diagnostics only.
	HeartbeatPolicy = actor.Halt
)

type Deps struct {
	Config types.BootConfig
	Serial uartreader.Port
	Radio  link.Radio
	Listen logsender.ListenFunc

	// OnTransition observes link state changes (optional).
	OnTransition func(from, to types.LinkState)
	// OnBeat observes heartbeat samples (optional).
	OnBeat func(heartbeat.Sample)
}

// Relay is the composition root: it owns the runtime and wires
// UartReader -> mailbox -> LogSender, with the link manager alongside.
type Relay struct {
	deps   Deps
	mgr    *link.Manager
	reader *uartreader.Reader
	rt     *actor.Runtime
}

func New(d Deps) *Relay {
	cfg := d.Config
	mgr := link.NewManager(d.Radio, link.Credentials{
		SSID:       cfg.SSID,
		Passphrase: cfg.Passphrase,
		Seed:       cfg.Seed,
	}, link.Options{
		RetryDelay:      cfg.Link.RetryDelay,
		DisconnectDelay: cfg.Link.DisconnectDelay,
		PollInterval:    cfg.Link.PollInterval,
		OnTransition:    d.OnTransition,
	})
	return &Relay{deps: d, mgr: mgr}
}

// Start launches every task on a fresh runtime bound to ctx.
func (r *Relay) Start(ctx context.Context) {
	r.rt = actor.NewRuntime(ctx)

	r.rt.Go("link", r.linkPolicy(), r.mgr.Run)

	sender := logsender.New(r.mgr.Handle(), logsender.Config{
		Port:   r.deps.Config.Port,
		Listen: r.deps.Listen,
	})
	sink := actor.Spawn[types.Chunk](r.rt, "sender", sender, SenderPolicy)

	r.reader = uartreader.New(r.deps.Serial, sink)
	actor.Spawn[actor.None](r.rt, "uart", r.reader, ReaderPolicy)

	hb := heartbeat.New(r.deps.Config.Heartbeat, r, r.deps.OnBeat)
	r.rt.Go("heartbeat", HeartbeatPolicy, hb.Run)

	println("[relay] started, port", r.deps.Config.Port, "seed", r.deps.Config.Seed)
}

// linkPolicy restarts the link manager at the configured retry pace. The
// manager only returns on shutdown or a panic.
func (r *Relay) linkPolicy() actor.Policy {
	d := r.deps.Config.Link.RetryDelay
	if d <= 0 {
		d = link.DefaultRetryDelay
	}
	return actor.Restart(d)
}

// Wait blocks until every task has ended.
func (r *Relay) Wait() { r.rt.Wait() }

// Exits reports task exits; see actor.Runtime.Exits.
func (r *Relay) Exits() <-chan actor.Exit { return r.rt.Exits() }

// LinkState returns the link supervisor's current state.
func (r *Relay) LinkState() types.LinkState { return r.mgr.State() }

// ReaderStats returns the producer counters.
func (r *Relay) ReaderStats() uartreader.Stats { return r.reader.Stats() }
