package heartbeat

import (
	"context"
	"time"

	"uartlog-go/services/uartreader"
	"uartlog-go/types"
)

// Source is polled on every beat. *relay.Relay satisfies it.
type Source interface {
	LinkState() types.LinkState
	ReaderStats() uartreader.Stats
}

// Sample is one beat.
type Sample struct {
	At    time.Time
	Link  types.LinkState
	Stats uartreader.Stats
	// Bytes forwarded since the previous beat.
	Delta uint32
}

type Service struct {
	interval time.Duration
	src      Source
	onBeat   func(Sample)
}

// New returns a heartbeat that logs every interval. onBeat may be nil.
func New(interval time.Duration, src Source, onBeat func(Sample)) *Service {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Service{interval: interval, src: src, onBeat: onBeat}
}

// Run logs until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	var last uint32
	for {
		select {
		case <-ctx.Done():
			println("[heartbeat] stopping")
			return nil
		case t := <-tick.C:
			st := s.src.ReaderStats()
			smp := Sample{At: t, Link: s.src.LinkState(), Stats: st, Delta: st.Bytes - last}
			last = st.Bytes
			println(t.Format("15:04:05"), "[heartbeat] link", smp.Link.String(),
				"chunks", st.Chunks, "bytes", st.Bytes, "+", smp.Delta, "read_errors", st.ReadErrors)
			if s.onBeat != nil {
				s.onBeat(smp)
			}
		}
	}
}
