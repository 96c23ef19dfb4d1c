// services/uartreader/reader.go
package uartreader

import (
	"context"
	"sync/atomic"

	"uartlog-go/actor"
	"uartlog-go/types"
)

// Port is a serial receiver. *uartx.UART satisfies it directly; host builds
// adapt a device file.
type Port interface {
	RecvSomeContext(ctx context.Context, buf []byte) (int, error)
}

type Stats struct {
	Chunks     uint32
	Bytes      uint32
	ReadErrors uint32
}

// Reader is a producer actor: it ignores its own mailbox and forwards every
// serial read as one Chunk to the sink.
type Reader struct {
	port Port
	sink actor.Sender[types.Chunk]

	chunks  atomic.Uint32
	bytes   atomic.Uint32
	readErr atomic.Uint32
}

func New(port Port, sink actor.Sender[types.Chunk]) *Reader {
	return &Reader{port: port, sink: sink}
}

// Run reads fixed-size chunks until ctx ends. Read errors are logged and the
// next read starts immediately; nothing partial is forwarded.
func (r *Reader) Run(ctx context.Context, _ *actor.Inbox[actor.None]) error {
	var buf [types.ChunkSize]byte
	for {
		n, err := r.port.RecvSomeContext(ctx, buf[:])
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			r.readErr.Add(1)
			println("[uart] read error:", err.Error())
			continue
		}
		if n <= 0 {
			continue
		}
		if n > types.ChunkSize {
			n = types.ChunkSize
		}
		if err := r.sink.Send(ctx, types.NewChunk(buf[:n])); err != nil {
			return nil
		}
		r.chunks.Add(1)
		r.bytes.Add(uint32(n))
	}
}

func (r *Reader) Stats() Stats {
	return Stats{
		Chunks:     r.chunks.Load(),
		Bytes:      r.bytes.Load(),
		ReadErrors: r.readErr.Load(),
	}
}
