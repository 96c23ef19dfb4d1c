package actor

import (
	"context"
	"sync"
)

// Capacity is the fixed number of slots in every mailbox.
const Capacity = 16

// Mailbox is a bounded FIFO with blocking send and receive.
//
// Storage is a fixed array allocated together with the mailbox; it is never
// resized. Indices are monotonic and wrap through Capacity, in the same way
// as a power-of-two byte ring.
type Mailbox[T any] struct {
	mu    sync.Mutex
	slots [Capacity]T
	rd    uint32 // consumer index (monotonic)
	wr    uint32 // producer index (monotonic)

	readable chan struct{} // signalled when a message becomes available
	writable chan struct{} // signalled when a slot frees up
}

// NewMailbox allocates an empty mailbox.
func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{
		readable: make(chan struct{}, 1),
		writable: make(chan struct{}, 1),
	}
}

// Sender returns a handle that may enqueue into m.
func (m *Mailbox[T]) Sender() Sender[T] { return Sender[T]{m: m} }

// Inbox returns the receiving end of m. There must be exactly one consumer.
func (m *Mailbox[T]) Inbox() *Inbox[T] { return &Inbox[T]{m: m} }

// Len returns the number of pending messages.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	n := int(m.wr - m.rd)
	m.mu.Unlock()
	return n
}

// Cap returns the fixed capacity.
func (m *Mailbox[T]) Cap() int { return Capacity }

func (m *Mailbox[T]) tryPush(v T) bool {
	m.mu.Lock()
	used := m.wr - m.rd
	if used >= Capacity {
		m.mu.Unlock()
		return false
	}
	m.slots[m.wr%Capacity] = v
	m.wr++
	more := used+1 < Capacity
	m.mu.Unlock()

	notify(m.readable)
	if more {
		// Pass the token on to any other blocked sender.
		notify(m.writable)
	}
	return true
}

func (m *Mailbox[T]) tryPop() (T, bool) {
	var zero T
	m.mu.Lock()
	if m.wr == m.rd {
		m.mu.Unlock()
		return zero, false
	}
	i := m.rd % Capacity
	v := m.slots[i]
	m.slots[i] = zero
	m.rd++
	more := m.wr != m.rd
	m.mu.Unlock()

	notify(m.writable)
	if more {
		notify(m.readable)
	}
	return v, true
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// -----------------------------------------------------------------------------
// Sender / Inbox
// -----------------------------------------------------------------------------

// Sender is the capability to enqueue into one mailbox. It is a small value
// and may be copied freely; it grants no access to the owning actor.
type Sender[T any] struct {
	m *Mailbox[T]
}

// Send enqueues v, suspending while the mailbox is full. It never drops v.
// The only error is ctx.Err() when ctx ends before a slot frees up.
func (s Sender[T]) Send(ctx context.Context, v T) error {
	for {
		if s.m.tryPush(v) {
			return nil
		}
		select {
		case <-s.m.writable:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// TrySend enqueues v only if a slot is free.
func (s Sender[T]) TrySend(v T) bool { return s.m.tryPush(v) }

// Valid reports whether the handle refers to a mailbox.
func (s Sender[T]) Valid() bool { return s.m != nil }

// Inbox is the single receiving end of a mailbox.
type Inbox[T any] struct {
	m *Mailbox[T]
}

// Receive returns the oldest message, suspending while the mailbox is empty.
func (in *Inbox[T]) Receive(ctx context.Context) (T, error) {
	for {
		if v, ok := in.m.tryPop(); ok {
			return v, nil
		}
		select {
		case <-in.m.readable:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// TryReceive returns the oldest message if one is pending.
func (in *Inbox[T]) TryReceive() (T, bool) { return in.m.tryPop() }

// Len returns the number of pending messages.
func (in *Inbox[T]) Len() int { return in.m.Len() }
