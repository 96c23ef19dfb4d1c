package actor

import "context"

// Actor is a unit of work that owns one mailbox of message type T.
//
// Run is the actor's loop. It is handed the receiving end of its own mailbox
// and normally never returns; a returned error is handed to the task's
// supervision policy. Every iteration must reach a suspension point (mailbox,
// I/O or timer) or the other tasks starve.
type Actor[T any] interface {
	Run(ctx context.Context, inbox *Inbox[T]) error
}

// None is the message type of actors that only produce.
type None struct{}

// Func adapts a plain function to Actor.
type Func[T any] func(ctx context.Context, inbox *Inbox[T]) error

func (f Func[T]) Run(ctx context.Context, inbox *Inbox[T]) error { return f(ctx, inbox) }

// Spawn allocates a mailbox for a, launches a.Run as a task on rt and returns
// the sending handle. Wiring is explicit: the caller passes the handle on to
// whichever producers need it.
func Spawn[T any](rt *Runtime, name string, a Actor[T], p Policy) Sender[T] {
	mb := NewMailbox[T]()
	inbox := mb.Inbox()
	rt.Go(name, p, func(ctx context.Context) error {
		return a.Run(ctx, inbox)
	})
	return mb.Sender()
}
