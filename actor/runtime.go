package actor

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Policy decides what happens when a task's run function returns.
type Policy struct {
	restart bool
	delay   time.Duration
}

// Halt stops the task for good when it returns. Other tasks are unaffected.
var Halt = Policy{}

// Restart re-runs the task after delay whenever it returns an error.
// A nil return (or a cancelled runtime) still ends the task.
func Restart(delay time.Duration) Policy {
	if delay < 0 {
		delay = 0
	}
	return Policy{restart: true, delay: delay}
}

// Restarts reports whether the task is re-run after an error.
func (p Policy) Restarts() bool { return p.restart }

// Delay is the pause before a restart.
func (p Policy) Delay() time.Duration { return p.delay }

// Exit reports the end of one run of a task.
type Exit struct {
	Task      string
	Err       error
	Restarted bool
}

// ErrPanic wraps a value recovered from a panicking task.
var ErrPanic = errors.New("task panicked")

// Runtime launches tasks and applies their supervision policy. On TinyGo the
// tasks share one core under the cooperative scheduler; on host builds the
// caller pins GOMAXPROCS to 1 for the same execution model.
type Runtime struct {
	ctx   context.Context
	wg    sync.WaitGroup
	exits chan Exit
}

// ExitBacklog is how many undrained exit reports are kept.
const ExitBacklog = 32

// NewRuntime binds all tasks to ctx.
func NewRuntime(ctx context.Context) *Runtime {
	return &Runtime{
		ctx:   ctx,
		exits: make(chan Exit, ExitBacklog),
	}
}

// Exits delivers task exit reports. Reports are dropped if nobody drains
// the channel; they are diagnostics, not data.
func (rt *Runtime) Exits() <-chan Exit { return rt.exits }

// Go runs fn as a named task under policy p.
func (rt *Runtime) Go(name string, p Policy, fn func(ctx context.Context) error) {
	rt.wg.Add(1)
	go func() {
		defer rt.wg.Done()
		for {
			err := runGuarded(rt.ctx, fn)
			again := p.restart && err != nil && rt.ctx.Err() == nil
			rt.report(Exit{Task: name, Err: err, Restarted: again})
			if err != nil {
				if again {
					println("[actor]", name, "failed:", err.Error(), "(restarting)")
				} else {
					println("[actor]", name, "stopped:", err.Error())
				}
			}
			if !again {
				return
			}
			if !sleep(rt.ctx, p.delay) {
				return
			}
		}
	}()
}

// Wait blocks until every task has ended.
func (rt *Runtime) Wait() { rt.wg.Wait() }

func (rt *Runtime) report(e Exit) {
	select {
	case rt.exits <- e:
	default:
	}
}

func runGuarded(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = errors.Join(ErrPanic, e)
				return
			}
			if s, ok := r.(string); ok {
				err = errors.Join(ErrPanic, errors.New(s))
				return
			}
			err = ErrPanic
		}
	}()
	return fn(ctx)
}

// sleep waits for d or until ctx ends. It reports whether d elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
