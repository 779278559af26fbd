package router

import (
	"context"
	"errors"

	"github.com/thajpo/ceo-dashboard/internal/events"
)

// ErrStopped is returned by Do once the loop has exited.
var ErrStopped = errors.New("router loop stopped")

const defaultBacklog = 256

// Loop owns a Router and applies events and commands to it one at a time,
// in the order they were submitted.
type Loop struct {
	router  *Router
	queue   chan func(*Router)
	stopped chan struct{}
}

func NewLoop(r *Router, backlog int) *Loop {
	if backlog <= 0 {
		backlog = defaultBacklog
	}
	return &Loop{
		router:  r,
		queue:   make(chan func(*Router), backlog),
		stopped: make(chan struct{}),
	}
}

// Run processes work until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			fn(l.router)
		}
	}
}

// Submit queues an inbound event. It blocks while the backlog is full and
// returns false if the loop has stopped.
func (l *Loop) Submit(ev events.Event) bool {
	if l.Stopped() {
		return false
	}
	select {
	case l.queue <- func(r *Router) { r.Route(ev) }:
		return true
	case <-l.stopped:
		return false
	}
}

// Do runs fn on the loop goroutine and waits for it to finish. If ctx ends
// first, Do returns its error; fn may still run later.
func (l *Loop) Do(ctx context.Context, fn func(*Router)) error {
	if l.Stopped() {
		return ErrStopped
	}
	done := make(chan struct{})
	work := func(r *Router) {
		defer close(done)
		fn(r)
	}
	select {
	case l.queue <- work:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		// fn may have been the last item processed
		select {
		case <-done:
			return nil
		default:
			return ErrStopped
		}
	}
}

func (l *Loop) Stopped() bool {
	select {
	case <-l.stopped:
		return true
	default:
		return false
	}
}
