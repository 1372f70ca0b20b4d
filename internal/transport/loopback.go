package transport

import (
	"context"
	"errors"
	"sync"
)

var ErrNoPendingResponse = errors.New("transport: no pending response")

// Dispatcher handles one wire message in-process. *rpc.Server satisfies it.
type Dispatcher interface {
	Dispatch(wire string) (string, error)
}

// Loopback hands messages straight to a Dispatcher in the caller's goroutine.
type Loopback struct {
	dispatcher Dispatcher

	mu      sync.Mutex
	pending string
	has     bool
}

func NewLoopback(d Dispatcher) *Loopback {
	return &Loopback{dispatcher: d}
}

func (l *Loopback) Send(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	resp, err := l.dispatcher.Dispatch(msg)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.pending, l.has = resp, true
	l.mu.Unlock()
	return nil
}

func (l *Loopback) Receive(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.has {
		return "", ErrNoPendingResponse
	}
	resp := l.pending
	l.pending, l.has = "", false
	return resp, nil
}
