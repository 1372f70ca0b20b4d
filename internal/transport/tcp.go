package transport

import (
	"context"
	"net"
	"sync"
)

// Dial connects to a TCP peer.
func Dial(ctx context.Context, addr string) (*Stream, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewStream(conn, conn), nil
}

// Listener accepts TCP peers as Streams.
type Listener struct {
	ln        net.Listener
	closeOnce sync.Once
	closeErr  error
}

func Listen(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{ln: ln}, nil
}

func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Accept waits for the next peer. Cancelling ctx closes the listener.
func (l *Listener) Accept(ctx context.Context) (*Stream, error) {
	stop := context.AfterFunc(ctx, func() { _ = l.Close() })
	defer stop()

	conn, err := l.ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return NewStream(conn, conn), nil
}

func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.ln.Close()
	})
	return l.closeErr
}
