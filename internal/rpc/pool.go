package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/danmuck/wirecall/internal/registry"
	"github.com/silenceper/pool"
)

// Conn is a transport the pool can close.
type Conn interface {
	Transport
	io.Closer
}

// PoolConfig sizes a Pool. Dial opens one new peer connection.
type PoolConfig struct {
	InitialCap  int
	MaxIdle     int
	MaxCap      int
	IdleTimeout time.Duration
	Dial        func() (Conn, error)
}

// Pool spreads concurrent callers over several connections, one call per
// connection at a time. A connection whose client broke is discarded.
type Pool struct {
	registry *registry.Registry
	pool     pool.Pool
	opts     []Option
}

var _ registry.Caller = (*Pool)(nil)

type pooledClient struct {
	conn   Conn
	client *Client
}

func NewPool(reg *registry.Registry, cfg PoolConfig, opts ...Option) (*Pool, error) {
	if cfg.Dial == nil {
		return nil, fmt.Errorf("rpc: pool needs a dial func")
	}
	if cfg.MaxCap <= 0 {
		cfg.MaxCap = 8
	}
	if cfg.MaxIdle <= 0 || cfg.MaxIdle > cfg.MaxCap {
		cfg.MaxIdle = cfg.MaxCap
	}
	if cfg.InitialCap > cfg.MaxIdle {
		cfg.InitialCap = cfg.MaxIdle
	}

	p := &Pool{registry: reg, opts: opts}
	cp, err := pool.NewChannelPool(&pool.Config{
		InitialCap: cfg.InitialCap,
		MaxIdle:    cfg.MaxIdle,
		MaxCap:     cfg.MaxCap,
		Factory: func() (interface{}, error) {
			conn, err := cfg.Dial()
			if err != nil {
				return nil, err
			}
			return &pooledClient{conn: conn, client: NewClient(reg, conn, p.opts...)}, nil
		},
		Close: func(v interface{}) error {
			return v.(*pooledClient).conn.Close()
		},
		IdleTimeout: cfg.IdleTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("rpc: pool: %w", err)
	}
	p.pool = cp
	return p, nil
}

func (p *Pool) Invoke(ctx context.Context, key registry.Key, args ...string) (string, error) {
	v, err := p.get(ctx)
	if err != nil {
		return "", err
	}
	pc := v.(*pooledClient)

	body, err := pc.client.Invoke(ctx, key, args...)
	if pc.client.Broken() {
		_ = p.pool.Close(v)
	} else {
		_ = p.pool.Put(v)
	}
	return body, err
}

// get waits for a free connection while the pool is at capacity.
func (p *Pool) get(ctx context.Context) (interface{}, error) {
	wait := time.Millisecond
	for {
		v, err := p.pool.Get()
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, pool.ErrMaxActiveConnReached) {
			return nil, fmt.Errorf("rpc: pool get: %w", err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		if wait < 50*time.Millisecond {
			wait *= 2
		}
	}
}

// Len returns the number of idle connections.
func (p *Pool) Len() int {
	return p.pool.Len()
}

// Close releases every pooled connection.
func (p *Pool) Close() {
	p.pool.Release()
}
