package rpc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/wirecall/internal/observability"
	"github.com/danmuck/wirecall/internal/protocol"
	"github.com/danmuck/wirecall/internal/registry"
	"github.com/rs/zerolog"
)

var (
	ErrCallInProgress = errors.New("rpc: call already in progress")
	ErrDesynchronized = errors.New("rpc: transport desynchronized by an earlier failed call")
)

// Client is the calling side of one peer connection.
type Client struct {
	registry  *registry.Registry
	transport Transport
	logger    zerolog.Logger

	busy   atomic.Bool
	broken atomic.Bool
}

var _ registry.Caller = (*Client)(nil)

func NewClient(reg *registry.Registry, t Transport, opts ...Option) *Client {
	o := buildOptions(opts)
	return &Client{
		registry:  reg,
		transport: t,
		logger:    o.logger,
	}
}

// Invoke resolves key, sends "<index> <args...>" and blocks for the response
// body. args must already be encoded tokens.
func (c *Client) Invoke(ctx context.Context, key registry.Key, args ...string) (string, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return "", ErrCallInProgress
	}
	defer c.busy.Store(false)
	if c.broken.Load() {
		return "", ErrDesynchronized
	}

	start := time.Now()
	body, err := c.roundTrip(ctx, key, args)
	observability.RecordCall(observability.SideClient, string(key), err, time.Since(start))
	if err != nil {
		c.logger.Debug().Str("function", string(key)).Err(err).Msg("rpc.call failed")
		return "", err
	}
	return body, nil
}

// Broken reports whether an earlier transport failure left the peer
// connection out of step.
func (c *Client) Broken() bool {
	return c.broken.Load()
}

func (c *Client) roundTrip(ctx context.Context, key registry.Key, args []string) (string, error) {
	index, err := c.registry.Resolve(key)
	if err != nil {
		return "", err
	}
	entry, err := c.registry.Entry(uint64(index))
	if err != nil {
		return "", err
	}
	if len(args) != len(entry.Params) {
		return "", fmt.Errorf("%w: %s takes %d arguments, got %d", registry.ErrArityMismatch, key, len(entry.Params), len(args))
	}
	wire := protocol.NewCall(uint64(index), args...).Marshal()
	c.logger.Debug().Str("function", string(key)).Int("index", index).Str("wire", wire).Msg("rpc.call")

	if err := c.transport.Send(ctx, wire); err != nil {
		// A partial write leaves the peer mid-message.
		c.broken.Store(true)
		return "", fmt.Errorf("rpc: send %s: %w", key, err)
	}
	body, err := c.transport.Receive(ctx)
	if err != nil {
		c.broken.Store(true)
		return "", fmt.Errorf("rpc: receive %s: %w", key, err)
	}
	c.logger.Debug().Str("function", string(key)).Str("response", body).Msg("rpc.return")
	return body, nil
}

// Serialized wraps c so that concurrent callers take turns.
func Serialized(c registry.Caller) registry.Caller {
	return &serializedCaller{next: c}
}

type serializedCaller struct {
	mu   sync.Mutex
	next registry.Caller
}

func (s *serializedCaller) Invoke(ctx context.Context, key registry.Key, args ...string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next.Invoke(ctx, key, args...)
}
