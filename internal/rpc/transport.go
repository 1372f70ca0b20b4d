package rpc

import "context"

// Transport moves one complete message at a time. Both methods block until
// done; timeouts and cancellation are the transport's business and arrive
// through ctx.
type Transport interface {
	Send(ctx context.Context, msg string) error
	Receive(ctx context.Context) (string, error)
}
