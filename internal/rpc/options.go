package rpc

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type options struct {
	logger zerolog.Logger
	name   string
}

// Option configures a Client or Server.
type Option func(*options)

// WithLogger sets the structured logger used for per-cycle events.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithName tags log events with a peer name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

func buildOptions(opts []Option) options {
	o := options{logger: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}
	if o.name != "" {
		o.logger = o.logger.With().Str("peer", o.name).Logger()
	}
	return o
}
