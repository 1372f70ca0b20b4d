package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/danmuck/wirecall/internal/observability"
	"github.com/danmuck/wirecall/internal/protocol"
	"github.com/danmuck/wirecall/internal/registry"
	"github.com/rs/zerolog"
)

var ErrHandlerPanic = errors.New("rpc: handler panic")

// Server is the answering side of one peer connection.
type Server struct {
	registry  *registry.Registry
	transport Transport
	logger    zerolog.Logger
}

func NewServer(reg *registry.Registry, t Transport, opts ...Option) *Server {
	o := buildOptions(opts)
	return &Server{
		registry:  reg,
		transport: t,
		logger:    o.logger,
	}
}

// Dispatch decodes one call, invokes the addressed function and returns the
// encoded response body. It needs no transport.
func (s *Server) Dispatch(wire string) (string, error) {
	start := time.Now()
	key, body, err := s.dispatch(wire)
	observability.RecordCall(observability.SideServer, string(key), err, time.Since(start))
	if err != nil {
		s.logger.Warn().Str("wire", wire).Err(err).Msg("rpc.dispatch failed")
		return "", err
	}
	s.logger.Debug().Str("function", string(key)).Str("wire", wire).Str("response", body).Msg("rpc.dispatch")
	return body, nil
}

func (s *Server) dispatch(wire string) (key registry.Key, body string, err error) {
	call, err := protocol.ParseCall(wire)
	if err != nil {
		return "", "", err
	}
	entry, err := s.registry.Entry(call.Index)
	if err != nil {
		return "", "", err
	}
	key = entry.Key

	defer func() {
		if r := recover(); r != nil {
			body = ""
			err = fmt.Errorf("%w: %s: %v", ErrHandlerPanic, key, r)
		}
	}()
	resp, err := entry.Invoke(call.Args)
	if err != nil {
		return key, "", fmt.Errorf("%s: %w", key, err)
	}
	return key, resp.Marshal(), nil
}

// Listen serves calls until the peer closes the stream, ctx is cancelled, or
// a cycle fails. The next request is not read before the current response
// has been sent. A failed cycle is fatal and its error is returned.
func (s *Server) Listen(ctx context.Context) error {
	s.logger.Info().Int("functions", s.registry.Len()).Msg("rpc.listen")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		wire, err := s.transport.Receive(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Info().Msg("rpc.listen peer closed")
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("rpc: receive: %w", err)
		}
		body, err := s.Dispatch(wire)
		if err != nil {
			return err
		}
		// The handler may cancel ctx (exit); its response still goes out.
		if err := s.transport.Send(context.WithoutCancel(ctx), body); err != nil {
			return fmt.Errorf("rpc: send: %w", err)
		}
	}
}
