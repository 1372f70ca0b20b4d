// Package demo holds the demonstration registry shared by the wirecall
// server and client commands.
package demo

import (
	"context"
	"fmt"

	"github.com/danmuck/wirecall/internal/registry"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	NoArgs   = registry.NewProc0("no_args")
	OneArg   = registry.NewProc1[string]("one_arg")
	ManyArgs = registry.NewProc4[string, int, string, string]("many_args")
	Add      = registry.NewFunc2[int, int, int]("add")
	Exit     = registry.NewProc1[int]("exit")
)

// EscapedString exercises every reserved byte of the codec.
const EscapedString = "String with spaces, percents %, tab \t and new line \r\n"

// Hooks supplies the side effects of the bound functions.
type Hooks struct {
	Logger *zerolog.Logger
	Exit   func(code int)
}

func (h Hooks) logger() *zerolog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return &log.Logger
}

// Registry returns the demo registry with implementations bound.
func Registry(h Hooks) *registry.Registry {
	logger := h.logger()
	return registry.MustNew(
		NoArgs.Bind(func() {
			logger.Info().Msg("no_args")
		}),
		OneArg.Bind(func(msg string) {
			logger.Info().Str("msg", msg).Msg("one_arg")
		}),
		ManyArgs.Bind(func(msg1 string, msg2 int, cStr, literal string) {
			logger.Info().
				Str("msg1", msg1).
				Int("msg2", msg2).
				Str("c_str", cStr).
				Str("string_literal", literal).
				Msg("many_args")
		}),
		Add.Bind(func(a, b int) int {
			return a + b
		}),
		Exit.Bind(func(code int) {
			logger.Info().Int("code", code).Msg("exit")
			if h.Exit != nil {
				h.Exit(code)
			}
		}),
	)
}

// Declared returns the demo registry without implementations, for peers
// that only call.
func Declared() *registry.Registry {
	return registry.MustNew(
		NoArgs.Declare(),
		OneArg.Declare(),
		ManyArgs.Declare(),
		Add.Declare(),
		Exit.Declare(),
	)
}

// Run performs the demonstration call sequence against caller and finishes
// by asking the peer to exit with exitCode.
func Run(ctx context.Context, caller registry.Caller, exitCode int) (int, error) {
	if err := NoArgs.Call(ctx, caller); err != nil {
		return 0, fmt.Errorf("no_args: %w", err)
	}
	if err := OneArg.Call(ctx, caller, "hello"); err != nil {
		return 0, fmt.Errorf("one_arg: %w", err)
	}
	if err := ManyArgs.Call(ctx, caller, EscapedString, 2, "zero terminated", "string literal"); err != nil {
		return 0, fmt.Errorf("many_args: %w", err)
	}
	sum, err := Add.Call(ctx, caller, 1, 2)
	if err != nil {
		return 0, fmt.Errorf("add: %w", err)
	}
	log.Info().Int("result", sum).Msg("add")
	if err := Exit.Call(ctx, caller, exitCode); err != nil {
		return sum, fmt.Errorf("exit: %w", err)
	}
	return sum, nil
}
