package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/danmuck/wirecall/internal/protocol"
)

// ErrUnexpectedResponse is returned when a void call gets a non-empty body.
var ErrUnexpectedResponse = errors.New("registry: unexpected response body for void call")

// Caller performs one remote round trip for an already-encoded argument list
// and returns the raw response body.
type Caller interface {
	Invoke(ctx context.Context, key Key, args ...string) (string, error)
}

func arg[T protocol.Value](args []string, i int) (T, error) {
	v, err := protocol.Decode[T](args[i])
	if err != nil {
		var zero T
		return zero, fmt.Errorf("argument %d: %w", i, err)
	}
	return v, nil
}

func decodeResult[R protocol.Value](body string, err error) (R, error) {
	if err != nil {
		var zero R
		return zero, err
	}
	return protocol.Decode[R](body)
}

func voidResult(key Key, body string, err error) error {
	if err != nil {
		return err
	}
	if body != "" {
		return fmt.Errorf("%w: %s returned %q", ErrUnexpectedResponse, key, body)
	}
	return nil
}

// Func0 is a handle to a registered function of 0 arguments returning R.
type Func0[R protocol.Value] struct {
	key Key
}

func NewFunc0[R protocol.Value](key Key) Func0[R] {
	return Func0[R]{key: key}
}

func (f Func0[R]) Key() Key {
	return f.key
}

// Declare returns an entry without an implementation, for peers that only call.
func (f Func0[R]) Declare() Entry {
	return Entry{Key: f.key, Result: protocol.KindOf[R]()}
}

func (f Func0[R]) Bind(fn func() R) Entry {
	e := f.Declare()
	e.invoke = func([]string) (protocol.Response, error) {
		return protocol.Result(fn()), nil
	}
	return e
}

func (f Func0[R]) Call(ctx context.Context, caller Caller) (R, error) {
	return decodeResult[R](caller.Invoke(ctx, f.key))
}

// Proc0 is a handle to a registered function of 0 arguments without a result.
type Proc0 struct {
	key Key
}

func NewProc0(key Key) Proc0 {
	return Proc0{key: key}
}

func (f Proc0) Key() Key {
	return f.key
}

func (f Proc0) Declare() Entry {
	return Entry{Key: f.key, Result: protocol.KindVoid}
}

func (f Proc0) Bind(fn func()) Entry {
	e := f.Declare()
	e.invoke = func([]string) (protocol.Response, error) {
		fn()
		return protocol.VoidResponse(), nil
	}
	return e
}

func (f Proc0) Call(ctx context.Context, caller Caller) error {
	body, err := caller.Invoke(ctx, f.key)
	return voidResult(f.key, body, err)
}

// Func1 is a handle to a registered function of 1 argument returning R.
type Func1[A, R protocol.Value] struct {
	key Key
}

func NewFunc1[A, R protocol.Value](key Key) Func1[A, R] {
	return Func1[A, R]{key: key}
}

func (f Func1[A, R]) Key() Key {
	return f.key
}

func (f Func1[A, R]) Declare() Entry {
	return Entry{Key: f.key, Params: []protocol.Kind{protocol.KindOf[A]()}, Result: protocol.KindOf[R]()}
}

func (f Func1[A, R]) Bind(fn func(A) R) Entry {
	e := f.Declare()
	e.invoke = func(args []string) (protocol.Response, error) {
		a, err := arg[A](args, 0)
		if err != nil {
			return protocol.Response{}, err
		}
		return protocol.Result(fn(a)), nil
	}
	return e
}

func (f Func1[A, R]) Call(ctx context.Context, caller Caller, a A) (R, error) {
	return decodeResult[R](caller.Invoke(ctx, f.key, protocol.Encode(a)))
}

// Proc1 is a handle to a registered function of 1 argument without a result.
type Proc1[A protocol.Value] struct {
	key Key
}

func NewProc1[A protocol.Value](key Key) Proc1[A] {
	return Proc1[A]{key: key}
}

func (f Proc1[A]) Key() Key {
	return f.key
}

func (f Proc1[A]) Declare() Entry {
	return Entry{Key: f.key, Params: []protocol.Kind{protocol.KindOf[A]()}, Result: protocol.KindVoid}
}

func (f Proc1[A]) Bind(fn func(A)) Entry {
	e := f.Declare()
	e.invoke = func(args []string) (protocol.Response, error) {
		a, err := arg[A](args, 0)
		if err != nil {
			return protocol.Response{}, err
		}
		fn(a)
		return protocol.VoidResponse(), nil
	}
	return e
}

func (f Proc1[A]) Call(ctx context.Context, caller Caller, a A) error {
	body, err := caller.Invoke(ctx, f.key, protocol.Encode(a))
	return voidResult(f.key, body, err)
}

// Func2 is a handle to a registered function of 2 arguments returning R.
type Func2[A, B, R protocol.Value] struct {
	key Key
}

func NewFunc2[A, B, R protocol.Value](key Key) Func2[A, B, R] {
	return Func2[A, B, R]{key: key}
}

func (f Func2[A, B, R]) Key() Key {
	return f.key
}

func (f Func2[A, B, R]) Declare() Entry {
	return Entry{Key: f.key, Params: []protocol.Kind{protocol.KindOf[A](), protocol.KindOf[B]()}, Result: protocol.KindOf[R]()}
}

func (f Func2[A, B, R]) Bind(fn func(A, B) R) Entry {
	e := f.Declare()
	e.invoke = func(args []string) (protocol.Response, error) {
		a, err := arg[A](args, 0)
		if err != nil {
			return protocol.Response{}, err
		}
		b, err := arg[B](args, 1)
		if err != nil {
			return protocol.Response{}, err
		}
		return protocol.Result(fn(a, b)), nil
	}
	return e
}

func (f Func2[A, B, R]) Call(ctx context.Context, caller Caller, a A, b B) (R, error) {
	return decodeResult[R](caller.Invoke(ctx, f.key, protocol.Encode(a), protocol.Encode(b)))
}

// Proc2 is a handle to a registered function of 2 arguments without a result.
type Proc2[A, B protocol.Value] struct {
	key Key
}

func NewProc2[A, B protocol.Value](key Key) Proc2[A, B] {
	return Proc2[A, B]{key: key}
}

func (f Proc2[A, B]) Key() Key {
	return f.key
}

func (f Proc2[A, B]) Declare() Entry {
	return Entry{Key: f.key, Params: []protocol.Kind{protocol.KindOf[A](), protocol.KindOf[B]()}, Result: protocol.KindVoid}
}

func (f Proc2[A, B]) Bind(fn func(A, B)) Entry {
	e := f.Declare()
	e.invoke = func(args []string) (protocol.Response, error) {
		a, err := arg[A](args, 0)
		if err != nil {
			return protocol.Response{}, err
		}
		b, err := arg[B](args, 1)
		if err != nil {
			return protocol.Response{}, err
		}
		fn(a, b)
		return protocol.VoidResponse(), nil
	}
	return e
}

func (f Proc2[A, B]) Call(ctx context.Context, caller Caller, a A, b B) error {
	body, err := caller.Invoke(ctx, f.key, protocol.Encode(a), protocol.Encode(b))
	return voidResult(f.key, body, err)
}

// Func3 is a handle to a registered function of 3 arguments returning R.
type Func3[A, B, C, R protocol.Value] struct {
	key Key
}

func NewFunc3[A, B, C, R protocol.Value](key Key) Func3[A, B, C, R] {
	return Func3[A, B, C, R]{key: key}
}

func (f Func3[A, B, C, R]) Key() Key {
	return f.key
}

func (f Func3[A, B, C, R]) Declare() Entry {
	return Entry{Key: f.key, Params: []protocol.Kind{protocol.KindOf[A](), protocol.KindOf[B](), protocol.KindOf[C]()}, Result: protocol.KindOf[R]()}
}

func (f Func3[A, B, C, R]) Bind(fn func(A, B, C) R) Entry {
	e := f.Declare()
	e.invoke = func(args []string) (protocol.Response, error) {
		a, err := arg[A](args, 0)
		if err != nil {
			return protocol.Response{}, err
		}
		b, err := arg[B](args, 1)
		if err != nil {
			return protocol.Response{}, err
		}
		c, err := arg[C](args, 2)
		if err != nil {
			return protocol.Response{}, err
		}
		return protocol.Result(fn(a, b, c)), nil
	}
	return e
}

func (f Func3[A, B, C, R]) Call(ctx context.Context, caller Caller, a A, b B, c C) (R, error) {
	return decodeResult[R](caller.Invoke(ctx, f.key, protocol.Encode(a), protocol.Encode(b), protocol.Encode(c)))
}

// Proc3 is a handle to a registered function of 3 arguments without a result.
type Proc3[A, B, C protocol.Value] struct {
	key Key
}

func NewProc3[A, B, C protocol.Value](key Key) Proc3[A, B, C] {
	return Proc3[A, B, C]{key: key}
}

func (f Proc3[A, B, C]) Key() Key {
	return f.key
}

func (f Proc3[A, B, C]) Declare() Entry {
	return Entry{Key: f.key, Params: []protocol.Kind{protocol.KindOf[A](), protocol.KindOf[B](), protocol.KindOf[C]()}, Result: protocol.KindVoid}
}

func (f Proc3[A, B, C]) Bind(fn func(A, B, C)) Entry {
	e := f.Declare()
	e.invoke = func(args []string) (protocol.Response, error) {
		a, err := arg[A](args, 0)
		if err != nil {
			return protocol.Response{}, err
		}
		b, err := arg[B](args, 1)
		if err != nil {
			return protocol.Response{}, err
		}
		c, err := arg[C](args, 2)
		if err != nil {
			return protocol.Response{}, err
		}
		fn(a, b, c)
		return protocol.VoidResponse(), nil
	}
	return e
}

func (f Proc3[A, B, C]) Call(ctx context.Context, caller Caller, a A, b B, c C) error {
	body, err := caller.Invoke(ctx, f.key, protocol.Encode(a), protocol.Encode(b), protocol.Encode(c))
	return voidResult(f.key, body, err)
}

// Func4 is a handle to a registered function of 4 arguments returning R.
type Func4[A, B, C, D, R protocol.Value] struct {
	key Key
}

func NewFunc4[A, B, C, D, R protocol.Value](key Key) Func4[A, B, C, D, R] {
	return Func4[A, B, C, D, R]{key: key}
}

func (f Func4[A, B, C, D, R]) Key() Key {
	return f.key
}

func (f Func4[A, B, C, D, R]) Declare() Entry {
	return Entry{Key: f.key, Params: []protocol.Kind{protocol.KindOf[A](), protocol.KindOf[B](), protocol.KindOf[C](), protocol.KindOf[D]()}, Result: protocol.KindOf[R]()}
}

func (f Func4[A, B, C, D, R]) Bind(fn func(A, B, C, D) R) Entry {
	e := f.Declare()
	e.invoke = func(args []string) (protocol.Response, error) {
		a, err := arg[A](args, 0)
		if err != nil {
			return protocol.Response{}, err
		}
		b, err := arg[B](args, 1)
		if err != nil {
			return protocol.Response{}, err
		}
		c, err := arg[C](args, 2)
		if err != nil {
			return protocol.Response{}, err
		}
		d, err := arg[D](args, 3)
		if err != nil {
			return protocol.Response{}, err
		}
		return protocol.Result(fn(a, b, c, d)), nil
	}
	return e
}

func (f Func4[A, B, C, D, R]) Call(ctx context.Context, caller Caller, a A, b B, c C, d D) (R, error) {
	return decodeResult[R](caller.Invoke(ctx, f.key, protocol.Encode(a), protocol.Encode(b), protocol.Encode(c), protocol.Encode(d)))
}

// Proc4 is a handle to a registered function of 4 arguments without a result.
type Proc4[A, B, C, D protocol.Value] struct {
	key Key
}

func NewProc4[A, B, C, D protocol.Value](key Key) Proc4[A, B, C, D] {
	return Proc4[A, B, C, D]{key: key}
}

func (f Proc4[A, B, C, D]) Key() Key {
	return f.key
}

func (f Proc4[A, B, C, D]) Declare() Entry {
	return Entry{Key: f.key, Params: []protocol.Kind{protocol.KindOf[A](), protocol.KindOf[B](), protocol.KindOf[C](), protocol.KindOf[D]()}, Result: protocol.KindVoid}
}

func (f Proc4[A, B, C, D]) Bind(fn func(A, B, C, D)) Entry {
	e := f.Declare()
	e.invoke = func(args []string) (protocol.Response, error) {
		a, err := arg[A](args, 0)
		if err != nil {
			return protocol.Response{}, err
		}
		b, err := arg[B](args, 1)
		if err != nil {
			return protocol.Response{}, err
		}
		c, err := arg[C](args, 2)
		if err != nil {
			return protocol.Response{}, err
		}
		d, err := arg[D](args, 3)
		if err != nil {
			return protocol.Response{}, err
		}
		fn(a, b, c, d)
		return protocol.VoidResponse(), nil
	}
	return e
}

func (f Proc4[A, B, C, D]) Call(ctx context.Context, caller Caller, a A, b B, c C, d D) error {
	body, err := caller.Invoke(ctx, f.key, protocol.Encode(a), protocol.Encode(b), protocol.Encode(c), protocol.Encode(d))
	return voidResult(f.key, body, err)
}
