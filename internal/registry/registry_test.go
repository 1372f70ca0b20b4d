package registry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/danmuck/wirecall/internal/protocol"
	"github.com/danmuck/wirecall/internal/testutil/testlog"
)

// directCaller resolves and dispatches against a registry without a transport.
type directCaller struct {
	reg  *Registry
	wire []string
}

func (d *directCaller) Invoke(_ context.Context, key Key, args ...string) (string, error) {
	index, err := d.reg.Resolve(key)
	if err != nil {
		return "", err
	}
	call := protocol.NewCall(uint64(index), args...)
	d.wire = append(d.wire, call.Marshal())
	resp, err := d.reg.Dispatch(call)
	if err != nil {
		return "", err
	}
	return resp.Marshal(), nil
}

type stubCaller string

func (s stubCaller) Invoke(context.Context, Key, ...string) (string, error) {
	return string(s), nil
}

func TestNewRejectsDuplicateKeys(t *testing.T) {
	testlog.Start(t)
	_, err := New(NewProc0("ping").Declare(), NewProc0("ping").Declare())
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestValidateKey(t *testing.T) {
	testlog.Start(t)
	valid := []Key{"add", "one_arg", "math.add", "v2-sum", "a"}
	for _, k := range valid {
		if err := ValidateKey(k); err != nil {
			t.Fatalf("expected %q to be valid: %v", k, err)
		}
	}
	invalid := []Key{"", "Add", "_add", "add_", "a..b", "a b", "a/b"}
	for _, k := range invalid {
		if err := ValidateKey(k); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("expected ErrInvalidKey for %q, got %v", k, err)
		}
	}
	if _, err := New(NewProc0("Bad Key").Declare()); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected New to reject invalid key, got %v", err)
	}
}

func TestResolveIsPositional(t *testing.T) {
	testlog.Start(t)
	reg := MustNew(
		NewProc0("no_args").Declare(),
		NewProc1[string]("one_arg").Declare(),
		NewFunc2[int, int, int]("add").Declare(),
	)
	if reg.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", reg.Len())
	}
	for want, key := range []Key{"no_args", "one_arg", "add"} {
		got, err := reg.Resolve(key)
		if err != nil {
			t.Fatalf("resolve %q: %v", key, err)
		}
		if got != want {
			t.Fatalf("resolve %q = %d want %d", key, got, want)
		}
	}
	if _, err := reg.Resolve("missing"); !errors.Is(err, ErrFunctionNotRegistered) {
		t.Fatalf("expected ErrFunctionNotRegistered, got %v", err)
	}
}

func TestEntryOutOfRange(t *testing.T) {
	testlog.Start(t)
	reg := MustNew(NewProc0("no_args").Declare())
	if _, err := reg.Entry(0); err != nil {
		t.Fatalf("entry 0: %v", err)
	}
	if _, err := reg.Entry(1); !errors.Is(err, ErrCallNotRegistered) {
		t.Fatalf("expected ErrCallNotRegistered, got %v", err)
	}
	if _, err := reg.Dispatch(protocol.NewCall(99)); !errors.Is(err, ErrCallNotRegistered) {
		t.Fatalf("expected ErrCallNotRegistered from dispatch, got %v", err)
	}
}

func TestDeclaredEntryIsNotBound(t *testing.T) {
	testlog.Start(t)
	reg := MustNew(NewProc0("no_args").Declare())
	if _, err := reg.Dispatch(protocol.NewCall(0)); !errors.Is(err, ErrNotBound) {
		t.Fatalf("expected ErrNotBound, got %v", err)
	}
}

func TestDescriptors(t *testing.T) {
	testlog.Start(t)
	reg := MustNew(
		NewProc0("no_args").Bind(func() {}),
		NewProc4[string, int, string, string]("many_args").Declare(),
		NewFunc2[int, int, int]("add").Bind(func(a, b int) int { return a + b }),
	)
	descs := reg.Descriptors()
	if len(descs) != 3 {
		t.Fatalf("expected 3 descriptors, got %d", len(descs))
	}
	want := []string{
		"no_args() void",
		"many_args(string,int,string,string) void",
		"add(int,int) int",
	}
	for i, d := range descs {
		if d.Index != i {
			t.Fatalf("descriptor %d has index %d", i, d.Index)
		}
		if d.Signature() != want[i] {
			t.Fatalf("signature[%d]=%q want %q", i, d.Signature(), want[i])
		}
	}
	if !descs[0].Bound || descs[1].Bound || !descs[2].Bound {
		t.Fatalf("unexpected bound flags: %+v", descs)
	}

	descs[2].Params[0] = protocol.KindString
	if reg.Descriptors()[2].Params[0] != protocol.KindInt {
		t.Fatalf("descriptors must not alias registry state")
	}
}

func TestTypedHandlesRoundTrip(t *testing.T) {
	testlog.Start(t)
	var got struct {
		msg  string
		n    int
		flag bool
	}
	echo := NewFunc1[string, string]("echo")
	scale := NewFunc3[float64, int8, bool, float64]("scale")
	note := NewProc2[string, int]("note")
	count := NewFunc0[uint64]("count")
	blob := NewFunc4[[]byte, string, int, bool, int]("blob")

	reg := MustNew(
		echo.Bind(func(s string) string { return s + "!" }),
		scale.Bind(func(x float64, by int8, neg bool) float64 {
			if neg {
				return -x * float64(by)
			}
			return x * float64(by)
		}),
		note.Bind(func(s string, n int) { got.msg, got.n = s, n }),
		count.Bind(func() uint64 { return 18446744073709551615 }),
		blob.Bind(func(b []byte, s string, n int, flag bool) int {
			got.flag = flag
			return len(b) + len(s) + n
		}),
	)
	caller := &directCaller{reg: reg}
	ctx := context.Background()

	s, err := echo.Call(ctx, caller, "hi there")
	if err != nil || s != "hi there!" {
		t.Fatalf("echo=%q err=%v", s, err)
	}
	f, err := scale.Call(ctx, caller, 1.5, 4, true)
	if err != nil || f != -6 {
		t.Fatalf("scale=%v err=%v", f, err)
	}
	if err := note.Call(ctx, caller, "tab\there", -3); err != nil {
		t.Fatalf("note: %v", err)
	}
	if got.msg != "tab\there" || got.n != -3 {
		t.Fatalf("note args not delivered: %+v", got)
	}
	c, err := count.Call(ctx, caller)
	if err != nil || c != 18446744073709551615 {
		t.Fatalf("count=%d err=%v", c, err)
	}
	n, err := blob.Call(ctx, caller, []byte{0, 1, 2}, "ab", 10, true)
	if err != nil || n != 15 || !got.flag {
		t.Fatalf("blob=%d err=%v flag=%v", n, err, got.flag)
	}

	want := []string{"0 hi%20there", "1 1.5 4 true", "2 tab%09here -3", "3", "4 \x00\x01\x02 ab 10 true"}
	for i := range want {
		if caller.wire[i] != want[i] {
			t.Fatalf("wire[%d]=%q want %q", i, caller.wire[i], want[i])
		}
	}
}

func TestBoundInvokerRejectsBadArguments(t *testing.T) {
	testlog.Start(t)
	add := NewFunc2[int, int, int]("add")
	reg := MustNew(add.Bind(func(a, b int) int { return a + b }))

	if _, err := reg.Dispatch(protocol.NewCall(0, "1")); !errors.Is(err, ErrArityMismatch) {
		t.Fatalf("expected ErrArityMismatch, got %v", err)
	}
	_, err := reg.Dispatch(protocol.NewCall(0, "1", "two"))
	if !errors.Is(err, protocol.ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	var pe *protocol.ParseError
	if !errors.As(err, &pe) || pe.Token != "two" || pe.Kind != protocol.KindInt {
		t.Fatalf("expected ParseError for token two, got %v", err)
	}
	if _, err := reg.Dispatch(protocol.NewCall(0, "1", "%ZZ")); !errors.Is(err, protocol.ErrBadEncoding) {
		t.Fatalf("expected ErrBadEncoding, got %v", err)
	}
}

func TestCallChecksResponseShape(t *testing.T) {
	testlog.Start(t)
	ctx := context.Background()
	if err := NewProc0("no_args").Call(ctx, stubCaller("7")); !errors.Is(err, ErrUnexpectedResponse) {
		t.Fatalf("expected ErrUnexpectedResponse, got %v", err)
	}
	if _, err := NewFunc0[int]("count").Call(ctx, stubCaller("seven")); !errors.Is(err, protocol.ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	if _, err := NewFunc0[int]("count").Call(ctx, stubCaller("")); !errors.Is(err, protocol.ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch for empty body, got %v", err)
	}
}

func TestThreeArgumentProcedure(t *testing.T) {
	testlog.Start(t)
	var got []string
	tag := NewProc3[string, int, bool]("tag")
	reg := MustNew(tag.Bind(func(name string, n int, on bool) {
		got = append(got, fmt.Sprintf("%s|%d|%v", name, n, on))
	}))
	caller := &directCaller{reg: reg}
	if err := tag.Call(context.Background(), caller, "a b", 7, false); err != nil {
		t.Fatalf("tag: %v", err)
	}
	if caller.wire[0] != "0 a%20b 7 false" {
		t.Fatalf("wire=%q", caller.wire[0])
	}
	if len(got) != 1 || got[0] != "a b|7|false" {
		t.Fatalf("arguments not delivered: %q", got)
	}
}
