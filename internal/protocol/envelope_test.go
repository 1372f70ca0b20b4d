package protocol

import (
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/wirecall/internal/testutil/testlog"
)

func TestCallMarshal(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		call Call
		want string
	}{
		{NewCall(0), "0"},
		{NewCall(1, Encode("hello")), "1 hello"},
		{NewCall(1, Encode("a b")), "1 a%20b"},
		{NewCall(3, Encode(1), Encode(2)), "3 1 2"},
		{NewCall(2, Encode("x"), Encode(-7), Encode(""), Encode("y z")), "2 x -7  y%20z"},
	}
	for _, tc := range cases {
		if got := tc.call.Marshal(); got != tc.want {
			t.Fatalf("marshal %+v\nwant: %q\ngot:  %q", tc.call, tc.want, got)
		}
	}
}

func TestParseCallRoundTrip(t *testing.T) {
	testlog.Start(t)
	in := NewCall(2, Encode("String with spaces, percents %, tab \t"), Encode(2), Encode(""), Encode("lit"))
	got, err := ParseCall(in.Marshal())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("round-trip mismatch\nwant: %+v\ngot:  %+v", in, got)
	}
}

func TestParseCallWithoutArgs(t *testing.T) {
	testlog.Start(t)
	got, err := ParseCall("0")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Index != 0 || len(got.Args) != 0 {
		t.Fatalf("unexpected call %+v", got)
	}
}

func TestParseCallTrailingEmptyToken(t *testing.T) {
	testlog.Start(t)
	got, err := ParseCall("1 ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got.Args) != 1 || got.Args[0] != "" {
		t.Fatalf("expected one empty token, got %+v", got.Args)
	}
}

func TestParseCallMalformedIndex(t *testing.T) {
	testlog.Start(t)
	for _, wire := range []string{"", " 1", "x 1", "-1", "+1", "1.5 a", "18446744073709551616"} {
		if _, err := ParseCall(wire); !errors.Is(err, ErrMalformedCall) {
			t.Fatalf("expected ErrMalformedCall for %q, got %v", wire, err)
		}
	}
}

func TestResponseMarshal(t *testing.T) {
	testlog.Start(t)
	if got := VoidResponse().Marshal(); got != "" {
		t.Fatalf("void response must be empty, got %q", got)
	}
	if got := Result(3).Marshal(); got != "3" {
		t.Fatalf("unexpected result body %q", got)
	}
	if got := Result("a b").Marshal(); got != "a%20b" {
		t.Fatalf("unexpected escaped result body %q", got)
	}
}
