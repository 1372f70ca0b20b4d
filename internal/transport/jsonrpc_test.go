package transport

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/danmuck/wirecall/internal/demo"
	"github.com/danmuck/wirecall/internal/rpc"
	"github.com/danmuck/wirecall/internal/testutil/testlog"
)

func TestHTTPBridgeDemoSession(t *testing.T) {
	testlog.Start(t)
	exitCode := -1
	server := rpc.NewServer(demo.Registry(demo.Hooks{Exit: func(c int) { exitCode = c }}), nil)
	handler, err := NewBridgeHandler(server)
	if err != nil {
		t.Fatalf("bridge: %v", err)
	}
	ts := httptest.NewServer(handler)
	defer ts.Close()

	ht := NewHTTPTransport(ts.URL, ts.Client())
	client := rpc.NewClient(demo.Declared(), ht)
	sum, err := demo.Run(context.Background(), client, 6)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum != 3 || exitCode != 6 {
		t.Fatalf("sum=%d exit=%d", sum, exitCode)
	}
}

func TestHTTPBridgeRawWire(t *testing.T) {
	testlog.Start(t)
	server := rpc.NewServer(demo.Registry(demo.Hooks{}), nil)
	handler, err := NewBridgeHandler(server)
	if err != nil {
		t.Fatalf("bridge: %v", err)
	}
	ts := httptest.NewServer(handler)
	defer ts.Close()

	ht := NewHTTPTransport(ts.URL, nil)
	ctx := context.Background()
	if _, err := ht.Receive(ctx); !errors.Is(err, ErrNoPendingResponse) {
		t.Fatalf("expected ErrNoPendingResponse, got %v", err)
	}
	if err := ht.Send(ctx, "3 40 2"); err != nil {
		t.Fatalf("send: %v", err)
	}
	got, err := ht.Receive(ctx)
	if err != nil || got != "42" {
		t.Fatalf("got %q err=%v", got, err)
	}
	if err := ht.Send(ctx, "5"); err == nil {
		t.Fatalf("expected bridge error for out-of-range index")
	}
}
