package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/wirecall/internal/testutil/testlog"
)

func TestStreamFramesMessages(t *testing.T) {
	testlog.Start(t)
	a, b := net.Pipe()
	left := NewStream(a, a)
	right := NewStream(b, b)
	defer left.Close()
	defer right.Close()

	ctx := context.Background()
	msgs := []string{"0", "1 hello", "", "2 a%20b 7 x y"}
	go func() {
		for _, m := range msgs {
			if err := left.Send(ctx, m); err != nil {
				return
			}
		}
	}()
	for _, want := range msgs {
		got, err := right.Receive(ctx)
		if err != nil {
			t.Fatalf("receive: %v", err)
		}
		if got != want {
			t.Fatalf("got %q want %q", got, want)
		}
	}
}

func TestStreamTrimsCarriageReturn(t *testing.T) {
	testlog.Start(t)
	s := NewStream(strings.NewReader("3 1 2\r\n0\n"), io.Discard)
	got, err := s.Receive(context.Background())
	if err != nil || got != "3 1 2" {
		t.Fatalf("got %q err=%v", got, err)
	}
	got, err = s.Receive(context.Background())
	if err != nil || got != "0" {
		t.Fatalf("got %q err=%v", got, err)
	}
	if _, err := s.Receive(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestStreamPartialFrameAtEOF(t *testing.T) {
	testlog.Start(t)
	s := NewStream(strings.NewReader("1 hel"), io.Discard)
	if _, err := s.Receive(context.Background()); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestStreamRejectsEmbeddedDelimiter(t *testing.T) {
	testlog.Start(t)
	var sb strings.Builder
	s := NewStream(strings.NewReader(""), &sb)
	if err := s.Send(context.Background(), "1 a\nb"); !errors.Is(err, ErrFramingViolation) {
		t.Fatalf("expected ErrFramingViolation, got %v", err)
	}
	if sb.Len() != 0 {
		t.Fatalf("nothing should be written, got %q", sb.String())
	}
	if err := s.Send(context.Background(), "1 a%0Ab"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if sb.String() != "1 a%0Ab\n" {
		t.Fatalf("unexpected frame %q", sb.String())
	}
}

func TestStreamMessageLimit(t *testing.T) {
	testlog.Start(t)
	big := strings.Repeat("x", 10000) + "\n"
	s := NewStream(strings.NewReader(big), io.Discard).WithLimits(Limits{MaxMessageBytes: 5000})
	if _, err := s.Receive(context.Background()); !errors.Is(err, ErrMessageTooLarge) {
		t.Fatalf("expected ErrMessageTooLarge, got %v", err)
	}

	exact := strings.Repeat("y", 5000) + "\n"
	s = NewStream(strings.NewReader(exact), io.Discard).WithLimits(Limits{MaxMessageBytes: 5000})
	got, err := s.Receive(context.Background())
	if err != nil || len(got) != 5000 {
		t.Fatalf("expected 5000-byte message, got %d err=%v", len(got), err)
	}
}

func TestStreamReceiveHonorsContext(t *testing.T) {
	testlog.Start(t)
	a, b := net.Pipe()
	defer a.Close()
	s := NewStream(b, b)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, err := s.Receive(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("receive ignored the context deadline")
	}

	cancelled, cancelNow := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancelNow()
	}()
	if _, err := s.Receive(cancelled); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestStreamClose(t *testing.T) {
	testlog.Start(t)
	a, b := net.Pipe()
	s := NewStream(a, a)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := s.Send(context.Background(), "0"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := NewStream(b, b).Receive(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("peer should observe EOF, got %v", err)
	}
}
