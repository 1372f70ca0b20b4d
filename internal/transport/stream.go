package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var (
	ErrFramingViolation = errors.New("transport: message contains frame delimiter")
	ErrMessageTooLarge  = errors.New("transport: message exceeds size limit")
	ErrClosed           = errors.New("transport: closed")
)

const frameDelimiter = '\n'

// Limits bounds what a Stream accepts from its peer.
type Limits struct {
	MaxMessageBytes int
}

// DefaultLimits returns the limits used by NewStream.
func DefaultLimits() Limits {
	return Limits{MaxMessageBytes: 1 << 20}
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Stream frames messages over a byte stream, one LF-terminated line per
// message.
type Stream struct {
	reader  *bufio.Reader
	writer  io.Writer
	rawR    io.Reader
	closers []io.Closer
	limits  Limits

	readMu  sync.Mutex
	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
	closed    chan struct{}
}

// NewStream builds a Stream reading from r and writing to w. Close closes r
// and w when they are closers.
func NewStream(r io.Reader, w io.Writer) *Stream {
	s := &Stream{
		reader: bufio.NewReader(r),
		writer: w,
		rawR:   r,
		limits: DefaultLimits(),
		closed: make(chan struct{}),
	}
	rc, rok := r.(io.Closer)
	wc, wok := w.(io.Closer)
	if rok {
		s.closers = append(s.closers, rc)
	}
	if wok && (!rok || !sameCloser(rc, wc)) {
		s.closers = append(s.closers, wc)
	}
	return s
}

func sameCloser(a, b io.Closer) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

// WithLimits replaces the stream's read limits.
func (s *Stream) WithLimits(l Limits) *Stream {
	if l.MaxMessageBytes <= 0 {
		l.MaxMessageBytes = DefaultLimits().MaxMessageBytes
	}
	s.limits = l
	return s
}

// Send writes msg followed by the frame delimiter.
func (s *Stream) Send(ctx context.Context, msg string) error {
	if strings.IndexByte(msg, frameDelimiter) >= 0 {
		return fmt.Errorf("%w: %q", ErrFramingViolation, msg)
	}
	if err := s.ready(ctx); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if wd, ok := s.writer.(writeDeadliner); ok {
		stop := applyDeadline(ctx, wd.SetWriteDeadline)
		defer stop()
	}
	frame := make([]byte, 0, len(msg)+1)
	frame = append(frame, msg...)
	frame = append(frame, frameDelimiter)
	if _, err := s.writer.Write(frame); err != nil {
		return ctxErr(ctx, err)
	}
	if f, ok := s.writer.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return ctxErr(ctx, err)
		}
	}
	return nil
}

// Receive reads the next frame. A trailing CR is dropped. io.EOF is returned
// when the peer closes between messages.
func (s *Stream) Receive(ctx context.Context) (string, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}

	s.readMu.Lock()
	defer s.readMu.Unlock()

	if rd, ok := s.rawR.(readDeadliner); ok {
		stop := applyDeadline(ctx, rd.SetReadDeadline)
		defer stop()
	}

	var line []byte
	for {
		chunk, err := s.reader.ReadSlice(frameDelimiter)
		if len(line)+len(chunk) > s.limits.MaxMessageBytes+1 {
			return "", fmt.Errorf("%w: more than %d bytes", ErrMessageTooLarge, s.limits.MaxMessageBytes)
		}
		line = append(line, chunk...)
		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) {
			if len(line) == 0 {
				return "", io.EOF
			}
			return "", io.ErrUnexpectedEOF
		}
		return "", ctxErr(ctx, err)
	}

	line = line[:len(line)-1]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return string(line), nil
}

// Close closes the underlying reader and writer.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		var errs []error
		for _, c := range s.closers {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

func (s *Stream) ready(ctx context.Context) error {
	select {
	case <-s.closed:
		return ErrClosed
	default:
	}
	return ctx.Err()
}

// applyDeadline forwards the ctx deadline to set and interrupts blocked I/O
// on cancellation. The returned func clears both.
func applyDeadline(ctx context.Context, set func(time.Time) error) func() {
	if deadline, ok := ctx.Deadline(); ok {
		_ = set(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = set(time.Now())
	})
	return func() {
		stop()
		_ = set(time.Time{})
	}
}

func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
