package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"golang.org/x/net/websocket"
)

// WebSocket carries one message per text frame.
type WebSocket struct {
	conn *websocket.Conn

	readMu  sync.Mutex
	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

func newWebSocket(conn *websocket.Conn, limits Limits) *WebSocket {
	if limits.MaxMessageBytes <= 0 {
		limits = DefaultLimits()
	}
	conn.MaxPayloadBytes = limits.MaxMessageBytes
	return &WebSocket{conn: conn}
}

func (w *WebSocket) Send(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	stop := applyDeadline(ctx, w.conn.SetWriteDeadline)
	defer stop()
	if err := websocket.Message.Send(w.conn, msg); err != nil {
		return ctxErr(ctx, err)
	}
	return nil
}

func (w *WebSocket) Receive(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	w.readMu.Lock()
	defer w.readMu.Unlock()

	stop := applyDeadline(ctx, w.conn.SetReadDeadline)
	defer stop()
	var msg string
	if err := websocket.Message.Receive(w.conn, &msg); err != nil {
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if errors.Is(err, websocket.ErrFrameTooLarge) {
			return "", fmt.Errorf("%w: %v", ErrMessageTooLarge, err)
		}
		return "", ctxErr(ctx, err)
	}
	return msg, nil
}

func (w *WebSocket) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = w.conn.Close()
	})
	return w.closeErr
}

// DialWebSocket connects to a ws:// or wss:// endpoint. An empty origin is
// derived from the local hostname.
func DialWebSocket(ctx context.Context, endpoint, origin string) (*WebSocket, error) {
	if origin == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(endpoint, "wss") {
			origin = "https://" + strings.ToLower(host)
		} else {
			origin = "http://" + strings.ToLower(host)
		}
	}
	config, err := websocket.NewConfig(endpoint, origin)
	if err != nil {
		return nil, err
	}

	var raw net.Conn
	switch config.Location.Scheme {
	case "ws":
		var d net.Dialer
		raw, err = d.DialContext(ctx, "tcp", wsDialAddress(config.Location))
	case "wss":
		d := tls.Dialer{Config: config.TlsConfig}
		raw, err = d.DialContext(ctx, "tcp", wsDialAddress(config.Location))
	default:
		err = websocket.ErrBadScheme
	}
	if err != nil {
		return nil, fmt.Errorf("transport: websocket dial %s: %w", endpoint, err)
	}

	conn, err := websocket.NewClient(config, raw)
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("transport: websocket handshake %s: %w", endpoint, err)
	}
	return newWebSocket(conn, DefaultLimits()), nil
}

var wsPortMap = map[string]string{"ws": "80", "wss": "443"}

func wsDialAddress(location *url.URL) string {
	if port, ok := wsPortMap[location.Scheme]; ok {
		if _, _, err := net.SplitHostPort(location.Host); err != nil {
			return net.JoinHostPort(location.Host, port)
		}
	}
	return location.Host
}

// NewWebSocketHandler upgrades requests from allowed origins and hands each
// connection to serve. The connection is closed when serve returns.
func NewWebSocketHandler(allowedOrigins []string, limits Limits, serve func(ctx context.Context, ws *WebSocket)) http.Handler {
	return websocket.Server{
		Handshake: originValidator(allowedOrigins),
		Handler: func(conn *websocket.Conn) {
			ws := newWebSocket(conn, limits)
			defer ws.Close()
			serve(conn.Request().Context(), ws)
		},
	}
}

func originValidator(allowedOrigins []string) func(*websocket.Config, *http.Request) error {
	origins := make(map[string]struct{})
	allowAll := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		if origin != "" {
			origins[strings.ToLower(origin)] = struct{}{}
		}
	}
	if len(origins) == 0 {
		origins["http://localhost"] = struct{}{}
		if host, err := os.Hostname(); err == nil {
			origins["http://"+strings.ToLower(host)] = struct{}{}
		}
	}

	return func(cfg *websocket.Config, req *http.Request) error {
		origin := strings.ToLower(req.Header.Get("Origin"))
		if allowAll {
			return nil
		}
		if _, ok := origins[origin]; ok {
			return nil
		}
		return fmt.Errorf("origin %s not allowed", origin)
	}
}
