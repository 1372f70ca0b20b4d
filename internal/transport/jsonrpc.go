package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	gorillarpc "github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"
)

// BridgeMethod is the JSON-RPC method that carries one wire message.
const BridgeMethod = "Bridge.Dispatch"

type BridgeArgs struct {
	Wire string `json:"wire"`
}

type BridgeReply struct {
	Wire string `json:"wire"`
}

// HTTPTransport posts each message as a JSON-RPC 2.0 request and holds the
// reply for the following Receive.
type HTTPTransport struct {
	url    string
	client *http.Client

	mu      sync.Mutex
	pending string
	has     bool
}

func NewHTTPTransport(url string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPTransport{url: url, client: client}
}

func (h *HTTPTransport) Send(ctx context.Context, msg string) error {
	body, err := json2.EncodeClientRequest(BridgeMethod, &BridgeArgs{Wire: msg})
	if err != nil {
		return fmt.Errorf("transport: encode bridge request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("transport: build bridge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("transport: bridge request: %w", err)
	}
	defer cleanlyCloseBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("transport: bridge status %d", resp.StatusCode)
	}
	var reply BridgeReply
	if err := json2.DecodeClientResponse(resp.Body, &reply); err != nil {
		return fmt.Errorf("transport: bridge response: %w", err)
	}

	h.mu.Lock()
	h.pending, h.has = reply.Wire, true
	h.mu.Unlock()
	return nil
}

func (h *HTTPTransport) Receive(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.has {
		return "", ErrNoPendingResponse
	}
	wire := h.pending
	h.pending, h.has = "", false
	return wire, nil
}

// cleanlyCloseBody drains the body so the connection can be reused.
func cleanlyCloseBody(body io.ReadCloser) error {
	if body == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, body)
	return body.Close()
}

// Bridge exposes a Dispatcher as the JSON-RPC service "Bridge".
type Bridge struct {
	mu         sync.Mutex
	dispatcher Dispatcher
}

func (b *Bridge) Dispatch(_ *http.Request, args *BridgeArgs, reply *BridgeReply) error {
	if args == nil {
		return errors.New("transport: missing bridge arguments")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	wire, err := b.dispatcher.Dispatch(args.Wire)
	if err != nil {
		return err
	}
	reply.Wire = wire
	return nil
}

// NewBridgeHandler serves d over JSON-RPC 2.0. Dispatches are serialized.
func NewBridgeHandler(d Dispatcher) (http.Handler, error) {
	server := gorillarpc.NewServer()
	server.RegisterCodec(json2.NewCodec(), "application/json")
	if err := server.RegisterService(&Bridge{dispatcher: d}, "Bridge"); err != nil {
		return nil, fmt.Errorf("transport: register bridge: %w", err)
	}
	return server, nil
}
