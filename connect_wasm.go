//go:build js && wasm

package hubclient

import (
	"context"
	"fmt"

	"github.com/octopuslowtech/maxcloud-clientrtc-remote/internal/registry"
	"github.com/octopuslowtech/maxcloud-clientrtc-remote/internal/transport"
)

// ConnectWith dials domain/hub from a browser WASM build: negotiate over
// net/http (backed by the browser's fetch), open a browser WebSocket
// through syscall/js, and perform the JSON handshake. Unlike the native
// build, no background goroutine drains inbound frames; the caller's own
// event loop must call Pump repeatedly to advance the connection.
func ConnectWith(ctx context.Context, domain, hub string, configure func(*ConnectionConfig), opts ...Option) (*Client, error) {
	cfg := NewConnectionConfig(domain, hub)
	if configure != nil {
		configure(cfg)
	}
	cfg.Apply(opts...)

	authHeader, err := authorizationHeader(cfg.authentication)
	if err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}

	if _, err := transport.Negotiate(ctx, transport.NegotiateOptions{
		URL:                 cfg.NegotiateURL(),
		AuthorizationHeader: authHeader,
		HTTPClient:          cfg.httpClient,
	}); err != nil {
		return nil, &ConnectError{Reason: "negotiate failed", Cause: err}
	}

	adapter, err := transport.DialWASM(ctx, cfg.SocketURL(), cfg.dialTimeout, cfg.logger)
	if err != nil {
		return nil, &ConnectError{Reason: "dial failed", Cause: err}
	}

	handshakeFrame, err := encodeFrame(newHandshakeRequest())
	if err != nil {
		adapter.Close()
		return nil, &ConfigError{Reason: err.Error()}
	}
	if err := adapter.Send(ctx, handshakeFrame); err != nil {
		adapter.Close()
		return nil, &ConnectError{Reason: "sending handshake", Cause: err}
	}

	raw, err := adapter.WaitFrame(ctx)
	if err != nil {
		adapter.Close()
		return nil, &HandshakeError{Reason: fmt.Sprintf("transport terminated before handshake: %v", err)}
	}
	split := splitFrames(raw)
	if len(split) == 0 {
		adapter.Close()
		return nil, &HandshakeError{Reason: "empty handshake response"}
	}
	var resp handshakeResponse
	if err := decodeJSON(split[0], &resp); err != nil {
		adapter.Close()
		return nil, &HandshakeError{Reason: "malformed handshake response: " + err.Error()}
	}
	if resp.Error != "" {
		adapter.Close()
		return nil, &HandshakeError{Reason: resp.Error}
	}

	shared := &sharedState{
		adapter:  adapter,
		registry: registry.New(cfg.logger),
		logger:   cfg.logger,
		cfg:      cfg,
		cancel:   func() {},
		pending:  split[1:],
	}
	shared.refCount.Store(1)

	return &Client{shared: shared}, nil
}

// Pump advances the connection by one inbound transport read: it first
// drains any frame observed during the handshake, then blocks on the
// adapter's WaitFrame until the next message arrives, ctx is done, or the
// transport closes. The caller's own event loop is expected to call Pump
// repeatedly for the lifetime of the connection; there is no background
// receive goroutine in this build.
func (c *Client) Pump(ctx context.Context) error {
	c.shared.pendingMu.Lock()
	var next []byte
	if len(c.shared.pending) > 0 {
		next = c.shared.pending[0]
		c.shared.pending = c.shared.pending[1:]
	}
	c.shared.pendingMu.Unlock()

	if next != nil {
		if !c.processFrame(next) {
			c.teardown(ErrCancelled)
			return ErrCancelled
		}
		return nil
	}

	puller, ok := c.shared.adapter.(transport.FramePuller)
	if !ok {
		return fmt.Errorf("hubclient: Pump requires a frame-polling transport adapter")
	}
	raw, err := puller.WaitFrame(ctx)
	if err != nil {
		c.teardown(err)
		return err
	}
	for _, frame := range splitFrames(raw) {
		if !c.processFrame(frame) {
			c.teardown(ErrCancelled)
			return ErrCancelled
		}
	}
	return nil
}
