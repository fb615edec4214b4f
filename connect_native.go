//go:build !(js && wasm)

package hubclient

import (
	"context"
	"fmt"

	"github.com/octopuslowtech/maxcloud-clientrtc-remote/internal/registry"
	"github.com/octopuslowtech/maxcloud-clientrtc-remote/internal/transport"
)

// ConnectWith dials domain/hub after applying configure to the connection's
// builder, then any ambient Options. This build dials the multi-threaded
// native adapter and starts a background goroutine to drain it; see
// connect_wasm.go for the single-threaded browser counterpart.
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

	adapter, frames, transportDone, err := transport.DialNative(ctx, transport.NativeOptions{
		SocketURL:   cfg.SocketURL(),
		DialTimeout: cfg.dialTimeout,
		Logger:      cfg.logger,
	})
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

	var pending [][]byte
	select {
	case raw, ok := <-frames:
		if !ok {
			adapter.Close()
			return nil, &HandshakeError{Reason: "transport closed before handshake response"}
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
		pending = split[1:]
	case err := <-transportDone:
		return nil, &HandshakeError{Reason: fmt.Sprintf("transport terminated before handshake: %v", err)}
	case <-ctx.Done():
		adapter.Close()
		return nil, &HandshakeError{Reason: "context cancelled during handshake"}
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	shared := &sharedState{
		adapter:  adapter,
		registry: registry.New(cfg.logger),
		logger:   cfg.logger,
		cfg:      cfg,
		cancel:   cancel,
	}
	shared.refCount.Store(1)

	client := &Client{shared: shared}
	go client.dispatchLoop(loopCtx, pending, frames, transportDone)

	return client, nil
}

// dispatchLoop is the receive loop of component 4.4/4.3: it drains inbound
// reads, splits each on the record separator, and routes every frame
// through processFrame.
func (c *Client) dispatchLoop(ctx context.Context, pending [][]byte, frames <-chan []byte, transportDone <-chan error) {
	for _, raw := range pending {
		if !c.processFrame(raw) {
			c.teardown(ErrCancelled)
			return
		}
	}

	for {
		select {
		case raw, ok := <-frames:
			if !ok {
				c.teardown(ErrCancelled)
				return
			}
			for _, frame := range splitFrames(raw) {
				if !c.processFrame(frame) {
					c.teardown(ErrCancelled)
					return
				}
			}
		case err := <-transportDone:
			if err == nil {
				err = ErrCancelled
			}
			c.teardown(err)
			return
		case <-ctx.Done():
			c.teardown(ErrCancelled)
			return
		}
	}
}
