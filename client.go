package hubclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/octopuslowtech/maxcloud-clientrtc-remote/internal/future"
	"github.com/octopuslowtech/maxcloud-clientrtc-remote/internal/registry"
	"github.com/octopuslowtech/maxcloud-clientrtc-remote/internal/transport"
	"github.com/rs/zerolog"
)

// sharedState is the reference-counted interior shared by every clone of a
// Client: cloning a Client increments refCount, and Disconnect on the last
// live clone tears the connection down.
type sharedState struct {
	adapter  transport.Adapter
	registry *registry.Registry
	logger   zerolog.Logger
	cfg      *ConnectionConfig

	refCount atomic.Int64
	teardown sync.Once
	cancel   context.CancelFunc

	// pendingMu/pending hold frames observed during the handshake that
	// belong to the same transport read as the handshake response but
	// were not yet consumed. Only the WASM build's Pump drains this
	// directly; the native build's dispatchLoop keeps its own local copy
	// for the lifetime of the goroutine instead.
	pendingMu sync.Mutex
	pending   [][]byte
}

// Client is the hub client façade (component 4.1). The zero value is not
// usable; obtain one via Connect or ConnectWith. Client is cheap to copy by
// pointer and cheap to Clone: clones share the same registry and
// transport.
type Client struct {
	shared *sharedState
}

// Connect dials domain/hub with default configuration (secure, no
// authentication) and returns a ready-to-use Client.
func Connect(ctx context.Context, domain, hub string) (*Client, error) {
	return ConnectWith(ctx, domain, hub, nil)
}

func authorizationHeader(auth Authentication) (string, error) {
	switch auth.Kind {
	case AuthenticationNone:
		return "", nil
	case AuthenticationBasic:
		password := ""
		if auth.Password != nil {
			password = *auth.Password
		}
		encoded := base64.StdEncoding.EncodeToString([]byte(auth.User + ":" + password))
		return "Basic " + encoded, nil
	case AuthenticationBearer:
		return "Bearer " + auth.Token, nil
	default:
		return "", fmt.Errorf("unknown authentication kind %d", auth.Kind)
	}
}

// processFrame decodes raw as a shape-agnostic envelope and routes it to the
// registry. Close frames are intercepted here rather than forwarded to the
// registry (closing the connection is a transport-level concern, not a
// registry update); it returns false when the caller should stop processing
// further frames and tear the connection down.
func (c *Client) processFrame(raw []byte) bool {
	var env envelope
	if err := decodeJSON(raw, &env); err != nil {
		c.shared.logger.Error().Err(err).Msg("cannot parse inbound frame envelope, dropping")
		return true
	}
	if env.Type == MessageTypeClose {
		c.shared.logger.Debug().Msg("received close frame, tearing down")
		return false
	}
	c.shared.registry.ProcessMessage(raw, registry.MessageType(env.Type), env.InvocationID, env.Target)
	return true
}

// teardown aborts the receive loop, closes the transport, and cancels every
// outstanding action, exactly once.
func (c *Client) teardown(cause error) {
	c.shared.teardown.Do(func() {
		c.shared.logger.Debug().Err(cause).Msg("tearing down connection")
		c.shared.cancel()
		c.shared.adapter.Close()
		c.shared.registry.Dispose()
	})
}

// Clone returns a new handle sharing this Client's registry and transport.
// Disconnecting any clone decrements the shared reference count; only the
// last live clone actually tears the connection down.
func (c *Client) Clone() *Client {
	c.shared.refCount.Add(1)
	return &Client{shared: c.shared}
}

// Disconnect releases this handle. If it is the last live clone, the
// transport is closed, the receive loop is aborted, every outstanding
// invocation is resolved with ErrCancelled, and every outstanding stream
// ends (its Next returns io.EOF).
func (c *Client) Disconnect() error {
	if c.shared.refCount.Add(-1) > 0 {
		return nil
	}
	c.teardown(nil)
	return nil
}

func (c *Client) sendFrame(value any) error {
	raw, err := encodeFrame(value)
	if err != nil {
		return &SerializeError{Cause: err}
	}
	if err := c.shared.adapter.Send(context.Background(), raw); err != nil {
		return &SendError{Cause: err}
	}
	return nil
}

// Send builds and transmits an Invocation for target with no arguments and
// no invocation id: fire-and-forget, no reply is expected.
func (c *Client) Send(ctx context.Context, target string) error {
	return c.SendWithArgs(ctx, target, nil)
}

// SendWithArgs is Send, with configure populating the invocation's
// positional arguments before it is sent.
func (c *Client) SendWithArgs(ctx context.Context, target string, configure ArgumentConfigurator) error {
	inv := newSingleInvocation(target)
	built, err := buildInvocation(inv, configure, c.shared.cfg.argumentPolicy, c.shared.logger)
	if err != nil {
		return err
	}
	raw, err := encodeFrame(built)
	if err != nil {
		return &SerializeError{Cause: err}
	}
	if err := c.shared.adapter.Send(ctx, raw); err != nil {
		return &SendError{Cause: err}
	}
	return nil
}

// Register installs handler as the callback for target: every inbound
// Invocation addressed to target invokes handler with an InvocationContext
// exposing its arguments and, if present, a way to reply. A target may only
// be registered once; the first registration wins. The returned
// Unregisterer is a detachable token: dropping it does not unregister, only
// calling Unregister does.
func (c *Client) Register(target string, handler func(*InvocationContext)) (*Unregisterer, error) {
	action := newCallbackAction(c.shared.logger, func(raw []byte) {
		var inv Invocation
		if err := decodeJSON(raw, &inv); err != nil {
			c.shared.logger.Error().Err(err).Msg("cannot parse inbound invocation")
			return
		}
		handler(newInvocationContext(c, &inv))
	})
	if err := c.shared.registry.Insert(target, action); err != nil {
		return nil, &ErrAlreadyRegistered{Key: target}
	}
	return &Unregisterer{registry: c.shared.registry, key: target}, nil
}

// Unregisterer is a detachable token returned by Register. It does nothing
// until Unregister is called; it has no destructor behavior.
type Unregisterer struct {
	registry *registry.Registry
	key      string
}

// Unregister removes the callback this token refers to. Calling it more
// than once is a defect (idempotence is not guaranteed), mirroring the
// original's unregistration handler.
func (u *Unregisterer) Unregister() {
	u.registry.Remove(u.key)
}

func buildInvocation(inv *Invocation, configure ArgumentConfigurator, policy ArgumentPolicy, logger zerolog.Logger) (*Invocation, error) {
	ac := newArgumentConfiguration(inv, policy, logger)
	if configure != nil {
		configure(ac)
	}
	return ac.build()
}

// Invoke calls target with no arguments and awaits its single result,
// decoded as T.
func Invoke[T any](ctx context.Context, c *Client, target string) (T, error) {
	return InvokeWithArgs[T](ctx, c, target, nil)
}

// InvokeWithArgs is Invoke, with configure populating the invocation's
// positional arguments before it is sent.
func InvokeWithArgs[T any](ctx context.Context, c *Client, target string, configure ArgumentConfigurator) (T, error) {
	var zero T

	invocationID := c.shared.registry.CreateKey(target)
	action, fut := newInvocationAction(c.shared.logger)
	if err := c.shared.registry.Insert(invocationID, action); err != nil {
		return zero, &ErrAlreadyRegistered{Key: invocationID}
	}

	inv := newSingleInvocation(target)
	inv.InvocationID = invocationID
	built, err := buildInvocation(inv, configure, c.shared.cfg.argumentPolicy, c.shared.logger)
	if err != nil {
		c.shared.registry.Remove(invocationID)
		return zero, err
	}

	raw, err := encodeFrame(built)
	if err != nil {
		c.shared.registry.Remove(invocationID)
		return zero, &SerializeError{Cause: err}
	}
	if err := c.shared.adapter.Send(ctx, raw); err != nil {
		c.shared.registry.Remove(invocationID)
		return zero, &SendError{Cause: err}
	}

	outcome, err := fut.Wait(ctx)
	if err != nil {
		if err == future.ErrCancelled {
			return zero, ErrCancelled
		}
		return zero, err
	}
	if outcome.remoteErr != "" {
		return zero, &RemoteError{Message: outcome.remoteErr}
	}
	if len(outcome.result) == 0 {
		return zero, nil
	}
	var result T
	if err := decodeJSON(outcome.result, &result); err != nil {
		return zero, &DeserializeError{Cause: err}
	}
	return result, nil
}

// Stream is the lazy, finite sequence of T returned by Enumerate. It ends
// when a Completion arrives for its invocation or the client disconnects.
// Close should be called once the consumer stops consuming before natural
// end-of-stream, emitting a CancelInvocation so the server can release its
// resources; it is safe (and a no-op) to call after natural termination.
type Stream[T any] struct {
	raw          *future.Stream[json.RawMessage]
	client       *Client
	invocationID string
	closeOnce    sync.Once
}

// Next blocks until the next item is available, the stream ends (err ==
// io.EOF), or ctx is done.
func (s *Stream[T]) Next(ctx context.Context) (T, error) {
	var zero T
	raw, err := s.raw.Next(ctx)
	if err != nil {
		return zero, err
	}
	var value T
	if err := decodeJSON(raw, &value); err != nil {
		return zero, &DeserializeError{Cause: err}
	}
	return value, nil
}

// Close abandons the stream, removing its registry entry and emitting a
// CancelInvocation frame so the server can stop producing items.
func (s *Stream[T]) Close() error {
	var sendErr error
	s.closeOnce.Do(func() {
		if !s.client.shared.registry.Contains(s.invocationID) {
			return
		}
		s.client.shared.registry.Remove(s.invocationID)
		sendErr = s.client.sendFrame(newCancelInvocation(s.invocationID))
	})
	return sendErr
}

// Enumerate calls target with no arguments and returns a stream of its
// results, decoded as T.
func Enumerate[T any](ctx context.Context, c *Client, target string) (*Stream[T], error) {
	return EnumerateWithArgs[T](ctx, c, target, nil)
}

// EnumerateWithArgs is Enumerate, with configure populating the stream
// invocation's positional arguments before it is sent. A send failure here
// is not surfaced: the stream is still returned, and simply never yields
// any items.
func EnumerateWithArgs[T any](ctx context.Context, c *Client, target string, configure ArgumentConfigurator) (*Stream[T], error) {
	invocationID := c.shared.registry.CreateKey(target)
	action, rawStream := newStreamAction(c.shared.logger)
	if err := c.shared.registry.Insert(invocationID, action); err != nil {
		return nil, &ErrAlreadyRegistered{Key: invocationID}
	}

	inv := newStreamInvocation(target)
	inv.InvocationID = invocationID
	built, err := buildInvocation(inv, configure, c.shared.cfg.argumentPolicy, c.shared.logger)
	if err != nil {
		c.shared.registry.Remove(invocationID)
		return nil, err
	}

	stream := &Stream[T]{raw: rawStream, client: c, invocationID: invocationID}

	raw, err := encodeFrame(built)
	if err != nil {
		c.shared.logger.Error().Err(err).Msg("could not encode stream invocation, stream will never yield")
		return stream, nil
	}
	if err := c.shared.adapter.Send(ctx, raw); err != nil {
		c.shared.logger.Error().Err(err).Msg("could not send stream invocation, stream will never yield")
	}
	return stream, nil
}

func decodeJSON(raw []byte, v any) error {
	return json.Unmarshal(raw, v)
}
