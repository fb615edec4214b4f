// Package transport implements the hub client's transport adapter contract
// (component 4.4): a socket that, once dialed, accepts outbound byte frames
// and delivers inbound reads, on a channel (native) or through WaitFrame
// (WASM). It intentionally knows nothing
// about the JSON hub protocol itself (record separators, handshake shape,
// message types); that belongs to the hub client package, which layers
// protocol behavior on top of the raw byte-oriented Adapter.
//
// Two interchangeable adapters implement the same contract: nativeAdapter
// (native.go), a goroutine-driven adapter over github.com/gorilla/websocket
// for any normal Go runtime, and the WASM adapter (wasm.go, built only
// under GOOS=js GOARCH=wasm) driving a browser WebSocket object through
// syscall/js on the calling goroutine.
package transport

import "context"

// Adapter is a dialed, ready-to-use transport connection. A single inbound
// read may contain more than one protocol frame concatenated together;
// splitting on the record separator is the caller's responsibility.
type Adapter interface {
	// Send transmits payload as a single outbound message. Safe to call
	// concurrently; sends are serialized internally.
	Send(ctx context.Context, payload []byte) error
	// Close terminates the connection and stops the receive loop. Safe to
	// call more than once.
	Close() error
}

// FramePuller is implemented by adapters whose inbound frames are drained by
// the caller polling for them, rather than pushed on a channel. The WASM
// adapter implements it; the native adapter does not, since its frames are
// delivered on the channel DialNative returns.
type FramePuller interface {
	WaitFrame(ctx context.Context) ([]byte, error)
}

// ConnectError reports that the adapter could not be established.
type ConnectError struct {
	Reason string
	Cause  error
}

func (e *ConnectError) Error() string {
	if e.Cause != nil {
		return "transport: " + e.Reason + ": " + e.Cause.Error()
	}
	return "transport: " + e.Reason
}

func (e *ConnectError) Unwrap() error { return e.Cause }
