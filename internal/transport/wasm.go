//go:build js && wasm

package transport

import (
	"context"
	"sync"
	"syscall/js"
	"time"

	"github.com/rs/zerolog"
)

// wasmAdapter is the single-threaded cooperative adapter of component 4.4:
// it drives a browser WebSocket object through syscall/js on whatever
// goroutine calls into it (in a wasm build there is effectively one OS
// thread), progressing through the Connect -> Handshake -> Process states
// as the underlying socket reports open/message/close/error events. There
// is no background receive goroutine; inbound frames are appended to a
// small buffer by the JS callback and drained by WaitFrame on the caller's
// own polling loop.
type wasmAdapter struct {
	socket js.Value

	mu     sync.Mutex
	frames [][]byte
	closed bool

	onOpen  js.Func
	onMsg   js.Func
	onClose js.Func
	onErr   js.Func

	opened chan struct{}
	signal chan struct{}
}

// DialWASM opens a browser WebSocket to socketURL. The returned Adapter's
// Send/Close are safe to call from the goroutine driving the caller's
// cooperative loop; inbound frames are retrieved by repeatedly calling
// WaitFrame from that same loop.
func DialWASM(ctx context.Context, socketURL string, dialTimeout time.Duration, logger zerolog.Logger) (*wasmAdapter, error) {
	a := &wasmAdapter{
		opened: make(chan struct{}),
		signal: make(chan struct{}, 1),
	}

	a.socket = js.Global().Get("WebSocket").New(socketURL)
	a.socket.Set("binaryType", "arraybuffer")

	a.onOpen = js.FuncOf(func(this js.Value, args []js.Value) any {
		close(a.opened)
		return nil
	})
	a.onMsg = js.FuncOf(func(this js.Value, args []js.Value) any {
		data := args[0].Get("data")
		var text string
		if data.Type() == js.TypeString {
			text = data.String()
		}
		a.mu.Lock()
		a.frames = append(a.frames, []byte(text))
		a.mu.Unlock()
		a.notify()
		return nil
	})
	a.onClose = js.FuncOf(func(this js.Value, args []js.Value) any {
		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()
		a.notify()
		return nil
	})
	a.onErr = js.FuncOf(func(this js.Value, args []js.Value) any {
		logger.Debug().Msg("websocket reported an error event")
		return nil
	})

	a.socket.Call("addEventListener", "open", a.onOpen)
	a.socket.Call("addEventListener", "message", a.onMsg)
	a.socket.Call("addEventListener", "close", a.onClose)
	a.socket.Call("addEventListener", "error", a.onErr)

	select {
	case <-a.opened:
		return a, nil
	case <-time.After(dialTimeout):
		a.Close()
		return nil, &ConnectError{Reason: "websocket did not open before timeout"}
	case <-ctx.Done():
		a.Close()
		return nil, &ConnectError{Reason: "context cancelled while dialing", Cause: ctx.Err()}
	}
}

func (a *wasmAdapter) notify() {
	select {
	case a.signal <- struct{}{}:
	default:
	}
}

// WaitFrame blocks, on the caller's own loop iteration, until a frame is
// available, the socket closes, or ctx is done.
func (a *wasmAdapter) WaitFrame(ctx context.Context) ([]byte, error) {
	for {
		a.mu.Lock()
		if len(a.frames) > 0 {
			f := a.frames[0]
			a.frames = a.frames[1:]
			a.mu.Unlock()
			return f, nil
		}
		closed := a.closed
		a.mu.Unlock()
		if closed {
			return nil, &ConnectError{Reason: "websocket closed"}
		}

		select {
		case <-a.signal:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (a *wasmAdapter) Send(ctx context.Context, payload []byte) error {
	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return &ConnectError{Reason: "websocket is closed"}
	}
	a.socket.Call("send", string(payload))
	return nil
}

func (a *wasmAdapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	a.socket.Call("close")
	a.onOpen.Release()
	a.onMsg.Release()
	a.onClose.Release()
	a.onErr.Release()
	return nil
}
