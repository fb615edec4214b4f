//go:build !(js && wasm)

package transport

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// NativeOptions configures DialNative.
type NativeOptions struct {
	SocketURL   string
	DialTimeout time.Duration
	Logger      zerolog.Logger
}

// nativeAdapter is the multi-threaded adapter of component 4.4: the receive
// loop runs in a background goroutine managed by an errgroup, outbound
// writes take an exclusive lock on the socket, and the adapter may be
// shared across goroutines via ordinary pointer sharing (the original's
// reference-counted clonable handle becomes, in Go, a single *nativeAdapter
// referenced by every clone of the owning Client).
type nativeAdapter struct {
	conn   *websocket.Conn
	writeM sync.Mutex

	group    *errgroup.Group
	cancel   context.CancelFunc
	closeOne sync.Once
}

// DialNative opens a WebSocket to socketURL and starts the receive loop.
// Inbound reads are published on the returned channel; a non-nil error on
// the error channel indicates the receive loop has terminated (the
// underlying socket failed or Close was called) and no further frames will
// arrive.
func DialNative(ctx context.Context, opts NativeOptions) (Adapter, <-chan []byte, <-chan error, error) {
	dialCtx, dialCancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer dialCancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, opts.SocketURL, nil)
	if err != nil {
		return nil, nil, nil, &ConnectError{Reason: "dial failed", Cause: err}
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	group, loopCtx := errgroup.WithContext(loopCtx)

	a := &nativeAdapter{conn: conn, group: group, cancel: cancel}

	frames := make(chan []byte, 16)
	done := make(chan error, 1)

	group.Go(func() error {
		defer close(frames)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return err
			}
			select {
			case frames <- data:
			case <-loopCtx.Done():
				return loopCtx.Err()
			}
		}
	})

	go func() {
		err := group.Wait()
		opts.Logger.Debug().Err(err).Msg("receive loop terminated")
		done <- err
		close(done)
	}()

	return a, frames, done, nil
}

func (a *nativeAdapter) Send(ctx context.Context, payload []byte) error {
	a.writeM.Lock()
	defer a.writeM.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = a.conn.SetWriteDeadline(deadline)
	}
	return a.conn.WriteMessage(websocket.TextMessage, payload)
}

func (a *nativeAdapter) Close() error {
	var err error
	a.closeOne.Do(func() {
		a.cancel()
		err = a.conn.Close()
	})
	return err
}
