package hubclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type testEntity struct {
	Text   string `json:"text"`
	Number int    `json:"number"`
}

func writeFrame(t *testing.T, conn *websocket.Conn, value any) {
	t.Helper()
	raw, err := encodeFrame(value)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, raw))
}

func readFrame(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	frames := splitFrames(data)
	require.Len(t, frames, 1)
	require.NoError(t, json.Unmarshal(frames[0], v))
}

// newTestHub starts an httptest server exposing a negotiate endpoint and a
// hub WebSocket endpoint at /hub, and returns a ConnectionConfig pointed at
// it (unsecure, no query parameters).
func newTestHub(t *testing.T, serve func(conn *websocket.Conn)) *ConnectionConfig {
	t.Helper()
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/hub/negotiate", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/hub", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var hs handshakeRequest
		readFrame(t, conn, &hs)
		writeFrame(t, conn, &handshakeResponse{})

		serve(conn)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	domain := strings.TrimPrefix(srv.URL, "http://")
	return NewConnectionConfig(domain, "hub").Unsecure()
}

func TestEchoInvoke(t *testing.T) {
	cfg := newTestHub(t, func(conn *websocket.Conn) {
		var inv Invocation
		readFrame(t, conn, &inv)
		require.Equal(t, "SingleEntity", inv.Target)
		require.NotEmpty(t, inv.InvocationID)

		result, _ := json.Marshal(testEntity{Text: "test", Number: 1})
		writeFrame(t, conn, &completionFrame{Type: MessageTypeCompletion, InvocationID: inv.InvocationID, Result: result})
	})

	client, err := ConnectWith(context.Background(), cfg.domain, cfg.hub, func(c *ConnectionConfig) { c.Unsecure() })
	require.NoError(t, err)
	defer client.Disconnect()

	entity, err := Invoke[testEntity](context.Background(), client, "SingleEntity")
	require.NoError(t, err)
	require.Equal(t, testEntity{Text: "test", Number: 1}, entity)
}

func TestStreamedHundred(t *testing.T) {
	cfg := newTestHub(t, func(conn *websocket.Conn) {
		var inv Invocation
		readFrame(t, conn, &inv)
		require.Equal(t, "HundredEntities", inv.Target)

		for i := 0; i < 100; i++ {
			item, _ := json.Marshal(i)
			writeFrame(t, conn, &streamItemFrame{Type: MessageTypeStreamItem, InvocationID: inv.InvocationID, Item: item})
		}
		writeFrame(t, conn, &completionFrame{Type: MessageTypeCompletion, InvocationID: inv.InvocationID})
	})

	client, err := ConnectWith(context.Background(), cfg.domain, cfg.hub, func(c *ConnectionConfig) { c.Unsecure() })
	require.NoError(t, err)
	defer client.Disconnect()

	stream, err := Enumerate[int](context.Background(), client, "HundredEntities")
	require.NoError(t, err)
	defer stream.Close()

	count := 0
	for {
		_, err := stream.Next(context.Background())
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		count++
	}
	require.Equal(t, 100, count)
}

func TestRegisterCallbackWithCompletion(t *testing.T) {
	completions := make(chan completionFrame, 1)
	cfg := newTestHub(t, func(conn *websocket.Conn) {
		args, _ := json.Marshal("ping")
		writeFrame(t, conn, &Invocation{Type: MessageTypeInvocation, InvocationID: "srv-1", Target: "Greet", Arguments: []json.RawMessage{args}})

		var frame completionFrame
		readFrame(t, conn, &frame)
		completions <- frame
	})

	client, err := ConnectWith(context.Background(), cfg.domain, cfg.hub, func(c *ConnectionConfig) { c.Unsecure() })
	require.NoError(t, err)
	defer client.Disconnect()

	called := make(chan struct{}, 1)
	_, err = client.Register("Greet", func(ctx *InvocationContext) {
		arg, err := Argument[string](ctx, 0)
		require.NoError(t, err)
		require.Equal(t, "ping", arg)
		require.True(t, ctx.HasInvocationID())
		require.NoError(t, ctx.Complete("pong"))
		called <- struct{}{}
	})
	require.NoError(t, err)

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("callback was never invoked")
	}

	select {
	case frame := <-completions:
		require.Equal(t, "srv-1", frame.InvocationID)
		var result string
		require.NoError(t, json.Unmarshal(frame.Result, &result))
		require.Equal(t, "pong", result)
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the completion frame")
	}
}

func TestUnregisterStopsDelivery(t *testing.T) {
	serverDone := make(chan struct{})
	registered := make(chan struct{})
	unregistered := make(chan struct{})
	cfg := newTestHub(t, func(conn *websocket.Conn) {
		defer close(serverDone)
		<-registered
		writeFrame(t, conn, &Invocation{Type: MessageTypeInvocation, InvocationID: "srv-1", Target: "Notify"})
		<-unregistered
		writeFrame(t, conn, &Invocation{Type: MessageTypeInvocation, InvocationID: "srv-2", Target: "Notify"})
	})

	client, err := ConnectWith(context.Background(), cfg.domain, cfg.hub, func(c *ConnectionConfig) { c.Unsecure() })
	require.NoError(t, err)
	defer client.Disconnect()

	calls := make(chan struct{}, 2)
	unreg, err := client.Register("Notify", func(ctx *InvocationContext) {
		calls <- struct{}{}
	})
	require.NoError(t, err)
	close(registered)

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("callback was never invoked for the first invocation")
	}

	unreg.Unregister()
	close(unregistered)

	select {
	case <-serverDone:
	case <-time.After(2 * time.Second):
		t.Fatal("server never finished sending both invocations")
	}

	select {
	case <-calls:
		t.Fatal("callback fired again after Unregister")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestFireAndForgetSend(t *testing.T) {
	received := make(chan Invocation, 1)
	cfg := newTestHub(t, func(conn *websocket.Conn) {
		var inv Invocation
		readFrame(t, conn, &inv)
		received <- inv
	})

	client, err := ConnectWith(context.Background(), cfg.domain, cfg.hub, func(c *ConnectionConfig) { c.Unsecure() })
	require.NoError(t, err)
	defer client.Disconnect()

	err = client.SendWithArgs(context.Background(), "Trigger", func(a *ArgumentConfiguration) {
		a.Argument("cb")
	})
	require.NoError(t, err)

	select {
	case inv := <-received:
		require.Equal(t, "Trigger", inv.Target)
		require.Empty(t, inv.InvocationID)
		require.Len(t, inv.Arguments, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the fire-and-forget invocation")
	}
}
