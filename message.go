package hubclient

import "encoding/json"

// MessageType is the wire discriminator carried by every hub protocol frame.
type MessageType int

const (
	MessageTypeInvocation       MessageType = 1
	MessageTypeStreamItem       MessageType = 2
	MessageTypeCompletion       MessageType = 3
	MessageTypeStreamInvocation MessageType = 4
	MessageTypeCancelInvocation MessageType = 5
	MessageTypePing             MessageType = 6
	MessageTypeClose            MessageType = 7
	MessageTypeOther            MessageType = 8
)

// Invocation requests that Target be invoked with Arguments on the remote
// endpoint. Type distinguishes a single-result call (Invocation) from a
// server-streaming one (StreamInvocation).
type Invocation struct {
	Type          MessageType       `json:"type"`
	Headers       map[string]string `json:"headers,omitempty"`
	InvocationID  string            `json:"invocationId,omitempty"`
	Target        string            `json:"target"`
	Arguments     []json.RawMessage `json:"arguments"`
	StreamIDs     []string          `json:"streamIds,omitempty"`
}

func newSingleInvocation(target string) *Invocation {
	return &Invocation{Type: MessageTypeInvocation, Target: target, Arguments: []json.RawMessage{}}
}

func newStreamInvocation(target string) *Invocation {
	return &Invocation{Type: MessageTypeStreamInvocation, Target: target, Arguments: []json.RawMessage{}}
}

// completionFrame mirrors the wire Completion frame. Result is kept as a
// json.RawMessage so decoding can be deferred to the typed call site
// (Invoke[T]) that awaits the invocation.
type completionFrame struct {
	Type         MessageType     `json:"type"`
	Headers      map[string]string `json:"headers,omitempty"`
	InvocationID string          `json:"invocationId"`
	Result       json.RawMessage `json:"result,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// streamItemFrame mirrors the wire StreamItem frame.
type streamItemFrame struct {
	Type         MessageType     `json:"type"`
	Headers      map[string]string `json:"headers,omitempty"`
	InvocationID string          `json:"invocationId"`
	Item         json.RawMessage `json:"item"`
}

// cancelInvocationFrame mirrors the wire CancelInvocation frame, sent by the
// client to abandon a streaming invocation server-side.
type cancelInvocationFrame struct {
	Type         MessageType       `json:"type"`
	Headers      map[string]string `json:"headers,omitempty"`
	InvocationID string            `json:"invocationId"`
}

func newCancelInvocation(invocationID string) *cancelInvocationFrame {
	return &cancelInvocationFrame{Type: MessageTypeCancelInvocation, InvocationID: invocationID}
}

// envelope is the shape-agnostic view used to discover a frame's type and,
// where present, its invocationId/target, before dispatching to a
// type-specific decode.
type envelope struct {
	Type         MessageType `json:"type"`
	InvocationID string      `json:"invocationId,omitempty"`
	Target       string      `json:"target,omitempty"`
}

type pingFrame struct {
	Type MessageType `json:"type"`
}

func newPingFrame() *pingFrame { return &pingFrame{Type: MessageTypePing} }

type closeFrame struct {
	Type           MessageType `json:"type"`
	Error          string      `json:"error,omitempty"`
	AllowReconnect *bool       `json:"allowReconnect,omitempty"`
}

type handshakeRequest struct {
	Protocol string `json:"protocol"`
	Version  int    `json:"version"`
}

func newHandshakeRequest() *handshakeRequest {
	return &handshakeRequest{Protocol: "json", Version: 1}
}

type handshakeResponse struct {
	Error string `json:"error,omitempty"`
}
