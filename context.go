package hubclient

import (
	"encoding/json"
	"fmt"
)

// InvocationContext is handed to a registered callback when the server
// invokes its target. It exposes the positional arguments of the inbound
// call and, if the call carried a correlation id, a way to reply with a
// Completion.
type InvocationContext struct {
	client       *Client
	invocationID string
	arguments    []json.RawMessage
}

func newInvocationContext(client *Client, inv *Invocation) *InvocationContext {
	return &InvocationContext{client: client, invocationID: inv.InvocationID, arguments: inv.Arguments}
}

// RawArgument returns the raw JSON of the index'th positional argument of
// the inbound invocation. Prefer the package-level Argument[T], which also
// decodes it.
func (c *InvocationContext) RawArgument(index int) (json.RawMessage, error) {
	if index < 0 || index >= len(c.arguments) {
		return nil, &DeserializeError{Cause: errIndexOutOfRange(index, len(c.arguments))}
	}
	return c.arguments[index], nil
}

// Argument decodes the index'th positional argument of ctx's triggering
// invocation into T. It is a package-level function rather than a method on
// InvocationContext because Go methods cannot carry their own type
// parameters — the same constraint Invoke[T] and Enumerate[T] work around.
func Argument[T any](ctx *InvocationContext, index int) (T, error) {
	var zero T
	raw, err := ctx.RawArgument(index)
	if err != nil {
		return zero, err
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return zero, &DeserializeError{Cause: err}
	}
	return value, nil
}

// HasInvocationID reports whether the triggering invocation carried a
// correlation id and can therefore be completed.
func (c *InvocationContext) HasInvocationID() bool { return c.invocationID != "" }

// Complete replies to the triggering invocation with result, synthesizing
// and sending a Completion frame carrying the same invocation id. It fails
// with ErrNoInvocationID if the triggering invocation carried none.
func (c *InvocationContext) Complete(result any) error {
	if c.invocationID == "" {
		return ErrNoInvocationID
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return &SerializeError{Cause: err}
	}
	frame := &completionFrame{Type: MessageTypeCompletion, InvocationID: c.invocationID, Result: raw}
	return c.client.sendFrame(frame)
}

func errIndexOutOfRange(index, length int) error {
	return &argumentIndexError{index: index, length: length}
}

type argumentIndexError struct {
	index, length int
}

func (e *argumentIndexError) Error() string {
	return fmt.Sprintf("argument index %d out of range [0,%d)", e.index, e.length)
}
