package hubclient

import (
	"encoding/json"

	"github.com/octopuslowtech/maxcloud-clientrtc-remote/internal/future"
	"github.com/octopuslowtech/maxcloud-clientrtc-remote/internal/registry"
	"github.com/rs/zerolog"
)

// invocationOutcome is what an invocationAction's completer resolves to: the
// raw JSON result (to be decoded by the typed call site in Invoke[T]) or,
// if the Completion carried an error field, that message. Decoding is
// deferred to the call site rather than parameterizing the action itself by
// T, since the registry holds actions of many different result types side
// by side in one map.
type invocationOutcome struct {
	result    json.RawMessage
	remoteErr string
}

// invocationAction is the registry entry behind a single invoke/invokeWithArgs
// call: it owns a single-shot completer, resolved by the Completion frame
// carrying its invocation id.
type invocationAction struct {
	completer *future.Completer[invocationOutcome]
	logger    zerolog.Logger
}

func newInvocationAction(logger zerolog.Logger) (*invocationAction, *future.Future[invocationOutcome]) {
	f, c := future.New[invocationOutcome]()
	return &invocationAction{completer: c, logger: logger}, f
}

func (a *invocationAction) UpdateWith(raw []byte, msgType registry.MessageType) {
	if msgType != registry.MessageTypeCompletion {
		a.logger.Error().Int("type", int(msgType)).Msg("invocation action received a non-completion frame, ignoring")
		return
	}
	var cf completionFrame
	if err := json.Unmarshal(raw, &cf); err != nil {
		a.logger.Error().Err(err).Msg("cannot parse completion frame")
		return
	}
	a.completer.Complete(invocationOutcome{result: cf.Result, remoteErr: cf.Error})
}

func (a *invocationAction) Dispose() {
	a.completer.Cancel()
}

// streamAction is the registry entry behind an enumerate/enumerateWithArgs
// call: it owns a stream pusher, fed by StreamItem frames and closed by the
// terminating Completion.
type streamAction struct {
	pusher future.Pusher[json.RawMessage]
	logger zerolog.Logger
}

func newStreamAction(logger zerolog.Logger) (*streamAction, *future.Stream[json.RawMessage]) {
	s, p := future.NewStream[json.RawMessage]()
	return &streamAction{pusher: p, logger: logger}, s
}

func (a *streamAction) UpdateWith(raw []byte, msgType registry.MessageType) {
	switch msgType {
	case registry.MessageTypeStreamItem:
		var item streamItemFrame
		if err := json.Unmarshal(raw, &item); err != nil {
			a.logger.Error().Err(err).Msg("cannot parse stream item frame")
			return
		}
		a.pusher.Push(item.Item)
	case registry.MessageTypeCompletion:
		a.pusher.Close()
	default:
		a.logger.Error().Int("type", int(msgType)).Msg("stream action received an unexpected frame type")
	}
}

func (a *streamAction) Dispose() {
	a.pusher.Close()
}

// callbackAction is the registry entry behind a Register call: it persists
// until explicitly unregistered and fires handler on every inbound
// Invocation addressed to its target.
type callbackAction struct {
	handler func(raw []byte)
	logger  zerolog.Logger
}

func newCallbackAction(logger zerolog.Logger, handler func(raw []byte)) *callbackAction {
	return &callbackAction{handler: handler, logger: logger}
}

func (a *callbackAction) UpdateWith(raw []byte, msgType registry.MessageType) {
	if msgType != registry.MessageTypeInvocation {
		a.logger.Error().Int("type", int(msgType)).Msg("callback action received non-invocation frame, ignoring")
		return
	}
	a.handler(raw)
}

func (a *callbackAction) Dispose() {}
