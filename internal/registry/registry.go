// Package registry implements the hub client's action registry: a keyed,
// concurrent map from correlation key to pending outcome (a completion, a
// stream, or a registered callback), plus the routing dispatcher that
// forwards inbound frames to the right entry. It is deliberately agnostic
// of wire frame shapes: callers pass already-classified (type,
// invocationId, target, raw bytes) tuples, and the concrete Action
// implementations (owned by the hub client package) do their own decoding.
//
// The map itself follows the RWMutex-guarded map-of-entries shape used by
// the in-process gRPC channel's service registry: a single lock guards
// insertion/removal/lookup, while each entry is free to do its own,
// independent work once handed to a caller.
package registry

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// MessageType mirrors the hub protocol's wire type discriminator. Declared
// independently of the hub client package's MessageType to keep this
// package free of a dependency on frame shapes; the two sets of values are
// numerically identical.
type MessageType int

const (
	MessageTypeInvocation       MessageType = 1
	MessageTypeStreamItem       MessageType = 2
	MessageTypeCompletion       MessageType = 3
	MessageTypeStreamInvocation MessageType = 4
	MessageTypeCancelInvocation MessageType = 5
	MessageTypePing             MessageType = 6
	MessageTypeOther            MessageType = 8
)

// Action is a registry entry: something that can be updated by an inbound
// frame and torn down when removed. The hub client package's
// invocationAction, streamAction, and callbackAction all implement it.
type Action interface {
	// UpdateWith delivers a single inbound frame (already known to be
	// addressed to this action) for processing.
	UpdateWith(raw []byte, msgType MessageType)
	// Dispose releases any resources the action holds (e.g. closing a
	// stream or cancelling a pending future). Called once, when the action
	// is removed from the registry.
	Dispose()
}

// Registry is the keyed store of pending outcomes described by component
// 4.3: invocation completions, stream sinks, and callbacks, addressed by a
// single string key space.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
	counter atomic.Uint64
	logger  zerolog.Logger
}

// New returns an empty Registry. A disabled logger is used if logger is the
// zero value.
func New(logger zerolog.Logger) *Registry {
	return &Registry{actions: make(map[string]Action), logger: logger}
}

// CreateKey allocates the next correlation id for target, of the form
// "<target>_<n>" with a strictly increasing, per-registry n.
func (r *Registry) CreateKey(target string) string {
	n := r.counter.Add(1)
	return fmt.Sprintf("%s_%d", target, n)
}

// Insert adds action under key. Inserting a duplicate key is rejected (the
// existing entry is retained) and reported via the logger, matching the
// invariant that registry keys are unique.
func (r *Registry) Insert(key string, action Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.actions[key]; exists {
		r.logger.Error().Str("key", key).Msg("key is already registered as an action")
		return &DuplicateKeyError{Key: key}
	}
	r.actions[key] = action
	return nil
}

// Contains reports whether key currently has an action registered.
func (r *Registry) Contains(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.actions[key]
	return ok
}

// update runs f against the action registered under key, if any. The outer
// map's read lock is held only for the lookup and is released before f runs
// (the action itself is responsible for its own internal synchronization).
// Reports whether an action was found.
func (r *Registry) update(key string, f func(Action)) bool {
	r.mu.RLock()
	action, ok := r.actions[key]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	f(action)
	return true
}

// Remove drops and disposes the action registered under key, if any.
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	action, ok := r.actions[key]
	if ok {
		delete(r.actions, key)
	}
	r.mu.Unlock()
	if ok {
		action.Dispose()
	}
}

// ProcessMessage is the routing dispatcher of component 4.3. msgType,
// invocationID and target are extracted from the frame's shape-agnostic
// envelope by the caller; raw is the full frame payload handed to whichever
// action's UpdateWith is invoked.
//
// Close frames are not handled here: beginning teardown is a transport-level
// concern, not a registry update, so callers should intercept
// MessageTypeClose before calling ProcessMessage.
func (r *Registry) ProcessMessage(raw []byte, msgType MessageType, invocationID, target string) {
	switch msgType {
	case MessageTypeInvocation:
		if target == "" || !r.update(target, func(a Action) { a.UpdateWith(raw, msgType) }) {
			r.logger.Debug().Str("target", target).Msg("no callback registered for invocation target, dropping")
		}
	case MessageTypeStreamItem:
		if invocationID == "" || !r.update(invocationID, func(a Action) { a.UpdateWith(raw, msgType) }) {
			r.logger.Debug().Str("invocationId", invocationID).Msg("no action registered for stream item, dropping")
		}
	case MessageTypeCompletion:
		if invocationID != "" {
			if !r.update(invocationID, func(a Action) { a.UpdateWith(raw, msgType) }) {
				r.logger.Debug().Str("invocationId", invocationID).Msg("completion for unknown invocation, dropping")
			}
			r.Remove(invocationID)
		}
	case MessageTypeStreamInvocation, MessageTypeCancelInvocation, MessageTypePing:
		// Not expected inbound, or heartbeat-only; no-op.
	default:
		r.logger.Debug().Int("type", int(msgType)).Msg("unrecognized message type, dropping")
	}
}

// Dispose clears all remaining entries, disposing each. Intended to be
// called once, when the last client handle referencing this registry goes
// away.
func (r *Registry) Dispose() {
	r.mu.Lock()
	actions := r.actions
	r.actions = make(map[string]Action)
	r.mu.Unlock()
	for _, a := range actions {
		a.Dispose()
	}
}

// DuplicateKeyError reports an Insert of a key that is already registered.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("registry: key %q is already registered", e.Key)
}
