package hubclient

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// ArgumentConfiguration accumulates positional, JSON-serializable arguments
// for an in-progress Invocation. Arguments are unnamed on the wire; callers
// must supply them in the order the hub method expects.
type ArgumentConfiguration struct {
	invocation *Invocation
	policy     ArgumentPolicy
	logger     zerolog.Logger
	err        error
}

func newArgumentConfiguration(inv *Invocation, policy ArgumentPolicy, logger zerolog.Logger) *ArgumentConfiguration {
	return &ArgumentConfiguration{invocation: inv, policy: policy, logger: logger}
}

// Argument serializes value to JSON and appends it to the invocation's
// ordered argument list. Under ArgumentPolicyStrict (the default) a
// serialization failure is latched and surfaced by build; under
// ArgumentPolicyDrop it is logged and the argument is omitted.
func (a *ArgumentConfiguration) Argument(value any) *ArgumentConfiguration {
	if a.err != nil && a.policy == ArgumentPolicyStrict {
		return a
	}
	raw, err := json.Marshal(value)
	if err != nil {
		if a.policy == ArgumentPolicyDrop {
			a.logger.Warn().Err(err).Msg("argument could not be serialized, dropping")
			return a
		}
		a.err = err
		return a
	}
	a.invocation.Arguments = append(a.invocation.Arguments, raw)
	return a
}

// build finalizes the invocation, returning a *SerializeError if a strict
// serialization failure was latched by a prior Argument call.
func (a *ArgumentConfiguration) build() (*Invocation, error) {
	if a.err != nil {
		return nil, &SerializeError{Cause: a.err}
	}
	return a.invocation, nil
}

// ArgumentConfigurator lets callers populate an invocation's positional
// arguments before it is sent. See InvokeWithArgs, Client.SendWithArgs and
// EnumerateWithArgs.
type ArgumentConfigurator func(*ArgumentConfiguration)
