package hooks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rag2f/rag2f/pkg/config"
	"github.com/rag2f/rag2f/pkg/errors"
	"github.com/rs/zerolog"
)

// ConfigSource supplies the configuration snapshot for a dispatch.
// *config.Holder satisfies it.
type ConfigSource interface {
	Current() *config.Resolved
}

// Dispatcher runs frozen pipelines. It holds no mutable state and is safe
// for concurrent use.
type Dispatcher struct {
	pipelines *Pipelines
	source    ConfigSource
	logger    zerolog.Logger
}

// NewDispatcher returns a Dispatcher over p. source may be nil, in which case
// handlers see a nil configuration.
func NewDispatcher(p *Pipelines, source ConfigSource, opts ...Option) *Dispatcher {
	o := applyOptions(opts)
	return &Dispatcher{pipelines: p, source: source, logger: o.logger}
}

// Pipelines returns the pipelines the dispatcher runs.
func (d *Dispatcher) Pipelines() *Pipelines {
	return d.pipelines
}

// Dispatch threads payload through every handler registered for id and
// returns the last result. With no handlers the payload is returned as is.
// On failure the partial payload is discarded and nil is returned with a
// HOOK_EXECUTION_FAILED error naming the hook, owner and position.
func (d *Dispatcher) Dispatch(ctx context.Context, id string, payload any, caller string) (any, error) {
	entries := d.pipelines.byID[id]
	if len(entries) == 0 {
		return payload, nil
	}

	var cfg *config.Resolved
	if d.source != nil {
		cfg = d.source.Current()
	}

	callID := uuid.NewString()
	logger := d.logger.With().Str("hook", id).Str("callID", callID).Logger()
	logger.Debug().
		Str("caller", caller).
		Int("handlers", len(entries)).
		Msg("Dispatching hook")

	start := time.Now()
	current := payload
	for i, e := range entries {
		hc := &Context{
			Hook:     id,
			Owner:    e.Owner,
			Caller:   caller,
			Position: i,
			CallID:   callID,
			Logger:   logger.With().Str("owner", e.Owner).Int("position", i).Logger(),
			cfg:      cfg,
		}

		next, err := d.invoke(ctx, e, current, hc)
		if err != nil {
			logger.Debug().
				Err(err).
				Str("owner", e.Owner).
				Int("position", i).
				Str("handler", e.HandlerName).
				Msg("Hook handler failed")
			return nil, errors.Wrapf(err, errors.ErrHookExecutionFailed,
				"hook %q failed in handler %d (%s)", id, i, e.Owner).
				WithDetail("hook", id).
				WithDetail("owner", e.Owner).
				WithDetail("position", i).
				WithDetail("handler", e.HandlerName).
				WithDetail("callID", callID)
		}
		current = next
	}

	logger.Trace().Dur("duration", time.Since(start)).Msg("Hook dispatched")
	return current, nil
}

func (d *Dispatcher) invoke(ctx context.Context, e Entry, payload any, hc *Context) (out any, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			if rerr, ok := r.(error); ok {
				err = fmt.Errorf("handler panicked: %w", rerr)
				return
			}
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	return e.Handler(WithPluginID(ctx, e.Owner), payload, hc)
}

// DispatchAs dispatches and asserts the final payload type. A nil result
// yields the zero value of T.
func DispatchAs[T any](ctx context.Context, d *Dispatcher, id string, payload any, caller string) (T, error) {
	var zero T

	out, err := d.Dispatch(ctx, id, payload, caller)
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}

	typed, ok := out.(T)
	if !ok {
		return zero, errors.Newf(errors.ErrInvalidInput, "hook %q returned %T, want %T", id, out, zero).
			WithDetail("hook", id).
			WithDetail("type", fmt.Sprintf("%T", out))
	}
	return typed, nil
}
