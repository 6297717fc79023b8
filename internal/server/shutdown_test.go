package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCloser struct {
	closed bool
	err    error
}

func (r *recordingCloser) Close() error {
	r.closed = true
	return r.err
}

func TestHooks_RunsInReverseOrder(t *testing.T) {
	var hooks Hooks
	var order []string

	for _, name := range []string{"store", "telemetry", "listener"} {
		hooks.Add(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	hooks.Run(context.Background())

	assert.Equal(t, []string{"listener", "telemetry", "store"}, order,
		"resources must be released opposite to their acquisition")
}

func TestHooks_FailureDoesNotStopExecution(t *testing.T) {
	var hooks Hooks
	var order []string

	hooks.Add("first", func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	hooks.Add("failing", func(context.Context) error {
		order = append(order, "failing")
		return errors.New("flush failed")
	})
	hooks.Add("last", func(context.Context) error {
		order = append(order, "last")
		return nil
	})

	hooks.Run(context.Background())

	assert.Equal(t, []string{"last", "failing", "first"}, order)
}

func TestHooks_NilHooksIgnored(t *testing.T) {
	var hooks Hooks

	hooks.Add("nil-fn", nil)
	hooks.AddCloser("nil-closer", nil)

	require.Empty(t, hooks.hooks)
	hooks.Run(context.Background())
}

func TestHooks_AddCloser(t *testing.T) {
	var hooks Hooks
	closer := &recordingCloser{err: errors.New("close failed")}

	hooks.AddCloser("store", closer)
	hooks.Run(context.Background())

	assert.True(t, closer.closed)
}

func TestHooks_PassesContext(t *testing.T) {
	var hooks Hooks
	type key struct{}

	var received any
	hooks.Add("ctx", func(ctx context.Context) error {
		received = ctx.Value(key{})
		return nil
	})

	hooks.Run(context.WithValue(context.Background(), key{}, "deadline"))

	assert.Equal(t, "deadline", received)
}
