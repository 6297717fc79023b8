package server

import (
	"context"
	"io"

	"github.com/rs/zerolog/log"
)

type hook struct {
	name string
	fn   func(context.Context) error
}

// Hooks collects cleanup functions to run at process shutdown. Hooks run in
// reverse registration order so resources are released opposite to their
// acquisition, and a failing hook never stops the rest.
type Hooks struct {
	hooks []hook
}

// Add registers a named shutdown hook. Nil hooks are ignored with a warning.
func (h *Hooks) Add(name string, fn func(context.Context) error) {
	if fn == nil {
		log.Warn().Str("hook", name).Msg("ignoring nil shutdown hook")
		return
	}

	log.Debug().Str("hook", name).Msg("registered shutdown hook")
	h.hooks = append(h.hooks, hook{name: name, fn: fn})
}

// AddCloser registers a shutdown hook for a resource with a Close method.
func (h *Hooks) AddCloser(name string, closer io.Closer) {
	if closer == nil {
		log.Warn().Str("hook", name).Msg("ignoring nil shutdown hook")
		return
	}

	h.Add(name, func(context.Context) error {
		return closer.Close()
	})
}

// Run executes every registered hook, most recent first. Failures are logged
// and execution continues.
func (h *Hooks) Run(ctx context.Context) {
	for i := len(h.hooks) - 1; i >= 0; i-- {
		hookLog := log.Ctx(ctx).With().Str("hook", h.hooks[i].name).Logger()

		hookLog.Info().Msg("shutdown started")
		if err := h.hooks[i].fn(ctx); err != nil {
			hookLog.Warn().Err(err).Msg("shutdown failed")
		} else {
			hookLog.Info().Msg("shutdown complete")
		}
	}
}
