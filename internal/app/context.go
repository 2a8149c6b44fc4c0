package app

import (
	"github.com/rs/zerolog"

	"imgrab/internal/fetch"
	"imgrab/internal/infra/config"
	"imgrab/internal/store"
)

// Context holds the shared environment for one imgrab run.
type Context struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Tracker *fetch.Tracker

	// History is nil when outcome recording is disabled.
	History *store.History
}

// NewContext initializes the base environment.
func NewContext(cfg *config.Config, log zerolog.Logger) *Context {
	return &Context{
		Config:  cfg,
		Logger:  log,
		Tracker: fetch.NewTracker(),
	}
}
