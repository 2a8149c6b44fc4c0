package controllers

import (
	"net/http"

	"github.com/labstack/echo/v5"

	"imgrab/internal/app"
	"imgrab/internal/store"
)

type StatsController struct {
	App *app.Context
}

// Handle returns the live progress counters of the current run.
func (ctrl *StatsController) Handle(c *echo.Context) error {
	return c.JSON(http.StatusOK, ctrl.App.Tracker.Snapshot())
}

// HandleDownloads lists the outcomes recorded so far.
func (ctrl *StatsController) HandleDownloads(c *echo.Context) error {
	if ctrl.App.History == nil {
		return c.String(http.StatusNotFound, "history store disabled")
	}

	entries, err := ctrl.App.History.List()
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	return c.JSON(http.StatusOK, entries)
}
