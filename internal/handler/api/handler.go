package api

import (
	"errors"

	"github.com/labstack/echo/v4"

	"MacroSync/internal/domain/repository"
	"MacroSync/internal/usecase"
	apphttp "MacroSync/pkg/http"
	applogger "MacroSync/pkg/logger"
)

// Handler exposes the operational HTTP surface: health, last run
// status, and a manual sync trigger.
type Handler struct {
	syncer *usecase.Syncer
	store  repository.TableStore
	log    *applogger.Logger
}

// NewHandler creates the API handler.
func NewHandler(syncer *usecase.Syncer, store repository.TableStore, log *applogger.Logger) *Handler {
	return &Handler{syncer: syncer, store: store, log: log}
}

// RegisterRoutes registers all routes on the Echo instance.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.health)
	e.GET("/api/status", h.status)
	e.POST("/api/sync", h.trigger)
}

func (h *Handler) health(c echo.Context) error {
	if err := h.store.Health(c.Request().Context()); err != nil {
		h.log.Error("health check failed", applogger.Error(err))
		return apphttp.AppErrorResponse(c, apphttp.ServiceUnavailableError("store unreachable").WithError(err))
	}
	return apphttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *Handler) status(c echo.Context) error {
	last := h.syncer.LastReport()
	if last == nil {
		return apphttp.SuccessResponse(c, map[string]interface{}{"state": "idle"})
	}
	return apphttp.SuccessResponse(c, map[string]interface{}{
		"state":    "idle",
		"last_run": last,
	})
}

type syncRequest struct {
	Backfill bool     `json:"backfill"`
	Tables   []string `json:"tables"`
}

func (h *Handler) trigger(c echo.Context) error {
	var req syncRequest
	if err := c.Bind(&req); err != nil {
		return apphttp.AppErrorResponse(c, apphttp.BadRequestError("malformed request body").WithError(err))
	}

	report, err := h.syncer.Run(c.Request().Context(), usecase.RunOptions{
		Backfill: req.Backfill,
		Tables:   req.Tables,
	})
	if errors.Is(err, usecase.ErrRunInProgress) {
		return apphttp.AppErrorResponse(c, apphttp.ConflictError("sync run already in progress"))
	}
	if err != nil {
		h.log.Error("triggered sync failed", applogger.Error(err))
		return apphttp.AppErrorResponse(c, apphttp.InternalError("sync run failed").WithError(err))
	}
	return apphttp.SuccessResponse(c, report)
}
