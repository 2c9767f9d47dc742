package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/lorenzocolitta/brotherhood-kos/internal/models"
	"github.com/lorenzocolitta/brotherhood-kos/internal/service"
	"github.com/lorenzocolitta/brotherhood-kos/pkg/response"
)

// StatusHandler reports list stats and overall system health.
type StatusHandler struct {
	kos    *service.KosService
	admin  *service.AdminService
	db     *sqlx.DB
	logger *zap.Logger
}

// NewStatusHandler constructs StatusHandler.
func NewStatusHandler(kos *service.KosService, admin *service.AdminService, db *sqlx.DB, logger *zap.Logger) *StatusHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusHandler{kos: kos, admin: admin, db: db, logger: logger}
}

// Stats godoc
// @Summary KOS list summary counts
// @Tags Status
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stats [get]
func (h *StatusHandler) Stats(c *gin.Context) {
	stats, err := h.kos.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Status godoc
// @Summary System status
// @Tags Status
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /status [get]
func (h *StatusHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	dbState := "ok"
	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			dbState = "unreachable"
			h.logger.Warn("database ping failed", zap.Error(err))
		}
	}

	enabled, err := h.admin.BotEnabled(ctx)
	if err != nil {
		h.logger.Warn("bot state lookup failed", zap.Error(err))
		enabled = true
	}

	stats, err := h.kos.Stats(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, models.SystemStatus{
		BotEnabled: enabled,
		Database:   dbState,
		Stats:      stats,
		Uptime:     h.kos.Uptime().Round(time.Second).String(),
		Timestamp:  time.Now().UTC(),
	}, nil)
}

// Health godoc
// @Summary Liveness probe
// @Tags Status
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *StatusHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
