package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lorenzocolitta/brotherhood-kos/internal/models"
	"github.com/lorenzocolitta/brotherhood-kos/pkg/response"
)

// HistoryAPI reads the audit trail and operational logs.
type HistoryAPI interface {
	History(ctx context.Context, page, pageSize int) ([]models.HistoryRecord, *models.Pagination, error)
	Logs(ctx context.Context, limit int, category string) ([]models.LogRecord, error)
}

// HistoryHandler exposes the moderation audit trail.
type HistoryHandler struct {
	kos HistoryAPI
}

// NewHistoryHandler constructs HistoryHandler.
func NewHistoryHandler(kos HistoryAPI) *HistoryHandler {
	return &HistoryHandler{kos: kos}
}

// List godoc
// @Summary List moderation history, newest first
// @Tags History
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /history [get]
func (h *HistoryHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	records, pagination, err := h.kos.History(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Logs godoc
// @Summary List recent operational logs
// @Tags History
// @Produce json
// @Param limit query int false "Max rows"
// @Param category query string false "service, system, or auth"
// @Success 200 {object} response.Envelope
// @Router /logs [get]
func (h *HistoryHandler) Logs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	records, err := h.kos.Logs(c.Request.Context(), limit, c.Query("category"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
