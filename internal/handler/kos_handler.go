package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lorenzocolitta/brotherhood-kos/internal/dto"
	"github.com/lorenzocolitta/brotherhood-kos/internal/middleware"
	"github.com/lorenzocolitta/brotherhood-kos/internal/models"
	appErrors "github.com/lorenzocolitta/brotherhood-kos/pkg/errors"
	"github.com/lorenzocolitta/brotherhood-kos/pkg/response"
)

// KosAPI is the slice of KosService the entry endpoints need.
type KosAPI interface {
	Add(ctx context.Context, req dto.CreateEntryRequest, actor models.Actor) (*models.KosEntry, error)
	Remove(ctx context.Context, id, reason string, actor models.Actor) (*models.KosEntry, error)
	Get(ctx context.Context, id string) (*models.KosEntry, []models.HistoryRecord, error)
	List(ctx context.Context, filter models.EntryFilter) ([]models.KosEntry, *models.Pagination, error)
}

// KosHandler exposes the kill-on-sight list endpoints.
type KosHandler struct {
	kos KosAPI
}

// NewKosHandler constructs KosHandler.
func NewKosHandler(kos KosAPI) *KosHandler {
	return &KosHandler{kos: kos}
}

// List godoc
// @Summary List KOS entries
// @Tags KOS
// @Produce json
// @Param filter query string false "active, expiring, permanent, or archived"
// @Param search query string false "Match Roblox id or username"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /kos [get]
func (h *KosHandler) List(c *gin.Context) {
	var filter models.EntryFilter
	filter.Filter = models.ListFilter(c.DefaultQuery("filter", string(models.FilterActive)))
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	entries, pagination, err := h.kos.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Get godoc
// @Summary Get one KOS entry with its history trail
// @Tags KOS
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} response.Envelope
// @Router /kos/{id} [get]
func (h *KosHandler) Get(c *gin.Context) {
	entry, trail, err := h.kos.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"entry": entry, "history": trail}, nil)
}

// Create godoc
// @Summary Flag a Roblox account
// @Tags KOS
// @Accept json
// @Produce json
// @Param payload body dto.CreateEntryRequest true "Target and reason"
// @Success 201 {object} response.Envelope
// @Router /kos [post]
func (h *KosHandler) Create(c *gin.Context) {
	var req dto.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	entry, err := h.kos.Add(c.Request.Context(), req, middleware.CurrentActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// Remove godoc
// @Summary Archive a KOS entry
// @Tags KOS
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body dto.RemoveEntryRequest false "Removal reason"
// @Success 200 {object} response.Envelope
// @Router /kos/{id} [delete]
func (h *KosHandler) Remove(c *gin.Context) {
	var req dto.RemoveEntryRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
			return
		}
	}

	entry, err := h.kos.Remove(c.Request.Context(), c.Param("id"), req.Reason, middleware.CurrentActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}
