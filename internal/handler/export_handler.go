package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/lorenzocolitta/brotherhood-kos/internal/service"
	"github.com/lorenzocolitta/brotherhood-kos/pkg/response"
)

// ExportHandler serves downloadable renderings of the active list.
type ExportHandler struct {
	export *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(export *service.ExportService) *ExportHandler {
	return &ExportHandler{export: export}
}

// Export godoc
// @Summary Download the active KOS list
// @Tags KOS
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {file} file
// @Router /kos/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.FormatCSV)))

	data, contentType, filename, err := h.export.Export(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(200, contentType, data)
}
