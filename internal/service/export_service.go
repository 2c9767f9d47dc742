package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lorenzocolitta/brotherhood-kos/internal/models"
	appErrors "github.com/lorenzocolitta/brotherhood-kos/pkg/errors"
	"github.com/lorenzocolitta/brotherhood-kos/pkg/export"
)

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

var exportHeaders = []string{"Roblox ID", "Username", "Reason", "Added By", "Added At", "Expires"}

// ExportService renders the active KOS list as a downloadable document.
type ExportService struct {
	entries EntryStore
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
}

// NewExportService creates an ExportService.
func NewExportService(entries EntryStore) *ExportService {
	return &ExportService{
		entries: entries,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
	}
}

// Export renders the active list in the requested format and returns the
// bytes, content type, and suggested filename.
func (s *ExportService) Export(ctx context.Context, format ExportFormat) ([]byte, string, string, error) {
	entries, err := s.entries.ListActive(ctx)
	if err != nil {
		return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list active entries")
	}

	dataset := buildDataset(entries)
	stamp := time.Now().UTC().Format("2006-01-02")

	switch format {
	case FormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render csv")
		}
		return data, "text/csv", fmt.Sprintf("kos-list-%s.csv", stamp), nil
	case FormatPDF:
		data, err := s.pdf.Render(dataset, fmt.Sprintf("KOS List %s", stamp))
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render pdf")
		}
		return data, "application/pdf", fmt.Sprintf("kos-list-%s.pdf", stamp), nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown export format %q", format))
	}
}

func buildDataset(entries []models.KosEntry) export.Dataset {
	rows := make([]map[string]string, 0, len(entries))
	for _, e := range entries {
		expires := "permanent"
		if !e.IsPermanent && e.ExpiresAt != nil {
			expires = e.ExpiresAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, map[string]string{
			"Roblox ID": e.RobloxUserID,
			"Username":  e.RobloxUsername,
			"Reason":    e.Reason,
			"Added By":  e.AddedByName,
			"Added At":  e.CreatedAt.UTC().Format(time.RFC3339),
			"Expires":   expires,
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}
}
