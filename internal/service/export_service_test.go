package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorenzocolitta/brotherhood-kos/internal/models"
)

func seededExportFixture() *ExportService {
	entries := newStubEntryStore()
	expires := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	entries.byID["12345"] = &models.KosEntry{
		ID: "e1", RobloxUserID: "12345", RobloxUsername: "Builderman",
		Reason: "exploiting", AddedByName: "mod#1",
		Status: models.StatusActive, ExpiresAt: &expires,
	}
	entries.byID["777"] = &models.KosEntry{
		ID: "e2", RobloxUserID: "777", RobloxUsername: "archived_guy",
		Reason: "old", Status: models.StatusArchived,
	}
	return NewExportService(entries)
}

func TestExportCSVContainsActiveEntriesOnly(t *testing.T) {
	svc := seededExportFixture()

	data, contentType, filename, err := svc.Export(context.Background(), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.True(t, strings.HasSuffix(filename, ".csv"))

	body := string(data)
	assert.Contains(t, body, "Roblox ID,Username,Reason")
	assert.Contains(t, body, "Builderman")
	assert.Contains(t, body, "exploiting")
	assert.NotContains(t, body, "archived_guy")
}

func TestExportPDFProducesDocument(t *testing.T) {
	svc := seededExportFixture()

	data, contentType, filename, err := svc.Export(context.Background(), FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, strings.HasSuffix(filename, ".pdf"))
	assert.True(t, strings.HasPrefix(string(data), "%PDF"), "expected a pdf header")
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc := seededExportFixture()

	_, _, _, err := svc.Export(context.Background(), ExportFormat("xml"))
	require.Error(t, err)
}

func TestExportPermanentEntryRendersPermanent(t *testing.T) {
	entries := newStubEntryStore()
	entries.byID["1"] = &models.KosEntry{
		ID: "e1", RobloxUserID: "1", RobloxUsername: "forever",
		Reason: "bad", Status: models.StatusActive, IsPermanent: true,
	}

	data, _, _, err := NewExportService(entries).Export(context.Background(), FormatCSV)
	require.NoError(t, err)
	assert.Contains(t, string(data), "permanent")
}
