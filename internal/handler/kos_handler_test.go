package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorenzocolitta/brotherhood-kos/internal/dto"
	"github.com/lorenzocolitta/brotherhood-kos/internal/middleware"
	"github.com/lorenzocolitta/brotherhood-kos/internal/models"
	appErrors "github.com/lorenzocolitta/brotherhood-kos/pkg/errors"
)

type kosServiceMock struct {
	addResp    *models.KosEntry
	addErr     error
	addActor   models.Actor
	removeResp *models.KosEntry
	removeErr  error
	listResp   []models.KosEntry
	getResp    *models.KosEntry
	getTrail   []models.HistoryRecord
	getErr     error
	lastFilter models.EntryFilter
}

func (m *kosServiceMock) Add(_ context.Context, req dto.CreateEntryRequest, actor models.Actor) (*models.KosEntry, error) {
	m.addActor = actor
	if m.addErr != nil {
		return nil, m.addErr
	}
	return m.addResp, nil
}

func (m *kosServiceMock) Remove(_ context.Context, id, reason string, actor models.Actor) (*models.KosEntry, error) {
	if m.removeErr != nil {
		return nil, m.removeErr
	}
	return m.removeResp, nil
}

func (m *kosServiceMock) Get(_ context.Context, id string) (*models.KosEntry, []models.HistoryRecord, error) {
	if m.getErr != nil {
		return nil, nil, m.getErr
	}
	return m.getResp, m.getTrail, nil
}

func (m *kosServiceMock) List(_ context.Context, filter models.EntryFilter) ([]models.KosEntry, *models.Pagination, error) {
	m.lastFilter = filter
	return m.listResp, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: len(m.listResp)}, nil
}

func testSession() *models.Session {
	return &models.Session{ID: "s1", DiscordUserID: "d1", DiscordUsername: "mod#1"}
}

func TestKosHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &kosServiceMock{addResp: &models.KosEntry{ID: "e1", RobloxUsername: "Builderman", Status: models.StatusActive}}
	h := NewKosHandler(mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.CreateEntryRequest{User: "Builderman", Reason: "exploiting", Duration: "7d"})
	req, _ := http.NewRequest(http.MethodPost, "/kos", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextSessionKey, testSession())

	h.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "Builderman")
	assert.Equal(t, "d1", mock.addActor.DiscordID, "actor must come from the session")
}

func TestKosHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewKosHandler(&kosServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/kos", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestKosHandlerCreateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &kosServiceMock{addErr: appErrors.Clone(appErrors.ErrConflict, "already listed")}
	h := NewKosHandler(mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.CreateEntryRequest{User: "Builderman", Reason: "exploiting"})
	req, _ := http.NewRequest(http.MethodPost, "/kos", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.Create(c)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "CONFLICT")
}

func TestKosHandlerListParsesQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &kosServiceMock{listResp: []models.KosEntry{{ID: "e1"}}}
	h := NewKosHandler(mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/kos?filter=archived&search=build&page=2&limit=5", nil)
	c.Request = req

	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.FilterArchived, mock.lastFilter.Filter)
	assert.Equal(t, "build", mock.lastFilter.Search)
	assert.Equal(t, 2, mock.lastFilter.Page)
	assert.Equal(t, 5, mock.lastFilter.PageSize)
	assert.Contains(t, w.Body.String(), "pagination")
}

func TestKosHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &kosServiceMock{getErr: appErrors.Clone(appErrors.ErrNotFound, "KOS entry not found")}
	h := NewKosHandler(mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/kos/missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestKosHandlerRemoveWithReason(t *testing.T) {
	gin.SetMode(gin.TestMode)
	archived := &models.KosEntry{ID: "e1", Status: models.StatusArchived}
	mock := &kosServiceMock{removeResp: archived}
	h := NewKosHandler(mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.RemoveEntryRequest{Reason: "appealed"})
	req, _ := http.NewRequest(http.MethodDelete, "/kos/e1", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = int64(len(body))
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "e1"}}
	c.Set(middleware.ContextSessionKey, testSession())

	h.Remove(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "archived")
}
