package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lorenzocolitta/brotherhood-kos/internal/models"
)

func testEntry() *models.KosEntry {
	expires := time.Date(2026, 9, 4, 12, 0, 0, 0, time.UTC)
	return &models.KosEntry{
		RobloxUserID:   "12345",
		RobloxUsername: "Builderman",
		Reason:         "exploiting",
		ExpiresAt:      &expires,
	}
}

func TestNotifySendsMarkdownMessage(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier(Config{BaseURL: srv.URL, BotToken: "test-token", ChatID: "-100"}, zap.NewNop())
	n.Notify(context.Background(), EventAdded, testEntry(), models.Actor{DiscordName: "mod#1"})

	require.NotNil(t, got)
	assert.Equal(t, "-100", got["chat_id"])
	assert.Equal(t, "Markdown", got["parse_mode"])
	assert.Contains(t, got["text"], "KOS ENTRY ADDED")
	assert.Contains(t, got["text"], "Builderman")
	assert.Contains(t, got["text"], "mod#1")
	assert.Contains(t, got["text"], "Expires:")
}

func TestNotifyPermanentEntry(t *testing.T) {
	entry := testEntry()
	entry.IsPermanent = true
	entry.ExpiresAt = nil

	msg := formatMessage(EventAdded, entry, models.Actor{DiscordName: "mod#1"})
	assert.Contains(t, msg, "Permanent")
	assert.NotContains(t, msg, "Expires:")
}

func TestNotifyRemovedAndExpiredFormats(t *testing.T) {
	entry := testEntry()

	removed := formatMessage(EventRemoved, entry, models.Actor{DiscordName: "mod#2"})
	assert.Contains(t, removed, "KOS ENTRY REMOVED")
	assert.Contains(t, removed, "mod#2")

	expired := formatMessage(EventExpired, entry, models.SystemActor)
	assert.Contains(t, expired, "KOS ENTRY EXPIRED")
	assert.Contains(t, expired, "Automatically archived")
}

func TestNotifyDisabledWithoutCredentials(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	n := NewNotifier(Config{BaseURL: srv.URL}, zap.NewNop())
	assert.False(t, n.Enabled())
	n.Notify(context.Background(), EventAdded, testEntry(), models.Actor{DiscordName: "mod#1"})
	assert.False(t, called)
}

func TestNotifySwallowsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewNotifier(Config{BaseURL: srv.URL, BotToken: "t", ChatID: "c"}, zap.NewNop())
	// must not panic or surface the failure
	n.Notify(context.Background(), EventAdded, testEntry(), models.Actor{DiscordName: "mod#1"})
}

func TestFormatMessageEscapesNothingUnexpected(t *testing.T) {
	entry := testEntry()
	entry.Reason = strings.Repeat("a", 10)
	msg := formatMessage(EventAdded, entry, models.Actor{DiscordName: "mod"})
	assert.Contains(t, msg, entry.Reason)
}
