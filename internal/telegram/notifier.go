// Package telegram posts best-effort moderation notifications to a chat.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/lorenzocolitta/brotherhood-kos/internal/models"
)

// EventKind selects the notification template.
type EventKind string

const (
	EventAdded   EventKind = "added"
	EventRemoved EventKind = "removed"
	EventExpired EventKind = "expired"
)

// Notifier sends messages through the Telegram Bot API. When not configured
// it is a silent no-op; senders never see an error either way.
type Notifier struct {
	baseURL string
	token   string
	chatID  string
	http    *http.Client
	logger  *zap.Logger
}

// Config holds the Telegram credentials. Empty token or chat id disables the
// notifier.
type Config struct {
	BaseURL  string
	BotToken string
	ChatID   string
	Timeout  time.Duration
}

// NewNotifier constructs a Notifier.
func NewNotifier(cfg Config, logger *zap.Logger) *Notifier {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.telegram.org"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		baseURL: cfg.BaseURL,
		token:   cfg.BotToken,
		chatID:  cfg.ChatID,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// Enabled reports whether the notifier has credentials.
func (n *Notifier) Enabled() bool {
	return n.token != "" && n.chatID != ""
}

// Notify formats and posts an event message. Failures are logged and
// swallowed; the primary operation must never depend on this call.
func (n *Notifier) Notify(ctx context.Context, kind EventKind, entry *models.KosEntry, actor models.Actor) {
	if !n.Enabled() || entry == nil {
		return
	}
	if err := n.sendEvent(ctx, kind, entry, actor); err != nil {
		n.logger.Warn("telegram notification failed",
			zap.String("event", string(kind)),
			zap.String("roblox_user_id", entry.RobloxUserID),
			zap.Error(err))
	}
}

func (n *Notifier) sendEvent(ctx context.Context, kind EventKind, entry *models.KosEntry, actor models.Actor) error {
	if !n.Enabled() || entry == nil {
		return nil
	}
	return n.send(ctx, formatMessage(kind, entry, actor))
}

func (n *Notifier) send(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id":    n.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return fmt.Errorf("encode telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram api unreachable: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("telegram api returned %d: %s", res.StatusCode, body)
	}
	return nil
}

func formatMessage(kind EventKind, entry *models.KosEntry, actor models.Actor) string {
	switch kind {
	case EventAdded:
		expiry := "⏰ Permanent"
		if !entry.IsPermanent && entry.ExpiresAt != nil {
			expiry = "⏰ Expires: " + entry.ExpiresAt.UTC().Format(time.RFC1123)
		}
		return fmt.Sprintf("🚨 *KOS ENTRY ADDED*\n\nUser: %s (%s)\nReason: %s\nAdded by: %s\n%s",
			entry.RobloxUsername, entry.RobloxUserID, entry.Reason, actor.DiscordName, expiry)
	case EventRemoved:
		return fmt.Sprintf("✅ *KOS ENTRY REMOVED*\n\nUser: %s (%s)\nRemoved by: %s",
			entry.RobloxUsername, entry.RobloxUserID, actor.DiscordName)
	case EventExpired:
		return fmt.Sprintf("⏰ *KOS ENTRY EXPIRED*\n\nUser: %s (%s)\nAutomatically archived",
			entry.RobloxUsername, entry.RobloxUserID)
	default:
		return fmt.Sprintf("*KOS UPDATE*\n\nUser: %s (%s)", entry.RobloxUsername, entry.RobloxUserID)
	}
}
