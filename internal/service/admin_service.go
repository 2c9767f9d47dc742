package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lorenzocolitta/brotherhood-kos/internal/models"
	appErrors "github.com/lorenzocolitta/brotherhood-kos/pkg/errors"
)

// ConfigStore accesses the bot_config key-value table.
type ConfigStore interface {
	Get(ctx context.Context, key string) (*models.BotConfig, error)
	Set(ctx context.Context, key, value string, description *string) error
}

// AdminService gates privileged operations behind the stored admin password
// and owns the bot kill switch.
type AdminService struct {
	config ConfigStore
	logs   LogStore
	logger *zap.Logger
}

// NewAdminService creates an AdminService.
func NewAdminService(config ConfigStore, logs LogStore, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{config: config, logs: logs, logger: logger}
}

// VerifyPassword checks a plaintext password against the stored bcrypt hash.
// No hash stored means admin features are locked, not open.
func (s *AdminService) VerifyPassword(ctx context.Context, password string) error {
	row, err := s.config.Get(ctx, models.ConfigKeyAdminPassword)
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrForbidden, "admin password is not configured")
	}
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load admin password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.Value), []byte(password)); err != nil {
		s.audit(ctx, "admin password rejected", models.Actor{})
		return appErrors.Clone(appErrors.ErrForbidden, "invalid admin password")
	}
	return nil
}

// SetPassword stores a bcrypt hash of the new admin password.
func (s *AdminService) SetPassword(ctx context.Context, password string) error {
	if len(password) < 8 {
		return appErrors.Clone(appErrors.ErrValidation, "admin password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "hash admin password")
	}
	desc := "bcrypt hash of the admin panel password"
	if err := s.config.Set(ctx, models.ConfigKeyAdminPassword, string(hash), &desc); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "store admin password")
	}
	return nil
}

// BotEnabled reports the kill switch state. Missing key defaults to enabled.
func (s *AdminService) BotEnabled(ctx context.Context) (bool, error) {
	row, err := s.config.Get(ctx, models.ConfigKeyBotEnabled)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load bot state")
	}
	enabled, err := strconv.ParseBool(row.Value)
	if err != nil {
		s.logger.Warn("bot_enabled holds a non-boolean value", zap.String("value", row.Value))
		return true, nil
	}
	return enabled, nil
}

// SetBotEnabled flips the kill switch.
func (s *AdminService) SetBotEnabled(ctx context.Context, enabled bool, actor models.Actor) error {
	desc := "whether moderation commands are accepted"
	if err := s.config.Set(ctx, models.ConfigKeyBotEnabled, strconv.FormatBool(enabled), &desc); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "store bot state")
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	s.audit(ctx, fmt.Sprintf("bot %s by %s", state, actor.DiscordName), actor)
	return nil
}

func (s *AdminService) audit(ctx context.Context, message string, actor models.Actor) {
	record := &models.LogRecord{Level: models.LogLevelWarn, Category: models.LogCategorySystem, Message: message, CreatedAt: time.Now().UTC()}
	if actor.DiscordName != "" {
		name := actor.DiscordName
		record.Actor = &name
	}
	if err := s.logs.Create(ctx, record); err != nil {
		s.logger.Warn("failed to persist admin log", zap.Error(err))
	}
}
