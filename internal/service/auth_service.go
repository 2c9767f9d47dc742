package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/lorenzocolitta/brotherhood-kos/internal/models"
	appErrors "github.com/lorenzocolitta/brotherhood-kos/pkg/errors"
)

// AuthStore persists one-time codes and API sessions.
type AuthStore interface {
	CreateCode(ctx context.Context, code *models.AuthCode) error
	FindUnusedCode(ctx context.Context, code string) (*models.AuthCode, error)
	MarkCodeUsed(ctx context.Context, id string, usedAt time.Time) error
	CreateSession(ctx context.Context, session *models.Session) error
	FindSession(ctx context.Context, id string) (*models.Session, error)
	TouchSession(ctx context.Context, id string, usedAt time.Time) error
	RevokeSession(ctx context.Context, id string, revokedAt time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (codes int64, sessions int64, err error)
}

// AuthService issues one-time codes from Discord, exchanges them for bearer
// tokens, and validates tokens against their persisted session so revocation
// takes effect immediately.
type AuthService struct {
	store    AuthStore
	logs     LogStore
	validate *validator.Validate
	logger   *zap.Logger

	jwtSecret  []byte
	codeTTL    time.Duration
	sessionTTL time.Duration
}

// AuthServiceConfig bundles construction options.
type AuthServiceConfig struct {
	JWTSecret  string
	CodeTTL    time.Duration
	SessionTTL time.Duration
}

// NewAuthService creates an AuthService.
func NewAuthService(store AuthStore, logs LogStore, logger *zap.Logger, cfg AuthServiceConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = time.Hour
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	return &AuthService{
		store:      store,
		logs:       logs,
		validate:   validator.New(),
		logger:     logger,
		jwtSecret:  []byte(cfg.JWTSecret),
		codeTTL:    cfg.CodeTTL,
		sessionTTL: cfg.SessionTTL,
	}
}

// GenerateCode mints a one-time code for a Discord user. The code is 8 hex
// characters and single use.
func (s *AuthService) GenerateCode(ctx context.Context, actor models.Actor) (*models.AuthCode, error) {
	raw := make([]byte, 4)
	if _, err := rand.Read(raw); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "generate auth code")
	}

	code := &models.AuthCode{
		Code:            hex.EncodeToString(raw),
		DiscordUserID:   actor.DiscordID,
		DiscordUsername: actor.DiscordName,
		ExpiresAt:       time.Now().UTC().Add(s.codeTTL),
	}
	if err := s.store.CreateCode(ctx, code); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "store auth code")
	}

	s.audit(ctx, fmt.Sprintf("auth code issued for %s", actor.DiscordName), actor)
	return code, nil
}

// Login exchanges a one-time code for a bearer token backed by a persisted
// session. The code is burned regardless of what the caller does with the
// token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login request")
	}

	now := time.Now().UTC()
	code, err := s.store.FindUnusedCode(ctx, req.Code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.rejectLogin("code not found or already used")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "lookup auth code")
	}
	if now.After(code.ExpiresAt) {
		return nil, s.rejectLogin("code expired")
	}

	if err := s.store.MarkCodeUsed(ctx, code.ID, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "burn auth code")
	}

	session := &models.Session{
		DiscordUserID:   code.DiscordUserID,
		DiscordUsername: code.DiscordUsername,
		ExpiresAt:       now.Add(s.sessionTTL),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create session")
	}

	token, err := s.signToken(session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "sign token")
	}

	actor := models.Actor{DiscordID: session.DiscordUserID, DiscordName: session.DiscordUsername}
	s.audit(ctx, fmt.Sprintf("session opened for %s", session.DiscordUsername), actor)

	return &models.LoginResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      actor,
	}, nil
}

// Authenticate validates a bearer token and returns its live session. Both
// the JWT signature and the session row must check out.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.Session, error) {
	claims := &models.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid || claims.SessionID == "" {
		return nil, s.rejectAuth("token did not verify", "")
	}

	session, err := s.store.FindSession(ctx, claims.SessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.rejectAuth("session not found", claims.SessionID)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "lookup session")
	}

	now := time.Now().UTC()
	if session.Revoked {
		return nil, s.rejectAuth("session revoked", session.ID)
	}
	if now.After(session.ExpiresAt) {
		return nil, s.rejectAuth("session expired", session.ID)
	}

	if err := s.store.TouchSession(ctx, session.ID, now); err != nil {
		s.logger.Warn("failed to touch session", zap.String("session_id", session.ID), zap.Error(err))
	}

	return session, nil
}

// Logout revokes a session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.store.RevokeSession(ctx, sessionID, time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "revoke session")
	}
	return nil
}

// PurgeExpired deletes codes and sessions past their expiry.
func (s *AuthService) PurgeExpired(ctx context.Context, now time.Time) (int64, int64, error) {
	codes, sessions, err := s.store.DeleteExpired(ctx, now)
	if err != nil {
		return 0, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "purge expired auth rows")
	}
	return codes, sessions, nil
}

// rejectLogin and rejectAuth keep the client-facing 401 message identical for
// every failed check. The real reason only goes to the server log.
func (s *AuthService) rejectLogin(reason string) error {
	s.logger.Info("login rejected", zap.String("reason", reason))
	return appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired code")
}

func (s *AuthService) rejectAuth(reason, sessionID string) error {
	fields := []zap.Field{zap.String("reason", reason)}
	if sessionID != "" {
		fields = append(fields, zap.String("session_id", sessionID))
	}
	s.logger.Info("authentication rejected", fields...)
	return appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired session token")
}

func (s *AuthService) signToken(session *models.Session) (string, error) {
	claims := models.SessionClaims{
		SessionID:       session.ID,
		DiscordUserID:   session.DiscordUserID,
		DiscordUsername: session.DiscordUsername,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.DiscordUserID,
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func (s *AuthService) audit(ctx context.Context, message string, actor models.Actor) {
	record := &models.LogRecord{Level: models.LogLevelInfo, Category: models.LogCategoryAuth, Message: message}
	if actor.DiscordName != "" {
		name := actor.DiscordName
		record.Actor = &name
	}
	if err := s.logs.Create(ctx, record); err != nil {
		s.logger.Warn("failed to persist auth log", zap.Error(err))
	}
}
