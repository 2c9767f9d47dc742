package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorenzocolitta/brotherhood-kos/internal/models"
	appErrors "github.com/lorenzocolitta/brotherhood-kos/pkg/errors"
)

type stubAuthStore struct {
	codes    map[string]*models.AuthCode
	sessions map[string]*models.Session
}

func newStubAuthStore() *stubAuthStore {
	return &stubAuthStore{codes: map[string]*models.AuthCode{}, sessions: map[string]*models.Session{}}
}

func (s *stubAuthStore) CreateCode(_ context.Context, code *models.AuthCode) error {
	if code.ID == "" {
		code.ID = "code-" + code.Code
	}
	copied := *code
	s.codes[code.Code] = &copied
	return nil
}

func (s *stubAuthStore) FindUnusedCode(_ context.Context, code string) (*models.AuthCode, error) {
	if c, ok := s.codes[code]; ok && !c.Used {
		copied := *c
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubAuthStore) MarkCodeUsed(_ context.Context, id string, usedAt time.Time) error {
	for _, c := range s.codes {
		if c.ID == id {
			c.Used = true
			c.UsedAt = &usedAt
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *stubAuthStore) CreateSession(_ context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = "session-" + session.DiscordUserID
	}
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *stubAuthStore) FindSession(_ context.Context, id string) (*models.Session, error) {
	if sess, ok := s.sessions[id]; ok {
		copied := *sess
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubAuthStore) TouchSession(_ context.Context, id string, usedAt time.Time) error {
	if sess, ok := s.sessions[id]; ok {
		sess.LastUsedAt = &usedAt
	}
	return nil
}

func (s *stubAuthStore) RevokeSession(_ context.Context, id string, revokedAt time.Time) error {
	if sess, ok := s.sessions[id]; ok {
		sess.Revoked = true
		sess.RevokedAt = &revokedAt
	}
	return nil
}

func (s *stubAuthStore) DeleteExpired(_ context.Context, now time.Time) (int64, int64, error) {
	var codes, sessions int64
	for k, c := range s.codes {
		if c.ExpiresAt.Before(now) {
			delete(s.codes, k)
			codes++
		}
	}
	for k, sess := range s.sessions {
		if sess.ExpiresAt.Before(now) {
			delete(s.sessions, k)
			sessions++
		}
	}
	return codes, sessions, nil
}

func newAuthFixture() (*AuthService, *stubAuthStore) {
	store := newStubAuthStore()
	svc := NewAuthService(store, &stubLogStore{}, nil, AuthServiceConfig{
		JWTSecret:  "test-secret",
		CodeTTL:    time.Hour,
		SessionTTL: 24 * time.Hour,
	})
	return svc, store
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestGenerateCodeShape(t *testing.T) {
	svc, store := newAuthFixture()

	code, err := svc.GenerateCode(context.Background(), mod)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{8}$`), code.Code)
	assert.Equal(t, mod.DiscordID, code.DiscordUserID)
	assert.False(t, code.Used)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), code.ExpiresAt, time.Minute)
	assert.Len(t, store.codes, 1)
}

func TestLoginExchangesCodeForSession(t *testing.T) {
	svc, store := newAuthFixture()
	ctx := context.Background()

	code, err := svc.GenerateCode(ctx, mod)
	require.NoError(t, err)

	login, err := svc.Login(ctx, models.LoginRequest{Code: code.Code})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, mod.DiscordID, login.User.DiscordID)

	// code is burned
	assert.True(t, store.codes[code.Code].Used)

	// token authenticates against the stored session
	session, err := svc.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, mod.DiscordID, session.DiscordUserID)
}

func TestLoginRejectsReusedCode(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	code, err := svc.GenerateCode(ctx, mod)
	require.NoError(t, err)

	_, err = svc.Login(ctx, models.LoginRequest{Code: code.Code})
	require.NoError(t, err)

	_, err = svc.Login(ctx, models.LoginRequest{Code: code.Code})
	assertUnauthorized(t, err)
}

func TestLoginRejectsExpiredCode(t *testing.T) {
	svc, store := newAuthFixture()
	ctx := context.Background()

	code, err := svc.GenerateCode(ctx, mod)
	require.NoError(t, err)
	store.codes[code.Code].ExpiresAt = time.Now().UTC().Add(-time.Minute)

	_, err = svc.Login(ctx, models.LoginRequest{Code: code.Code})
	assertUnauthorized(t, err)
}

func TestLoginRejectsMalformedCode(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.Login(context.Background(), models.LoginRequest{Code: "nothex!!"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAuthenticateRejectsGarbageToken(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.Authenticate(context.Background(), "not-a-jwt")
	assertUnauthorized(t, err)
}

func TestAuthenticateRejectsWrongSecret(t *testing.T) {
	svc, store := newAuthFixture()
	ctx := context.Background()

	code, err := svc.GenerateCode(ctx, mod)
	require.NoError(t, err)
	login, err := svc.Login(ctx, models.LoginRequest{Code: code.Code})
	require.NoError(t, err)

	other := NewAuthService(store, &stubLogStore{}, nil, AuthServiceConfig{JWTSecret: "different-secret"})
	_, err = other.Authenticate(ctx, login.Token)
	assertUnauthorized(t, err)
}

func TestAuthenticateRejectsRevokedSession(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	code, err := svc.GenerateCode(ctx, mod)
	require.NoError(t, err)
	login, err := svc.Login(ctx, models.LoginRequest{Code: code.Code})
	require.NoError(t, err)

	session, err := svc.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, session.ID))

	_, err = svc.Authenticate(ctx, login.Token)
	assertUnauthorized(t, err)
}

func TestAuthenticateRejectsExpiredSession(t *testing.T) {
	svc, store := newAuthFixture()
	ctx := context.Background()

	code, err := svc.GenerateCode(ctx, mod)
	require.NoError(t, err)
	login, err := svc.Login(ctx, models.LoginRequest{Code: code.Code})
	require.NoError(t, err)

	for _, sess := range store.sessions {
		sess.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	}

	_, err = svc.Authenticate(ctx, login.Token)
	assertUnauthorized(t, err)
}

func TestPurgeExpiredDropsStaleRows(t *testing.T) {
	svc, store := newAuthFixture()
	ctx := context.Background()

	code, err := svc.GenerateCode(ctx, mod)
	require.NoError(t, err)
	store.codes[code.Code].ExpiresAt = time.Now().UTC().Add(-time.Hour)

	codes, sessions, err := svc.PurgeExpired(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.EqualValues(t, 1, codes)
	assert.EqualValues(t, 0, sessions)
	assert.Empty(t, store.codes)
}

func TestAuthenticateFailuresShareOneMessage(t *testing.T) {
	svc, store := newAuthFixture()
	ctx := context.Background()

	messageFor := func(err error) string {
		t.Helper()
		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr))
		require.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
		return appErr.Message
	}

	// expired session
	code, err := svc.GenerateCode(ctx, mod)
	require.NoError(t, err)
	expiredLogin, err := svc.Login(ctx, models.LoginRequest{Code: code.Code})
	require.NoError(t, err)
	for _, sess := range store.sessions {
		sess.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	}
	_, err = svc.Authenticate(ctx, expiredLogin.Token)
	expiredMsg := messageFor(err)

	// revoked session for a second user
	other := models.Actor{DiscordID: "d2", DiscordName: "mod#2"}
	code, err = svc.GenerateCode(ctx, other)
	require.NoError(t, err)
	revokedLogin, err := svc.Login(ctx, models.LoginRequest{Code: code.Code})
	require.NoError(t, err)
	session, err := svc.Authenticate(ctx, revokedLogin.Token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, session.ID))
	_, err = svc.Authenticate(ctx, revokedLogin.Token)
	revokedMsg := messageFor(err)

	// garbage token
	_, err = svc.Authenticate(ctx, "not-a-jwt")
	garbageMsg := messageFor(err)

	// the caller cannot tell which check failed
	assert.Equal(t, expiredMsg, revokedMsg)
	assert.Equal(t, expiredMsg, garbageMsg)
}

func TestLoginFailuresShareOneMessage(t *testing.T) {
	svc, store := newAuthFixture()
	ctx := context.Background()

	messageFor := func(err error) string {
		t.Helper()
		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr))
		require.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
		return appErr.Message
	}

	_, err := svc.Login(ctx, models.LoginRequest{Code: "deadbeef"})
	unknownMsg := messageFor(err)

	code, err := svc.GenerateCode(ctx, mod)
	require.NoError(t, err)
	store.codes[code.Code].ExpiresAt = time.Now().UTC().Add(-time.Minute)
	_, err = svc.Login(ctx, models.LoginRequest{Code: code.Code})
	expiredMsg := messageFor(err)

	assert.Equal(t, unknownMsg, expiredMsg)
}

func TestAuthenticateAcceptsSessionJustBeforeExpiry(t *testing.T) {
	svc, store := newAuthFixture()
	ctx := context.Background()

	code, err := svc.GenerateCode(ctx, mod)
	require.NoError(t, err)
	login, err := svc.Login(ctx, models.LoginRequest{Code: code.Code})
	require.NoError(t, err)

	for _, sess := range store.sessions {
		sess.ExpiresAt = time.Now().UTC().Add(time.Second)
	}

	session, err := svc.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, mod.DiscordID, session.DiscordUserID)
}
