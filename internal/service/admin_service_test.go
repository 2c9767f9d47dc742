package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorenzocolitta/brotherhood-kos/internal/models"
	appErrors "github.com/lorenzocolitta/brotherhood-kos/pkg/errors"
)

type stubConfigStore struct {
	rows map[string]*models.BotConfig
}

func newStubConfigStore() *stubConfigStore {
	return &stubConfigStore{rows: map[string]*models.BotConfig{}}
}

func (s *stubConfigStore) Get(_ context.Context, key string) (*models.BotConfig, error) {
	if row, ok := s.rows[key]; ok {
		copied := *row
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubConfigStore) Set(_ context.Context, key, value string, description *string) error {
	s.rows[key] = &models.BotConfig{Key: key, Value: value, Description: description, UpdatedAt: time.Now().UTC()}
	return nil
}

func newAdminFixture() (*AdminService, *stubConfigStore) {
	store := newStubConfigStore()
	return NewAdminService(store, &stubLogStore{}, nil), store
}

func TestPasswordRoundTrip(t *testing.T) {
	svc, store := newAdminFixture()
	ctx := context.Background()

	require.NoError(t, svc.SetPassword(ctx, "correct horse battery"))

	// value at rest is a bcrypt hash, not the plaintext
	stored := store.rows[models.ConfigKeyAdminPassword].Value
	assert.True(t, strings.HasPrefix(stored, "$2"), "expected bcrypt hash, got %q", stored)
	assert.NotContains(t, stored, "correct horse")

	assert.NoError(t, svc.VerifyPassword(ctx, "correct horse battery"))

	err := svc.VerifyPassword(ctx, "wrong password")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestVerifyPasswordLockedWhenUnset(t *testing.T) {
	svc, _ := newAdminFixture()

	err := svc.VerifyPassword(context.Background(), "anything")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestSetPasswordRejectsShortPassword(t *testing.T) {
	svc, _ := newAdminFixture()

	err := svc.SetPassword(context.Background(), "short")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestBotEnabledDefaultsToTrue(t *testing.T) {
	svc, _ := newAdminFixture()

	enabled, err := svc.BotEnabled(context.Background())
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestBotKillSwitch(t *testing.T) {
	svc, _ := newAdminFixture()
	ctx := context.Background()

	require.NoError(t, svc.SetBotEnabled(ctx, false, mod))
	enabled, err := svc.BotEnabled(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, svc.SetBotEnabled(ctx, true, mod))
	enabled, err = svc.BotEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestBotEnabledToleratesGarbageValue(t *testing.T) {
	svc, store := newAdminFixture()
	store.rows[models.ConfigKeyBotEnabled] = &models.BotConfig{Key: models.ConfigKeyBotEnabled, Value: "banana"}

	enabled, err := svc.BotEnabled(context.Background())
	require.NoError(t, err)
	assert.True(t, enabled)
}
