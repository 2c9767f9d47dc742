package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lorenzocolitta/brotherhood-kos/internal/models"
)

// ConfigRepository accesses the bot_config key-value store.
type ConfigRepository struct {
	db *sqlx.DB
}

// NewConfigRepository creates a new instance of ConfigRepository.
func NewConfigRepository(db *sqlx.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// Get returns a config row by key.
func (r *ConfigRepository) Get(ctx context.Context, key string) (*models.BotConfig, error) {
	const query = `SELECT key, value, description, updated_at FROM bot_config WHERE key = $1 LIMIT 1`
	var cfg models.BotConfig
	if err := r.db.GetContext(ctx, &cfg, query, key); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get config %s: %w", key, err)
	}
	return &cfg, nil
}

// Set upserts a config value.
func (r *ConfigRepository) Set(ctx context.Context, key, value string, description *string) error {
	const query = `INSERT INTO bot_config (key, value, description, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, description = COALESCE(EXCLUDED.description, bot_config.description), updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, key, value, description, time.Now().UTC()); err != nil {
		return fmt.Errorf("set config %s: %w", key, err)
	}
	return nil
}
