package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lorenzocolitta/brotherhood-kos/internal/models"
)

// LogRepository stores operational log rows in kos_logs.
type LogRepository struct {
	db *sqlx.DB
}

// NewLogRepository creates a new instance of LogRepository.
func NewLogRepository(db *sqlx.DB) *LogRepository {
	return &LogRepository{db: db}
}

// Create inserts a log row.
func (r *LogRepository) Create(ctx context.Context, record *models.LogRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO kos_logs (id, level, category, message, actor, created_at) VALUES (:id, :level, :category, :message, :actor, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create log: %w", err)
	}
	return nil
}

// Recent returns the latest log rows, optionally constrained to a category.
func (r *LogRepository) Recent(ctx context.Context, limit int, category string) ([]models.LogRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	records := []models.LogRecord{}
	if category != "" {
		query := fmt.Sprintf(`SELECT id, level, category, message, actor, created_at FROM kos_logs WHERE category = $1 ORDER BY created_at DESC LIMIT %d`, limit)
		if err := r.db.SelectContext(ctx, &records, query, category); err != nil {
			return nil, fmt.Errorf("recent logs: %w", err)
		}
		return records, nil
	}

	query := fmt.Sprintf(`SELECT id, level, category, message, actor, created_at FROM kos_logs ORDER BY created_at DESC LIMIT %d`, limit)
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("recent logs: %w", err)
	}
	return records, nil
}
