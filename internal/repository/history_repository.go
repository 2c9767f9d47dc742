package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lorenzocolitta/brotherhood-kos/internal/models"
)

const historyColumns = `id, entry_id, roblox_user_id, roblox_username, action, reason, performed_by_id, performed_by_name, created_at`

// HistoryRepository reads the append-only kos_history audit trail. Writes go
// through EntryRepository so they share the entry mutation transaction.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository creates a new instance of HistoryRepository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// List returns history records newest first with total count.
func (r *HistoryRepository) List(ctx context.Context, page, pageSize int) ([]models.HistoryRecord, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT %s FROM kos_history ORDER BY created_at DESC LIMIT %d OFFSET %d`, historyColumns, pageSize, offset)
	records := []models.HistoryRecord{}
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, 0, fmt.Errorf("list history: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM kos_history`); err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}

	return records, total, nil
}

// ListByEntry returns the full trail for one entry, oldest first.
func (r *HistoryRepository) ListByEntry(ctx context.Context, entryID string) ([]models.HistoryRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM kos_history WHERE entry_id = $1 ORDER BY created_at ASC`, historyColumns)
	records := []models.HistoryRecord{}
	if err := r.db.SelectContext(ctx, &records, query, entryID); err != nil {
		return nil, fmt.Errorf("list history by entry: %w", err)
	}
	return records, nil
}
