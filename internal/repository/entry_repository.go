package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lorenzocolitta/brotherhood-kos/internal/models"
)

const entryColumns = `id, roblox_user_id, roblox_username, reason, added_by_id, added_by_name, thumbnail_url, status, is_permanent, expires_at, archived_at, created_at, updated_at`

// EntryRepository provides database access to kos_entries. Entry mutations
// and their history rows are written in a single transaction.
type EntryRepository struct {
	db *sqlx.DB
}

// NewEntryRepository creates a new instance of EntryRepository.
func NewEntryRepository(db *sqlx.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// FindByID returns an entry by primary key.
func (r *EntryRepository) FindByID(ctx context.Context, id string) (*models.KosEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM kos_entries WHERE id = $1 LIMIT 1`, entryColumns)
	var entry models.KosEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find entry by id: %w", err)
	}
	return &entry, nil
}

// FindActiveByRobloxID returns the active entry for a Roblox user, if any.
func (r *EntryRepository) FindActiveByRobloxID(ctx context.Context, robloxUserID string) (*models.KosEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM kos_entries WHERE roblox_user_id = $1 AND status = $2 LIMIT 1`, entryColumns)
	var entry models.KosEntry
	if err := r.db.GetContext(ctx, &entry, query, robloxUserID, models.StatusActive); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find active entry: %w", err)
	}
	return &entry, nil
}

// FindLatestByRobloxID returns the most recent entry row for a Roblox user
// regardless of status. Used to reactivate archived entries on re-add.
func (r *EntryRepository) FindLatestByRobloxID(ctx context.Context, robloxUserID string) (*models.KosEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM kos_entries WHERE roblox_user_id = $1 ORDER BY created_at DESC LIMIT 1`, entryColumns)
	var entry models.KosEntry
	if err := r.db.GetContext(ctx, &entry, query, robloxUserID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find latest entry: %w", err)
	}
	return &entry, nil
}

// CreateWithHistory inserts a new entry and its "added" history row atomically.
func (r *EntryRepository) CreateWithHistory(ctx context.Context, entry *models.KosEntry, record *models.HistoryRecord) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	record.EntryID = entry.ID

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		const insertEntry = `INSERT INTO kos_entries (id, roblox_user_id, roblox_username, reason, added_by_id, added_by_name, thumbnail_url, status, is_permanent, expires_at, created_at, updated_at)
			VALUES (:id, :roblox_user_id, :roblox_username, :reason, :added_by_id, :added_by_name, :thumbnail_url, :status, :is_permanent, :expires_at, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, insertEntry, entry); err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
		return insertHistory(ctx, tx, record)
	})
}

// ReactivateWithHistory flips an archived entry back to active with fresh
// metadata and writes the matching history row in the same transaction.
func (r *EntryRepository) ReactivateWithHistory(ctx context.Context, entry *models.KosEntry, record *models.HistoryRecord) error {
	entry.UpdatedAt = time.Now().UTC()
	record.EntryID = entry.ID

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		const update = `UPDATE kos_entries SET roblox_username = :roblox_username, reason = :reason, added_by_id = :added_by_id, added_by_name = :added_by_name, thumbnail_url = :thumbnail_url, status = :status, is_permanent = :is_permanent, expires_at = :expires_at, archived_at = NULL, updated_at = :updated_at WHERE id = :id`
		if _, err := tx.NamedExecContext(ctx, update, entry); err != nil {
			return fmt.Errorf("reactivate entry: %w", err)
		}
		return insertHistory(ctx, tx, record)
	})
}

// ArchiveWithHistory archives an active entry and records why.
func (r *EntryRepository) ArchiveWithHistory(ctx context.Context, entryID string, archivedAt time.Time, record *models.HistoryRecord) error {
	record.EntryID = entryID

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		const update = `UPDATE kos_entries SET status = $2, archived_at = $3, updated_at = $3 WHERE id = $1 AND status = $4`
		res, err := tx.ExecContext(ctx, update, entryID, models.StatusArchived, archivedAt, models.StatusActive)
		if err != nil {
			return fmt.Errorf("archive entry: %w", err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return sql.ErrNoRows
		}
		return insertHistory(ctx, tx, record)
	})
}

// List returns entries matching the filter, newest first, with total count.
func (r *EntryRepository) List(ctx context.Context, filter models.EntryFilter) ([]models.KosEntry, int, error) {
	where, args := buildEntryWhere(filter, time.Now().UTC())

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf(`SELECT %s FROM kos_entries %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, entryColumns, where, pageSize, offset)
	entries := []models.KosEntry{}
	if err := r.db.SelectContext(ctx, &entries, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list entries: %w", err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM kos_entries %s`, where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count entries: %w", err)
	}

	return entries, total, nil
}

// FindExpired returns active, non-permanent entries whose expiry has passed.
func (r *EntryRepository) FindExpired(ctx context.Context, now time.Time) ([]models.KosEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM kos_entries WHERE status = $1 AND is_permanent = FALSE AND expires_at IS NOT NULL AND expires_at < $2 ORDER BY expires_at ASC`, entryColumns)
	entries := []models.KosEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, models.StatusActive, now); err != nil {
		return nil, fmt.Errorf("find expired entries: %w", err)
	}
	return entries, nil
}

// ListActive returns every active entry, for the roster and export surfaces.
func (r *EntryRepository) ListActive(ctx context.Context) ([]models.KosEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM kos_entries WHERE status = $1 ORDER BY created_at DESC`, entryColumns)
	entries := []models.KosEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, models.StatusActive); err != nil {
		return nil, fmt.Errorf("list active entries: %w", err)
	}
	return entries, nil
}

// Stats aggregates entry counts by lifecycle bucket.
func (r *EntryRepository) Stats(ctx context.Context, now time.Time) (models.Stats, error) {
	const query = `SELECT
		COUNT(*) FILTER (WHERE status = 'active') AS active,
		COUNT(*) FILTER (WHERE status = 'active' AND is_permanent) AS permanent,
		COUNT(*) FILTER (WHERE status = 'active' AND NOT is_permanent AND expires_at IS NOT NULL AND expires_at BETWEEN $1 AND $2) AS expiring,
		COUNT(*) FILTER (WHERE status = 'archived') AS archived
		FROM kos_entries`

	var row struct {
		Active    int `db:"active"`
		Permanent int `db:"permanent"`
		Expiring  int `db:"expiring"`
		Archived  int `db:"archived"`
	}
	if err := r.db.GetContext(ctx, &row, query, now, now.Add(models.ExpiringWindow)); err != nil {
		return models.Stats{}, fmt.Errorf("entry stats: %w", err)
	}

	return models.Stats{
		Active:      row.Active,
		Permanent:   row.Permanent,
		Expiring:    row.Expiring,
		Archived:    row.Archived,
		Total:       row.Active + row.Archived,
		GeneratedAt: now,
	}, nil
}

func (r *EntryRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func insertHistory(ctx context.Context, tx *sqlx.Tx, record *models.HistoryRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const insert = `INSERT INTO kos_history (id, entry_id, roblox_user_id, roblox_username, action, reason, performed_by_id, performed_by_name, created_at)
		VALUES (:id, :entry_id, :roblox_user_id, :roblox_username, :action, :reason, :performed_by_id, :performed_by_name, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, record); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func buildEntryWhere(filter models.EntryFilter, now time.Time) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch filter.Filter {
	case models.FilterArchived:
		conditions = append(conditions, fmt.Sprintf("status = %s", arg(models.StatusArchived)))
	case models.FilterPermanent:
		conditions = append(conditions, fmt.Sprintf("status = %s", arg(models.StatusActive)), "is_permanent = TRUE")
	case models.FilterExpiring:
		conditions = append(conditions, fmt.Sprintf("status = %s", arg(models.StatusActive)), "is_permanent = FALSE")
		conditions = append(conditions, fmt.Sprintf("expires_at IS NOT NULL AND expires_at BETWEEN %s AND %s", arg(now), arg(now.Add(models.ExpiringWindow))))
	default:
		conditions = append(conditions, fmt.Sprintf("status = %s", arg(models.StatusActive)))
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(roblox_user_id = %s OR LOWER(roblox_username) LIKE %s)", arg(filter.Search), arg("%"+strings.ToLower(filter.Search)+"%")))
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}
