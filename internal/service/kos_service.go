package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lorenzocolitta/brotherhood-kos/internal/dto"
	"github.com/lorenzocolitta/brotherhood-kos/internal/models"
	"github.com/lorenzocolitta/brotherhood-kos/internal/repository"
	"github.com/lorenzocolitta/brotherhood-kos/internal/roblox"
	"github.com/lorenzocolitta/brotherhood-kos/internal/telegram"
	"github.com/lorenzocolitta/brotherhood-kos/pkg/duration"
	appErrors "github.com/lorenzocolitta/brotherhood-kos/pkg/errors"
)

const statsCacheKey = "kos:stats"

// EntryStore is the persistence surface KosService needs for entries.
type EntryStore interface {
	FindByID(ctx context.Context, id string) (*models.KosEntry, error)
	FindActiveByRobloxID(ctx context.Context, robloxUserID string) (*models.KosEntry, error)
	FindLatestByRobloxID(ctx context.Context, robloxUserID string) (*models.KosEntry, error)
	CreateWithHistory(ctx context.Context, entry *models.KosEntry, record *models.HistoryRecord) error
	ReactivateWithHistory(ctx context.Context, entry *models.KosEntry, record *models.HistoryRecord) error
	ArchiveWithHistory(ctx context.Context, entryID string, archivedAt time.Time, record *models.HistoryRecord) error
	List(ctx context.Context, filter models.EntryFilter) ([]models.KosEntry, int, error)
	FindExpired(ctx context.Context, now time.Time) ([]models.KosEntry, error)
	ListActive(ctx context.Context) ([]models.KosEntry, error)
	Stats(ctx context.Context, now time.Time) (models.Stats, error)
}

// HistoryStore reads the audit trail.
type HistoryStore interface {
	List(ctx context.Context, page, pageSize int) ([]models.HistoryRecord, int, error)
	ListByEntry(ctx context.Context, entryID string) ([]models.HistoryRecord, error)
}

// LogStore persists operational log rows.
type LogStore interface {
	Create(ctx context.Context, record *models.LogRecord) error
	Recent(ctx context.Context, limit int, category string) ([]models.LogRecord, error)
}

// StatsCache is the short-lived cache in front of the stats query.
type StatsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string)
}

// Resolver looks up Roblox accounts.
type Resolver interface {
	Resolve(ctx context.Context, usernameOrID string) (*roblox.User, error)
}

// Notifier delivers moderation notifications, best effort.
type Notifier interface {
	Notify(ctx context.Context, kind telegram.EventKind, entry *models.KosEntry, actor models.Actor)
}

// ModerationGate reports whether moderation writes are currently accepted.
// AdminService implements it with the bot_enabled kill switch.
type ModerationGate interface {
	BotEnabled(ctx context.Context) (bool, error)
}

// KosService implements the kill-on-sight list operations: add with conflict
// and reactivation handling, removal, listing, stats, history, and the
// expiry sweep.
type KosService struct {
	entries  EntryStore
	history  HistoryStore
	logs     LogStore
	cache    StatsCache
	resolver Resolver
	notifier Notifier
	gate     ModerationGate
	validate *validator.Validate
	logger   *zap.Logger

	statsTTL  time.Duration
	startedAt time.Time
}

// KosServiceConfig bundles construction options.
type KosServiceConfig struct {
	StatsCacheTTL time.Duration
}

// NewKosService creates a KosService. A nil gate leaves moderation always
// enabled.
func NewKosService(entries EntryStore, history HistoryStore, logs LogStore, cache StatsCache, resolver Resolver, notifier Notifier, gate ModerationGate, logger *zap.Logger, cfg KosServiceConfig) *KosService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StatsCacheTTL <= 0 {
		cfg.StatsCacheTTL = 30 * time.Second
	}
	return &KosService{
		entries:   entries,
		history:   history,
		logs:      logs,
		cache:     cache,
		resolver:  resolver,
		notifier:  notifier,
		gate:      gate,
		validate:  validator.New(),
		logger:    logger,
		statsTTL:  cfg.StatsCacheTTL,
		startedAt: time.Now().UTC(),
	}
}

// Add flags a Roblox account. The target is resolved upstream first; a user
// with an active entry is a conflict, while a previously archived user is
// reactivated on the same row so the entry id stays stable.
func (s *KosService) Add(ctx context.Context, req dto.CreateEntryRequest, actor models.Actor) (*models.KosEntry, error) {
	if err := s.checkGate(ctx); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid add request")
	}

	isPermanent := req.Duration == ""
	var expiresAt *time.Time
	if !isPermanent {
		d, err := duration.Parse(req.Duration)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid duration %q", req.Duration))
		}
		t := time.Now().UTC().Add(d)
		expiresAt = &t
	}

	user, err := s.resolver.Resolve(ctx, req.User)
	if err != nil {
		return nil, err
	}

	if _, err := s.entries.FindActiveByRobloxID(ctx, user.ID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s is already on the KOS list", user.Name))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "lookup active entry")
	}

	record := &models.HistoryRecord{
		RobloxUserID:    user.ID,
		RobloxUsername:  user.Name,
		Action:          models.HistoryAdded,
		Reason:          req.Reason,
		PerformedByID:   actor.DiscordID,
		PerformedByName: actor.DiscordName,
	}

	entry, err := s.entries.FindLatestByRobloxID(ctx, user.ID)
	switch {
	case err == nil:
		// archived row exists, flip it back to active with fresh metadata
		entry.RobloxUsername = user.Name
		entry.Reason = req.Reason
		entry.AddedByID = actor.DiscordID
		entry.AddedByName = actor.DiscordName
		entry.ThumbnailURL = user.ThumbnailURL
		entry.Status = models.StatusActive
		entry.IsPermanent = isPermanent
		entry.ExpiresAt = expiresAt
		entry.ArchivedAt = nil
		record.Action = models.HistoryReactivated
		if err := s.entries.ReactivateWithHistory(ctx, entry, record); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "reactivate entry")
		}
	case errors.Is(err, sql.ErrNoRows):
		entry = &models.KosEntry{
			RobloxUserID:   user.ID,
			RobloxUsername: user.Name,
			Reason:         req.Reason,
			AddedByID:      actor.DiscordID,
			AddedByName:    actor.DiscordName,
			ThumbnailURL:   user.ThumbnailURL,
			Status:         models.StatusActive,
			IsPermanent:    isPermanent,
			ExpiresAt:      expiresAt,
		}
		if err := s.entries.CreateWithHistory(ctx, entry, record); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create entry")
		}
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "lookup latest entry")
	}

	s.writeLog(ctx, models.LogLevelInfo, models.LogCategoryService,
		fmt.Sprintf("added %s (%s) to KOS list", entry.RobloxUsername, entry.RobloxUserID), actor)
	s.cache.Delete(ctx, statsCacheKey)
	s.notifier.Notify(ctx, telegram.EventAdded, entry, actor)

	return entry, nil
}

// Remove archives an entry by id, recording why.
func (s *KosService) Remove(ctx context.Context, id, reason string, actor models.Actor) (*models.KosEntry, error) {
	if err := s.checkGate(ctx); err != nil {
		return nil, err
	}

	entry, err := s.entries.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "KOS entry not found")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "find entry")
	}

	return s.archive(ctx, entry, reason, models.HistoryRemoved, actor)
}

// RemoveByUser archives the active entry for a Roblox username or id. The
// bot's /kos-remove command removes by user, not by entry id.
func (s *KosService) RemoveByUser(ctx context.Context, usernameOrID, reason string, actor models.Actor) (*models.KosEntry, error) {
	if err := s.checkGate(ctx); err != nil {
		return nil, err
	}

	user, err := s.resolver.Resolve(ctx, usernameOrID)
	if err != nil {
		return nil, err
	}

	entry, err := s.entries.FindActiveByRobloxID(ctx, user.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s is not on the KOS list", user.Name))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "lookup active entry")
	}

	return s.archive(ctx, entry, reason, models.HistoryRemoved, actor)
}

func (s *KosService) archive(ctx context.Context, entry *models.KosEntry, reason, action string, actor models.Actor) (*models.KosEntry, error) {
	if reason == "" {
		reason = "removed by moderator"
	}
	now := time.Now().UTC()
	record := &models.HistoryRecord{
		RobloxUserID:    entry.RobloxUserID,
		RobloxUsername:  entry.RobloxUsername,
		Action:          action,
		Reason:          reason,
		PerformedByID:   actor.DiscordID,
		PerformedByName: actor.DiscordName,
	}

	if err := s.entries.ArchiveWithHistory(ctx, entry.ID, now, record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "entry is not active")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "archive entry")
	}

	entry.Status = models.StatusArchived
	entry.ArchivedAt = &now
	entry.UpdatedAt = now

	s.writeLog(ctx, models.LogLevelInfo, models.LogCategoryService,
		fmt.Sprintf("%s %s (%s) from KOS list", action, entry.RobloxUsername, entry.RobloxUserID), actor)
	s.cache.Delete(ctx, statsCacheKey)

	kind := telegram.EventRemoved
	if action == models.HistoryExpired {
		kind = telegram.EventExpired
	}
	s.notifier.Notify(ctx, kind, entry, actor)

	return entry, nil
}

// Get returns an entry and its history trail.
func (s *KosService) Get(ctx context.Context, id string) (*models.KosEntry, []models.HistoryRecord, error) {
	entry, err := s.entries.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "KOS entry not found")
	}
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "find entry")
	}

	trail, err := s.history.ListByEntry(ctx, entry.ID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load entry history")
	}

	return entry, trail, nil
}

// List returns filtered entries plus pagination metadata.
func (s *KosService) List(ctx context.Context, filter models.EntryFilter) ([]models.KosEntry, *models.Pagination, error) {
	switch filter.Filter {
	case "", models.FilterActive, models.FilterExpiring, models.FilterPermanent, models.FilterArchived:
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown filter %q", filter.Filter))
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	entries, total, err := s.entries.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list entries")
	}

	return entries, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Roster returns every active entry for the machine-readable roster and the
// export surface.
func (s *KosService) Roster(ctx context.Context) ([]models.KosEntry, error) {
	entries, err := s.entries.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list active entries")
	}
	return entries, nil
}

// Stats returns the list summary, served from cache when fresh.
func (s *KosService) Stats(ctx context.Context) (models.Stats, error) {
	var cached models.Stats
	if err := s.cache.Get(ctx, statsCacheKey, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, repository.ErrCacheMiss) {
		s.logger.Warn("stats cache read failed", zap.Error(err))
	}

	stats, err := s.entries.Stats(ctx, time.Now().UTC())
	if err != nil {
		return models.Stats{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "compute stats")
	}

	if err := s.cache.Set(ctx, statsCacheKey, stats, s.statsTTL); err != nil {
		s.logger.Warn("stats cache write failed", zap.Error(err))
	}

	return stats, nil
}

// History returns the global audit trail, newest first.
func (s *KosService) History(ctx context.Context, page, pageSize int) ([]models.HistoryRecord, *models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	records, total, err := s.history.List(ctx, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list history")
	}
	return records, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Logs returns recent operational log rows.
func (s *KosService) Logs(ctx context.Context, limit int, category string) ([]models.LogRecord, error) {
	records, err := s.logs.Recent(ctx, limit, category)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "recent logs")
	}
	return records, nil
}

// ArchiveExpired archives every active non-permanent entry past its expiry
// and returns how many it archived. Safe to run repeatedly.
func (s *KosService) ArchiveExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.entries.FindExpired(ctx, now)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "find expired entries")
	}

	archived := 0
	for i := range expired {
		entry := &expired[i]
		if _, err := s.archive(ctx, entry, "entry expired", models.HistoryExpired, models.SystemActor); err != nil {
			// an entry removed between query and archive is not a failure
			var appErr *appErrors.Error
			if errors.As(err, &appErr) && appErr.Code == appErrors.ErrConflict.Code {
				continue
			}
			s.logger.Error("failed to archive expired entry",
				zap.String("entry_id", entry.ID),
				zap.String("roblox_user_id", entry.RobloxUserID),
				zap.Error(err))
			continue
		}
		archived++
	}

	return archived, nil
}

// Uptime reports how long the service has been running.
func (s *KosService) Uptime() time.Duration {
	return time.Since(s.startedAt)
}

// writeLog persists an operational log row, best effort.
// checkGate refuses moderator-driven mutations while the kill switch is off.
// The expiry sweep bypasses it: lapsed entries archive regardless.
func (s *KosService) checkGate(ctx context.Context) error {
	if s.gate == nil {
		return nil
	}
	enabled, err := s.gate.BotEnabled(ctx)
	if err != nil {
		return err
	}
	if !enabled {
		return appErrors.Clone(appErrors.ErrForbidden, "moderation is currently disabled")
	}
	return nil
}

func (s *KosService) writeLog(ctx context.Context, level, category, message string, actor models.Actor) {
	record := &models.LogRecord{Level: level, Category: category, Message: message}
	if actor.DiscordName != "" {
		name := actor.DiscordName
		record.Actor = &name
	}
	if err := s.logs.Create(ctx, record); err != nil {
		s.logger.Warn("failed to persist log row", zap.String("message", message), zap.Error(err))
	}
}
