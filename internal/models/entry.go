package models

import "time"

// EntryStatus is the lifecycle state of a KOS entry.
type EntryStatus string

const (
	StatusActive   EntryStatus = "active"
	StatusArchived EntryStatus = "archived"
)

// ExpiringWindow is the look-ahead used by the "expiring" list filter.
const ExpiringWindow = 7 * 24 * time.Hour

// KosEntry represents a flagged Roblox account stored in kos_entries.
// At most one active entry exists per Roblox user id; removal archives the
// row instead of deleting it, and a later add reactivates the same row.
type KosEntry struct {
	ID             string      `db:"id" json:"id"`
	RobloxUserID   string      `db:"roblox_user_id" json:"roblox_user_id"`
	RobloxUsername string      `db:"roblox_username" json:"roblox_username"`
	Reason         string      `db:"reason" json:"reason"`
	AddedByID      string      `db:"added_by_id" json:"added_by_id"`
	AddedByName    string      `db:"added_by_name" json:"added_by_name"`
	ThumbnailURL   *string     `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	Status         EntryStatus `db:"status" json:"status"`
	IsPermanent    bool        `db:"is_permanent" json:"is_permanent"`
	ExpiresAt      *time.Time  `db:"expires_at" json:"expires_at,omitempty"`
	ArchivedAt     *time.Time  `db:"archived_at" json:"archived_at,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// ListFilter selects which slice of the list to return.
type ListFilter string

const (
	FilterActive    ListFilter = "active"
	FilterExpiring  ListFilter = "expiring"
	FilterPermanent ListFilter = "permanent"
	FilterArchived  ListFilter = "archived"
)

// EntryFilter captures list query parameters.
type EntryFilter struct {
	Filter   ListFilter
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Actor identifies the Discord user (or the system) performing an action.
type Actor struct {
	DiscordID   string `json:"discord_id"`
	DiscordName string `json:"discord_name"`
}

// SystemActor stamps actions performed by the expiry sweep.
var SystemActor = Actor{DiscordID: "system", DiscordName: "System"}
