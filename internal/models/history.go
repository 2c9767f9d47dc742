package models

import "time"

// History actions recorded in kos_history.
const (
	HistoryAdded       = "added"
	HistoryRemoved     = "removed"
	HistoryExpired     = "expired"
	HistoryReactivated = "reactivated"
)

// HistoryRecord is an append-only audit row written alongside every entry
// mutation. Records are never updated or deleted.
type HistoryRecord struct {
	ID              string    `db:"id" json:"id"`
	EntryID         string    `db:"entry_id" json:"entry_id"`
	RobloxUserID    string    `db:"roblox_user_id" json:"roblox_user_id"`
	RobloxUsername  string    `db:"roblox_username" json:"roblox_username"`
	Action          string    `db:"action" json:"action"`
	Reason          string    `db:"reason" json:"reason"`
	PerformedByID   string    `db:"performed_by_id" json:"performed_by_id"`
	PerformedByName string    `db:"performed_by_name" json:"performed_by_name"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
