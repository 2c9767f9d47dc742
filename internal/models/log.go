package models

import "time"

// Log levels for operational log rows.
const (
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Log categories.
const (
	LogCategoryService = "service"
	LogCategorySystem  = "system"
	LogCategoryAuth    = "auth"
)

// LogRecord is an operational log line persisted for admin visibility.
type LogRecord struct {
	ID        string    `db:"id" json:"id"`
	Level     string    `db:"level" json:"level"`
	Category  string    `db:"category" json:"category"`
	Message   string    `db:"message" json:"message"`
	Actor     *string   `db:"actor" json:"actor,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
