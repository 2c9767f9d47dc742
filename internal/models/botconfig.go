package models

import "time"

// Well-known bot_config keys.
const (
	ConfigKeyAdminPassword = "admin_password"
	ConfigKeyBotEnabled    = "bot_enabled"
)

// BotConfig is a generic key-value settings row.
type BotConfig struct {
	Key         string    `db:"key" json:"key"`
	Value       string    `db:"value" json:"value"`
	Description *string   `db:"description" json:"description,omitempty"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
