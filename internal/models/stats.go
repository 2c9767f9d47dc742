package models

import "time"

// Stats summarises the KOS list.
type Stats struct {
	Active      int       `json:"active"`
	Permanent   int       `json:"permanent"`
	Expiring    int       `json:"expiring"`
	Archived    int       `json:"archived"`
	Total       int       `json:"total"`
	GeneratedAt time.Time `json:"generated_at"`
}

// SystemStatus is returned by the status endpoint and the /status command.
type SystemStatus struct {
	BotEnabled bool      `json:"bot_enabled"`
	Database   string    `json:"database"`
	Stats      Stats     `json:"stats"`
	Uptime     string    `json:"uptime"`
	Timestamp  time.Time `json:"timestamp"`
}
