package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthCode is a short-lived one-time code generated by the /console command
// and exchanged for an API session.
type AuthCode struct {
	ID              string     `db:"id" json:"id"`
	Code            string     `db:"code" json:"code"`
	DiscordUserID   string     `db:"discord_user_id" json:"discord_user_id"`
	DiscordUsername string     `db:"discord_username" json:"discord_username"`
	ExpiresAt       time.Time  `db:"expires_at" json:"expires_at"`
	Used            bool       `db:"used" json:"used"`
	UsedAt          *time.Time `db:"used_at" json:"used_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// Session is a persisted API session. Bearer tokens reference a session row
// by id, so revocation survives process restarts.
type Session struct {
	ID              string     `db:"id" json:"id"`
	DiscordUserID   string     `db:"discord_user_id" json:"discord_user_id"`
	DiscordUsername string     `db:"discord_username" json:"discord_username"`
	ExpiresAt       time.Time  `db:"expires_at" json:"expires_at"`
	Revoked         bool       `db:"revoked" json:"revoked"`
	RevokedAt       *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	LastUsedAt      *time.Time `db:"last_used_at" json:"last_used_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// SessionClaims is the JWT payload for API access tokens.
type SessionClaims struct {
	SessionID       string `json:"sid"`
	DiscordUserID   string `json:"discord_user_id"`
	DiscordUsername string `json:"discord_username"`
	jwt.RegisteredClaims
}

// LoginRequest exchanges a one-time auth code for a bearer token.
type LoginRequest struct {
	Code string `json:"code" validate:"required,len=8,hexadecimal"`
}

// LoginResponse returns the issued token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      Actor     `json:"user"`
}
