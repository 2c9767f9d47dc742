package dto

// CreateEntryRequest is the HTTP payload for adding a KOS entry. The target
// may be given as a numeric Roblox user id or a username; duration is an
// optional moderation duration string (7d, 30d, 1y), empty means permanent.
type CreateEntryRequest struct {
	User     string `json:"user" validate:"required,min=3,max=50"`
	Reason   string `json:"reason" validate:"required,min=3,max=500"`
	Duration string `json:"duration" validate:"omitempty,max=10"`
}

// RemoveEntryRequest carries the archival reason for DELETE /kos/:id.
type RemoveEntryRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}
