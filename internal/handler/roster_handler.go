package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lorenzocolitta/brotherhood-kos/internal/models"
	"github.com/lorenzocolitta/brotherhood-kos/pkg/response"
)

// RosterAPI returns the active list.
type RosterAPI interface {
	Roster(ctx context.Context) ([]models.KosEntry, error)
}

// RosterHandler serves the machine-readable active list for in-game
// consumers. Requests are authenticated by HMAC signature, not sessions.
type RosterHandler struct {
	kos RosterAPI
}

// NewRosterHandler constructs RosterHandler.
func NewRosterHandler(kos RosterAPI) *RosterHandler {
	return &RosterHandler{kos: kos}
}

type rosterEntry struct {
	RobloxUserID   string `json:"roblox_user_id"`
	RobloxUsername string `json:"roblox_username"`
	Reason         string `json:"reason"`
	IsPermanent    bool   `json:"is_permanent"`
	ExpiresAt      string `json:"expires_at,omitempty"`
}

// Roster godoc
// @Summary Active KOS roster for game servers
// @Tags Roster
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /roster [get]
func (h *RosterHandler) Roster(c *gin.Context) {
	entries, err := h.kos.Roster(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	roster := make([]rosterEntry, 0, len(entries))
	for _, e := range entries {
		row := rosterEntry{
			RobloxUserID:   e.RobloxUserID,
			RobloxUsername: e.RobloxUsername,
			Reason:         e.Reason,
			IsPermanent:    e.IsPermanent,
		}
		if e.ExpiresAt != nil {
			row.ExpiresAt = e.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		roster = append(roster, row)
	}

	response.JSON(c, http.StatusOK, roster, nil, map[string]interface{}{"count": len(roster)})
}
