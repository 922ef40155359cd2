package game

import (
	"time"

	"github.com/google/uuid"
)

// MaxPlayers is the fixed roster size. Empty slots hold empty strings so
// slot positions stay stable.
const MaxPlayers = 7

type Team struct {
	ID         uuid.UUID `db:"id"`
	UserID     uuid.UUID `db:"user_id"`
	Name       string    `db:"name"`
	Tag        string    `db:"tag"`
	Flag       string    `db:"flag"`
	Logo       string    `db:"logo"`
	PublicTeam bool      `db:"public_team"`
	CreatedAt  time.Time `db:"created_at"`

	// Auths is the MaxPlayers-slot roster of steam64 ids, loaded from
	// the team_auths rows.
	Auths []string `db:"-"`
}

// Players returns the non-empty roster entries.
func (t *Team) Players() []string {
	var players []string
	for _, auth := range t.Auths {
		if auth != "" {
			players = append(players, auth)
		}
	}
	return players
}

// HasPlayer reports roster membership.
func (t *Team) HasPlayer(steamID string) bool {
	for _, auth := range t.Auths {
		if auth != "" && auth == steamID {
			return true
		}
	}
	return false
}

// NormalizeAuths pads or truncates a roster to exactly MaxPlayers slots.
func NormalizeAuths(auths []string) []string {
	out := make([]string, MaxPlayers)
	copy(out, auths)
	return out
}
