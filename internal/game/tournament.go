package game

import (
	"time"

	"github.com/google/uuid"
)

// Tournament groups matches that share a server pool and a map pool.
// Bracket structure itself lives in the external bracket service.
type Tournament struct {
	ID        uuid.UUID  `db:"id"`
	UserID    uuid.UUID  `db:"user_id"`
	Name      string     `db:"name"`
	Cancelled bool       `db:"cancelled"`
	StartTime *time.Time `db:"start_time"`
	EndTime   *time.Time `db:"end_time"`
	CreatedAt time.Time  `db:"created_at"`

	// Loaded from the tournament_maps rows.
	VetoMappool []string `db:"-"`
}

func (t *Tournament) Pending() bool {
	return t.StartTime == nil && !t.Cancelled
}

func (t *Tournament) Live() bool {
	return t.StartTime != nil && t.EndTime == nil && !t.Cancelled
}

func (t *Tournament) Finished() bool {
	return t.EndTime != nil && !t.Cancelled
}
