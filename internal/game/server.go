package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GameServer is a CS:GO server the panel can reserve for matches. InUse
// is the sole reservation guard: it is true iff some non-final match
// references the server.
type GameServer struct {
	ID           uuid.UUID `db:"id"`
	UserID       uuid.UUID `db:"user_id"`
	DisplayName  string    `db:"display_name"`
	IPString     string    `db:"ip_string"`
	Port         int       `db:"port"`
	RconPassword string    `db:"rcon_password"`
	InUse        bool      `db:"in_use"`
	PublicServer bool      `db:"public_server"`
	CreatedAt    time.Time `db:"created_at"`
}

func (s *GameServer) Addr() string {
	return fmt.Sprintf("%s:%d", s.IPString, s.Port)
}

func (s *GameServer) Display() string {
	if s.DisplayName != "" {
		return fmt.Sprintf("%s (%s)", s.DisplayName, s.Addr())
	}
	return s.Addr()
}
