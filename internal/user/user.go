package users

import (
	"time"

	"github.com/google/uuid"
)

type ContextKey string

const UserKey ContextKey = "user"

type User struct {
	ID        uuid.UUID `db:"id"`
	SteamID   string    `db:"steam_id"`
	Name      string    `db:"name"`
	Admin     bool      `db:"admin"`
	CreatedAt time.Time `db:"created_at"`
}

func (u *User) SteamProfileURL() string {
	return "https://steamcommunity.com/profiles/" + u.SteamID
}
