package store

import (
	"context"
	"testing"

	"github.com/Monzyy/get5-web/internal/db"
	"github.com/Monzyy/get5-web/internal/game"
	users "github.com/Monzyy/get5-web/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")

	// One connection so every query sees the same in-memory database.
	database.SetMaxOpenConns(1)

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	require.NoError(t, db.RunMigrations(database), "Failed to apply migrations")

	return database
}

func createTestUser(t *testing.T, database *sqlx.DB) *users.User {
	t.Helper()

	user := &users.User{
		ID:      uuid.New(),
		SteamID: "7656119" + uuid.NewString()[:10],
		Name:    "tester",
	}
	require.NoError(t, NewUserStore(database).CreateUser(context.Background(), user))
	return user
}

func createTestServer(t *testing.T, database *sqlx.DB, userID uuid.UUID) *game.GameServer {
	t.Helper()

	server := &game.GameServer{
		ID:           uuid.New(),
		UserID:       userID,
		DisplayName:  "Test Server",
		IPString:     "10.0.0.1",
		Port:         27015,
		RconPassword: "hunter2",
	}
	require.NoError(t, NewServerStore(database).CreateServer(context.Background(), server))
	return server
}

func createTestTeam(t *testing.T, database *sqlx.DB, userID uuid.UUID, name string, auths ...string) *game.Team {
	t.Helper()

	team := &game.Team{
		ID:     uuid.New(),
		UserID: userID,
		Name:   name,
		Flag:   "dk",
		Auths:  auths,
	}
	require.NoError(t, NewTeamStore(database).CreateTeam(context.Background(), team))
	return team
}
