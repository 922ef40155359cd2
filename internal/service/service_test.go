package service

import (
	"context"
	"testing"

	"github.com/Monzyy/get5-web/internal/config"
	"github.com/Monzyy/get5-web/internal/db"
	"github.com/Monzyy/get5-web/internal/game"
	"github.com/Monzyy/get5-web/internal/store"
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

// fixture bundles the stores and services every test wires the same way.
type fixture struct {
	db          *sqlx.DB
	cfg         config.Config
	users       *store.UserStore
	servers     *store.ServerStore
	teams       *store.TeamStore
	matches     *store.MatchStore
	stats       *store.StatsStore
	tournaments *store.TournamentStore
	reservation *ReservationService
	matchSvc    *MatchService
	statsSvc    *StatsService
	vetoSvc     *VetoService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	database := setupTestDB(t)
	t.Cleanup(func() { database.Close() })

	cfg := config.Config{
		BaseURL:                "http://panel.example.com",
		UserMaxMatches:         -1,
		AdminsAccessAllMatches: true,
		DefaultMapPool: []string{
			"de_dust2", "de_mirage", "de_inferno", "de_nuke",
			"de_train", "de_overpass", "de_vertigo",
		},
	}

	f := &fixture{
		db:          database,
		cfg:         cfg,
		users:       store.NewUserStore(database),
		servers:     store.NewServerStore(database),
		teams:       store.NewTeamStore(database),
		matches:     store.NewMatchStore(database),
		stats:       store.NewStatsStore(database),
		tournaments: store.NewTournamentStore(database),
	}
	f.reservation = NewReservationService(f.servers, f.matches, MockRcon{})
	f.matchSvc = NewMatchService(database, cfg, f.matches, f.servers, f.teams, f.tournaments, f.reservation, MockRcon{})
	f.statsSvc = NewStatsService(database, f.matches, f.servers, f.stats)
	f.vetoSvc = NewVetoService(f.matches, f.teams)
	return f
}

func (f *fixture) createUser(t *testing.T, steamID string, admin bool) *users.User {
	t.Helper()

	user := &users.User{ID: uuid.New(), SteamID: steamID, Name: "tester", Admin: admin}
	require.NoError(t, f.users.CreateUser(context.Background(), user))
	return user
}

func (f *fixture) createServer(t *testing.T, ownerID uuid.UUID) *game.GameServer {
	t.Helper()

	server := &game.GameServer{
		ID:           uuid.New(),
		UserID:       ownerID,
		IPString:     "10.0.0.1",
		Port:         27015,
		RconPassword: "hunter2",
		PublicServer: true,
	}
	require.NoError(t, f.servers.CreateServer(context.Background(), server))
	return server
}

func (f *fixture) createTeam(t *testing.T, ownerID uuid.UUID, name string, auths ...string) *game.Team {
	t.Helper()

	team := &game.Team{ID: uuid.New(), UserID: ownerID, Name: name, Auths: auths}
	require.NoError(t, f.teams.CreateTeam(context.Background(), team))
	return team
}

func (f *fixture) createTournament(t *testing.T, ownerID uuid.UUID, maps []string, serverIDs ...uuid.UUID) uuid.UUID {
	t.Helper()

	tourn := &game.Tournament{ID: uuid.New(), UserID: ownerID, Name: "Test Cup", VetoMappool: maps}
	require.NoError(t, f.tournaments.CreateTournament(context.Background(), tourn, serverIDs, nil))
	return tourn.ID
}
