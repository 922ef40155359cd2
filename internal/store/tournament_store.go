package store

import (
	"context"
	"time"

	"github.com/Monzyy/get5-web/internal/game"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TournamentStore struct {
	db *sqlx.DB
}

const (
	getTournamentQuery   = "SELECT * FROM tournaments WHERE id = ?"
	listTournamentsQuery = "SELECT * FROM tournaments ORDER BY created_at DESC"
	tournamentMapsQuery  = "SELECT map_name FROM tournament_maps WHERE tournament_id = ? ORDER BY idx ASC"
	cancelTournQuery     = "UPDATE tournaments SET cancelled = 1 WHERE id = ?"
	startTournQuery      = "UPDATE tournaments SET start_time = ? WHERE id = ? AND start_time IS NULL"
	finishTournQuery     = "UPDATE tournaments SET end_time = ? WHERE id = ?"

	createTournamentQuery = `
		INSERT INTO tournaments (id, user_id, name, created_at)
		VALUES (:id, :user_id, :name, :created_at)
	`
	insertTournMapQuery    = "INSERT INTO tournament_maps (tournament_id, idx, map_name) VALUES (?, ?, ?)"
	insertTournServerQuery = "INSERT INTO tournament_servers (tournament_id, game_server_id) VALUES (?, ?)"
	insertTournTeamQuery   = "INSERT INTO tournament_teams (tournament_id, team_id) VALUES (?, ?)"

	tournamentTeamsQuery = `
		SELECT t.* FROM teams t
		JOIN tournament_teams tt ON tt.team_id = t.id
		WHERE tt.tournament_id = ?
		ORDER BY t.name ASC
	`
	poolServersQuery = `
		SELECT gs.* FROM game_servers gs
		JOIN tournament_servers ts ON ts.game_server_id = gs.id
		WHERE ts.tournament_id = ? AND gs.in_use = 0
	`
)

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

// CreateTournament writes the tournament together with its map pool and
// its server/team links in one transaction.
func (s *TournamentStore) CreateTournament(ctx context.Context, t *game.Tournament, serverIDs, teamIDs []uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now().UTC()

	if _, err := tx.NamedExecContext(ctx, createTournamentQuery, t); err != nil {
		return err
	}
	for idx, name := range t.VetoMappool {
		if _, err := tx.ExecContext(ctx, insertTournMapQuery, t.ID, idx, name); err != nil {
			return err
		}
	}
	for _, serverID := range serverIDs {
		if _, err := tx.ExecContext(ctx, insertTournServerQuery, t.ID, serverID); err != nil {
			return err
		}
	}
	for _, teamID := range teamIDs {
		if _, err := tx.ExecContext(ctx, insertTournTeamQuery, t.ID, teamID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *TournamentStore) GetTournament(ctx context.Context, id uuid.UUID) (*game.Tournament, error) {
	var t game.Tournament
	if err := s.db.GetContext(ctx, &t, getTournamentQuery, id); err != nil {
		return nil, err
	}
	if err := s.db.SelectContext(ctx, &t.VetoMappool, tournamentMapsQuery, id); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TournamentStore) ListTournaments(ctx context.Context) ([]game.Tournament, error) {
	var ts []game.Tournament
	err := s.db.SelectContext(ctx, &ts, listTournamentsQuery)
	return ts, err
}

func (s *TournamentStore) ListTeams(ctx context.Context, id uuid.UUID) ([]game.Team, error) {
	var teams []game.Team
	err := s.db.SelectContext(ctx, &teams, tournamentTeamsQuery, id)
	return teams, err
}

// FreePoolServers lists the tournament's servers that are not currently
// reserved. Reservation itself still goes through ServerStore.TryReserve.
func (s *TournamentStore) FreePoolServers(ctx context.Context, id uuid.UUID) ([]game.GameServer, error) {
	var servers []game.GameServer
	err := s.db.SelectContext(ctx, &servers, poolServersQuery, id)
	return servers, err
}

// AddServer puts a server into the tournament's pool; adding one twice
// is a no-op.
func (s *TournamentStore) AddServer(ctx context.Context, id, serverID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, insertTournServerQuery, id, serverID)
	if err != nil && isUniqueViolation(err) {
		return nil
	}
	return err
}

func (s *TournamentStore) StartTournament(ctx context.Context, id uuid.UUID, start time.Time) error {
	_, err := s.db.ExecContext(ctx, startTournQuery, start, id)
	return err
}

func (s *TournamentStore) FinishTournament(ctx context.Context, id uuid.UUID, end time.Time) error {
	_, err := s.db.ExecContext(ctx, finishTournQuery, end, id)
	return err
}

func (s *TournamentStore) CancelTournament(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, cancelTournQuery, id)
	return err
}
