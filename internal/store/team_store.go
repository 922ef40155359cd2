package store

import (
	"context"

	"github.com/Monzyy/get5-web/internal/game"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TeamStore struct {
	db *sqlx.DB
}

const (
	getTeamQuery      = "SELECT * FROM teams WHERE id = ?"
	listTeamsForQuery = `
		SELECT * FROM teams
		WHERE public_team = 1 OR user_id = ?
		ORDER BY created_at ASC
	`
	createTeamQuery = `
		INSERT INTO teams (id, user_id, name, tag, flag, logo, public_team)
		VALUES (:id, :user_id, :name, :tag, :flag, :logo, :public_team)
	`
	updateTeamQuery = `
		UPDATE teams SET
			name = :name,
			tag = :tag,
			flag = :flag,
			logo = :logo,
			public_team = :public_team
		WHERE id = :id
	`
	deleteTeamQuery = "DELETE FROM teams WHERE id = ?"

	getTeamAuthsQuery    = "SELECT auth FROM team_auths WHERE team_id = ? ORDER BY slot ASC"
	deleteTeamAuthsQuery = "DELETE FROM team_auths WHERE team_id = ?"
	insertTeamAuthQuery  = "INSERT INTO team_auths (team_id, slot, auth) VALUES (?, ?, ?)"

	countTeamActiveMatchesQuery = `
		SELECT COUNT(*) FROM matches
		WHERE (team1_id = ? OR team2_id = ?) AND cancelled = 0 AND end_time IS NULL AND start_time IS NOT NULL
	`
)

func NewTeamStore(db *sqlx.DB) *TeamStore {
	return &TeamStore{db: db}
}

func (s *TeamStore) GetTeam(ctx context.Context, id uuid.UUID) (*game.Team, error) {
	var team game.Team
	if err := s.db.GetContext(ctx, &team, getTeamQuery, id); err != nil {
		return nil, err
	}
	if err := s.db.SelectContext(ctx, &team.Auths, getTeamAuthsQuery, id); err != nil {
		return nil, err
	}
	return &team, nil
}

func (s *TeamStore) ListTeamsFor(ctx context.Context, userID uuid.UUID) ([]game.Team, error) {
	var teams []game.Team
	err := s.db.SelectContext(ctx, &teams, listTeamsForQuery, userID)
	return teams, err
}

func (s *TeamStore) CreateTeam(ctx context.Context, team *game.Team) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, createTeamQuery, team); err != nil {
		return err
	}
	if err := s.writeAuths(ctx, tx, team); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *TeamStore) UpdateTeam(ctx context.Context, team *game.Team) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, updateTeamQuery, team); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, deleteTeamAuthsQuery, team.ID); err != nil {
		return err
	}
	if err := s.writeAuths(ctx, tx, team); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *TeamStore) writeAuths(ctx context.Context, tx *sqlx.Tx, team *game.Team) error {
	for slot, auth := range game.NormalizeAuths(team.Auths) {
		if _, err := tx.ExecContext(ctx, insertTeamAuthQuery, team.ID, slot, auth); err != nil {
			return err
		}
	}
	return nil
}

func (s *TeamStore) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, deleteTeamQuery, id)
	return err
}

// CountActiveMatches counts live matches the team participates in; teams
// in a live match must not be deleted.
func (s *TeamStore) CountActiveMatches(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, countTeamActiveMatchesQuery, id, id)
	return n, err
}
