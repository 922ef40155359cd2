package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Monzyy/get5-web/internal/game"
	"github.com/Monzyy/get5-web/internal/veto"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type MatchStore struct {
	db *sqlx.DB
}

const (
	getMatchQuery        = "SELECT * FROM matches WHERE id = ?"
	listMatchesForQuery  = "SELECT * FROM matches WHERE user_id = ? ORDER BY created_at DESC"
	countMatchesForQuery = "SELECT COUNT(*) FROM matches WHERE user_id = ?"

	activeMatchOnSrvQuery = `
		SELECT * FROM matches
		WHERE server_id = ? AND cancelled = 0 AND end_time IS NULL
		LIMIT 1
	`
	createMatchQuery = `
		INSERT INTO matches (id, user_id, server_id, tournament_id, team1_id, team2_id,
			team1_string, team2_string, plugin_version, max_maps, title, skip_veto, api_key)
		VALUES (:id, :user_id, :server_id, :tournament_id, :team1_id, :team2_id,
			:team1_string, :team2_string, :plugin_version, :max_maps, :title, :skip_veto, :api_key)
	`
	bindServerQuery     = "UPDATE matches SET server_id = ? WHERE id = ?"
	setStartTimeQuery   = "UPDATE matches SET start_time = ?, plugin_version = ? WHERE id = ?"
	setCancelledQuery   = "UPDATE matches SET cancelled = 1 WHERE id = ?"
	finishMatchQuery    = "UPDATE matches SET end_time = ?, winner_id = ?, forfeit = ? WHERE id = ?"
	setSeriesScoreQuery = "UPDATE matches SET team1_score = ?, team2_score = ? WHERE id = ?"
	insertPoolMapQuery  = "INSERT INTO match_pool_maps (match_id, idx, map_name) VALUES (?, ?, ?)"
	getPoolMapsQuery    = "SELECT map_name FROM match_pool_maps WHERE match_id = ? ORDER BY idx ASC"
	insertProcessQuery  = "INSERT INTO veto_process (match_id, idx, team_no, action) VALUES (?, ?, ?, ?)"
	getProcessQuery     = "SELECT team_no, action FROM veto_process WHERE match_id = ? ORDER BY idx ASC"
	insertProgressQuery = "INSERT INTO veto_progress (match_id, idx, team_no, action, map_name) VALUES (?, ?, ?, ?, ?)"
	getProgressQuery    = "SELECT team_no, action, map_name FROM veto_progress WHERE match_id = ? ORDER BY idx ASC"
)

// ErrVetoConflict means a concurrent submission already claimed the veto
// step index this write targeted.
var ErrVetoConflict = errors.New("veto step was applied concurrently")

func NewMatchStore(db *sqlx.DB) *MatchStore {
	return &MatchStore{db: db}
}

// CreateMatch persists the match row plus its pool and process rows
// inside tx.
func (s *MatchStore) CreateMatch(ctx context.Context, tx *sqlx.Tx, match *game.Match) error {
	if _, err := tx.NamedExecContext(ctx, createMatchQuery, match); err != nil {
		return err
	}
	for idx, name := range match.VetoMappool {
		if _, err := tx.ExecContext(ctx, insertPoolMapQuery, match.ID, idx, name); err != nil {
			return err
		}
	}
	for idx, step := range match.VetoProcess {
		if _, err := tx.ExecContext(ctx, insertProcessQuery, match.ID, idx, step.TeamNo, step.Action); err != nil {
			return err
		}
	}
	return nil
}

func (s *MatchStore) GetMatch(ctx context.Context, id uuid.UUID) (*game.Match, error) {
	var match game.Match
	if err := s.db.GetContext(ctx, &match, getMatchQuery, id); err != nil {
		return nil, err
	}
	if err := s.loadVeto(ctx, &match); err != nil {
		return nil, err
	}
	return &match, nil
}

type processRow struct {
	TeamNo int         `db:"team_no"`
	Action veto.Action `db:"action"`
}

type progressRow struct {
	TeamNo  int         `db:"team_no"`
	Action  veto.Action `db:"action"`
	MapName string      `db:"map_name"`
}

func (s *MatchStore) loadVeto(ctx context.Context, match *game.Match) error {
	if err := s.db.SelectContext(ctx, &match.VetoMappool, getPoolMapsQuery, match.ID); err != nil {
		return err
	}

	var process []processRow
	if err := s.db.SelectContext(ctx, &process, getProcessQuery, match.ID); err != nil {
		return err
	}
	match.VetoProcess = make([]veto.Step, 0, len(process))
	for _, row := range process {
		match.VetoProcess = append(match.VetoProcess, veto.Step{TeamNo: row.TeamNo, Action: row.Action})
	}

	var progress []progressRow
	if err := s.db.SelectContext(ctx, &progress, getProgressQuery, match.ID); err != nil {
		return err
	}
	match.VetoProgress = make([]veto.ProgressEntry, 0, len(progress))
	for _, row := range progress {
		match.VetoProgress = append(match.VetoProgress,
			veto.ProgressEntry{TeamNo: row.TeamNo, Action: row.Action, MapName: row.MapName})
	}
	return nil
}

func (s *MatchStore) ListMatchesFor(ctx context.Context, userID uuid.UUID) ([]game.Match, error) {
	var matches []game.Match
	err := s.db.SelectContext(ctx, &matches, listMatchesForQuery, userID)
	return matches, err
}

func (s *MatchStore) CountMatchesFor(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, countMatchesForQuery, userID)
	return n, err
}

// ActiveMatchOnServer returns the non-final match bound to the server,
// or nil.
func (s *MatchStore) ActiveMatchOnServer(ctx context.Context, serverID uuid.UUID) (*game.Match, error) {
	var match game.Match
	err := s.db.GetContext(ctx, &match, activeMatchOnSrvQuery, serverID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *MatchStore) BindServerTx(ctx context.Context, tx *sqlx.Tx, matchID, serverID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, bindServerQuery, serverID, matchID)
	return err
}

func (s *MatchStore) SetStartTime(ctx context.Context, matchID uuid.UUID, start time.Time, pluginVersion string) error {
	_, err := s.db.ExecContext(ctx, setStartTimeQuery, start, pluginVersion, matchID)
	return err
}

func (s *MatchStore) SetCancelledTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, setCancelledQuery, matchID)
	return err
}

func (s *MatchStore) FinishMatch(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID, end time.Time, winnerID *uuid.UUID, forfeit bool) error {
	_, err := tx.ExecContext(ctx, finishMatchQuery, end, winnerID, forfeit, matchID)
	return err
}

func (s *MatchStore) SetSeriesScore(ctx context.Context, matchID uuid.UUID, team1Score, team2Score int) error {
	_, err := s.db.ExecContext(ctx, setSeriesScoreQuery, team1Score, team2Score, matchID)
	return err
}

// AppendVetoProgress writes entries at consecutive indices starting at
// startIdx. The (match_id, idx) primary key makes racing appends lose
// with ErrVetoConflict instead of double-applying a step.
func (s *MatchStore) AppendVetoProgress(ctx context.Context, matchID uuid.UUID, startIdx int, entries []veto.ProgressEntry) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, e := range entries {
		if _, err := tx.ExecContext(ctx, insertProgressQuery, matchID, startIdx+i, e.TeamNo, e.Action, e.MapName); err != nil {
			if isUniqueViolation(err) {
				return ErrVetoConflict
			}
			return err
		}
	}
	return tx.Commit()
}
