package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Monzyy/get5-web/internal/game"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type StatsStore struct {
	db *sqlx.DB
}

const (
	getMapStatsQuery  = "SELECT * FROM map_stats WHERE match_id = ? AND map_number = ?"
	listMapStatsQuery = "SELECT * FROM map_stats WHERE match_id = ? ORDER BY map_number ASC"
	setMapScoreQuery  = "UPDATE map_stats SET team1_score = ?, team2_score = ? WHERE id = ?"
	finishMapQuery    = "UPDATE map_stats SET end_time = ?, winner_id = ? WHERE id = ?"
	mapWinnersQuery   = "SELECT winner_id FROM map_stats WHERE match_id = ? AND winner_id IS NOT NULL"
	countPlayersQuery = "SELECT COUNT(*) FROM player_stats WHERE map_id = ?"
	setMapNameQuery   = "UPDATE map_stats SET map_name = ? WHERE id = ? AND map_name = ''"

	getPlayerStatsQuery  = "SELECT * FROM player_stats WHERE map_id = ? AND steam_id = ?"
	listPlayerStatsQuery = "SELECT * FROM player_stats WHERE map_id = ? ORDER BY kills DESC"

	createMapStatsQuery = `
		INSERT INTO map_stats (id, match_id, map_number, map_name, start_time, team1_score, team2_score)
		VALUES (:id, :match_id, :map_number, :map_name, :start_time, :team1_score, :team2_score)
	`
	upsertPlayerQuery = `
		INSERT INTO player_stats (id, match_id, map_id, team_id, steam_id, name,
			kills, deaths, roundsplayed, assists, flashbang_assists, teamkills, suicides,
			headshot_kills, damage, bomb_plants, bomb_defuses,
			v1, v2, v3, v4, v5, k1, k2, k3, k4, k5,
			firstkill_t, firstkill_ct, firstdeath_t, firstdeath_ct)
		VALUES (:id, :match_id, :map_id, :team_id, :steam_id, :name,
			:kills, :deaths, :roundsplayed, :assists, :flashbang_assists, :teamkills, :suicides,
			:headshot_kills, :damage, :bomb_plants, :bomb_defuses,
			:v1, :v2, :v3, :v4, :v5, :k1, :k2, :k3, :k4, :k5,
			:firstkill_t, :firstkill_ct, :firstdeath_t, :firstdeath_ct)
		ON CONFLICT (map_id, steam_id) DO UPDATE SET
			team_id = excluded.team_id,
			name = excluded.name,
			kills = excluded.kills,
			deaths = excluded.deaths,
			roundsplayed = excluded.roundsplayed,
			assists = excluded.assists,
			flashbang_assists = excluded.flashbang_assists,
			teamkills = excluded.teamkills,
			suicides = excluded.suicides,
			headshot_kills = excluded.headshot_kills,
			damage = excluded.damage,
			bomb_plants = excluded.bomb_plants,
			bomb_defuses = excluded.bomb_defuses,
			v1 = excluded.v1, v2 = excluded.v2, v3 = excluded.v3, v4 = excluded.v4, v5 = excluded.v5,
			k1 = excluded.k1, k2 = excluded.k2, k3 = excluded.k3, k4 = excluded.k4, k5 = excluded.k5,
			firstkill_t = excluded.firstkill_t,
			firstkill_ct = excluded.firstkill_ct,
			firstdeath_t = excluded.firstdeath_t,
			firstdeath_ct = excluded.firstdeath_ct
	`
)

func NewStatsStore(db *sqlx.DB) *StatsStore {
	return &StatsStore{db: db}
}

// GetOrCreateMapStats finds the row for (match, mapNumber), creating it
// with a start timestamp on first reference. mapNumber is validated by
// the caller against the match's max_maps.
func (s *StatsStore) GetOrCreateMapStats(ctx context.Context, matchID uuid.UUID, mapNumber int, mapName string) (*game.MapStats, error) {
	var stats game.MapStats
	err := s.db.GetContext(ctx, &stats, getMapStatsQuery, matchID, mapNumber)
	if err == nil {
		// A score update can land before the map-start callback and
		// create the row nameless; the name is filled in when it
		// finally arrives.
		if stats.MapName == "" && mapName != "" {
			if _, err := s.db.ExecContext(ctx, setMapNameQuery, mapName, stats.ID); err != nil {
				return nil, err
			}
			stats.MapName = mapName
		}
		return &stats, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	now := time.Now().UTC()
	stats = game.MapStats{
		ID:        uuid.New(),
		MatchID:   matchID,
		MapNumber: mapNumber,
		MapName:   mapName,
		StartTime: &now,
	}
	if _, err := s.db.NamedExecContext(ctx, createMapStatsQuery, &stats); err != nil {
		// A concurrent callback may have created it first.
		if isUniqueViolation(err) {
			var existing game.MapStats
			if getErr := s.db.GetContext(ctx, &existing, getMapStatsQuery, matchID, mapNumber); getErr == nil {
				return &existing, nil
			}
		}
		return nil, err
	}
	return &stats, nil
}

func (s *StatsStore) ListMapStats(ctx context.Context, matchID uuid.UUID) ([]game.MapStats, error) {
	var stats []game.MapStats
	err := s.db.SelectContext(ctx, &stats, listMapStatsQuery, matchID)
	return stats, err
}

// SetMapScore overwrites the running score; duplicate deliveries of the
// same update are harmless.
func (s *StatsStore) SetMapScore(ctx context.Context, mapID uuid.UUID, team1Score, team2Score int) error {
	_, err := s.db.ExecContext(ctx, setMapScoreQuery, team1Score, team2Score, mapID)
	return err
}

func (s *StatsStore) FinishMap(ctx context.Context, mapID uuid.UUID, end time.Time, winnerID *uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, finishMapQuery, end, winnerID, mapID)
	return err
}

// MapWinners returns the winner of every decided map in the series.
func (s *StatsStore) MapWinners(ctx context.Context, matchID uuid.UUID) ([]uuid.UUID, error) {
	var winners []uuid.UUID
	err := s.db.SelectContext(ctx, &winners, mapWinnersQuery, matchID)
	return winners, err
}

func (s *StatsStore) CountPlayersOnMap(ctx context.Context, mapID uuid.UUID) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, countPlayersQuery, mapID)
	return n, err
}

func (s *StatsStore) GetPlayerStats(ctx context.Context, mapID uuid.UUID, steamID string) (*game.PlayerStats, error) {
	var stats game.PlayerStats
	err := s.db.GetContext(ctx, &stats, getPlayerStatsQuery, mapID, steamID)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *StatsStore) ListPlayerStats(ctx context.Context, mapID uuid.UUID) ([]game.PlayerStats, error) {
	var stats []game.PlayerStats
	err := s.db.SelectContext(ctx, &stats, listPlayerStatsQuery, mapID)
	return stats, err
}

// UpsertPlayerStats writes the cumulative stat line for one player on
// one map, last write winning.
func (s *StatsStore) UpsertPlayerStats(ctx context.Context, stats *game.PlayerStats) error {
	_, err := s.db.NamedExecContext(ctx, upsertPlayerQuery, stats)
	return err
}
