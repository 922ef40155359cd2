package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Monzyy/get5-web/internal/game"
	"github.com/Monzyy/get5-web/internal/store"
	"github.com/Monzyy/get5-web/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// StatsService processes the callbacks the get5 plugin posts during a
// series. Deliveries can arrive duplicated or out of order; every write
// here is last-write or recomputed so replays converge on the same row.
type StatsService struct {
	db      *sqlx.DB
	matches *store.MatchStore
	servers *store.ServerStore
	stats   *store.StatsStore
}

func NewStatsService(db *sqlx.DB, matches *store.MatchStore, servers *store.ServerStore, stats *store.StatsStore) *StatsService {
	return &StatsService{db: db, matches: matches, servers: servers, stats: stats}
}

// MatchByAPIKey loads the match a callback addresses and checks the
// per-match key the server was handed at config push.
func (s *StatsService) MatchByAPIKey(ctx context.Context, matchID uuid.UUID, apiKey string) (*game.Match, error) {
	match, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if apiKey == "" || match.APIKey != apiKey {
		return nil, ErrNotOwner
	}
	return match, nil
}

// MapStarting records the wall time a map went live. mapNumber is
// zero-based within the series.
func (s *StatsService) MapStarting(ctx context.Context, match *game.Match, mapNumber int, mapName string) (*game.MapStats, error) {
	if match.Finalized() {
		return nil, ErrMatchFinalized
	}
	return s.mapStatsFor(ctx, match, mapNumber, mapName)
}

// mapStatsFor loads or creates the map row after checking the map
// number against the series length. Every callback path goes through
// here so a server cannot write stats for a map the series cannot
// reach.
func (s *StatsService) mapStatsFor(ctx context.Context, match *game.Match, mapNumber int, mapName string) (*game.MapStats, error) {
	if mapNumber < 0 || mapNumber >= match.MaxMaps {
		return nil, fmt.Errorf("map number %d in a %s: %w", mapNumber, match.SeriesFormat(), ErrMapOutOfRange)
	}
	return s.stats.GetOrCreateMapStats(ctx, match.ID, mapNumber, mapName)
}

// UpdateMapScore overwrites the running score of one map.
func (s *StatsService) UpdateMapScore(ctx context.Context, match *game.Match, mapNumber, team1Score, team2Score int) error {
	if match.Finalized() {
		return ErrMatchFinalized
	}
	mapStats, err := s.mapStatsFor(ctx, match, mapNumber, "")
	if err != nil {
		return err
	}
	return s.stats.SetMapScore(ctx, mapStats.ID, team1Score, team2Score)
}

// MapFinished stamps the map's end and winner, then recomputes the
// series score from all decided maps. Recomputing rather than
// incrementing keeps a replayed callback from double-counting.
func (s *StatsService) MapFinished(ctx context.Context, match *game.Match, mapNumber int, winner string) error {
	if match.Finalized() {
		return ErrMatchFinalized
	}
	mapStats, err := s.mapStatsFor(ctx, match, mapNumber, "")
	if err != nil {
		return err
	}
	winnerID := s.resolveWinner(match, winner)
	if err := s.stats.FinishMap(ctx, mapStats.ID, time.Now().UTC(), winnerID); err != nil {
		return fmt.Errorf("failed to finish map: %w", err)
	}

	winners, err := s.stats.MapWinners(ctx, match.ID)
	if err != nil {
		return fmt.Errorf("failed to load map winners: %w", err)
	}
	var team1Score, team2Score int
	for _, id := range winners {
		switch id {
		case match.Team1ID:
			team1Score++
		case match.Team2ID:
			team2Score++
		}
	}
	return s.matches.SetSeriesScore(ctx, match.ID, team1Score, team2Score)
}

// SeriesFinished finalizes the match and frees its server in one
// transaction. No endmatch command is sent: the server reported the
// finish itself.
func (s *StatsService) SeriesFinished(ctx context.Context, match *game.Match, winner string, forfeit bool) error {
	if match.Finalized() {
		return ErrMatchFinalized
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	winnerID := s.resolveWinner(match, winner)
	if err := s.matches.FinishMatch(ctx, tx, match.ID, time.Now().UTC(), winnerID, forfeit); err != nil {
		return fmt.Errorf("failed to finish match: %w", err)
	}
	if match.ServerID != nil {
		if err := s.servers.ReleaseTx(ctx, tx, *match.ServerID); err != nil {
			return fmt.Errorf("failed to release server: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("match finished", "match", match.ID, "winner", winner, "forfeit", forfeit)
	return nil
}

// UpdatePlayerStats upserts one player's cumulative line on one map.
// A map holds at most MaxPlayersPerMap distinct players.
func (s *StatsService) UpdatePlayerStats(ctx context.Context, match *game.Match, mapNumber int, stats *game.PlayerStats) error {
	if match.Finalized() {
		return ErrMatchFinalized
	}
	mapStats, err := s.mapStatsFor(ctx, match, mapNumber, "")
	if err != nil {
		return err
	}

	_, err = s.stats.GetPlayerStats(ctx, mapStats.ID, stats.SteamID)
	if errors.Is(err, sql.ErrNoRows) {
		n, countErr := s.stats.CountPlayersOnMap(ctx, mapStats.ID)
		if countErr != nil {
			return countErr
		}
		if n >= game.MaxPlayersPerMap {
			return ErrMapCapacity
		}
	} else if err != nil {
		return err
	}

	stats.ID = uuid.New()
	stats.MatchID = match.ID
	stats.MapID = mapStats.ID
	return s.stats.UpsertPlayerStats(ctx, stats)
}

func (s *StatsService) resolveWinner(match *game.Match, winner string) *uuid.UUID {
	switch winner {
	case "team1":
		return utils.Ptr(match.Team1ID)
	case "team2":
		return utils.Ptr(match.Team2ID)
	default:
		return nil
	}
}
