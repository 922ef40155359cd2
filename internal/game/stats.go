package game

import (
	"time"

	"github.com/google/uuid"
)

// MaxPlayersPerMap caps player_stats rows per map.
const MaxPlayersPerMap = 40

// MapStats is the per-map record within a series, one row per
// (match, map_number).
type MapStats struct {
	ID         uuid.UUID  `db:"id"`
	MatchID    uuid.UUID  `db:"match_id"`
	MapNumber  int        `db:"map_number"`
	MapName    string     `db:"map_name"`
	StartTime  *time.Time `db:"start_time"`
	EndTime    *time.Time `db:"end_time"`
	WinnerID   *uuid.UUID `db:"winner_id"`
	Team1Score int        `db:"team1_score"`
	Team2Score int        `db:"team2_score"`
}

// PlayerStats holds cumulative combat statistics for one player on one
// map.
type PlayerStats struct {
	ID              uuid.UUID  `db:"id"`
	MatchID         uuid.UUID  `db:"match_id"`
	MapID           uuid.UUID  `db:"map_id"`
	TeamID          *uuid.UUID `db:"team_id"`
	SteamID         string     `db:"steam_id"`
	Name            string     `db:"name"`
	Kills           int        `db:"kills"`
	Deaths          int        `db:"deaths"`
	RoundsPlayed    int        `db:"roundsplayed"`
	Assists         int        `db:"assists"`
	FlashbangAssist int        `db:"flashbang_assists"`
	TeamKills       int        `db:"teamkills"`
	Suicides        int        `db:"suicides"`
	HeadshotKills   int        `db:"headshot_kills"`
	Damage          int        `db:"damage"`
	BombPlants      int        `db:"bomb_plants"`
	BombDefuses     int        `db:"bomb_defuses"`
	V1              int        `db:"v1"`
	V2              int        `db:"v2"`
	V3              int        `db:"v3"`
	V4              int        `db:"v4"`
	V5              int        `db:"v5"`
	K1              int        `db:"k1"`
	K2              int        `db:"k2"`
	K3              int        `db:"k3"`
	K4              int        `db:"k4"`
	K5              int        `db:"k5"`
	FirstKillT      int        `db:"firstkill_t"`
	FirstKillCT     int        `db:"firstkill_ct"`
	FirstDeathT     int        `db:"firstdeath_t"`
	FirstDeathCT    int        `db:"firstdeath_ct"`
}

// Baselines for the HLTV-style rating.
const (
	averageKPR = 0.679
	averageSPR = 0.317
	averageRMK = 1.277
)

// Rating weighs kill rate, survival rate and multi-kill rounds against
// the fixed baselines.
func (p *PlayerStats) Rating() float64 {
	if p.RoundsPlayed == 0 {
		return 0
	}
	rounds := float64(p.RoundsPlayed)
	killRating := float64(p.Kills) / rounds / averageKPR
	survivalRating := float64(p.RoundsPlayed-p.Deaths) / rounds / averageSPR
	killCount := float64(p.K1 + 4*p.K2 + 9*p.K3 + 16*p.K4 + 25*p.K5)
	multiKillRating := killCount / rounds / averageRMK
	return (killRating + 0.7*survivalRating + multiKillRating) / 2.7
}

// KDR is the kill/death ratio; a deathless map counts kills as the ratio.
func (p *PlayerStats) KDR() float64 {
	if p.Deaths == 0 {
		return float64(p.Kills)
	}
	return float64(p.Kills) / float64(p.Deaths)
}

// HSP is the fraction of kills that were headshots.
func (p *PlayerStats) HSP() float64 {
	if p.Kills == 0 {
		return 0
	}
	return float64(p.HeadshotKills) / float64(p.Kills)
}

// ADR is average damage per round.
func (p *PlayerStats) ADR() float64 {
	if p.RoundsPlayed == 0 {
		return 0
	}
	return float64(p.Damage) / float64(p.RoundsPlayed)
}

// FPR is frags per round.
func (p *PlayerStats) FPR() float64 {
	if p.RoundsPlayed == 0 {
		return 0
	}
	return float64(p.Kills) / float64(p.RoundsPlayed)
}
