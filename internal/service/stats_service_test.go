package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/Monzyy/get5-web/internal/game"
	users "github.com/Monzyy/get5-web/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// liveMatch creates a started bo3 with a reserved server.
func liveMatch(t *testing.T, f *fixture, owner *users.User) *game.Match {
	t.Helper()

	ctx := context.Background()
	server := f.createServer(t, owner.ID)
	team1 := f.createTeam(t, owner.ID, "Astralis")
	team2 := f.createTeam(t, owner.ID, "NiP")

	match, err := f.matchSvc.Create(ctx, owner, CreateMatchParams{
		ServerID:    &server.ID,
		Team1ID:     team1.ID,
		Team2ID:     team2.ID,
		MaxMaps:     3,
		SkipVeto:    true,
		VetoMappool: []string{"de_dust2", "de_mirage", "de_inferno"},
	})
	require.NoError(t, err)
	require.NoError(t, f.matchSvc.Start(ctx, owner, match.ID))

	match, err = f.matches.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	return match
}

func TestMatchByAPIKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "76561197990682262", false)
	match := liveMatch(t, f, owner)

	got, err := f.statsSvc.MatchByAPIKey(ctx, match.ID, match.APIKey)
	require.NoError(t, err)
	assert.Equal(t, match.ID, got.ID)

	_, err = f.statsSvc.MatchByAPIKey(ctx, match.ID, "WRONGKEY")
	assert.Error(t, err)
	_, err = f.statsSvc.MatchByAPIKey(ctx, match.ID, "")
	assert.Error(t, err)
}

func TestMapFinishedRecomputesSeriesScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "76561197990682262", false)
	match := liveMatch(t, f, owner)

	_, err := f.statsSvc.MapStarting(ctx, match, 0, "de_dust2")
	require.NoError(t, err)
	require.NoError(t, f.statsSvc.MapFinished(ctx, match, 0, "team1"))

	got, err := f.matches.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Team1Score)
	assert.Equal(t, 0, got.Team2Score)

	// A replayed delivery must not double-count.
	require.NoError(t, f.statsSvc.MapFinished(ctx, match, 0, "team1"))
	got, err = f.matches.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Team1Score)

	require.NoError(t, f.statsSvc.MapFinished(ctx, match, 1, "team2"))
	got, err = f.matches.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Team1Score)
	assert.Equal(t, 1, got.Team2Score)
}

func TestUpdateMapScoreLastWriteWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "76561197990682262", false)
	match := liveMatch(t, f, owner)

	require.NoError(t, f.statsSvc.UpdateMapScore(ctx, match, 0, 5, 3))
	require.NoError(t, f.statsSvc.UpdateMapScore(ctx, match, 0, 7, 8))

	maps, err := f.stats.ListMapStats(ctx, match.ID)
	require.NoError(t, err)
	require.Len(t, maps, 1)
	assert.Equal(t, 7, maps[0].Team1Score)
	assert.Equal(t, 8, maps[0].Team2Score)
}

func TestSeriesFinishedReleasesServer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "76561197990682262", false)
	match := liveMatch(t, f, owner)

	require.NoError(t, f.statsSvc.SeriesFinished(ctx, match, "team2", false))

	got, err := f.matches.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.True(t, got.Finished())
	require.NotNil(t, got.WinnerID)
	assert.Equal(t, match.Team2ID, *got.WinnerID)

	server, err := f.servers.GetServer(ctx, *match.ServerID)
	require.NoError(t, err)
	assert.False(t, server.InUse, "finishing the series must free the server")

	// Further callbacks against the finalized match are rejected.
	assert.ErrorIs(t, f.statsSvc.SeriesFinished(ctx, got, "team1", false), ErrMatchFinalized)
	assert.ErrorIs(t, f.statsSvc.MapFinished(ctx, got, 2, "team1"), ErrMatchFinalized)
	_, err = f.statsSvc.MapStarting(ctx, got, 2, "de_inferno")
	assert.ErrorIs(t, err, ErrMatchFinalized)
}

func TestCallbacksRejectMapNumbersOutsideSeries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "76561197990682262", false)
	match := liveMatch(t, f, owner)

	_, err := f.statsSvc.MapStarting(ctx, match, 3, "de_nuke")
	assert.ErrorIs(t, err, ErrMapOutOfRange, "a bo3 has map numbers 0..2")
	_, err = f.statsSvc.MapStarting(ctx, match, -1, "de_nuke")
	assert.ErrorIs(t, err, ErrMapOutOfRange)

	// Every callback path is bounded, not just map start.
	assert.ErrorIs(t, f.statsSvc.UpdateMapScore(ctx, match, 99, 5, 3), ErrMapOutOfRange)
	assert.ErrorIs(t, f.statsSvc.MapFinished(ctx, match, -1, "team1"), ErrMapOutOfRange)
	line := &game.PlayerStats{SteamID: "76561197960435530", Name: "stray"}
	assert.ErrorIs(t, f.statsSvc.UpdatePlayerStats(ctx, match, 3, line), ErrMapOutOfRange)

	maps, err := f.stats.ListMapStats(ctx, match.ID)
	require.NoError(t, err)
	assert.Empty(t, maps, "rejected callbacks must not leave map rows behind")
}

func TestMapNameBackfilledWhenStartArrivesLate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "76561197990682262", false)
	match := liveMatch(t, f, owner)

	// A score update beats the map-start callback and creates the row
	// without a name.
	require.NoError(t, f.statsSvc.UpdateMapScore(ctx, match, 0, 3, 1))

	mapStats, err := f.statsSvc.MapStarting(ctx, match, 0, "de_dust2")
	require.NoError(t, err)
	assert.Equal(t, "de_dust2", mapStats.MapName)

	maps, err := f.stats.ListMapStats(ctx, match.ID)
	require.NoError(t, err)
	require.Len(t, maps, 1)
	assert.Equal(t, "de_dust2", maps[0].MapName)
	assert.Equal(t, 3, maps[0].Team1Score, "backfilling the name keeps the score")
}

func TestUpdatePlayerStatsCapsMapAtFortyPlayers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "76561197990682262", false)
	match := liveMatch(t, f, owner)

	for i := 0; i < game.MaxPlayersPerMap; i++ {
		line := &game.PlayerStats{
			SteamID: fmt.Sprintf("765611979906%05d", i),
			Name:    fmt.Sprintf("player%d", i),
			Kills:   i,
		}
		require.NoError(t, f.statsSvc.UpdatePlayerStats(ctx, match, 0, line))
	}

	extra := &game.PlayerStats{SteamID: "76561197960435530", Name: "one too many"}
	assert.ErrorIs(t, f.statsSvc.UpdatePlayerStats(ctx, match, 0, extra), ErrMapCapacity)

	// Updating an existing player is not bounded by the cap.
	update := &game.PlayerStats{SteamID: "76561197990600007", Name: "player7", Kills: 30}
	assert.NoError(t, f.statsSvc.UpdatePlayerStats(ctx, match, 0, update))
}
