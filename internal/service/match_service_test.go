package service

import (
	"context"
	"testing"

	"github.com/Monzyy/get5-web/internal/veto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMatchReservesServer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "76561197990682262", false)
	server := f.createServer(t, owner.ID)
	team1 := f.createTeam(t, owner.ID, "Astralis")
	team2 := f.createTeam(t, owner.ID, "NiP")

	match, err := f.matchSvc.Create(ctx, owner, CreateMatchParams{
		ServerID: &server.ID,
		Team1ID:  team1.ID,
		Team2ID:  team2.ID,
		MaxMaps:  3,
	})
	require.NoError(t, err)
	assert.True(t, match.Pending())
	assert.Len(t, match.APIKey, 24)
	assert.Len(t, match.VetoProcess, len(f.cfg.DefaultMapPool)-1)

	got, err := f.servers.GetServer(ctx, server.ID)
	require.NoError(t, err)
	assert.True(t, got.InUse, "creation must reserve the server")

	active, err := f.matches.ActiveMatchOnServer(ctx, server.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, match.ID, active.ID)
}

func TestCreateMatchServerExclusive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "76561197990682262", false)
	server := f.createServer(t, owner.ID)
	team1 := f.createTeam(t, owner.ID, "Astralis")
	team2 := f.createTeam(t, owner.ID, "NiP")

	params := CreateMatchParams{ServerID: &server.ID, Team1ID: team1.ID, Team2ID: team2.ID, MaxMaps: 1}
	_, err := f.matchSvc.Create(ctx, owner, params)
	require.NoError(t, err)

	_, err = f.matchSvc.Create(ctx, owner, params)
	var availErr *AvailabilityError
	require.ErrorAs(t, err, &availErr, "second match on the same server must be refused")
	assert.Equal(t, "Server is already in use", availErr.Reason)
}

func TestCreateMatchValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "76561197990682262", false)
	team1 := f.createTeam(t, owner.ID, "Astralis")
	team2 := f.createTeam(t, owner.ID, "NiP")

	_, err := f.matchSvc.Create(ctx, owner, CreateMatchParams{Team1ID: team1.ID, Team2ID: team1.ID, MaxMaps: 1})
	assert.ErrorIs(t, err, ErrSameTeams)

	// Bo5 cannot come out of a 3-map pool.
	_, err = f.matchSvc.Create(ctx, owner, CreateMatchParams{
		Team1ID:     team1.ID,
		Team2ID:     team2.ID,
		MaxMaps:     5,
		VetoMappool: []string{"de_dust2", "de_mirage", "de_inferno"},
	})
	assert.ErrorIs(t, err, veto.ErrPoolTooSmall)
}

func TestCreateMatchValidatesFormatWithoutVeto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "76561197990682262", false)
	team1 := f.createTeam(t, owner.ID, "Astralis")
	team2 := f.createTeam(t, owner.ID, "NiP")
	pool := []string{"de_dust2", "de_mirage", "de_inferno"}

	// Skipping the veto does not skip series validation.
	for _, maxMaps := range []int{0, -3, 4} {
		_, err := f.matchSvc.Create(ctx, owner, CreateMatchParams{
			Team1ID:     team1.ID,
			Team2ID:     team2.ID,
			MaxMaps:     maxMaps,
			SkipVeto:    true,
			VetoMappool: f.cfg.DefaultMapPool,
		})
		assert.ErrorIs(t, err, veto.ErrBadFormat, "Bo%d must be rejected", maxMaps)
	}

	_, err := f.matchSvc.Create(ctx, owner, CreateMatchParams{
		Team1ID:     team1.ID,
		Team2ID:     team2.ID,
		MaxMaps:     5,
		SkipVeto:    true,
		VetoMappool: pool,
	})
	assert.ErrorIs(t, err, veto.ErrPoolTooSmall, "a skipped veto still plays the pool in order")

	match, err := f.matchSvc.Create(ctx, owner, CreateMatchParams{
		Team1ID:     team1.ID,
		Team2ID:     team2.ID,
		MaxMaps:     3,
		SkipVeto:    true,
		VetoMappool: pool,
	})
	require.NoError(t, err)
	assert.Empty(t, match.VetoProcess, "a skipped veto stores no process")
}

func TestCreateMatchQuota(t *testing.T) {
	f := newFixture(t)
	f.cfg.UserMaxMatches = 1
	f.matchSvc = NewMatchService(f.db, f.cfg, f.matches, f.servers, f.teams, f.tournaments, f.reservation, MockRcon{})
	ctx := context.Background()

	owner := f.createUser(t, "76561197990682262", false)
	admin := f.createUser(t, "76561197987713664", true)
	team1 := f.createTeam(t, owner.ID, "Astralis")
	team2 := f.createTeam(t, owner.ID, "NiP")

	params := CreateMatchParams{Team1ID: team1.ID, Team2ID: team2.ID, MaxMaps: 1}
	_, err := f.matchSvc.Create(ctx, owner, params)
	require.NoError(t, err)

	_, err = f.matchSvc.Create(ctx, owner, params)
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	_, err = f.matchSvc.Create(ctx, admin, params)
	assert.NoError(t, err, "admins are not subject to the quota")
}

func TestStartStampsStartTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "76561197990682262", false)
	server := f.createServer(t, owner.ID)
	team1 := f.createTeam(t, owner.ID, "Astralis")
	team2 := f.createTeam(t, owner.ID, "NiP")

	match, err := f.matchSvc.Create(ctx, owner, CreateMatchParams{
		ServerID: &server.ID,
		Team1ID:  team1.ID,
		Team2ID:  team2.ID,
		MaxMaps:  1,
		SkipVeto: true,
	})
	require.NoError(t, err)

	require.NoError(t, f.matchSvc.Start(ctx, owner, match.ID))

	got, err := f.matches.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.True(t, got.Live())
	require.NotNil(t, got.StartTime)

	assert.ErrorIs(t, f.matchSvc.Start(ctx, owner, match.ID), ErrAlreadyStarted)
}

func TestCancelReleasesServerAndFinalizes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "76561197990682262", false)
	stranger := f.createUser(t, "76561197960435530", false)
	server := f.createServer(t, owner.ID)
	team1 := f.createTeam(t, owner.ID, "Astralis")
	team2 := f.createTeam(t, owner.ID, "NiP")

	match, err := f.matchSvc.Create(ctx, owner, CreateMatchParams{
		ServerID: &server.ID,
		Team1ID:  team1.ID,
		Team2ID:  team2.ID,
		MaxMaps:  1,
		SkipVeto: true,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, f.matchSvc.Cancel(ctx, stranger, match.ID), ErrNotOwner)

	require.NoError(t, f.matchSvc.Cancel(ctx, owner, match.ID))

	got, err := f.servers.GetServer(ctx, server.ID)
	require.NoError(t, err)
	assert.False(t, got.InUse, "cancel must free the server")

	// Finalized matches accept no further transitions.
	assert.ErrorIs(t, f.matchSvc.Cancel(ctx, owner, match.ID), ErrMatchFinalized)
	assert.ErrorIs(t, f.matchSvc.Start(ctx, owner, match.ID), ErrMatchFinalized)
	_, err = f.matchSvc.SendRcon(ctx, owner, match.ID, "status")
	assert.ErrorIs(t, err, ErrMatchFinalized)
}

func TestPauseRequiresLiveMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "76561197990682262", false)
	team1 := f.createTeam(t, owner.ID, "Astralis")
	team2 := f.createTeam(t, owner.ID, "NiP")

	match, err := f.matchSvc.Create(ctx, owner, CreateMatchParams{
		Team1ID: team1.ID, Team2ID: team2.ID, MaxMaps: 1, SkipVeto: true,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, f.matchSvc.Pause(ctx, owner, match.ID), ErrNotLive)
}

func TestConfigDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "76561197990682262", false)
	team1 := f.createTeam(t, owner.ID, "Astralis", "76561197990682262")
	team2 := f.createTeam(t, owner.ID, "NiP", "76561197987713664")

	maps := []string{"de_dust2", "de_inferno", "de_train"}
	match, err := f.matchSvc.Create(ctx, owner, CreateMatchParams{
		Team1ID:     team1.ID,
		Team2ID:     team2.ID,
		MaxMaps:     3,
		SkipVeto:    true,
		VetoMappool: maps,
	})
	require.NoError(t, err)

	cfg, err := f.matchSvc.Config(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, match.ID.String(), cfg.MatchID)
	assert.Equal(t, maps, cfg.MapList, "skip_veto serves the raw pool")
	assert.Equal(t, 2, cfg.MapsToWin)
	assert.Equal(t, f.cfg.BaseURL, cfg.Cvars["get5_web_api_url"])
	require.NotNil(t, cfg.Team1)
	assert.Equal(t, []string{"76561197990682262"}, cfg.Team1.Players)
}

func TestStartWithoutServerNeedsTournament(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "76561197990682262", false)
	team1 := f.createTeam(t, owner.ID, "Astralis")
	team2 := f.createTeam(t, owner.ID, "NiP")

	match, err := f.matchSvc.Create(ctx, owner, CreateMatchParams{
		Team1ID: team1.ID, Team2ID: team2.ID, MaxMaps: 1, SkipVeto: true,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, f.matchSvc.Start(ctx, owner, match.ID), ErrNoServer)
}

func TestStartAcquiresTournamentPoolServer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "76561197990682262", false)
	team1 := f.createTeam(t, owner.ID, "Astralis")
	team2 := f.createTeam(t, owner.ID, "NiP")
	poolServer := f.createServer(t, owner.ID)

	tournID := f.createTournament(t, owner.ID, []string{"de_dust2"}, poolServer.ID)

	match, err := f.matchSvc.Create(ctx, owner, CreateMatchParams{
		TournamentID: &tournID,
		Team1ID:      team1.ID,
		Team2ID:      team2.ID,
		MaxMaps:      1,
		SkipVeto:     true,
		VetoMappool:  []string{"de_dust2"},
	})
	require.NoError(t, err)
	require.Nil(t, match.ServerID)

	require.NoError(t, f.matchSvc.Start(ctx, owner, match.ID))

	got, err := f.matches.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.True(t, got.Live())
	require.NotNil(t, got.ServerID)
	assert.Equal(t, poolServer.ID, *got.ServerID)

	srv, err := f.servers.GetServer(ctx, poolServer.ID)
	require.NoError(t, err)
	assert.True(t, srv.InUse)
}
