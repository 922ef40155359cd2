package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Monzyy/get5-web/internal/config"
	"github.com/Monzyy/get5-web/internal/game"
	"github.com/Monzyy/get5-web/internal/steamid"
	"github.com/Monzyy/get5-web/internal/store"
	users "github.com/Monzyy/get5-web/internal/user"
	"github.com/Monzyy/get5-web/internal/veto"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type MatchService struct {
	db          *sqlx.DB
	cfg         config.Config
	matches     *store.MatchStore
	servers     *store.ServerStore
	teams       *store.TeamStore
	tournaments *store.TournamentStore
	reservation *ReservationService
	rcon        Rcon
}

func NewMatchService(db *sqlx.DB, cfg config.Config, matches *store.MatchStore, servers *store.ServerStore,
	teams *store.TeamStore, tournaments *store.TournamentStore, reservation *ReservationService, rc Rcon) *MatchService {
	return &MatchService{
		db:          db,
		cfg:         cfg,
		matches:     matches,
		servers:     servers,
		teams:       teams,
		tournaments: tournaments,
		reservation: reservation,
		rcon:        rc,
	}
}

type CreateMatchParams struct {
	ServerID     *uuid.UUID
	TournamentID *uuid.UUID
	Team1ID      uuid.UUID
	Team2ID      uuid.UUID
	Team1String  string
	Team2String  string
	MaxMaps      int
	Title        string
	SkipVeto     bool
	VetoMappool  []string
}

// canManage gates every mutating operation: the owner always may, an
// admin may when the deployment grants admins access to all matches.
func (s *MatchService) canManage(user *users.User, ownerID uuid.UUID) bool {
	if user.ID == ownerID {
		return true
	}
	return user.Admin && s.cfg.AdminsAccessAllMatches
}

// Create validates the request, seeds the veto, reserves the server and
// pushes the config. A failed push returns the created match together
// with a *ConfigPushError: the match stays pending with the server
// bound, and the operator retries via Start or cancels.
func (s *MatchService) Create(ctx context.Context, owner *users.User, p CreateMatchParams) (*game.Match, error) {
	if p.Team1ID == p.Team2ID {
		return nil, ErrSameTeams
	}
	if !owner.Admin && s.cfg.UserMaxMatches >= 0 {
		n, err := s.matches.CountMatchesFor(ctx, owner.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count matches: %w", err)
		}
		if n >= s.cfg.UserMaxMatches {
			return nil, ErrQuotaExceeded
		}
	}
	if _, err := s.teams.GetTeam(ctx, p.Team1ID); err != nil {
		return nil, fmt.Errorf("failed to get team 1: %w", err)
	}
	if _, err := s.teams.GetTeam(ctx, p.Team2ID); err != nil {
		return nil, fmt.Errorf("failed to get team 2: %w", err)
	}

	pool := p.VetoMappool
	if len(pool) == 0 && p.TournamentID != nil {
		tournament, err := s.tournaments.GetTournament(ctx, *p.TournamentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get tournament: %w", err)
		}
		pool = tournament.VetoMappool
	}
	if len(pool) == 0 {
		pool = s.cfg.DefaultMapPool
	}

	match := &game.Match{
		ID:            uuid.New(),
		UserID:        owner.ID,
		TournamentID:  p.TournamentID,
		Team1ID:       p.Team1ID,
		Team2ID:       p.Team2ID,
		Team1String:   p.Team1String,
		Team2String:   p.Team2String,
		PluginVersion: "unknown",
		MaxMaps:       p.MaxMaps,
		Title:         p.Title,
		SkipVeto:      p.SkipVeto,
		APIKey:        game.NewAPIKey(),
		VetoMappool:   pool,
	}
	// The format and pool are validated even when the veto is skipped:
	// a skipped veto plays the pool in order, which still needs a
	// supported series length and enough maps to fill it.
	process, err := veto.SeriesProcess(p.MaxMaps, len(pool))
	if err != nil {
		return nil, err
	}
	if !p.SkipVeto {
		match.VetoProcess = process
	}

	var server *game.GameServer
	if p.ServerID != nil {
		var err error
		server, err = s.servers.GetServer(ctx, *p.ServerID)
		if err != nil {
			return nil, fmt.Errorf("failed to get server: %w", err)
		}
		if !server.PublicServer && server.UserID != owner.ID && !owner.Admin {
			return nil, ErrNotOwner
		}
		reply, err := s.reservation.CheckAvailability(ctx, server)
		if err != nil {
			return nil, err
		}
		match.PluginVersion = reply.PluginVersion
		match.ServerID = &server.ID
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if server != nil {
		if err := s.reservation.Reserve(ctx, tx, server.ID, match.ID); err != nil {
			return nil, err
		}
	}
	if err := s.matches.CreateMatch(ctx, tx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	slog.Info("match created", "match", match.ID, "owner", owner.SteamID)

	if server != nil {
		if err := s.pushConfig(ctx, server, match); err != nil {
			return match, &ConfigPushError{Err: err}
		}
	}
	return match, nil
}

// Start moves a pending match live. Tournament matches without a bound
// server first acquire one from the tournament pool; matches with a
// bound server are re-probed, so Start also retries a failed initial
// config push.
func (s *MatchService) Start(ctx context.Context, user *users.User, matchID uuid.UUID) error {
	match, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("failed to get match: %w", err)
	}
	if match.Finalized() {
		return ErrMatchFinalized
	}
	if !match.Pending() {
		return ErrAlreadyStarted
	}
	if !s.canManage(user, match.UserID) {
		return ErrNotOwner
	}

	var server *game.GameServer
	pluginVersion := match.PluginVersion
	if match.ServerID != nil {
		server, err = s.servers.GetServer(ctx, *match.ServerID)
		if err != nil {
			return fmt.Errorf("failed to get server: %w", err)
		}
		reply, reason := s.rcon.CheckAvailability(ctx, server.Addr(), server.RconPassword)
		if reply == nil {
			return &AvailabilityError{Reason: reason}
		}
		pluginVersion = reply.PluginVersion
	} else {
		if match.TournamentID == nil {
			return ErrNoServer
		}
		server, pluginVersion, err = s.acquirePoolServer(ctx, *match.TournamentID, match.ID)
		if err != nil {
			return err
		}
	}

	if err := s.pushConfig(ctx, server, match); err != nil {
		return &ConfigPushError{Err: err}
	}
	if err := s.matches.SetStartTime(ctx, match.ID, time.Now().UTC(), pluginVersion); err != nil {
		return fmt.Errorf("failed to set start time: %w", err)
	}
	slog.Info("match started", "match", match.ID, "server", server.Addr())
	return nil
}

// acquirePoolServer probes the tournament's free servers in turn and
// reserves the first one that answers.
func (s *MatchService) acquirePoolServer(ctx context.Context, tournamentID, matchID uuid.UUID) (*game.GameServer, string, error) {
	candidates, err := s.tournaments.FreePoolServers(ctx, tournamentID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list pool servers: %w", err)
	}
	for i := range candidates {
		server := &candidates[i]
		reply, err := s.reservation.CheckAvailability(ctx, server)
		if err != nil {
			continue
		}

		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return nil, "", err
		}
		if err := s.reservation.Reserve(ctx, tx, server.ID, matchID); err != nil {
			tx.Rollback()
			continue
		}
		if err := tx.Commit(); err != nil {
			return nil, "", err
		}
		return server, reply.PluginVersion, nil
	}
	return nil, "", &AvailabilityError{Reason: "No server in the tournament pool is available"}
}

// Cancel finalizes a pending or live match and frees its server. The
// cancelled flag and the reservation release commit together.
func (s *MatchService) Cancel(ctx context.Context, user *users.User, matchID uuid.UUID) error {
	match, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("failed to get match: %w", err)
	}
	if match.Finalized() {
		return ErrMatchFinalized
	}
	if !s.canManage(user, match.UserID) {
		return ErrNotOwner
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.matches.SetCancelledTx(ctx, tx, match.ID); err != nil {
		return fmt.Errorf("failed to cancel match: %w", err)
	}
	if match.ServerID != nil {
		if err := s.servers.ReleaseTx(ctx, tx, *match.ServerID); err != nil {
			return fmt.Errorf("failed to release server: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if match.ServerID != nil {
		server, err := s.servers.GetServer(ctx, *match.ServerID)
		if err == nil {
			if _, err := s.rcon.Exec(ctx, server.Addr(), server.RconPassword, "get5_endmatch"); err != nil {
				slog.Warn("could not send endmatch on cancel", "match", match.ID, "error", err)
			}
		}
	}
	slog.Info("match cancelled", "match", match.ID)
	return nil
}

func (s *MatchService) Pause(ctx context.Context, user *users.User, matchID uuid.UUID) error {
	_, err := s.execLive(ctx, user, matchID, "sm_pause")
	return err
}

func (s *MatchService) Unpause(ctx context.Context, user *users.User, matchID uuid.UUID) error {
	_, err := s.execLive(ctx, user, matchID, "sm_unpause")
	return err
}

// SendRcon runs an arbitrary command on the match's server and returns
// the normalized response.
func (s *MatchService) SendRcon(ctx context.Context, user *users.User, matchID uuid.UUID, command string) (string, error) {
	return s.execLive(ctx, user, matchID, command)
}

// AddPlayer puts an extra player on a live match's roster server-side.
// team is "team1", "team2" or "spec"; auth accepts any steam id form.
func (s *MatchService) AddPlayer(ctx context.Context, user *users.User, matchID uuid.UUID, team, auth string) (string, error) {
	if team != "team1" && team != "team2" && team != "spec" {
		return "", fmt.Errorf("invalid team %q", team)
	}
	steam64, ok := steamid.ToSteam64(auth)
	if !ok {
		return "", fmt.Errorf("invalid steam id %q", auth)
	}
	return s.execLive(ctx, user, matchID, fmt.Sprintf("get5_addplayer %s %s", steam64, team))
}

// ListBackups returns the server's round backup files for the match.
func (s *MatchService) ListBackups(ctx context.Context, user *users.User, matchID uuid.UUID) (string, error) {
	return s.execLive(ctx, user, matchID, fmt.Sprintf("get5_listbackups %s", matchID))
}

// RestoreBackup rolls the live match back to a round backup file.
func (s *MatchService) RestoreBackup(ctx context.Context, user *users.User, matchID uuid.UUID, file string) (string, error) {
	if file == "" || strings.ContainsAny(file, " \t\n;\"") {
		return "", fmt.Errorf("invalid backup file %q", file)
	}
	return s.execLive(ctx, user, matchID, fmt.Sprintf("get5_loadbackup %s", file))
}

// Config builds the document the game server fetches. Authorization is
// the match id itself; the server has no session.
func (s *MatchService) Config(ctx context.Context, matchID uuid.UUID) (*game.MatchConfig, error) {
	match, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	team1, err := s.teams.GetTeam(ctx, match.Team1ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team 1: %w", err)
	}
	team2, err := s.teams.GetTeam(ctx, match.Team2ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team 2: %w", err)
	}
	cfg := game.BuildMatchConfig(match, team1, team2, s.cfg.BaseURL)
	return &cfg, nil
}

func (s *MatchService) execLive(ctx context.Context, user *users.User, matchID uuid.UUID, command string) (string, error) {
	match, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		return "", fmt.Errorf("failed to get match: %w", err)
	}
	if match.Finalized() {
		return "", ErrMatchFinalized
	}
	if !match.Live() {
		return "", ErrNotLive
	}
	if !s.canManage(user, match.UserID) {
		return "", ErrNotOwner
	}
	if match.ServerID == nil {
		return "", ErrNoServer
	}
	server, err := s.servers.GetServer(ctx, *match.ServerID)
	if err != nil {
		return "", fmt.Errorf("failed to get server: %w", err)
	}
	return s.rcon.Exec(ctx, server.Addr(), server.RconPassword, command)
}

// pushConfig points the server at the match config URL and hands it the
// callback key. The game console rejects URLs with a scheme.
func (s *MatchService) pushConfig(ctx context.Context, server *game.GameServer, match *game.Match) error {
	url := fmt.Sprintf("%s/match/%s/config", stripScheme(s.cfg.BaseURL), match.ID)
	if _, err := s.rcon.Exec(ctx, server.Addr(), server.RconPassword,
		fmt.Sprintf("get5_loadmatch_url %q", url)); err != nil {
		return err
	}
	if _, err := s.rcon.Exec(ctx, server.Addr(), server.RconPassword,
		fmt.Sprintf("get5_web_api_key %s", match.APIKey)); err != nil {
		return err
	}
	return nil
}

func stripScheme(url string) string {
	url = strings.TrimPrefix(url, "http://")
	return strings.TrimPrefix(url, "https://")
}
