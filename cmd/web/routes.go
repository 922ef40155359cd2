package main

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/Monzyy/get5-web/internal/config"
	"github.com/Monzyy/get5-web/internal/httputil"
	"github.com/Monzyy/get5-web/internal/middleware"
	"github.com/Monzyy/get5-web/internal/rcon"
	"github.com/Monzyy/get5-web/internal/service"
	"github.com/Monzyy/get5-web/internal/store"
	"github.com/Monzyy/get5-web/internal/veto"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// handlers carries the wired services into the route closures.
type handlers struct {
	cfg         config.Config
	sessions    *scs.SessionManager
	users       *store.UserStore
	servers     *store.ServerStore
	teams       *store.TeamStore
	matches     *store.MatchStore
	tournaments *store.TournamentStore
	reservation *service.ReservationService
	matchSvc    *service.MatchService
	statsSvc    *service.StatsService
	vetoSvc     *service.VetoService
}

func newRouter(cfg config.Config, database *sqlx.DB, sessionManager *scs.SessionManager) http.Handler {
	userStore := store.NewUserStore(database)
	serverStore := store.NewServerStore(database)
	teamStore := store.NewTeamStore(database)
	matchStore := store.NewMatchStore(database)
	statsStore := store.NewStatsStore(database)
	tournamentStore := store.NewTournamentStore(database)

	var rc service.Rcon = rcon.NewClient()
	if cfg.MockRcon {
		rc = service.MockRcon{}
	}
	reservation := service.NewReservationService(serverStore, matchStore, rc)

	h := &handlers{
		cfg:         cfg,
		sessions:    sessionManager,
		users:       userStore,
		servers:     serverStore,
		teams:       teamStore,
		matches:     matchStore,
		tournaments: tournamentStore,
		reservation: reservation,
		matchSvc:    service.NewMatchService(database, cfg, matchStore, serverStore, teamStore, tournamentStore, reservation, rc),
		statsSvc:    service.NewStatsService(database, matchStore, serverStore, statsStore),
		vetoSvc:     service.NewVetoService(matchStore, teamStore),
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(sessionManager.LoadAndSave)

	r.Get("/login", h.login)
	r.Get("/auth/steam/callback", h.authCallback)
	r.Get("/logout", h.logout)

	// The game server authenticates with the per-match API key, not a
	// session; the config document is fetched by match id alone.
	r.Get("/match/{matchID}/config", h.matchConfig)
	r.Route("/api/match/{matchID}", func(r chi.Router) {
		r.Post("/finish", h.apiSeriesFinish)
		r.Post("/map/{mapNumber}/start", h.apiMapStart)
		r.Post("/map/{mapNumber}/update", h.apiMapUpdate)
		r.Post("/map/{mapNumber}/finish", h.apiMapFinish)
		r.Post("/map/{mapNumber}/player/{steamID}/update", h.apiPlayerUpdate)
	})

	// Spectators poll the veto without logging in.
	r.Get("/veto/{matchID}/refresh", h.vetoRefresh)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(sessionManager, userStore))

		r.Get("/matches", h.matchList)
		r.Post("/match/create", h.matchCreate)
		r.Get("/match/{matchID}", h.matchGet)
		r.Post("/match/{matchID}/start", h.matchStart)
		r.Post("/match/{matchID}/cancel", h.matchCancel)
		r.Post("/match/{matchID}/pause", h.matchPause)
		r.Post("/match/{matchID}/unpause", h.matchUnpause)
		r.Post("/match/{matchID}/rcon", h.matchRcon)
		r.Post("/match/{matchID}/adduser", h.matchAddUser)
		r.Get("/match/{matchID}/backup", h.matchListBackups)
		r.Post("/match/{matchID}/backup", h.matchRestoreBackup)

		r.Post("/veto/{matchID}/action", h.vetoAction)

		r.Get("/servers", h.serverList)
		r.Post("/servers", h.serverCreate)
		r.Put("/servers/{serverID}", h.serverUpdate)
		r.Delete("/servers/{serverID}", h.serverDelete)

		r.Get("/teams", h.teamList)
		r.Post("/teams", h.teamCreate)
		r.Put("/teams/{teamID}", h.teamUpdate)
		r.Delete("/teams/{teamID}", h.teamDelete)

		r.Post("/tournaments", h.tournamentCreate)
		r.Get("/tournaments", h.tournamentList)
		r.Get("/tournaments/{tournamentID}", h.tournamentGet)
		r.Post("/tournaments/{tournamentID}/servers", h.tournamentAddServers)
		r.Post("/tournaments/{tournamentID}/start", h.tournamentStart)
		r.Post("/tournaments/{tournamentID}/finish", h.tournamentFinish)
		r.Post("/tournaments/{tournamentID}/cancel", h.tournamentCancel)
	})

	return r
}

// urlParamID parses a uuid route parameter, writing the 400 itself on
// failure.
func urlParamID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httputil.BadRequest(w, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var availErr *service.AvailabilityError
	var pushErr *service.ConfigPushError

	switch {
	case errors.Is(err, sql.ErrNoRows):
		httputil.NotFound(w, "Not found", err)
	case errors.Is(err, service.ErrNotOwner):
		httputil.Forbidden(w, err.Error())
	case errors.Is(err, store.ErrVetoConflict):
		httputil.Conflict(w, err.Error())
	case errors.As(err, &availErr):
		httputil.Conflict(w, availErr.Reason)
	case errors.As(err, &pushErr):
		httputil.WriteJSON(w, http.StatusBadGateway, map[string]string{"error": pushErr.Error()})
	case errors.Is(err, service.ErrMatchFinalized),
		errors.Is(err, service.ErrAlreadyStarted),
		errors.Is(err, service.ErrNotLive),
		errors.Is(err, service.ErrQuotaExceeded),
		errors.Is(err, service.ErrSameTeams),
		errors.Is(err, service.ErrNoServer),
		errors.Is(err, service.ErrNotYourTurn),
		errors.Is(err, service.ErrMapCapacity),
		errors.Is(err, service.ErrMapOutOfRange),
		errors.Is(err, veto.ErrNoProcess),
		errors.Is(err, veto.ErrComplete),
		errors.Is(err, veto.ErrUnknownMap),
		errors.Is(err, veto.ErrMapTaken),
		errors.Is(err, veto.ErrBadFormat),
		errors.Is(err, veto.ErrPoolTooSmall):
		httputil.BadRequest(w, err.Error(), nil)
	default:
		httputil.InternalServerError(w, "Request failed", err)
	}
}
