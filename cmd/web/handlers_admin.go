package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Monzyy/get5-web/internal/game"
	"github.com/Monzyy/get5-web/internal/httputil"
	"github.com/Monzyy/get5-web/internal/middleware"
	users "github.com/Monzyy/get5-web/internal/user"
	"github.com/google/uuid"
)

type serverRequest struct {
	DisplayName  string `json:"display_name"`
	IPString     string `json:"ip_string"`
	Port         int    `json:"port"`
	RconPassword string `json:"rcon_password"`
	PublicServer bool   `json:"public_server"`
}

func (h *handlers) serverList(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAuthenticatedUser(r.Context())
	if user == nil {
		httputil.Forbidden(w, "Not logged in")
		return
	}
	servers, err := h.servers.ListServersFor(r.Context(), user.ID)
	if err != nil {
		httputil.InternalServerError(w, "Failed to list servers", err)
		return
	}

	// Passwords stay server side.
	out := make([]map[string]any, 0, len(servers))
	for _, s := range servers {
		out = append(out, map[string]any{
			"id":            s.ID,
			"display_name":  s.Display(),
			"ip_string":     s.IPString,
			"port":          s.Port,
			"in_use":        s.InUse,
			"public_server": s.PublicServer,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *handlers) serverCreate(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAuthenticatedUser(r.Context())
	if user == nil {
		httputil.Forbidden(w, "Not logged in")
		return
	}
	var req serverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "Invalid request body", err)
		return
	}
	if req.IPString == "" || req.Port == 0 || req.RconPassword == "" {
		httputil.BadRequest(w, "ip_string, port and rcon_password are required", nil)
		return
	}

	server := &game.GameServer{
		ID:           uuid.New(),
		UserID:       user.ID,
		DisplayName:  req.DisplayName,
		IPString:     req.IPString,
		Port:         req.Port,
		RconPassword: req.RconPassword,
		PublicServer: req.PublicServer && user.Admin,
	}
	if err := h.servers.CreateServer(r.Context(), server); err != nil {
		httputil.InternalServerError(w, "Failed to create server", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"server_id": server.ID})
}

func (h *handlers) serverUpdate(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAuthenticatedUser(r.Context())
	if user == nil {
		httputil.Forbidden(w, "Not logged in")
		return
	}
	serverID, ok := urlParamID(w, r, "serverID")
	if !ok {
		return
	}
	server, err := h.servers.GetServer(r.Context(), serverID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if server.UserID != user.ID && !user.Admin {
		httputil.Forbidden(w, "Not your server")
		return
	}

	var req serverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "Invalid request body", err)
		return
	}
	server.DisplayName = req.DisplayName
	server.IPString = req.IPString
	server.Port = req.Port
	if req.RconPassword != "" {
		server.RconPassword = req.RconPassword
	}
	if user.Admin {
		server.PublicServer = req.PublicServer
	}
	if err := h.servers.UpdateServer(r.Context(), server); err != nil {
		httputil.InternalServerError(w, "Failed to update server", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) serverDelete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAuthenticatedUser(r.Context())
	if user == nil {
		httputil.Forbidden(w, "Not logged in")
		return
	}
	serverID, ok := urlParamID(w, r, "serverID")
	if !ok {
		return
	}
	server, err := h.servers.GetServer(r.Context(), serverID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if server.UserID != user.ID && !user.Admin {
		httputil.Forbidden(w, "Not your server")
		return
	}

	active, err := h.matches.ActiveMatchOnServer(r.Context(), serverID)
	if err != nil {
		httputil.InternalServerError(w, "Failed to check server matches", err)
		return
	}
	if active != nil {
		httputil.Conflict(w, "Server has an active match")
		return
	}

	if err := h.servers.DeleteServer(r.Context(), serverID); err != nil {
		httputil.InternalServerError(w, "Failed to delete server", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type teamRequest struct {
	Name       string   `json:"name"`
	Tag        string   `json:"tag"`
	Flag       string   `json:"flag"`
	Logo       string   `json:"logo"`
	PublicTeam bool     `json:"public_team"`
	Auths      []string `json:"auths"`
}

func (h *handlers) teamList(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAuthenticatedUser(r.Context())
	if user == nil {
		httputil.Forbidden(w, "Not logged in")
		return
	}
	teams, err := h.teams.ListTeamsFor(r.Context(), user.ID)
	if err != nil {
		httputil.InternalServerError(w, "Failed to list teams", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, teams)
}

func (h *handlers) teamCreate(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAuthenticatedUser(r.Context())
	if user == nil {
		httputil.Forbidden(w, "Not logged in")
		return
	}
	var req teamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		httputil.BadRequest(w, "Team name is required", nil)
		return
	}
	if len(req.Auths) > game.MaxPlayers {
		httputil.BadRequest(w, "A team holds at most 7 players", nil)
		return
	}

	team := &game.Team{
		ID:         uuid.New(),
		UserID:     user.ID,
		Name:       req.Name,
		Tag:        req.Tag,
		Flag:       req.Flag,
		Logo:       req.Logo,
		PublicTeam: req.PublicTeam && user.Admin,
		Auths:      req.Auths,
	}
	if err := h.teams.CreateTeam(r.Context(), team); err != nil {
		httputil.InternalServerError(w, "Failed to create team", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"team_id": team.ID})
}

func (h *handlers) teamUpdate(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAuthenticatedUser(r.Context())
	if user == nil {
		httputil.Forbidden(w, "Not logged in")
		return
	}
	teamID, ok := urlParamID(w, r, "teamID")
	if !ok {
		return
	}
	team, err := h.teams.GetTeam(r.Context(), teamID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if team.UserID != user.ID && !user.Admin {
		httputil.Forbidden(w, "Not your team")
		return
	}

	var req teamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "Invalid request body", err)
		return
	}
	if len(req.Auths) > game.MaxPlayers {
		httputil.BadRequest(w, "A team holds at most 7 players", nil)
		return
	}
	team.Name = req.Name
	team.Tag = req.Tag
	team.Flag = req.Flag
	team.Logo = req.Logo
	team.Auths = req.Auths
	if user.Admin {
		team.PublicTeam = req.PublicTeam
	}
	if err := h.teams.UpdateTeam(r.Context(), team); err != nil {
		httputil.InternalServerError(w, "Failed to update team", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) teamDelete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAuthenticatedUser(r.Context())
	if user == nil {
		httputil.Forbidden(w, "Not logged in")
		return
	}
	teamID, ok := urlParamID(w, r, "teamID")
	if !ok {
		return
	}
	team, err := h.teams.GetTeam(r.Context(), teamID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if team.UserID != user.ID && !user.Admin {
		httputil.Forbidden(w, "Not your team")
		return
	}

	n, err := h.teams.CountActiveMatches(r.Context(), teamID)
	if err != nil {
		httputil.InternalServerError(w, "Failed to check team matches", err)
		return
	}
	if n > 0 {
		httputil.Conflict(w, "Team is playing a live match")
		return
	}

	if err := h.teams.DeleteTeam(r.Context(), teamID); err != nil {
		httputil.InternalServerError(w, "Failed to delete team", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type tournamentRequest struct {
	Name      string      `json:"name"`
	Maps      []string    `json:"maps"`
	ServerIDs []uuid.UUID `json:"server_ids"`
	TeamIDs   []uuid.UUID `json:"team_ids"`
}

func (h *handlers) tournamentCreate(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAuthenticatedUser(r.Context())
	if user == nil {
		httputil.Forbidden(w, "Not logged in")
		return
	}
	var req tournamentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		httputil.BadRequest(w, "Tournament name is required", nil)
		return
	}
	maps := req.Maps
	if len(maps) == 0 {
		maps = h.cfg.DefaultMapPool
	}

	tournament := &game.Tournament{
		ID:          uuid.New(),
		UserID:      user.ID,
		Name:        req.Name,
		VetoMappool: maps,
	}
	if err := h.tournaments.CreateTournament(r.Context(), tournament, req.ServerIDs, req.TeamIDs); err != nil {
		httputil.InternalServerError(w, "Failed to create tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"tournament_id": tournament.ID})
}

func (h *handlers) tournamentList(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.tournaments.ListTournaments(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to list tournaments", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tournaments)
}

func (h *handlers) tournamentGet(w http.ResponseWriter, r *http.Request) {
	tournamentID, ok := urlParamID(w, r, "tournamentID")
	if !ok {
		return
	}
	tournament, err := h.tournaments.GetTournament(r.Context(), tournamentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	teams, err := h.tournaments.ListTeams(r.Context(), tournamentID)
	if err != nil {
		httputil.InternalServerError(w, "Failed to list tournament teams", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"tournament": tournament,
		"teams":      teams,
	})
}

// tournamentAddServers grows the pool of an existing tournament. Only
// servers the caller may use can be added.
func (h *handlers) tournamentAddServers(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAuthenticatedUser(r.Context())
	if user == nil {
		httputil.Forbidden(w, "Not logged in")
		return
	}
	tournamentID, ok := urlParamID(w, r, "tournamentID")
	if !ok {
		return
	}
	tournament, err := h.tournaments.GetTournament(r.Context(), tournamentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !h.canManage(user, tournament.UserID) {
		httputil.Forbidden(w, "Not your tournament")
		return
	}

	var req struct {
		ServerIDs []uuid.UUID `json:"server_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.ServerIDs) == 0 {
		httputil.BadRequest(w, "Missing server_ids", err)
		return
	}

	for _, serverID := range req.ServerIDs {
		server, err := h.servers.GetServer(r.Context(), serverID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if !server.PublicServer && server.UserID != user.ID && !user.Admin {
			httputil.Forbidden(w, "Not your server")
			return
		}
		if err := h.tournaments.AddServer(r.Context(), tournamentID, serverID); err != nil {
			httputil.InternalServerError(w, "Failed to add server", err)
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// tournamentStart stamps the start time; starting twice leaves the
// original stamp.
func (h *handlers) tournamentStart(w http.ResponseWriter, r *http.Request) {
	h.tournamentAction(w, r, "Failed to start tournament", func(ctx context.Context, id uuid.UUID) error {
		return h.tournaments.StartTournament(ctx, id, time.Now().UTC())
	})
}

func (h *handlers) tournamentFinish(w http.ResponseWriter, r *http.Request) {
	h.tournamentAction(w, r, "Failed to finish tournament", func(ctx context.Context, id uuid.UUID) error {
		return h.tournaments.FinishTournament(ctx, id, time.Now().UTC())
	})
}

func (h *handlers) tournamentCancel(w http.ResponseWriter, r *http.Request) {
	h.tournamentAction(w, r, "Failed to cancel tournament", h.tournaments.CancelTournament)
}

// tournamentAction runs a lifecycle update after the ownership check.
func (h *handlers) tournamentAction(w http.ResponseWriter, r *http.Request, failMsg string, fn func(context.Context, uuid.UUID) error) {
	user := middleware.GetAuthenticatedUser(r.Context())
	if user == nil {
		httputil.Forbidden(w, "Not logged in")
		return
	}
	tournamentID, ok := urlParamID(w, r, "tournamentID")
	if !ok {
		return
	}
	tournament, err := h.tournaments.GetTournament(r.Context(), tournamentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !h.canManage(user, tournament.UserID) {
		httputil.Forbidden(w, "Not your tournament")
		return
	}

	if err := fn(r.Context(), tournamentID); err != nil {
		httputil.InternalServerError(w, failMsg, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) canManage(user *users.User, ownerID uuid.UUID) bool {
	if user.ID == ownerID {
		return true
	}
	return user.Admin && h.cfg.AdminsAccessAllMatches
}
