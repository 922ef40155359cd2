package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Monzyy/get5-web/internal/httputil"
	"github.com/Monzyy/get5-web/internal/middleware"
	"github.com/Monzyy/get5-web/internal/service"
	users "github.com/Monzyy/get5-web/internal/user"
	"github.com/google/uuid"
)

type createMatchRequest struct {
	ServerID     *uuid.UUID `json:"server_id"`
	TournamentID *uuid.UUID `json:"tournament_id"`
	Team1ID      uuid.UUID  `json:"team1_id"`
	Team2ID      uuid.UUID  `json:"team2_id"`
	Team1String  string     `json:"team1_string"`
	Team2String  string     `json:"team2_string"`
	MaxMaps      int        `json:"max_maps"`
	Title        string     `json:"title"`
	SkipVeto     bool       `json:"skip_veto"`
	VetoMappool  []string   `json:"veto_mappool"`
}

func (h *handlers) matchCreate(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAuthenticatedUser(r.Context())
	if user == nil {
		httputil.Forbidden(w, "Not logged in")
		return
	}

	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "Invalid request body", err)
		return
	}

	match, err := h.matchSvc.Create(r.Context(), user, service.CreateMatchParams{
		ServerID:     req.ServerID,
		TournamentID: req.TournamentID,
		Team1ID:      req.Team1ID,
		Team2ID:      req.Team2ID,
		Team1String:  req.Team1String,
		Team2String:  req.Team2String,
		MaxMaps:      req.MaxMaps,
		Title:        req.Title,
		SkipVeto:     req.SkipVeto,
		VetoMappool:  req.VetoMappool,
	})

	// The match exists even when the config push failed; report both.
	var pushErr *service.ConfigPushError
	if errors.As(err, &pushErr) {
		httputil.WriteJSON(w, http.StatusCreated, map[string]any{
			"match_id": match.ID,
			"warning":  pushErr.Error(),
		})
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"match_id": match.ID})
}

// matchList returns the caller's matches, newest first.
func (h *handlers) matchList(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.Forbidden(w, "Not logged in")
		return
	}
	matches, err := h.matches.ListMatchesFor(r.Context(), userID)
	if err != nil {
		httputil.InternalServerError(w, "Failed to list matches", err)
		return
	}

	out := make([]map[string]any, 0, len(matches))
	for i := range matches {
		m := &matches[i]
		out = append(out, map[string]any{
			"id":          m.ID,
			"status":      m.StatusString(),
			"series":      m.SeriesFormat(),
			"team1_id":    m.Team1ID,
			"team2_id":    m.Team2ID,
			"team1_score": m.Team1Score,
			"team2_score": m.Team2Score,
			"winner_id":   m.WinnerID,
			"title":       m.Title,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *handlers) matchGet(w http.ResponseWriter, r *http.Request) {
	matchID, ok := urlParamID(w, r, "matchID")
	if !ok {
		return
	}
	match, err := h.matches.GetMatch(r.Context(), matchID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"id":             match.ID,
		"status":         match.StatusString(),
		"series":         match.SeriesFormat(),
		"team1_id":       match.Team1ID,
		"team2_id":       match.Team2ID,
		"team1_score":    match.Team1Score,
		"team2_score":    match.Team2Score,
		"server_id":      match.ServerID,
		"winner_id":      match.WinnerID,
		"forfeit":        match.Forfeit,
		"title":          match.Title,
		"plugin_version": match.PluginVersion,
		"final_mappool":  match.FinalMappool(),
	})
}

func (h *handlers) matchConfig(w http.ResponseWriter, r *http.Request) {
	matchID, ok := urlParamID(w, r, "matchID")
	if !ok {
		return
	}
	cfg, err := h.matchSvc.Config(r.Context(), matchID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

func (h *handlers) matchStart(w http.ResponseWriter, r *http.Request) {
	h.matchAction(w, r, h.matchSvc.Start)
}

func (h *handlers) matchCancel(w http.ResponseWriter, r *http.Request) {
	h.matchAction(w, r, h.matchSvc.Cancel)
}

func (h *handlers) matchPause(w http.ResponseWriter, r *http.Request) {
	h.matchAction(w, r, h.matchSvc.Pause)
}

func (h *handlers) matchUnpause(w http.ResponseWriter, r *http.Request) {
	h.matchAction(w, r, h.matchSvc.Unpause)
}

func (h *handlers) matchRcon(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAuthenticatedUser(r.Context())
	if user == nil {
		httputil.Forbidden(w, "Not logged in")
		return
	}
	matchID, ok := urlParamID(w, r, "matchID")
	if !ok {
		return
	}

	var req struct {
		Command string `json:"command"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Command == "" {
		httputil.BadRequest(w, "Missing command", err)
		return
	}

	response, err := h.matchSvc.SendRcon(r.Context(), user, matchID, req.Command)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"response": response})
}

func (h *handlers) matchAddUser(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAuthenticatedUser(r.Context())
	if user == nil {
		httputil.Forbidden(w, "Not logged in")
		return
	}
	matchID, ok := urlParamID(w, r, "matchID")
	if !ok {
		return
	}

	var req struct {
		Team string `json:"team"`
		Auth string `json:"auth"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "Invalid request body", err)
		return
	}

	response, err := h.matchSvc.AddPlayer(r.Context(), user, matchID, req.Team, req.Auth)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"response": response})
}

func (h *handlers) matchListBackups(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAuthenticatedUser(r.Context())
	if user == nil {
		httputil.Forbidden(w, "Not logged in")
		return
	}
	matchID, ok := urlParamID(w, r, "matchID")
	if !ok {
		return
	}

	response, err := h.matchSvc.ListBackups(r.Context(), user, matchID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"backups": response})
}

func (h *handlers) matchRestoreBackup(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAuthenticatedUser(r.Context())
	if user == nil {
		httputil.Forbidden(w, "Not logged in")
		return
	}
	matchID, ok := urlParamID(w, r, "matchID")
	if !ok {
		return
	}

	var req struct {
		File string `json:"file"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "Invalid request body", err)
		return
	}

	response, err := h.matchSvc.RestoreBackup(r.Context(), user, matchID, req.File)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"response": response})
}

// matchAction runs one of the lifecycle transitions that take no body.
func (h *handlers) matchAction(w http.ResponseWriter, r *http.Request,
	action func(context.Context, *users.User, uuid.UUID) error) {
	user := middleware.GetAuthenticatedUser(r.Context())
	if user == nil {
		httputil.Forbidden(w, "Not logged in")
		return
	}
	matchID, ok := urlParamID(w, r, "matchID")
	if !ok {
		return
	}

	if err := action(r.Context(), user, matchID); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) vetoAction(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAuthenticatedUser(r.Context())
	if user == nil {
		httputil.Forbidden(w, "Not logged in")
		return
	}
	matchID, ok := urlParamID(w, r, "matchID")
	if !ok {
		return
	}

	var req struct {
		Map string `json:"map"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Map == "" {
		httputil.BadRequest(w, "Missing map", err)
		return
	}

	if err := h.vetoSvc.Act(r.Context(), user, matchID, req.Map); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) vetoRefresh(w http.ResponseWriter, r *http.Request) {
	matchID, ok := urlParamID(w, r, "matchID")
	if !ok {
		return
	}
	since, _ := strconv.Atoi(r.URL.Query().Get("progress_count"))

	snap, err := h.vetoSvc.Refresh(r.Context(), matchID, since)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snap)
}
