package main

import (
	"net/http"
	"strconv"

	"github.com/Monzyy/get5-web/internal/game"
	"github.com/Monzyy/get5-web/internal/httputil"
	"github.com/Monzyy/get5-web/internal/utils"
	"github.com/go-chi/chi/v5"
)

// The get5_apistats plugin posts form-encoded callbacks authenticated
// with the per-match key it received at config push.

func (h *handlers) callbackMatch(w http.ResponseWriter, r *http.Request) (*game.Match, bool) {
	matchID, ok := urlParamID(w, r, "matchID")
	if !ok {
		return nil, false
	}
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return nil, false
	}

	match, err := h.statsSvc.MatchByAPIKey(r.Context(), matchID, r.FormValue("key"))
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	return match, true
}

func callbackMapNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "mapNumber"))
	if err != nil {
		httputil.BadRequest(w, "Invalid map number", err)
		return 0, false
	}
	return n, true
}

func (h *handlers) apiSeriesFinish(w http.ResponseWriter, r *http.Request) {
	match, ok := h.callbackMatch(w, r)
	if !ok {
		return
	}
	forfeit := r.FormValue("forfeit") == "1"

	if err := h.statsSvc.SeriesFinished(r.Context(), match, r.FormValue("winner"), forfeit); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *handlers) apiMapStart(w http.ResponseWriter, r *http.Request) {
	match, ok := h.callbackMatch(w, r)
	if !ok {
		return
	}
	mapNumber, ok := callbackMapNumber(w, r)
	if !ok {
		return
	}

	if _, err := h.statsSvc.MapStarting(r.Context(), match, mapNumber, r.FormValue("mapname")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *handlers) apiMapUpdate(w http.ResponseWriter, r *http.Request) {
	match, ok := h.callbackMatch(w, r)
	if !ok {
		return
	}
	mapNumber, ok := callbackMapNumber(w, r)
	if !ok {
		return
	}
	team1Score, _ := strconv.Atoi(r.FormValue("team1score"))
	team2Score, _ := strconv.Atoi(r.FormValue("team2score"))

	if err := h.statsSvc.UpdateMapScore(r.Context(), match, mapNumber, team1Score, team2Score); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *handlers) apiMapFinish(w http.ResponseWriter, r *http.Request) {
	match, ok := h.callbackMatch(w, r)
	if !ok {
		return
	}
	mapNumber, ok := callbackMapNumber(w, r)
	if !ok {
		return
	}

	if err := h.statsSvc.MapFinished(r.Context(), match, mapNumber, r.FormValue("winner")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *handlers) apiPlayerUpdate(w http.ResponseWriter, r *http.Request) {
	match, ok := h.callbackMatch(w, r)
	if !ok {
		return
	}
	mapNumber, ok := callbackMapNumber(w, r)
	if !ok {
		return
	}
	steamID := chi.URLParam(r, "steamID")
	if steamID == "" {
		httputil.BadRequest(w, "Missing steam id", nil)
		return
	}

	formInt := func(name string) int {
		n, _ := strconv.Atoi(r.FormValue(name))
		return n
	}

	line := &game.PlayerStats{
		SteamID:         steamID,
		Name:            r.FormValue("name"),
		Kills:           formInt("kills"),
		Deaths:          formInt("deaths"),
		RoundsPlayed:    formInt("roundsplayed"),
		Assists:         formInt("assists"),
		FlashbangAssist: formInt("flashbang_assists"),
		TeamKills:       formInt("teamkills"),
		Suicides:        formInt("suicides"),
		HeadshotKills:   formInt("headshot_kills"),
		Damage:          formInt("damage"),
		BombPlants:      formInt("bomb_plants"),
		BombDefuses:     formInt("bomb_defuses"),
		V1:              formInt("v1"),
		V2:              formInt("v2"),
		V3:              formInt("v3"),
		V4:              formInt("v4"),
		V5:              formInt("v5"),
		K1:              formInt("1kill_rounds"),
		K2:              formInt("2kill_rounds"),
		K3:              formInt("3kill_rounds"),
		K4:              formInt("4kill_rounds"),
		K5:              formInt("5kill_rounds"),
		FirstKillT:      formInt("firstkill_t"),
		FirstKillCT:     formInt("firstkill_ct"),
		FirstDeathT:     formInt("firstdeath_t"),
		FirstDeathCT:    formInt("firstdeath_ct"),
	}
	switch r.FormValue("team") {
	case "team1":
		line.TeamID = utils.Ptr(match.Team1ID)
	case "team2":
		line.TeamID = utils.Ptr(match.Team2ID)
	}

	if err := h.statsSvc.UpdatePlayerStats(r.Context(), match, mapNumber, line); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
