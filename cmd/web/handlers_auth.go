package main

import (
	"net/http"

	"github.com/Monzyy/get5-web/internal/httputil"
	users "github.com/Monzyy/get5-web/internal/user"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"
)

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	q.Set("provider", "steam")
	r.URL.RawQuery = q.Encode()
	gothic.BeginAuthHandler(w, r)
}

// authCallback completes the OpenID handshake and provisions the user
// row on first login. The admin flag follows ADMIN_STEAM_IDS.
func (h *handlers) authCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	q.Set("provider", "steam")
	r.URL.RawQuery = q.Encode()

	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		httputil.BadRequest(w, "Steam login failed", err)
		return
	}

	user, err := h.users.GetUserBySteamID(r.Context(), gothUser.UserID)
	if err != nil {
		user = &users.User{
			ID:      uuid.New(),
			SteamID: gothUser.UserID,
			Name:    gothUser.NickName,
			Admin:   h.cfg.IsAdminSteamID(gothUser.UserID),
		}
		if err := h.users.CreateUser(r.Context(), user); err != nil {
			httputil.InternalServerError(w, "Failed to create user", err)
			return
		}
	} else if gothUser.NickName != "" && gothUser.NickName != user.Name {
		user.Name = gothUser.NickName
		if err := h.users.UpdateUserName(r.Context(), user); err != nil {
			httputil.InternalServerError(w, "Failed to update user", err)
			return
		}
	}

	h.sessions.Put(r.Context(), "userID", user.ID.String())
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Remove(r.Context(), "userID")
	http.Redirect(w, r, "/", http.StatusFound)
}
