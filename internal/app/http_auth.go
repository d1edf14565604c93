package app

import (
	"net/http"
	"time"
)

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, err.Error())
		return
	}
	if body.Username == "" || body.Password == "" {
		badRequest(w, "username and password are required")
		return
	}

	token, user, err := s.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		respondError(w, s.Log, err)
		return
	}

	// The cookie carries the token for browser navigation; API clients use
	// the Authorization header instead.
	http.SetCookie(w, &http.Cookie{
		Name:     s.Cfg.TokenName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.Cfg.TokenTTL),
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	})
	success(w, map[string]any{
		"token": token,
		"user":  viewUser(user),
	})
}

func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.Logout(r.Context(), tokenFrom(r)); err != nil {
		s.Log.WithError(err).Warn("session revoke failed")
	}
	http.SetCookie(w, &http.Cookie{
		Name:    s.Cfg.TokenName,
		Value:   "",
		Path:    "/",
		Expires: time.Unix(0, 0),
		MaxAge:  -1,
	})
	success(w, nil, "Logged out")
}

func (s *Service) handleOwnProfile(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	user, err := s.Users.Get(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, s.Log, err)
		return
	}
	success(w, viewUser(user))
}
