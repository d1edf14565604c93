package app

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"filez/api/internal/users"
)

func (s *Service) handleListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := s.Users.List(r.Context())
	if err != nil {
		respondError(w, s.Log, err)
		return
	}
	views := make([]userView, 0, len(list))
	for _, u := range list {
		views = append(views, viewUser(u))
	}
	success(w, views)
}

func (s *Service) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.Users.Get(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		respondError(w, s.Log, err)
		return
	}
	success(w, viewUser(user))
}

// handleUpdateUser updates a profile. Users edit themselves; the admin may
// edit anyone.
func (s *Service) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	claims := claimsFrom(r)
	if claims.UserID != userID && claims.UserID != s.Cfg.AdminUsername {
		forbidden(w, "")
		return
	}

	var body struct {
		Nickname *string `json:"nickname"`
		Avatar   *string `json:"avatar"`
		Email    *string `json:"email"`
		JobTitle *string `json:"jobTitle"`
		OrgName  *string `json:"orgName"`
		OrgID    *string `json:"orgId"`
	}
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, err.Error())
		return
	}

	user, err := s.Users.Update(r.Context(), userID, users.ProfilePatch{
		Nickname: body.Nickname,
		Avatar:   body.Avatar,
		Email:    body.Email,
		JobTitle: body.JobTitle,
		OrgName:  body.OrgName,
		OrgID:    body.OrgID,
	})
	if err != nil {
		respondError(w, s.Log, err)
		return
	}
	success(w, viewUser(user))
}

func (s *Service) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	claims := claimsFrom(r)
	if claims.UserID != userID {
		forbidden(w, "")
		return
	}

	var body struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, err.Error())
		return
	}
	if body.NewPassword == "" {
		badRequest(w, "newPassword is required")
		return
	}

	err := s.Users.ChangePassword(r.Context(), userID, body.OldPassword, body.NewPassword)
	if errors.Is(err, users.ErrBadCredentials) {
		badRequest(w, "old password does not match")
		return
	}
	if err != nil {
		respondError(w, s.Log, err)
		return
	}
	success(w, nil, "Password updated")
}
