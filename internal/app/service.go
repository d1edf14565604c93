// Package app wires the HTTP surface: routing, auth middleware, request
// handlers, and the response envelope.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"filez/api/internal/access"
	"filez/api/internal/auth"
	"filez/api/internal/config"
	"filez/api/internal/docs"
	"filez/api/internal/search"
	"filez/api/internal/session"
	"filez/api/internal/store"
	"filez/api/internal/users"
	"filez/api/internal/zoffice"
)

// Service bundles everything the handlers need. Sessions may be nil when no
// Redis is configured; logout then relies on token expiry alone.
type Service struct {
	Cfg      config.Config
	Log      *logrus.Logger
	Users    *users.Service
	Docs     *docs.Service
	Access   *access.Evaluator
	Sessions *session.RedisStore
	Search   *search.Service
	ZOffice  *zoffice.Builder
}

// Bootstrap provisions the built-in identities when they are missing. Their
// ids equal their usernames so the privileged list and the share owner
// checks match document ownership rows directly.
func (s *Service) Bootstrap(ctx context.Context) error {
	seeds := []users.CreateInput{
		{ID: s.Cfg.AdminUsername, Username: s.Cfg.AdminUsername, Password: s.Cfg.AdminPassword, Email: s.Cfg.AdminEmail, Nickname: "Administrator"},
		{ID: "test", Username: "test", Password: s.Cfg.AdminPassword, Email: "test@example.com", Nickname: "Test User"},
		{ID: s.Cfg.ShareUser, Username: s.Cfg.ShareUser, Password: s.Cfg.AdminPassword, Email: "share@example.com", Nickname: "Shared"},
	}
	for _, seed := range seeds {
		_, err := s.Users.GetByUsername(ctx, seed.Username)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("check seed user %s: %w", seed.Username, err)
		}
		if _, err := s.Users.Create(ctx, seed); err != nil {
			return fmt.Errorf("seed user %s: %w", seed.Username, err)
		}
		s.Log.WithField("username", seed.Username).Info("seeded built-in user")
	}
	return nil
}

// Login authenticates the credentials and issues a session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, store.User, error) {
	u, err := s.Users.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, users.ErrBadCredentials) {
			return "", store.User{}, domainError(401, 401, "invalid username or password")
		}
		return "", store.User{}, err
	}
	token, err := auth.Issue([]byte(s.Cfg.JWTSecret), u.ID, u.Username, u.Email, s.Cfg.TokenTTL)
	if err != nil {
		return "", store.User{}, err
	}
	if s.Sessions != nil {
		expiresAt := time.Now().Add(s.Cfg.TokenTTL)
		if err := s.Sessions.Save(ctx, auth.HashToken(token), u.ID, expiresAt); err != nil {
			return "", store.User{}, err
		}
	}
	return token, u, nil
}

// Logout revokes the token in the session store when one is configured.
func (s *Service) Logout(ctx context.Context, token string) error {
	if s.Sessions == nil || token == "" {
		return nil
	}
	return s.Sessions.Revoke(ctx, auth.HashToken(token))
}

// Authenticate validates a raw token and, when a session store is present,
// checks it has not been revoked.
func (s *Service) Authenticate(ctx context.Context, token string) (auth.Claims, error) {
	claims, err := auth.Parse([]byte(s.Cfg.JWTSecret), token)
	if err != nil {
		return auth.Claims{}, err
	}
	if s.Sessions != nil {
		active, err := s.Sessions.Active(ctx, auth.HashToken(token))
		if err != nil {
			return auth.Claims{}, err
		}
		if !active {
			return auth.Claims{}, auth.ErrInvalidToken
		}
	}
	return claims, nil
}
