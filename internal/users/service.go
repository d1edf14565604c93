// Package users handles credentials and profile management.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"filez/api/internal/store"
)

var (
	ErrBadCredentials = errors.New("invalid username or password")
)

type Store interface {
	CreateUser(ctx context.Context, u store.User) error
	GetUser(ctx context.Context, id string) (store.User, error)
	GetUserByUsername(ctx context.Context, username string) (store.User, error)
	UpdateUser(ctx context.Context, id string, patch store.UserPatch) error
	ListUsers(ctx context.Context) ([]store.User, error)
}

type Service struct {
	store Store
}

func NewService(s Store) *Service {
	return &Service{store: s}
}

// Authenticate checks a username/password pair and returns the user.
func (s *Service) Authenticate(ctx context.Context, username, password string) (store.User, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, ErrBadCredentials
	}
	if err != nil {
		return store.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return store.User{}, ErrBadCredentials
	}
	return u, nil
}

type CreateInput struct {
	ID       string // empty for a generated id
	Username string
	Password string
	Email    string
	Nickname string
	Avatar   string
}

// Create provisions a user with a hashed password. When ID is empty a uuid
// is generated; seeding passes fixed ids so the privileged identities line
// up with usernames.
func (s *Service) Create(ctx context.Context, in CreateInput) (store.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	u := store.User{
		ID:       id,
		Username: in.Username,
		Password: string(hash),
		Email:    in.Email,
		Nickname: in.Nickname,
		Avatar:   in.Avatar,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return store.User{}, err
	}
	return s.store.GetUser(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (store.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *Service) GetByUsername(ctx context.Context, username string) (store.User, error) {
	return s.store.GetUserByUsername(ctx, username)
}

type ProfilePatch struct {
	Nickname *string
	Avatar   *string
	Email    *string
	JobTitle *string
	OrgName  *string
	OrgID    *string
}

func (s *Service) Update(ctx context.Context, id string, patch ProfilePatch) (store.User, error) {
	err := s.store.UpdateUser(ctx, id, store.UserPatch{
		Nickname: patch.Nickname,
		Avatar:   patch.Avatar,
		Email:    patch.Email,
		JobTitle: patch.JobTitle,
		OrgName:  patch.OrgName,
		OrgID:    patch.OrgID,
	})
	if err != nil {
		return store.User{}, err
	}
	return s.store.GetUser(ctx, id)
}

// ChangePassword verifies the old password before storing the new hash.
func (s *Service) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(oldPassword)) != nil {
		return ErrBadCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	hashed := string(hash)
	return s.store.UpdateUser(ctx, id, store.UserPatch{Password: &hashed})
}

func (s *Service) List(ctx context.Context) ([]store.User, error) {
	return s.store.ListUsers(ctx)
}
