package service

import (
	"context"
	"strings"
	"time"

	"github.com/kontrakwise/backend/internal/model"
	appErr "github.com/kontrakwise/backend/internal/pkg/errors"
	"github.com/kontrakwise/backend/internal/pkg/jwt"
	"github.com/kontrakwise/backend/internal/pkg/password"
	"github.com/kontrakwise/backend/internal/repo"
)

type AuthService struct {
	users     *repo.UserRepo
	jwtSecret []byte
	jwtTTL    time.Duration
}

func NewAuthService(users *repo.UserRepo, secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{users: users, jwtSecret: secret, jwtTTL: ttl}
}

func (s *AuthService) Register(ctx context.Context, email, plainPassword string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(plainPassword) < 8 {
		return nil, "", appErr.ErrInvalid
	}
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, "", err
	}
	now := time.Now().UnixMilli()
	user := &model.User{
		ID:           newID(),
		Email:        email,
		PasswordHash: hash,
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}
	token, err := jwt.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (*model.User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", appErr.ErrUnauthorized
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return nil, "", appErr.ErrUnauthorized
	}
	token, err := jwt.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}
