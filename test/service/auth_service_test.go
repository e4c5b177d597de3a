package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErr "github.com/kontrakwise/backend/internal/pkg/errors"
	"github.com/kontrakwise/backend/internal/pkg/jwt"
	"github.com/kontrakwise/backend/internal/repo"
	"github.com/kontrakwise/backend/internal/service"
	"github.com/kontrakwise/backend/test/testutil"
)

var testSecret = []byte("test-secret")

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()

	users := repo.NewUserRepo(db)
	auth := service.NewAuthService(users, testSecret, time.Hour)

	email := "auth-flow@example.com"
	defer func() { _, _ = db.ExecContext(ctx, "DELETE FROM users WHERE email = $1", email) }()

	user, token, err := auth.Register(ctx, "Auth-Flow@Example.com", "strongpassword")
	require.NoError(t, err)
	require.Equal(t, email, user.Email)
	require.NotEmpty(t, token)

	claims, err := jwt.ParseToken(token, testSecret)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)

	// Duplicate email is a conflict.
	_, _, err = auth.Register(ctx, email, "strongpassword")
	require.ErrorIs(t, err, appErr.ErrConflict)

	// Login works with the right password, case-insensitive email.
	logged, _, err := auth.Login(ctx, "AUTH-FLOW@example.com", "strongpassword")
	require.NoError(t, err)
	require.Equal(t, user.ID, logged.ID)

	_, _, err = auth.Login(ctx, email, "wrongpassword")
	require.ErrorIs(t, err, appErr.ErrUnauthorized)

	_, _, err = auth.Login(ctx, "nobody@example.com", "strongpassword")
	require.ErrorIs(t, err, appErr.ErrUnauthorized)
}

func TestAuthServiceRejectsWeakInput(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	users := repo.NewUserRepo(db)
	auth := service.NewAuthService(users, testSecret, time.Hour)

	_, _, err := auth.Register(context.Background(), "", "strongpassword")
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, _, err = auth.Register(context.Background(), "short@example.com", "short")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}
