package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thallesv/habitflow/internal/common"
	"github.com/thallesv/habitflow/internal/server/auth"
	"github.com/thallesv/habitflow/internal/server/config"
)

func newUserService(t *testing.T) (*UserService, *fakeStore) {
	t.Helper()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := newFakeStore()
	cfg := &config.Config{SecretKey: "k", AccessTokenValidityDuration: time.Hour}

	return NewUserService(db, &fakeRepoManager{s: store}, cfg), store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, store := newUserService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Thalles", "thalles@example.com", "12345678")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.NotEqual(t, "12345678", u.PasswordHash, "password is stored hashed")
	assert.Len(t, store.users, 1)

	token, err := svc.Login(ctx, "thalles@example.com", "12345678")
	require.NoError(t, err)

	userID, err := auth.GetUserIDFromToken(token, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "a@b.c", "pw")
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = svc.Register(ctx, "n", "", "pw")
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = svc.Register(ctx, "n", "a@b.c", "")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "A", "same@example.com", "pw1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "B", "same@example.com", "pw2")
	assert.ErrorIs(t, err, common.ErrorEmailAlreadyExists)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "A", "a@example.com", "correct")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "a@example.com", "incorrect")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _ := newUserService(t)

	_, err := svc.Login(context.Background(), "ghost@example.com", "pw")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}
