package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"probate-backend/internal/shared/auth"
)

func newTestService(t *testing.T, admins ...string) (*Service, *auth.Issuer) {
	t.Helper()
	issuer, err := auth.NewIssuer("test-secret", "dev", time.Hour)
	require.NoError(t, err)
	svc := NewService(NewMemoryRepo(), auth.NewRoleResolver(admins), issuer)
	svc.Cost = bcrypt.MinCost
	return svc, issuer
}

func TestRegisterAndLogin(t *testing.T) {
	svc, issuer := newTestService(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "Pat@Example.com", "correct horse", "Pat Client")
	require.NoError(t, err)
	assert.Equal(t, "pat@example.com", user.Email)
	assert.Equal(t, auth.RoleClient, user.Role)
	assert.NotEqual(t, "correct horse", user.PasswordHash)

	sess, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, sess.UserID)

	_, _, err = svc.Register(ctx, "pat@example.com", "another password", "")
	assert.ErrorIs(t, err, ErrEmailTaken)

	logged, _, err := svc.Login(ctx, "pat@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	_, _, err = svc.Login(ctx, "pat@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "not-an-email", "long enough", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, _, err = svc.Register(ctx, "Pat <pat@example.com>", "long enough", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, _, err = svc.Register(ctx, "pat@example.com", "short", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAllowlistGrantsAdmin(t *testing.T) {
	svc, issuer := newTestService(t, "ops@example.com")
	ctx := context.Background()

	_, token, err := svc.Register(ctx, "ops@example.com", "correct horse", "Ops")
	require.NoError(t, err)
	sess, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.True(t, sess.IsAdmin())

	google, err := svc.UpsertFromAuth(ctx, User{ID: "google:1", Email: "OPS@example.com", FullName: "Ops"})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, google.Role)

	plain, err := svc.UpsertFromAuth(ctx, User{ID: "google:2", Email: "someone@example.com"})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleClient, plain.Role)
}
