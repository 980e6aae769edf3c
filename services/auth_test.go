package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel-pg/models"
)

func registration(email string) models.RegisterRequest {
	return models.RegisterRequest{
		Email:         email,
		Password:      "correct horse",
		Name:          "Priya Nair",
		Mobile:        "9876543210",
		Aadhaar:       aadhaarA,
		TermsAccepted: true,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tn, err := env.auth.Register(ctx, registration(" Priya@Example.com "))
	require.NoError(t, err)
	assert.Equal(t, "priya@example.com", tn.Email)
	assert.Equal(t, models.StatusPending, tn.Status)
	assert.Equal(t, models.RoleUser, tn.Role)
	assert.Equal(t, aadhaarA, env.reload(t, tn.UID).Aadhaar)

	_, err = env.auth.Register(ctx, registration("priya@example.com"))
	assert.True(t, errors.Is(err, ErrConflict))

	token, got, err := env.auth.Login(ctx, models.LoginRequest{Email: "PRIYA@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, tn.UID, got.UID)
	claims, err := env.tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, tn.UID, claims.UID)
	assert.Equal(t, "user", claims.Role)

	_, _, err = env.auth.Login(ctx, models.LoginRequest{Email: "priya@example.com", Password: "wrong"})
	assert.Equal(t, ErrUnauthorized, err)
	_, _, err = env.auth.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "correct horse"})
	assert.Equal(t, ErrUnauthorized, err)
}

func TestRegisterAdminCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := registration("warden@example.com")
	req.AdminCode = "guess"
	_, err := env.auth.Register(ctx, req)
	assert.True(t, errors.Is(err, ErrValidation))

	req.AdminCode = "let-me-in"
	admin, err := env.auth.Register(ctx, req)
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	req = registration("bad@example.com")
	req.Aadhaar = "234567890125"
	_, err = env.auth.Register(ctx, req)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestPasswordReset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tn, err := env.auth.Register(ctx, registration("priya@example.com"))
	require.NoError(t, err)

	none, err := env.auth.ForgotPassword(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, none)

	token, err := env.auth.ForgotPassword(ctx, "priya@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, env.auth.ResetPassword(ctx, token, "brand new pass"))
	_, _, err = env.auth.Login(ctx, models.LoginRequest{Email: "priya@example.com", Password: "brand new pass"})
	assert.NoError(t, err)

	err = env.auth.ResetPassword(ctx, token, "attacker pass!")
	assert.True(t, errors.Is(err, ErrValidation), "a reset link works once")
	_, _, err = env.auth.Login(ctx, models.LoginRequest{Email: "priya@example.com", Password: "attacker pass!"})
	assert.True(t, errors.Is(err, ErrUnauthorized))
	_, _, err = env.auth.Login(ctx, models.LoginRequest{Email: "priya@example.com", Password: "brand new pass"})
	assert.NoError(t, err)

	session, err := env.auth.Refresh(tn)
	require.NoError(t, err)
	err = env.auth.ResetPassword(ctx, session, "another pass")
	assert.True(t, errors.Is(err, ErrValidation), "session tokens cannot reset passwords")
}

func TestCreateAdminPromotes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tn, err := env.auth.Register(ctx, registration("priya@example.com"))
	require.NoError(t, err)

	promoted, err := env.auth.CreateAdmin(ctx, "priya@example.com", "admin pass 1", "")
	require.NoError(t, err)
	assert.Equal(t, tn.UID, promoted.UID)
	assert.True(t, promoted.IsAdmin())
	assert.Equal(t, "Priya Nair", promoted.Name)

	fresh, err := env.auth.CreateAdmin(ctx, "owner@example.com", "admin pass 2", "Owner")
	require.NoError(t, err)
	assert.True(t, fresh.IsAdmin())

	_, _, err = env.auth.Login(ctx, models.LoginRequest{Email: "owner@example.com", Password: "admin pass 2"})
	assert.NoError(t, err)
}
