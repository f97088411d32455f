package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sipal-api/internal/models"
	"github.com/noah-isme/sipal-api/pkg/config"
	appErrors "github.com/noah-isme/sipal-api/pkg/errors"
)

func newTestAuthService(t *testing.T, secret string) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("rahasia123"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := NewAdminAccount(config.AdminConfig{Email: " Admin@SIPAL.local ", PasswordHash: string(hash), Name: "Admin"})
	return NewAuthService([]models.AdminAccount{admin}, nil, nil, AuthConfig{AccessTokenSecret: secret, AccessTokenExpiry: time.Hour})
}

func TestAuthServiceLogin(t *testing.T) {
	svc := newTestAuthService(t, "secret")

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@sipal.local", Password: "rahasia123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, models.RoleAdmin, resp.Admin.Role)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.Admin.ID, claims.UserID)
	assert.Equal(t, "admin@sipal.local", claims.Email)
}

func TestAuthServiceLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestAuthService(t, "secret")

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@sipal.local", Password: "salah"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidCredentials.Code))

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "other@sipal.local", Password: "rahasia123"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidCredentials.Code))

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
}

func TestAuthServiceValidateTokenRejectsForeignAndExpired(t *testing.T) {
	issuer := newTestAuthService(t, "other-secret")
	resp, err := issuer.Login(context.Background(), models.LoginRequest{Email: "admin@sipal.local", Password: "rahasia123"})
	require.NoError(t, err)

	svc := newTestAuthService(t, "secret")
	_, err = svc.ValidateToken(resp.AccessToken)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrUnauthorized.Code))

	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, err := issuer.Login(context.Background(), models.LoginRequest{Email: "admin@sipal.local", Password: "rahasia123"})
	require.NoError(t, err)
	issuer.now = time.Now
	_, err = issuer.ValidateToken(stale.AccessToken)
	assert.Error(t, err)
}

func TestNewAdminAccountStableID(t *testing.T) {
	a := NewAdminAccount(config.AdminConfig{Email: "admin@sipal.local"})
	b := NewAdminAccount(config.AdminConfig{Email: "ADMIN@sipal.local"})
	assert.Equal(t, a.ID, b.ID)
}
