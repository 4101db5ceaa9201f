package service

import (
	"context"
	"testing"
	"time"

	"alcyxob/program-ledger/internal/domain"
	"alcyxob/program-ledger/internal/repository/memory"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc := NewAuthService(memory.NewUserRepository(memory.NewStore()), "test-secret", time.Hour)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Coach", "Coach@Example.com", "password123", domain.RoleCoach)
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash)
	assert.Equal(t, "coach@example.com", user.Email)

	_, err = svc.Login(ctx, "coach@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := svc.Login(ctx, " COACH@example.com ", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)
	assert.Empty(t, session.User.PasswordHash)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, time.Minute)

	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(session.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, domain.RoleCoach, claims.Role)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, TokenIssuer, claims.Issuer)
}

func TestAuthService_RegisterRejections(t *testing.T) {
	svc := NewAuthService(memory.NewUserRepository(memory.NewStore()), "test-secret", time.Hour)
	ctx := context.Background()
	_, err := svc.Register(ctx, "Client", "client@example.com", "password123", domain.RoleClient)
	require.NoError(t, err)

	tests := []struct {
		name    string
		email   string
		role    domain.Role
		display string
		wantErr error
	}{
		{"email taken", "CLIENT@example.com", domain.RoleCoach, "Again", ErrEmailTaken},
		{"unknown role", "t@example.com", "trainer", "Trainer", ErrInvalidRole},
		{"blank name", "n@example.com", domain.RoleClient, "  ", ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.display, tt.email, "password123", tt.role)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
