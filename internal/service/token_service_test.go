package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/admin-console/pkg/errors"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "admin-console", TTL: time.Minute})

	token, expires, err := svc.Issue("sess-1", "ops@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expires, 5*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "ops@example.com", claims.Operator)
}

func TestTokenServiceRejectsExpiredAndForeignTokens(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", TTL: time.Minute})
	issued := time.Date(2024, time.May, 15, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }
	token, _, err := svc.Issue("sess-1", "ops")
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = svc.Validate(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	other := NewTokenService(TokenConfig{Secret: "other", TTL: time.Minute})
	foreign, _, err := other.Issue("sess-2", "ops")
	require.NoError(t, err)
	svc.now = time.Now
	_, err = svc.Validate(foreign)
	assert.Error(t, err)
}
