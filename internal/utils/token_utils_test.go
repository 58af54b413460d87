package utils_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/SscSPs/cash_ledger_app/internal/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateJWT(t *testing.T) {
	signed, err := utils.GenerateJWT("cashier-1", "secret", time.Hour, "cash-ledger")
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	}, jwt.WithIssuer("cash-ledger"), jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	assert.Equal(t, "cashier-1", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestGenerateJWTRejectsBadInput(t *testing.T) {
	_, err := utils.GenerateJWT("", "secret", time.Hour, "cash-ledger")
	assert.Error(t, err)

	_, err = utils.GenerateJWT("cashier-1", "secret", 0, "cash-ledger")
	assert.Error(t, err)
}

func TestPosthogClientWrapperWithoutKey(t *testing.T) {
	w := utils.InitializePosthogClient("", "https://eu.i.posthog.com", slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.False(t, w.IsInitialized())
	w.Enqueue("user", "event", nil)
	w.Close()

	var nilWrapper *utils.PosthogClientWrapper
	assert.False(t, nilWrapper.IsInitialized())
}
