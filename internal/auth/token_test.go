package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewTokenIssuer_RequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer("", "pomodoro", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	ti, err := NewTokenIssuer("s3cret", "pomodoro", time.Hour)
	require.NoError(t, err)

	tok, exp, err := ti.Issue(42)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	id, err := ti.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestVerify_Rejects(t *testing.T) {
	ti, err := NewTokenIssuer("s3cret", "pomodoro", time.Minute)
	require.NoError(t, err)
	good, _, err := ti.Issue(7)
	require.NoError(t, err)

	other, err := NewTokenIssuer("different", "pomodoro", time.Minute)
	require.NoError(t, err)
	foreign, _, err := other.Issue(7)
	require.NoError(t, err)

	wrongIssuer, err := NewTokenIssuer("s3cret", "someone-else", time.Minute)
	require.NoError(t, err)
	misissued, _, err := wrongIssuer.Issue(7)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Issuer: "pomodoro", Subject: "7"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer: "pomodoro", Subject: "alice", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"wrong issuer": misissued,
		"alg none":     unsigned,
		"bad subject":  badSubject,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ti.Verify(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	ti.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = ti.Verify(good)
	assert.True(t, errors.Is(err, ErrInvalidToken), "expired token")
}

func TestRequireUser(t *testing.T) {
	ti, err := NewTokenIssuer("s3cret", "pomodoro", time.Hour)
	require.NoError(t, err)
	tok, _, err := ti.Issue(9)
	require.NoError(t, err)

	var seen int64
	h := RequireUser(ti, zaptest.NewLogger(t).Sugar())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		require.True(t, ok)
		seen = id
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"basic auth", "Basic Zm9vOmJhcg==", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + tok, http.StatusNoContent},
		{"lowercase scheme", "bearer " + tok, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/timer/state", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.code, rec.Code)
			if tt.code == http.StatusUnauthorized {
				assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
			}
		})
	}
	assert.Equal(t, int64(9), seen)
}

func TestUserIDFromContext_RejectsNonPositive(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := UserIDFromContext(WithUserID(req.Context(), 0))
	assert.False(t, ok)
	id, ok := UserIDFromContext(WithUserID(req.Context(), 3))
	assert.True(t, ok)
	assert.Equal(t, int64(3), id)
}
