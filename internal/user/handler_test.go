package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Likio3000/pomodoroAPP/internal/auth"
)

func newTestHandler(t *testing.T) (*Handler, *auth.TokenIssuer) {
	tokens, err := auth.NewTokenIssuer("test-secret", "pomodoro-test", time.Hour)
	require.NoError(t, err)
	return NewHandler(newTestService(t), tokens, zaptest.NewLogger(t).Sugar()), tokens
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	return rec
}

func TestHandler_SignupLoginMe(t *testing.T) {
	h, tokens := newTestHandler(t)

	rec := post(h.Signup, `{"email":"lin@example.com","name":"Lin","password":"pomodoro!"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var signup TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signup))
	assert.Equal(t, "Bearer", signup.TokenType)
	id, err := tokens.Verify(signup.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, signup.UserID, id)

	rec = post(h.Signup, `{"email":"lin@example.com","name":"Lin","password":"pomodoro!"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = post(h.Login, `{"email":"lin@example.com","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(h.Login, `{"email":"lin@example.com","password":"pomodoro!"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var login TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.Equal(t, signup.UserID, login.UserID)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), login.UserID))
	me := httptest.NewRecorder()
	h.Me(me, req)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), `"email":"lin@example.com"`)
	assert.NotContains(t, me.Body.String(), "password")
}

func TestHandler_SignupBadRequests(t *testing.T) {
	h, _ := newTestHandler(t)
	assert.Equal(t, http.StatusBadRequest, post(h.Signup, `{`).Code)
	assert.Equal(t, http.StatusBadRequest, post(h.Signup, `{"email":"x@y.z","name":"X","password":"123"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(h.Login, `[]`).Code)
}

func TestHandler_MeUnknownUser(t *testing.T) {
	h, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), 31337))
	rec := httptest.NewRecorder()
	h.Me(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
