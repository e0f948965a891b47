package setting

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Likio3000/pomodoroAPP/internal/config"
)

func TestGet_ReportsFlagsAndDefaults(t *testing.T) {
	cfg := config.Defaults()
	cfg.ChatEnabled = true
	h := NewHandler(cfg, zaptest.NewLogger(t).Sugar())

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got ClientSettings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.ChatEnabled)
	assert.False(t, got.TTSEnabled)
	assert.Equal(t, 25, got.DefaultWorkMinutes)
	assert.Equal(t, 5, got.DefaultBreakMinutes)
	assert.Equal(t, 10.0, got.PointsPerMinute)
}

func TestGet_NaNRateIsReportedAsZero(t *testing.T) {
	cfg := config.Defaults()
	cfg.PointsPerMinute = math.NaN()
	h := NewHandler(cfg, zaptest.NewLogger(t).Sugar())

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"points_per_minute":0`)
}
