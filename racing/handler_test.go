package racing_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvindsc/entain-assessment/racing"
)

func newTestHandler(t *testing.T, fetcher *fakeFetcher) http.Handler {
	t.Helper()
	store, err := racing.NewStore(fetcher, racing.StoreConfig{CacheTTL: time.Minute})
	require.NoError(t, err)
	return racing.NewHandler(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandlerNextRaces(t *testing.T) {
	t.Parallel()

	now := time.Now()
	soon := race(racing.CategoryHorse, now.Add(90*time.Second), 1)
	later := race(racing.CategoryGreyhound, now.Add(5*time.Minute), 2)
	handler := newTestHandler(t, &fakeFetcher{races: []racing.Race{later, soon}})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/races/next", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var body struct {
		Races []struct {
			RaceID          string `json:"race_id"`
			StartsInSeconds int64  `json:"starts_in_seconds"`
		} `json:"races"`
		GeneratedAt time.Time `json:"generated_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Races, 2)
	assert.Equal(t, soon.ID.String(), body.Races[0].RaceID)
	assert.Equal(t, later.ID.String(), body.Races[1].RaceID)
	assert.InDelta(t, 90, body.Races[0].StartsInSeconds, 3)
	assert.False(t, body.GeneratedAt.IsZero())
}

func TestHandlerCategoryFilter(t *testing.T) {
	t.Parallel()

	now := time.Now()
	horse := race(racing.CategoryHorse, now.Add(time.Minute), 1)
	grey := race(racing.CategoryGreyhound, now.Add(2*time.Minute), 2)
	handler := newTestHandler(t, &fakeFetcher{races: []racing.Race{horse, grey}})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/races/next?category=greyhound", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Races []struct {
			RaceID string `json:"race_id"`
		} `json:"races"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Races, 1)
	assert.Equal(t, grey.ID.String(), body.Races[0].RaceID)
}

func TestHandlerBadParameters(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, &fakeFetcher{})

	tests := []struct {
		name   string
		target string
	}{
		{"unknown category", "/races/next?category=camel"},
		{"non-numeric count", "/races/next?count=five"},
		{"negative count", "/races/next?count=-1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestHandlerUpstreamFailure(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, &fakeFetcher{err: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/races/next", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "race data temporarily unavailable", body["error"])
}

func TestHandlerMethodNotAllowed(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, &fakeFetcher{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/races/next", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
