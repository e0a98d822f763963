package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/pocket-therapy/internal/analyzer"
	"github.com/xaenox/pocket-therapy/internal/checkin"
	"github.com/xaenox/pocket-therapy/internal/classifier"
	"github.com/xaenox/pocket-therapy/internal/crisis"
	"github.com/xaenox/pocket-therapy/internal/kv"
	"github.com/xaenox/pocket-therapy/internal/models"
	"github.com/xaenox/pocket-therapy/internal/recommender"
	"github.com/xaenox/pocket-therapy/internal/seed"
	"github.com/xaenox/pocket-therapy/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testResources() []models.CrisisResource {
	now := time.Now()
	return []models.CrisisResource{
		{ID: "us-988", Name: "988 Lifeline", Phone: "988", TextNumber: "988", Region: "us", Availability: "24/7", LastVerified: now.AddDate(0, -1, 0)},
		{ID: "us-warm", Name: "Warmline", Phone: "555 0100", Region: "us", Availability: "weekdays", LastVerified: now.AddDate(0, -8, 0)},
		{ID: "uk-samaritans", Name: "Samaritans", Phone: "116 123", Region: "uk", Availability: "24/7", LastVerified: now.AddDate(-1, 0, 0)},
		{ID: "global-fah", Name: "Find A Helpline", Website: "https://findahelpline.com", Region: models.RegionGlobal, Availability: "24/7", LastVerified: now},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWith(t, func(c storage.CatalogStorage) storage.CatalogStorage { return c })
}

func newTestServerWith(t *testing.T, catalog func(storage.CatalogStorage) storage.CatalogStorage) *Server {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	store := storage.NewMemoryStorage()
	exercises, err := seed.Exercises()
	require.NoError(t, err)
	require.NoError(t, store.ReplaceExercises(ctx, exercises))
	require.NoError(t, store.ReplaceCrisisResources(ctx, testResources()))

	cache := kv.NewMemoryStore()
	return New(Deps{
		Checkin:     checkin.New(store, cache, classifier.NewSimpleClassifier(3), checkin.Options{Location: time.UTC}, logger),
		Catalog:     catalog(store),
		Analyzer:    analyzer.New(time.UTC),
		Recommender: recommender.New(logger),
		Locator: crisis.NewLocator(store, cache, crisis.Config{DefaultCountry: "United States"}, logger,
			crisis.StaticLocation{Country: "United States"}),
	}, logger)
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestPing(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestMoods(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/v1/users/7/moods", gin.H{"value": 2, "note": "couldn't sleep again"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var entry models.MoodEntry
	decode(t, w, &entry)
	assert.Equal(t, int64(7), entry.UserID)
	assert.Equal(t, []string{"sleep"}, entry.Triggers)

	w = do(t, s, http.MethodPost, "/v1/users/7/moods", gin.H{"value": 6})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, s, http.MethodPost, "/v1/users/abc/moods", gin.H{"value": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPatch, "/v1/users/7/moods/"+entry.ID, gin.H{"note": "slept badly"})
	require.Equal(t, http.StatusOK, w.Code)
	var edited models.MoodEntry
	decode(t, w, &edited)
	require.NotNil(t, edited.Note)
	assert.Equal(t, "slept badly", *edited.Note)

	w = do(t, s, http.MethodPatch, "/v1/users/8/moods/"+entry.ID, gin.H{"note": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodGet, "/v1/users/7/moods", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Entries []models.MoodEntry `json:"entries"`
	}
	decode(t, w, &list)
	assert.Len(t, list.Entries, 1)
}

func TestAnalysis(t *testing.T) {
	s := newTestServer(t)
	start := time.Now().Add(-2 * time.Hour)
	for i, v := range []int{2, 1, 2, 1} {
		at := start.Add(time.Duration(i) * time.Minute)
		w := do(t, s, http.MethodPost, "/v1/users/7/moods", gin.H{"value": v, "timestamp": at})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := do(t, s, http.MethodGet, "/v1/users/7/analysis", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Insights  models.MoodInsights `json:"insights"`
		MoodScore float64             `json:"mood_score"`
	}
	decode(t, w, &resp)
	assert.Equal(t, models.SeverityHigh, resp.Insights.Severity)
	assert.True(t, resp.Insights.CrisisResources)
	assert.InDelta(t, 1.5, resp.MoodScore, 1e-9)
}

func TestSessions(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/v1/users/7/sessions", gin.H{"exercise_id": "nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodPost, "/v1/users/7/sessions", gin.H{"exercise_id": "box-breathing", "mood_at_start": 2})
	require.Equal(t, http.StatusCreated, w.Code)
	var session models.ExerciseSession
	decode(t, w, &session)

	path := "/v1/users/7/sessions/" + session.ID + "/complete"
	w = do(t, s, http.MethodPost, path, gin.H{"rating": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, path, gin.H{"rating": 5, "notes": "lighter"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &session)
	assert.True(t, session.Completed)

	w = do(t, s, http.MethodPost, path, gin.H{})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPreferences(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPut, "/v1/users/7/preferences", gin.H{"favorite_categories": []string{"dance"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPut, "/v1/users/7/preferences", gin.H{
		"favorite_categories": []string{"grounding"},
		"avoided_exercises":   []string{"cold-water"},
		"contact_method":      "chat",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, s, http.MethodGet, "/v1/users/7/preferences", nil)
	var prefs models.UserPreferences
	decode(t, w, &prefs)
	assert.Equal(t, []models.Category{models.CategoryGrounding}, prefs.FavoriteCategories)
	assert.Equal(t, models.ContactChat, prefs.ContactMethod)
}

func TestRecommendations(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/v1/recommendations", gin.H{
		"current_mood":   2,
		"triggers":       []string{"anxiety"},
		"available_time": "short",
		"limit":          4,
		"explain":        true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Exercises []models.Exercise       `json:"exercises"`
		Scored    []models.ScoredExercise `json:"scored"`
	}
	decode(t, w, &resp)
	require.Len(t, resp.Exercises, 4)
	for _, ex := range resp.Exercises {
		assert.LessOrEqual(t, ex.DurationSeconds, 300, ex.ID)
	}
	assert.NotEmpty(t, resp.Scored)
	assert.NotEmpty(t, resp.Scored[0].Reasons)

	w = do(t, s, http.MethodPost, "/v1/recommendations", gin.H{"current_mood": 3, "available_time": "forever"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecommendations_OutOfRangeMoodFallsBack(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/v1/recommendations", gin.H{"current_mood": 0})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Exercises []models.Exercise `json:"exercises"`
	}
	decode(t, w, &resp)
	assert.NotEmpty(t, resp.Exercises)
	for _, ex := range resp.Exercises {
		assert.Equal(t, models.DifficultyBeginner, ex.Difficulty)
	}
}

type unreadableCatalog struct {
	storage.CatalogStorage
}

func (unreadableCatalog) ListExercises(context.Context) ([]models.Exercise, error) {
	return nil, errors.New("connection reset by peer")
}

func TestExerciseEndpoints_CatalogUnreadable(t *testing.T) {
	s := newTestServerWith(t, func(c storage.CatalogStorage) storage.CatalogStorage {
		return seed.NewFallbackCatalog(unreadableCatalog{c}, nil)
	})
	var resp struct {
		Exercises []models.Exercise `json:"exercises"`
	}

	w := do(t, s, http.MethodPost, "/v1/recommendations", gin.H{"current_mood": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &resp)
	assert.NotEmpty(t, resp.Exercises)

	w = do(t, s, http.MethodGet, "/v1/crisis/exercises", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp.Exercises = nil
	decode(t, w, &resp)
	require.NotEmpty(t, resp.Exercises)
	assert.Equal(t, models.CategoryBreathing, resp.Exercises[0].Category)
}

func TestCrisisEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/v1/crisis/exercises", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ex struct {
		Exercises []models.Exercise `json:"exercises"`
	}
	decode(t, w, &ex)
	require.NotEmpty(t, ex.Exercises)
	assert.LessOrEqual(t, len(ex.Exercises), 3)

	w = do(t, s, http.MethodGet, "/v1/crisis/resources?country=United%20Kingdom", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Resources []models.CrisisResource `json:"resources"`
	}
	decode(t, w, &res)
	require.Len(t, res.Resources, 2)
	assert.Equal(t, "uk-samaritans", res.Resources[0].ID)

	w = do(t, s, http.MethodGet, "/v1/crisis/resources?method=pigeon", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/v1/crisis/emergency", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var bundle models.EmergencyBundle
	decode(t, w, &bundle)
	assert.Equal(t, "911", bundle.EmergencyNumber)
	require.Len(t, bundle.CrisisHotlines, 1)
	assert.Equal(t, "us-988", bundle.CrisisHotlines[0].ID)

	w = do(t, s, http.MethodGet, "/v1/crisis/emergency?country=United%20Kingdom", nil)
	decode(t, w, &bundle)
	assert.Equal(t, "999", bundle.EmergencyNumber)
}

func TestContact(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/v1/crisis/contact", gin.H{"resource_id": "us-988", "method": "phone"})
	require.Equal(t, http.StatusOK, w.Code)
	var result models.ContactResult
	decode(t, w, &result)
	assert.True(t, result.Success)
	assert.Equal(t, "tel:988", result.URI)

	w = do(t, s, http.MethodPost, "/v1/crisis/contact", gin.H{"resource_id": "us-988", "method": "chat"})
	require.Equal(t, http.StatusOK, w.Code)
	result = models.ContactResult{}
	decode(t, w, &result)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.RetryPrompt)

	w = do(t, s, http.MethodPost, "/v1/crisis/contact", gin.H{"resource_id": "nobody", "method": "phone"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStaleResources(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/v1/maintenance/stale-resources", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Stale []models.StaleResource `json:"stale"`
	}
	decode(t, w, &resp)
	require.Len(t, resp.Stale, 2)
	assert.Equal(t, "uk-samaritans", resp.Stale[0].Resource.ID)
	assert.Equal(t, "us-warm", resp.Stale[1].Resource.ID)
}
