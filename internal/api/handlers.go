package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xaenox/pocket-therapy/internal/checkin"
	"github.com/xaenox/pocket-therapy/internal/crisis"
	"github.com/xaenox/pocket-therapy/internal/models"
	"github.com/xaenox/pocket-therapy/internal/storage"
)

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func userID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abort(c, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return id, true
}

func queryLimit(c *gin.Context, def int) int {
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		return n
	}
	return def
}

type createMoodRequest struct {
	Value     int        `json:"value" binding:"required"`
	Note      string     `json:"note"`
	Triggers  []string   `json:"triggers"`
	Timestamp *time.Time `json:"timestamp"`
}

func (s *Server) createMood(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req createMoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	in := checkin.MoodInput{Value: req.Value, Note: req.Note, Triggers: req.Triggers}
	if req.Timestamp != nil {
		in.At = *req.Timestamp
	}
	entry, err := s.deps.Checkin.RecordMood(c.Request.Context(), uid, in)
	switch {
	case errors.Is(err, checkin.ErrInvalidMood):
		abort(c, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("Failed to record mood", zap.Error(err), zap.Int64("user_id", uid))
		abort(c, http.StatusInternalServerError, "could not save mood entry")
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (s *Server) listMoods(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	entries, err := s.deps.Checkin.RecentMoods(c.Request.Context(), uid, queryLimit(c, 0))
	if err != nil {
		s.logger.Error("Failed to list moods", zap.Error(err), zap.Int64("user_id", uid))
		abort(c, http.StatusInternalServerError, "could not load mood entries")
		return
	}
	if entries == nil {
		entries = []models.MoodEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

type editNoteRequest struct {
	Note string `json:"note"`
}

func (s *Server) editMoodNote(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req editNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := s.deps.Checkin.EditNote(c.Request.Context(), uid, c.Param("entryID"), req.Note)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		abort(c, http.StatusNotFound, "mood entry not found")
		return
	case err != nil:
		s.logger.Error("Failed to edit note", zap.Error(err), zap.Int64("user_id", uid))
		abort(c, http.StatusInternalServerError, "could not update note")
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) analysis(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	entries, err := s.deps.Checkin.RecentMoods(c.Request.Context(), uid, queryLimit(c, 0))
	if err != nil {
		s.logger.Error("Failed to load moods", zap.Error(err), zap.Int64("user_id", uid))
		abort(c, http.StatusInternalServerError, "could not load mood entries")
		return
	}

	a := s.deps.Analyzer
	c.JSON(http.StatusOK, gin.H{
		"insights":            a.GetMoodInsights(entries),
		"time_patterns":       a.DetectTimePatterns(entries),
		"trigger_frequency":   a.TriggerFrequency(entries),
		"mood_score":          a.CalculateMoodScore(entries, false),
		"weighted_mood_score": a.CalculateMoodScore(entries, true),
	})
}

type startSessionRequest struct {
	ExerciseID  string `json:"exercise_id" binding:"required"`
	MoodAtStart *int   `json:"mood_at_start"`
}

func (s *Server) startSession(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.deps.Checkin.StartSession(c.Request.Context(), uid, req.ExerciseID, req.MoodAtStart)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		abort(c, http.StatusNotFound, "exercise not found")
		return
	case err != nil:
		s.logger.Error("Failed to start session", zap.Error(err), zap.Int64("user_id", uid))
		abort(c, http.StatusInternalServerError, "could not start session")
		return
	}
	c.JSON(http.StatusCreated, session)
}

type completeSessionRequest struct {
	Rating *int   `json:"rating"`
	Notes  string `json:"notes"`
}

func (s *Server) completeSession(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req completeSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.deps.Checkin.CompleteSession(c.Request.Context(), uid, c.Param("sessionID"), req.Rating, req.Notes)
	switch {
	case errors.Is(err, checkin.ErrInvalidRating):
		abort(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, checkin.ErrAlreadyCompleted):
		abort(c, http.StatusConflict, err.Error())
		return
	case errors.Is(err, storage.ErrNotFound):
		abort(c, http.StatusNotFound, "session not found")
		return
	case err != nil:
		s.logger.Error("Failed to complete session", zap.Error(err), zap.Int64("user_id", uid))
		abort(c, http.StatusInternalServerError, "could not complete session")
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) getPreferences(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	prefs, err := s.deps.Checkin.Preferences(c.Request.Context(), uid)
	if err != nil {
		s.logger.Error("Failed to load preferences", zap.Error(err), zap.Int64("user_id", uid))
		abort(c, http.StatusInternalServerError, "could not load preferences")
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (s *Server) putPreferences(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req models.UserPreferences
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	for _, cat := range req.FavoriteCategories {
		if !cat.Valid() {
			abort(c, http.StatusBadRequest, "unknown category "+string(cat))
			return
		}
	}
	if req.ContactMethod != "" && !req.ContactMethod.Valid() {
		abort(c, http.StatusBadRequest, "unknown contact method "+string(req.ContactMethod))
		return
	}

	prefs, err := s.deps.Checkin.UpdatePreferences(c.Request.Context(), uid, func(p *models.UserPreferences) {
		completed := p.CompletedExercises
		*p = req
		p.CompletedExercises = completed
	})
	if err != nil {
		s.logger.Error("Failed to save preferences", zap.Error(err), zap.Int64("user_id", uid))
		abort(c, http.StatusInternalServerError, "could not save preferences")
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (s *Server) listExercises(c *gin.Context) {
	exercises, err := s.deps.Catalog.ListExercises(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to list exercises", zap.Error(err))
		abort(c, http.StatusInternalServerError, "could not load exercises")
		return
	}
	if category := models.Category(c.Query("category")); category != "" {
		var filtered []models.Exercise
		for _, ex := range exercises {
			if ex.Category == category {
				filtered = append(filtered, ex)
			}
		}
		exercises = filtered
	}
	if exercises == nil {
		exercises = []models.Exercise{}
	}
	c.JSON(http.StatusOK, gin.H{"exercises": exercises})
}

type recommendationRequest struct {
	UserID        int64                `json:"user_id"`
	CurrentMood   int                  `json:"current_mood"`
	Triggers      []string             `json:"triggers"`
	TimeOfDay     models.TimeOfDay     `json:"time_of_day"`
	AvailableTime models.AvailableTime `json:"available_time"`
	Limit         int                  `json:"limit"`
	// Explain adds the scored list with the reasons behind each score.
	Explain bool `json:"explain"`
}

func (s *Server) recommendations(c *gin.Context) {
	var req recommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	switch req.AvailableTime {
	case "", models.TimeShort, models.TimeMedium, models.TimeLong:
	default:
		abort(c, http.StatusBadRequest, "available_time must be short, medium or long")
		return
	}

	ctx := c.Request.Context()
	exercises, err := s.deps.Catalog.ListExercises(ctx)
	if err != nil {
		s.logger.Error("Failed to list exercises", zap.Error(err))
	}

	rc := s.deps.Checkin.BuildContext(ctx, req.UserID, checkin.RecommendationRequest{
		Mood:          req.CurrentMood,
		Triggers:      req.Triggers,
		AvailableTime: req.AvailableTime,
	})
	if req.UserID == 0 {
		rc.RecentMoods = nil
		rc.Preferences = nil
	}
	if req.TimeOfDay != "" {
		rc.TimeOfDay = req.TimeOfDay
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.deps.DefaultLimit
	}
	resp := gin.H{"exercises": s.deps.Recommender.GetRecommendations(exercises, rc, limit)}
	if req.Explain {
		if scored, err := s.deps.Recommender.Score(exercises, rc); err == nil {
			resp["scored"] = scored
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) crisisExercises(c *gin.Context) {
	exercises, err := s.deps.Catalog.ListExercises(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to list exercises", zap.Error(err))
	}
	list := s.deps.Recommender.GetCrisisRecommendations(exercises)
	if list == nil {
		list = []models.Exercise{}
	}
	c.JSON(http.StatusOK, gin.H{"exercises": list})
}

func (s *Server) crisisResources(c *gin.Context) {
	q := crisis.ResourceQuery{
		Country:        c.Query("country"),
		Emergency:      c.Query("emergency") == "true",
		Method:         models.ContactMethod(strings.ToLower(c.Query("method"))),
		Specialization: c.Query("specialization"),
		Language:       c.Query("language"),
	}
	if q.Method != "" && !q.Method.Valid() {
		abort(c, http.StatusBadRequest, "unknown contact method")
		return
	}
	c.JSON(http.StatusOK, gin.H{"resources": s.deps.Locator.GetCrisisResources(c.Request.Context(), q)})
}

func (s *Server) emergency(c *gin.Context) {
	ctx := c.Request.Context()
	if country := c.Query("country"); country != "" {
		c.JSON(http.StatusOK, s.deps.Locator.GetEmergencyResourcesFor(ctx, country))
		return
	}
	c.JSON(http.StatusOK, s.deps.Locator.GetEmergencyResources(ctx))
}

type contactRequest struct {
	ResourceID string               `json:"resource_id" binding:"required"`
	Method     models.ContactMethod `json:"method" binding:"required"`
}

// contact resolves the URI the client opens. The client owns the dialer, so
// handing the URI back counts as opening it.
func (s *Server) contact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Method.Valid() {
		abort(c, http.StatusBadRequest, "unknown contact method")
		return
	}

	ctx := c.Request.Context()
	resources, err := s.deps.Catalog.ListCrisisResources(ctx)
	if err != nil {
		s.logger.Warn("Failed to load crisis resources, using static list", zap.Error(err))
	}
	resources = append(resources, crisis.StaticResources()...)
	for _, r := range resources {
		if r.ID == req.ResourceID {
			contacter := crisis.NewContacter(crisis.NewSchemeOpener(nil), s.logger)
			c.JSON(http.StatusOK, contacter.ContactResource(ctx, r, req.Method))
			return
		}
	}
	abort(c, http.StatusNotFound, "crisis resource not found")
}

func (s *Server) staleResources(c *gin.Context) {
	stale, err := s.deps.Locator.ValidateResources(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to validate resources", zap.Error(err))
		abort(c, http.StatusInternalServerError, "could not load crisis resources")
		return
	}
	if stale == nil {
		stale = []models.StaleResource{}
	}
	c.JSON(http.StatusOK, gin.H{"stale": stale})
}
