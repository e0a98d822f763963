// Package checkin records mood check-ins and exercise sessions and assembles
// the per-request recommendation context from what is stored.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/pocket-therapy/internal/classifier"
	"github.com/xaenox/pocket-therapy/internal/kv"
	"github.com/xaenox/pocket-therapy/internal/models"
	"github.com/xaenox/pocket-therapy/internal/storage"
)

var (
	ErrInvalidMood   = fmt.Errorf("mood must be between %d and %d", models.MinMood, models.MaxMood)
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrAlreadyCompleted is returned when completing a finished session.
	ErrAlreadyCompleted = errors.New("session already completed")
)

// historyWindow is how many recent check-ins feed the recommender.
const historyWindow = 7

type Options struct {
	Retention time.Duration
	Location  *time.Location
}

type Service struct {
	storage    storage.Storage
	store      kv.Store
	classifier classifier.Classifier
	logger     *zap.Logger
	retention  time.Duration
	loc        *time.Location
	now        func() time.Time
}

func New(s storage.Storage, store kv.Store, clf classifier.Classifier, opts Options, logger *zap.Logger) *Service {
	if opts.Retention <= 0 {
		opts.Retention = 90 * 24 * time.Hour
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		storage:    s,
		store:      store,
		classifier: clf,
		logger:     logger,
		retention:  opts.Retention,
		loc:        opts.Location,
		now:        time.Now,
	}
}

// Storage exposes the backing store for read-only callers such as the catalog views.
func (s *Service) Storage() storage.Storage {
	return s.storage
}

type MoodInput struct {
	Value int
	Note  string
	// Triggers given by the user. When empty they are extracted from Note.
	Triggers []string
	// At defaults to now.
	At time.Time
}

// RecordMood validates and stores a check-in.
func (s *Service) RecordMood(ctx context.Context, userID int64, in MoodInput) (*models.MoodEntry, error) {
	if in.Value < models.MinMood || in.Value > models.MaxMood {
		return nil, ErrInvalidMood
	}

	now := s.now()
	at := in.At
	if at.IsZero() {
		at = now
	}

	entry := &models.MoodEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Value:     in.Value,
		Timestamp: at,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if note := strings.TrimSpace(in.Note); note != "" {
		entry.Note = &note
	}

	entry.Triggers = classifier.Normalize(in.Triggers)
	if len(in.Triggers) == 0 && entry.Note != nil && s.classifier != nil {
		entry.Triggers = s.classifier.ExtractTriggers(ctx, *entry.Note)
	}

	if err := s.storage.SaveMoodEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("save mood entry: %w", err)
	}

	s.logger.Info("Recorded mood",
		zap.Int64("user_id", userID),
		zap.String("entry_id", entry.ID),
		zap.Int("value", entry.Value),
		zap.Strings("triggers", entry.Triggers))
	return entry, nil
}

// EditNote replaces the note on one of the user's entries. An empty note clears it.
func (s *Service) EditNote(ctx context.Context, userID int64, entryID, note string) (*models.MoodEntry, error) {
	entry, err := s.storage.GetMoodEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.UserID != userID {
		return nil, storage.ErrNotFound
	}

	var notePtr *string
	if note = strings.TrimSpace(note); note != "" {
		notePtr = &note
	}
	if err := s.storage.UpdateMoodNote(ctx, entryID, notePtr); err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	return s.storage.GetMoodEntry(ctx, entryID)
}

// RecentMoods returns the user's entries inside the retention window, newest first.
func (s *Service) RecentMoods(ctx context.Context, userID int64, limit int) ([]models.MoodEntry, error) {
	return s.storage.ListMoodEntries(ctx, userID, s.now().Add(-s.retention), limit)
}

// PurgeExpired deletes check-ins older than the retention window.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	n, err := s.storage.DeleteMoodEntriesBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge mood entries: %w", err)
	}
	s.logger.Info("Purged expired mood entries",
		zap.Int64("deleted", n),
		zap.Time("cutoff", cutoff))
	return n, nil
}

// StartSession opens a session on a catalog exercise.
func (s *Service) StartSession(ctx context.Context, userID int64, exerciseID string, moodAtStart *int) (*models.ExerciseSession, error) {
	if _, err := s.storage.GetExercise(ctx, exerciseID); err != nil {
		return nil, fmt.Errorf("exercise %s: %w", exerciseID, err)
	}

	now := s.now()
	session := &models.ExerciseSession{
		ID:          uuid.New().String(),
		UserID:      userID,
		ExerciseID:  exerciseID,
		StartedAt:   now,
		MoodAtStart: moodAtStart,
		TimeOfDay:   models.TimeOfDayAt(now.In(s.loc)),
	}
	if err := s.storage.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// CompleteSession finishes one of the user's open sessions.
func (s *Service) CompleteSession(ctx context.Context, userID int64, sessionID string, rating *int, notes string) (*models.ExerciseSession, error) {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return nil, ErrInvalidRating
	}
	session, err := s.storage.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, storage.ErrNotFound
	}
	if session.Completed {
		return nil, ErrAlreadyCompleted
	}

	if err := s.storage.CompleteSession(ctx, sessionID, s.now(), rating, notes); err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	return s.storage.GetSession(ctx, sessionID)
}

// CompleteExercise closes the user's most recent open session on the
// exercise, opening one first if there is none.
func (s *Service) CompleteExercise(ctx context.Context, userID int64, exerciseID string, rating *int) (*models.ExerciseSession, error) {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return nil, ErrInvalidRating
	}
	sessions, err := s.storage.ListSessions(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessionID := ""
	for _, sess := range sessions {
		if sess.ExerciseID == exerciseID && !sess.Completed {
			sessionID = sess.ID
			break
		}
	}
	if sessionID == "" {
		started, err := s.StartSession(ctx, userID, exerciseID, nil)
		if err != nil {
			return nil, err
		}
		sessionID = started.ID
	}
	return s.CompleteSession(ctx, userID, sessionID, rating, "")
}

func prefsKey(userID int64) string {
	return fmt.Sprintf("user:%d:prefs", userID)
}

// Preferences returns the stored preferences, or the zero value for a new user.
func (s *Service) Preferences(ctx context.Context, userID int64) (models.UserPreferences, error) {
	var prefs models.UserPreferences
	err := kv.GetJSON(ctx, s.store, prefsKey(userID), &prefs)
	if err != nil && !errors.Is(err, kv.ErrMiss) {
		return models.UserPreferences{}, fmt.Errorf("load preferences: %w", err)
	}
	return prefs, nil
}

// UpdatePreferences applies fn to the stored preferences and saves the result.
func (s *Service) UpdatePreferences(ctx context.Context, userID int64, fn func(*models.UserPreferences)) (models.UserPreferences, error) {
	prefs, err := s.Preferences(ctx, userID)
	if err != nil {
		return prefs, err
	}
	fn(&prefs)
	if err := kv.SetJSON(ctx, s.store, prefsKey(userID), prefs, 0); err != nil {
		return prefs, fmt.Errorf("save preferences: %w", err)
	}
	return prefs, nil
}

// RecommendationRequest carries what the user told us right now.
type RecommendationRequest struct {
	Mood          int
	Triggers      []string
	AvailableTime models.AvailableTime
}

// BuildContext assembles a RecommendationContext from the request and the
// user's stored history. Storage failures degrade to a context without
// history rather than failing the request.
func (s *Service) BuildContext(ctx context.Context, userID int64, req RecommendationRequest) models.RecommendationContext {
	available := req.AvailableTime
	if available == "" {
		available = models.TimeMedium
	}
	rc := models.RecommendationContext{
		CurrentMood:   req.Mood,
		Triggers:      classifier.Normalize(req.Triggers),
		TimeOfDay:     models.TimeOfDayAt(s.now().In(s.loc)),
		AvailableTime: available,
	}

	recent, err := s.RecentMoods(ctx, userID, historyWindow)
	if err != nil {
		s.logger.Warn("Failed to load recent moods", zap.Error(err), zap.Int64("user_id", userID))
	} else if len(recent) > 0 {
		rc.RecentMoods = recent
	}

	prefs, err := s.Preferences(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to load preferences", zap.Error(err), zap.Int64("user_id", userID))
	}
	completed, err := s.completedExercises(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to load sessions", zap.Error(err), zap.Int64("user_id", userID))
	}
	prefs.CompletedExercises = completed
	rc.Preferences = &prefs

	return rc
}

func (s *Service) completedExercises(ctx context.Context, userID int64) ([]string, error) {
	sessions, err := s.storage.ListSessions(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var ids []string
	for _, sess := range sessions {
		if sess.Completed && !seen[sess.ExerciseID] {
			seen[sess.ExerciseID] = true
			ids = append(ids, sess.ExerciseID)
		}
	}
	return ids, nil
}
