package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xaenox/pocket-therapy/internal/models"
)

type MemoryStorage struct {
	mu        sync.RWMutex
	moods     map[string]*models.MoodEntry
	sessions  map[string]*models.ExerciseSession
	exercises []models.Exercise
	resources []models.CrisisResource
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		moods:    make(map[string]*models.MoodEntry),
		sessions: make(map[string]*models.ExerciseSession),
	}
}

// Mood methods
func (s *MemoryStorage) SaveMoodEntry(ctx context.Context, entry *models.MoodEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := *entry
	e.Triggers = append([]string(nil), entry.Triggers...)
	s.moods[e.ID] = &e
	return nil
}

func (s *MemoryStorage) GetMoodEntry(ctx context.Context, id string) (*models.MoodEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, exists := s.moods[id]; exists {
		out := *e
		return &out, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) UpdateMoodNote(ctx context.Context, id string, note *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.moods[id]
	if !exists {
		return ErrNotFound
	}
	e.Note = note
	e.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStorage) ListMoodEntries(ctx context.Context, userID int64, since time.Time, limit int) ([]models.MoodEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.MoodEntry
	for _, e := range s.moods {
		if e.UserID == userID && !e.Timestamp.Before(since) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStorage) DeleteMoodEntriesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, e := range s.moods {
		if e.Timestamp.Before(cutoff) {
			delete(s.moods, id)
			n++
		}
	}
	return n, nil
}

// Session methods
func (s *MemoryStorage) SaveSession(ctx context.Context, session *models.ExerciseSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *session
	s.sessions[cp.ID] = &cp
	return nil
}

func (s *MemoryStorage) GetSession(ctx context.Context, id string) (*models.ExerciseSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sess, exists := s.sessions[id]; exists {
		out := *sess
		return &out, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) CompleteSession(ctx context.Context, id string, completedAt time.Time, rating *int, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[id]
	if !exists {
		return ErrNotFound
	}
	sess.Completed = true
	sess.CompletedAt = &completedAt
	sess.Rating = rating
	sess.Notes = notes
	return nil
}

func (s *MemoryStorage) ListSessions(ctx context.Context, userID int64, limit int) ([]models.ExerciseSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ExerciseSession
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, *sess)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Catalog methods
func (s *MemoryStorage) ReplaceExercises(ctx context.Context, exercises []models.Exercise) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.exercises = append([]models.Exercise(nil), exercises...)
	return nil
}

func (s *MemoryStorage) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.Exercise(nil), s.exercises...), nil
}

func (s *MemoryStorage) GetExercise(ctx context.Context, id string) (*models.Exercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ex := range s.exercises {
		if ex.ID == id {
			out := ex
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) ReplaceCrisisResources(ctx context.Context, resources []models.CrisisResource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resources = append([]models.CrisisResource(nil), resources...)
	return nil
}

func (s *MemoryStorage) ListCrisisResources(ctx context.Context) ([]models.CrisisResource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.CrisisResource(nil), s.resources...), nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
