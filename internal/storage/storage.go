package storage

import (
	"context"
	"errors"
	"time"

	"github.com/xaenox/pocket-therapy/internal/models"
)

var ErrNotFound = errors.New("not found")

type Storage interface {
	MoodStorage
	SessionStorage
	CatalogStorage
	Close() error
}

type MoodStorage interface {
	SaveMoodEntry(ctx context.Context, entry *models.MoodEntry) error
	GetMoodEntry(ctx context.Context, id string) (*models.MoodEntry, error)
	UpdateMoodNote(ctx context.Context, id string, note *string) error
	// ListMoodEntries returns entries recorded at or after since, newest
	// first. A limit <= 0 means no limit.
	ListMoodEntries(ctx context.Context, userID int64, since time.Time, limit int) ([]models.MoodEntry, error)
	DeleteMoodEntriesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type SessionStorage interface {
	SaveSession(ctx context.Context, session *models.ExerciseSession) error
	GetSession(ctx context.Context, id string) (*models.ExerciseSession, error)
	CompleteSession(ctx context.Context, id string, completedAt time.Time, rating *int, notes string) error
	// ListSessions returns the user's sessions, newest first.
	ListSessions(ctx context.Context, userID int64, limit int) ([]models.ExerciseSession, error)
}

// CatalogStorage holds the seeded, read-only catalogs.
type CatalogStorage interface {
	ReplaceExercises(ctx context.Context, exercises []models.Exercise) error
	ListExercises(ctx context.Context) ([]models.Exercise, error)
	GetExercise(ctx context.Context, id string) (*models.Exercise, error)
	ReplaceCrisisResources(ctx context.Context, resources []models.CrisisResource) error
	ListCrisisResources(ctx context.Context) ([]models.CrisisResource, error)
}
