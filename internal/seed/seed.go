// Package seed loads the embedded exercise and crisis-resource catalogs into storage.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/xaenox/pocket-therapy/internal/kv"
	"github.com/xaenox/pocket-therapy/internal/models"
	"github.com/xaenox/pocket-therapy/internal/storage"
)

// Version changes whenever the embedded catalogs do.
const Version = "2026.10.1"

const versionKey = "seed:version"

var (
	//go:embed data/exercises.yaml
	exercisesYAML []byte
	//go:embed data/crisis_resources.yaml
	resourcesYAML []byte
)

// Exercises decodes the embedded exercise catalog.
func Exercises() ([]models.Exercise, error) {
	var list []models.Exercise
	if err := yaml.Unmarshal(exercisesYAML, &list); err != nil {
		return nil, fmt.Errorf("decode exercises: %w", err)
	}
	for _, ex := range list {
		if err := checkExercise(ex); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// CrisisResources decodes the embedded crisis-resource catalog.
func CrisisResources() ([]models.CrisisResource, error) {
	var list []models.CrisisResource
	if err := yaml.Unmarshal(resourcesYAML, &list); err != nil {
		return nil, fmt.Errorf("decode crisis resources: %w", err)
	}
	for _, r := range list {
		if r.Phone == "" && r.TextNumber == "" && r.ChatURL == "" && r.Website == "" {
			return nil, fmt.Errorf("crisis resource %s has no contact", r.ID)
		}
	}
	return list, nil
}

func checkExercise(ex models.Exercise) error {
	switch {
	case ex.ID == "":
		return errors.New("exercise without id")
	case !ex.Category.Valid():
		return fmt.Errorf("exercise %s: unknown category %q", ex.ID, ex.Category)
	case ex.DurationSeconds <= 0:
		return fmt.Errorf("exercise %s: duration must be positive", ex.ID)
	}
	return nil
}

type Seeder struct {
	storage storage.CatalogStorage
	store   kv.Store
	logger  *zap.Logger
}

func NewSeeder(s storage.CatalogStorage, store kv.Store, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{storage: s, store: store, logger: logger}
}

// Ensure reseeds the catalogs when the stored marker differs from Version
// or either catalog is empty. The marker and the catalogs can live in
// different backends, so a matching marker alone proves nothing.
// It reports whether a reseed happened.
func (s *Seeder) Ensure(ctx context.Context) (bool, error) {
	current, err := s.store.Get(ctx, versionKey)
	switch {
	case err == nil && current == Version:
		populated, err := s.populated(ctx)
		if err != nil {
			return false, err
		}
		if populated {
			return false, nil
		}
		s.logger.Warn("Seed marker is current but catalogs are empty")
	case err != nil && !errors.Is(err, kv.ErrMiss):
		return false, fmt.Errorf("read seed marker: %w", err)
	}
	return true, s.Apply(ctx)
}

func (s *Seeder) populated(ctx context.Context) (bool, error) {
	exercises, err := s.storage.ListExercises(ctx)
	if err != nil {
		return false, fmt.Errorf("list exercises: %w", err)
	}
	resources, err := s.storage.ListCrisisResources(ctx)
	if err != nil {
		return false, fmt.Errorf("list crisis resources: %w", err)
	}
	return len(exercises) > 0 && len(resources) > 0, nil
}

// Apply loads both catalogs unconditionally and stores the marker.
func (s *Seeder) Apply(ctx context.Context) error {
	exercises, err := Exercises()
	if err != nil {
		return err
	}
	resources, err := CrisisResources()
	if err != nil {
		return err
	}

	if err := s.storage.ReplaceExercises(ctx, exercises); err != nil {
		return fmt.Errorf("seed exercises: %w", err)
	}
	if err := s.storage.ReplaceCrisisResources(ctx, resources); err != nil {
		return fmt.Errorf("seed crisis resources: %w", err)
	}
	if err := s.store.Set(ctx, versionKey, Version, 0); err != nil {
		return fmt.Errorf("write seed marker: %w", err)
	}

	s.logger.Info("Seeded catalogs",
		zap.String("version", Version),
		zap.Int("exercises", len(exercises)),
		zap.Int("crisis_resources", len(resources)))
	return nil
}
