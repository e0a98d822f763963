package seed

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xaenox/pocket-therapy/internal/models"
	"github.com/xaenox/pocket-therapy/internal/storage"
)

// FallbackCatalog serves the embedded exercise catalog whenever the stored
// one cannot be read or is empty. Writes and crisis resources pass through.
type FallbackCatalog struct {
	storage.CatalogStorage
	logger *zap.Logger
}

func NewFallbackCatalog(c storage.CatalogStorage, logger *zap.Logger) *FallbackCatalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackCatalog{CatalogStorage: c, logger: logger}
}

func (c *FallbackCatalog) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	list, err := c.CatalogStorage.ListExercises(ctx)
	if err == nil && len(list) > 0 {
		return list, nil
	}
	c.logger.Warn("Serving embedded exercise catalog", zap.Error(err))
	return Exercises()
}

func (c *FallbackCatalog) GetExercise(ctx context.Context, id string) (*models.Exercise, error) {
	ex, err := c.CatalogStorage.GetExercise(ctx, id)
	if err == nil || errors.Is(err, storage.ErrNotFound) {
		return ex, err
	}
	c.logger.Warn("Looking up exercise in embedded catalog",
		zap.String("exercise_id", id),
		zap.Error(err))
	list, lerr := Exercises()
	if lerr != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, storage.ErrNotFound
}
