package crisis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/pocket-therapy/internal/models"
)

// staleAfterMonths is how long a resource stays trusted without re-review.
const staleAfterMonths = 6

// FindStale returns the resources last verified more than six months
// before now, oldest first.
func FindStale(resources []models.CrisisResource, now time.Time) []models.StaleResource {
	cutoff := now.AddDate(0, -staleAfterMonths, 0)
	var stale []models.StaleResource
	for _, r := range resources {
		if r.LastVerified.Before(cutoff) {
			stale = append(stale, models.StaleResource{
				Resource:     r,
				LastVerified: r.LastVerified,
				Age:          now.Sub(r.LastVerified),
			})
		}
	}
	sort.SliceStable(stale, func(i, j int) bool {
		return stale[i].LastVerified.Before(stale[j].LastVerified)
	})
	return stale
}

// ValidateResources flags catalog entries due for manual review. It is a
// maintenance task and, unlike the lookup path, reports catalog errors.
func (l *Locator) ValidateResources(ctx context.Context) ([]models.StaleResource, error) {
	resources, err := l.catalog.ListCrisisResources(ctx)
	if err != nil {
		return nil, fmt.Errorf("list crisis resources: %w", err)
	}
	stale := FindStale(resources, l.now())
	for _, s := range stale {
		l.logger.Warn("Crisis resource needs re-verification",
			zap.String("resource_id", s.Resource.ID),
			zap.String("name", s.Resource.Name),
			zap.Time("last_verified", s.LastVerified))
	}
	return stale, nil
}
