package recommender

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/xaenox/pocket-therapy/internal/models"
)

// Recommender ranks exercises for a request context. It holds no
// per-request state and is safe for concurrent use.
type Recommender struct {
	scorers []Scorer
	logger  *zap.Logger
}

// New creates a recommender. With no scorers it uses DefaultScorers.
func New(logger *zap.Logger, scorers ...Scorer) *Recommender {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(scorers) == 0 {
		scorers = DefaultScorers()
	}
	return &Recommender{scorers: scorers, logger: logger}
}

// Score runs every scorer over the catalog and returns the results sorted by
// descending score, ties broken by exercise ID. A scorer error or panic
// aborts the whole run.
func (r *Recommender) Score(exercises []models.Exercise, rc models.RecommendationContext) (scored []models.ScoredExercise, err error) {
	defer func() {
		if p := recover(); p != nil {
			scored = nil
			err = fmt.Errorf("scoring panicked: %v", p)
		}
	}()

	scored = make([]models.ScoredExercise, 0, len(exercises))
	for _, ex := range exercises {
		total := models.ScoredExercise{Exercise: ex, Score: baseScore}
		for _, s := range r.scorers {
			c, err := s.Score(ex, &rc)
			if err != nil {
				return nil, fmt.Errorf("%s scorer on %q: %w", s.Name(), ex.ID, err)
			}
			total.Score += c.Points
			total.Reasons = append(total.Reasons, c.Reasons...)
		}
		scored = append(scored, total)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Exercise.ID < scored[j].Exercise.ID
	})
	return scored, nil
}

// GetRecommendations returns at most limit exercises (DefaultLimit when
// limit <= 0). It never fails: on a scoring error the deterministic fallback
// selection is returned instead.
func (r *Recommender) GetRecommendations(exercises []models.Exercise, rc models.RecommendationContext, limit int) []models.Exercise {
	if limit <= 0 {
		limit = DefaultLimit
	}
	scored, err := r.Score(exercises, rc)
	if err != nil {
		r.logger.Warn("Scoring failed, using fallback recommendations",
			zap.Error(err),
			zap.Int("current_mood", rc.CurrentMood),
			zap.Int("catalog_size", len(exercises)))
		return Fallback(exercises, rc.CurrentMood, limit)
	}
	return Diversify(scored, limit)
}

// Diversify takes items in score order while no category exceeds
// ceil(limit/2) picks, then backfills the remaining slots by score.
func Diversify(scored []models.ScoredExercise, limit int) []models.Exercise {
	perCategory := (limit + 1) / 2
	counts := make(map[models.Category]int)
	picked := make([]models.Exercise, 0, limit)
	var skipped []models.Exercise

	for _, s := range scored {
		if len(picked) == limit {
			break
		}
		if counts[s.Exercise.Category] >= perCategory {
			skipped = append(skipped, s.Exercise)
			continue
		}
		counts[s.Exercise.Category]++
		picked = append(picked, s.Exercise)
	}
	for _, ex := range skipped {
		if len(picked) == limit {
			break
		}
		picked = append(picked, ex)
	}
	return picked
}

// GetCrisisRecommendations is the SOS fast path: short beginner breathing
// exercises with a calming tag, shortest first, at most three.
func (r *Recommender) GetCrisisRecommendations(exercises []models.Exercise) []models.Exercise {
	var out []models.Exercise
	for _, ex := range exercises {
		if ex.Category == models.CategoryBreathing &&
			ex.Difficulty == models.DifficultyBeginner &&
			ex.DurationSeconds <= crisisMaxDuration &&
			ex.HasTag(crisisTags...) {
			out = append(out, ex)
		}
	}
	sortByDuration(out)
	if len(out) > crisisLimit {
		out = out[:crisisLimit]
	}
	return out
}

// Fallback picks beginner exercises of at most ten minutes, preferring
// calming categories for low moods and cognitive ones for high moods. If
// nothing qualifies it returns the shortest exercises in the catalog.
func Fallback(exercises []models.Exercise, mood int, limit int) []models.Exercise {
	if limit <= 0 {
		limit = DefaultLimit
	}
	preferred := func(c models.Category) bool {
		switch {
		case mood >= 1 && mood <= 2:
			return c == models.CategoryBreathing || c == models.CategoryGrounding
		case mood >= 4 && mood <= 5:
			return c == models.CategoryCognitive
		}
		return false
	}

	var candidates []models.Exercise
	for _, ex := range exercises {
		if ex.Difficulty == models.DifficultyBeginner && ex.DurationSeconds <= fallbackMaxDuration {
			candidates = append(candidates, ex)
		}
	}
	if len(candidates) == 0 {
		candidates = append(candidates, exercises...)
		sortByDuration(candidates)
	} else {
		sort.SliceStable(candidates, func(i, j int) bool {
			pi, pj := preferred(candidates[i].Category), preferred(candidates[j].Category)
			if pi != pj {
				return pi
			}
			if candidates[i].DurationSeconds != candidates[j].DurationSeconds {
				return candidates[i].DurationSeconds < candidates[j].DurationSeconds
			}
			return candidates[i].ID < candidates[j].ID
		})
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

func sortByDuration(list []models.Exercise) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].DurationSeconds != list[j].DurationSeconds {
			return list[i].DurationSeconds < list[j].DurationSeconds
		}
		return list[i].ID < list[j].ID
	})
}
