package recommender

import (
	"fmt"
	"sort"

	"github.com/xaenox/pocket-therapy/internal/models"
)

// Contribution is one scorer's share of an exercise's total.
type Contribution struct {
	Points  float64
	Reasons []string
}

func (c *Contribution) add(points float64, reason string) {
	c.Points += points
	if reason != "" {
		c.Reasons = append(c.Reasons, reason)
	}
}

// Scorer adds an independent score component for one exercise.
type Scorer interface {
	Name() string
	Score(ex models.Exercise, rc *models.RecommendationContext) (Contribution, error)
}

// DefaultScorers returns the standard scoring pipeline.
func DefaultScorers() []Scorer {
	return []Scorer{
		MoodScorer{},
		TriggerScorer{},
		TimeScorer{},
		PreferenceScorer{},
		HistoryScorer{},
	}
}

// MoodScorer applies category affinity for the current mood, plus
// difficulty and duration adjustments for low moods.
type MoodScorer struct{}

func (MoodScorer) Name() string { return "mood" }

func (MoodScorer) Score(ex models.Exercise, rc *models.RecommendationContext) (Contribution, error) {
	var c Contribution
	affinity, ok := moodAffinity[rc.CurrentMood]
	if !ok {
		return c, fmt.Errorf("mood %d outside %d-%d", rc.CurrentMood, models.MinMood, models.MaxMood)
	}
	if pts := affinity[ex.Category]; pts > 0 {
		c.add(pts, reasonMood)
	}

	if rc.CurrentMood <= 2 {
		pts := lowMoodDifficulty[ex.Difficulty]
		reason := ""
		if pts > 0 {
			reason = reasonGentle
		}
		c.add(pts, reason)
		switch {
		case ex.DurationSeconds <= 300:
			c.add(10, reasonShort)
		case ex.DurationSeconds > 600:
			c.add(-10, "")
		}
	} else if rc.CurrentMood >= 4 && ex.Difficulty != models.DifficultyBeginner {
		c.add(5, "")
	}
	return c, nil
}

// TriggerScorer maps known triggers to categories and tags. Unknown
// triggers add nothing.
type TriggerScorer struct{}

func (TriggerScorer) Name() string { return "trigger" }

func (TriggerScorer) Score(ex models.Exercise, rc *models.RecommendationContext) (Contribution, error) {
	var c Contribution
	for _, raw := range rc.Triggers {
		trigger, ok := models.ParseTrigger(raw)
		if !ok {
			continue
		}
		aff := triggerAffinities[trigger]
		matched := false
		for _, cat := range aff.categories {
			if ex.Category == cat {
				c.add(triggerCategory, "")
				matched = true
				break
			}
		}
		for _, tag := range aff.tags {
			if ex.HasTag(tag) {
				c.add(triggerTag, "")
				matched = true
			}
		}
		if matched {
			c.Reasons = append(c.Reasons, fmt.Sprintf(reasonTrigger, trigger))
		}
	}
	return c, nil
}

// TimeScorer fits the exercise to the time of day and the time available.
// Exercises over the ceiling are pushed down, not removed.
type TimeScorer struct{}

func (TimeScorer) Name() string { return "time" }

func (TimeScorer) Score(ex models.Exercise, rc *models.RecommendationContext) (Contribution, error) {
	var c Contribution
	switch rc.TimeOfDay {
	case models.Morning:
		if ex.Category == models.CategoryCognitive {
			c.add(5, reasonMorning)
		}
	case models.Evening, models.Night:
		if ex.HasTag("sleep", "relaxation") {
			c.add(5, reasonWindDown)
		}
	}

	ceiling := rc.AvailableTime.Ceiling()
	switch {
	case ex.DurationSeconds > ceiling:
		c.add(overTimePenalty, reasonTooLong)
	case float64(ex.DurationSeconds) >= goodFitRatio*float64(ceiling):
		c.add(goodFitBonus, reasonGoodFit)
	}
	return c, nil
}

// PreferenceScorer rewards favorite categories and familiar exercises and
// demotes avoided ones.
type PreferenceScorer struct{}

func (PreferenceScorer) Name() string { return "preference" }

func (PreferenceScorer) Score(ex models.Exercise, rc *models.RecommendationContext) (Contribution, error) {
	var c Contribution
	p := rc.Preferences
	if p == nil {
		return c, nil
	}
	for _, cat := range p.FavoriteCategories {
		if cat == ex.Category {
			c.add(favoriteBonus, reasonFavorite)
			break
		}
	}
	if contains(p.CompletedExercises, ex.ID) {
		c.add(familiarityBonus, reasonFamiliar)
	}
	if contains(p.AvoidedExercises, ex.ID) {
		c.add(avoidedPenalty, reasonAvoided)
	}
	return c, nil
}

// HistoryScorer looks at the most recent check-ins: a low stretch favors
// breathing, a lift in mood favors cognitive work.
type HistoryScorer struct{}

func (HistoryScorer) Name() string { return "history" }

func (HistoryScorer) Score(ex models.Exercise, rc *models.RecommendationContext) (Contribution, error) {
	var c Contribution
	recent := recentWindow(rc.RecentMoods)
	if len(recent) == 0 {
		return c, nil
	}
	if ex.Category == models.CategoryBreathing && average(recent) <= lowHistoryAverage {
		c.add(lowHistoryBonus, reasonLowStretch)
	}
	if ex.Category == models.CategoryCognitive && improving(recent) {
		c.add(improvingBonus, reasonBuildMomentum)
	}
	return c, nil
}

// recentWindow returns up to historyWindow of the newest valid entries in
// chronological order.
func recentWindow(entries []models.MoodEntry) []models.MoodEntry {
	valid := make([]models.MoodEntry, 0, len(entries))
	for _, e := range entries {
		if e.Valid() {
			valid = append(valid, e)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Timestamp.Before(valid[j].Timestamp)
	})
	if len(valid) > historyWindow {
		valid = valid[len(valid)-historyWindow:]
	}
	return valid
}

func average(entries []models.MoodEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	sum := 0
	for _, e := range entries {
		sum += e.Value
	}
	return float64(sum) / float64(len(entries))
}

func improving(chrono []models.MoodEntry) bool {
	if len(chrono) < 2 {
		return false
	}
	mid := len(chrono) / 2
	return average(chrono[mid:])-average(chrono[:mid]) > historyEpsilon
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
