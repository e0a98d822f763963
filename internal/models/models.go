package models

import "time"

// Category groups exercises by technique.
type Category string

const (
	CategoryBreathing Category = "breathing"
	CategoryGrounding Category = "grounding"
	CategoryCognitive Category = "cognitive"
)

// Categories lists every known exercise category.
var Categories = []Category{CategoryBreathing, CategoryGrounding, CategoryCognitive}

func (c Category) Valid() bool {
	switch c {
	case CategoryBreathing, CategoryGrounding, CategoryCognitive:
		return true
	}
	return false
}

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// TimeOfDay is the coarse local-time bucket used by scoring and pattern detection.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
)

// TimeOfDayAt buckets a wall-clock hour: morning [5,12), afternoon [12,17),
// evening [17,21), night otherwise.
func TimeOfDayAt(t time.Time) TimeOfDay {
	h := t.Hour()
	switch {
	case h >= 5 && h < 12:
		return Morning
	case h >= 12 && h < 17:
		return Afternoon
	case h >= 17 && h < 21:
		return Evening
	default:
		return Night
	}
}

// AvailableTime is how long the user says they can spend on an exercise.
type AvailableTime string

const (
	TimeShort  AvailableTime = "short"
	TimeMedium AvailableTime = "medium"
	TimeLong   AvailableTime = "long"
)

// Ceiling returns the longest exercise, in seconds, that fits the bucket.
// Unknown buckets are treated as medium.
func (a AvailableTime) Ceiling() int {
	switch a {
	case TimeShort:
		return 300
	case TimeLong:
		return 1800
	default:
		return 900
	}
}

// Exercise is a seeded, read-only catalog entry.
type Exercise struct {
	ID                string     `json:"id" yaml:"id"`
	Title             string     `json:"title" yaml:"title"`
	Category          Category   `json:"category" yaml:"category"`
	Difficulty        Difficulty `json:"difficulty" yaml:"difficulty"`
	DurationSeconds   int        `json:"duration_seconds" yaml:"duration_seconds"`
	Description       string     `json:"description" yaml:"description"`
	Instructions      []string   `json:"instructions" yaml:"instructions"`
	Benefits          []string   `json:"benefits" yaml:"benefits"`
	Tags              []string   `json:"tags" yaml:"tags"`
	CrisisAppropriate bool       `json:"crisis_appropriate" yaml:"crisis_appropriate"`
}

// HasTag reports whether the exercise carries any of the given tags.
func (e Exercise) HasTag(tags ...string) bool {
	for _, have := range e.Tags {
		for _, want := range tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// ExerciseSession records one attempt at an exercise.
type ExerciseSession struct {
	ID          string     `json:"id"`
	UserID      int64      `json:"user_id"`
	ExerciseID  string     `json:"exercise_id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Completed   bool       `json:"completed"`
	Rating      *int       `json:"rating,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	MoodAtStart *int       `json:"mood_at_start,omitempty"`
	TimeOfDay   TimeOfDay  `json:"time_of_day"`
}

// UserPreferences are kept in the key-value store, one JSON document per user.
type UserPreferences struct {
	FavoriteCategories []Category    `json:"favorite_categories,omitempty"`
	CompletedExercises []string      `json:"completed_exercises,omitempty"`
	AvoidedExercises   []string      `json:"avoided_exercises,omitempty"`
	ContactMethod      ContactMethod `json:"contact_method,omitempty"`
	Language           string        `json:"language,omitempty"`
}

// RecommendationContext is built per request and never persisted.
type RecommendationContext struct {
	CurrentMood   int              `json:"current_mood"`
	Triggers      []string         `json:"triggers,omitempty"`
	TimeOfDay     TimeOfDay        `json:"time_of_day"`
	AvailableTime AvailableTime    `json:"available_time"`
	Preferences   *UserPreferences `json:"preferences,omitempty"`
	RecentMoods   []MoodEntry      `json:"recent_moods,omitempty"`
}

// ScoredExercise is an exercise with its total score and the reasons that built it.
type ScoredExercise struct {
	Exercise Exercise `json:"exercise"`
	Score    float64  `json:"score"`
	Reasons  []string `json:"reasons,omitempty"`
}
