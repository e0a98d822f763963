package models

import "time"

const (
	MinMood = 1
	MaxMood = 5
)

// MoodEntry is a single check-in. Only the note may change after creation.
type MoodEntry struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Value     int       `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	Note      *string   `json:"note,omitempty"`
	Triggers  []string  `json:"triggers,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Valid reports whether the entry can take part in aggregates.
func (m MoodEntry) Valid() bool {
	return m.Value >= MinMood && m.Value <= MaxMood && !m.Timestamp.IsZero()
}

type Trend string

const (
	TrendImproving        Trend = "improving"
	TrendDeclining        Trend = "declining"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient_data"
)

type MoodAnalysis struct {
	Trend       Trend    `json:"trend"`
	AverageMood float64  `json:"average_mood"`
	Insights    []string `json:"insights"`
}

// BucketStats summarises the entries that fell into one time-of-day bucket.
type BucketStats struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

type TimePatterns struct {
	Buckets  map[TimeOfDay]BucketStats `json:"buckets"`
	Insights []string                  `json:"insights"`
}

type Severity string

const (
	SeverityLow  Severity = "low"
	SeverityHigh Severity = "high"
)

// MoodInsights drives the crisis-detection flow of the outer surfaces.
type MoodInsights struct {
	Severity        Severity     `json:"severity"`
	CrisisResources bool         `json:"crisis_resources"`
	Recommendations []string     `json:"recommendations"`
	Analysis        MoodAnalysis `json:"analysis"`
}
