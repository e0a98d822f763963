package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/pocket-therapy/internal/models"
	"github.com/xaenox/pocket-therapy/internal/wording"
)

var day0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func series(values ...int) []models.MoodEntry {
	out := make([]models.MoodEntry, len(values))
	for i, v := range values {
		out[i] = models.MoodEntry{
			ID:        string(rune('a' + i)),
			Value:     v,
			Timestamp: day0.Add(time.Duration(i) * 24 * time.Hour),
		}
	}
	return out
}

func TestAnalyzeMoodPatterns_Empty(t *testing.T) {
	a := New(time.UTC)
	got := a.AnalyzeMoodPatterns(nil)
	assert.Equal(t, models.TrendInsufficientData, got.Trend)
	assert.Equal(t, 0.0, got.AverageMood)
	require.Len(t, got.Insights, 1)
}

func TestAnalyzeMoodPatterns_SingleValidEntry(t *testing.T) {
	a := New(time.UTC)
	got := a.AnalyzeMoodPatterns(series(4, 0, 6))
	assert.Equal(t, models.TrendInsufficientData, got.Trend)
	assert.Equal(t, 0.0, got.AverageMood)
}

func TestAnalyzeMoodPatterns_Trends(t *testing.T) {
	a := New(time.UTC)
	tests := []struct {
		name   string
		values []int
		trend  models.Trend
		avg    float64
	}{
		{"improving", []int{2, 3, 4, 4}, models.TrendImproving, 3.25},
		{"declining", []int{4, 3, 2, 2}, models.TrendDeclining, 2.75},
		{"stable", []int{3, 3, 3, 3}, models.TrendStable, 3},
		{"small wobble is stable", []int{3, 3, 3, 3, 3, 4, 3, 3}, models.TrendStable, 25.0 / 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.AnalyzeMoodPatterns(series(tt.values...))
			assert.Equal(t, tt.trend, got.Trend)
			assert.InDelta(t, tt.avg, got.AverageMood, 1e-9)
			assert.NotEmpty(t, got.Insights)
		})
	}
}

func TestAnalyzeMoodPatterns_IgnoresOutOfRange(t *testing.T) {
	a := New(time.UTC)
	entries := series(0, 2, 6, 4)
	got := a.AnalyzeMoodPatterns(entries)
	assert.InDelta(t, 3.0, got.AverageMood, 1e-9)
}

func TestAnalyzeMoodPatterns_SortsChronologically(t *testing.T) {
	a := New(time.UTC)
	entries := series(2, 3, 4, 4)
	shuffled := []models.MoodEntry{entries[3], entries[0], entries[2], entries[1]}
	assert.Equal(t, models.TrendImproving, a.AnalyzeMoodPatterns(shuffled).Trend)
	assert.Equal(t, entries[3].ID, shuffled[0].ID, "input must not be reordered")
}

func TestAnalyzeMoodPatterns_Deterministic(t *testing.T) {
	a := New(time.UTC)
	entries := series(1, 5, 2, 4, 3)
	entries[0].Triggers = []string{"work", "sleep"}
	entries[2].Triggers = []string{"sleep"}
	first := a.AnalyzeMoodPatterns(entries)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, a.AnalyzeMoodPatterns(entries))
	}
	assert.Contains(t, first.Insights, "Sleep comes up most often alongside your check-ins.")
}

func TestIdentifyTriggers(t *testing.T) {
	a := New(time.UTC)
	entries := series(3, 3, 3)
	entries[0].Triggers = []string{"work", "sleep"}
	entries[1].Triggers = nil
	entries[2].Triggers = []string{"work"}

	assert.Equal(t, []string{"work", "sleep", "work"}, a.IdentifyTriggers(entries))
	assert.Equal(t, map[string]int{"work": 2, "sleep": 1}, a.TriggerFrequency(entries))
	assert.Empty(t, a.IdentifyTriggers(series(3, 4)))
}

func TestDetectTimePatterns(t *testing.T) {
	a := New(time.UTC)
	at := func(hour, value int) models.MoodEntry {
		return models.MoodEntry{Value: value, Timestamp: time.Date(2026, 3, 2, hour, 0, 0, 0, time.UTC)}
	}

	t.Run("insufficient", func(t *testing.T) {
		got := a.DetectTimePatterns([]models.MoodEntry{at(8, 4), at(9, 4)})
		assert.Equal(t, []string{msgTimeInsufficientData}, got.Insights)
		assert.Equal(t, 2, got.Buckets[models.Morning].Count)
	})

	t.Run("single bucket", func(t *testing.T) {
		got := a.DetectTimePatterns([]models.MoodEntry{at(8, 4), at(9, 4), at(10, 2)})
		assert.Equal(t, []string{msgTimeInsufficientData}, got.Insights)
	})

	t.Run("best and hardest", func(t *testing.T) {
		got := a.DetectTimePatterns([]models.MoodEntry{at(8, 5), at(9, 4), at(22, 2), at(23, 1), at(14, 3)})
		assert.InDelta(t, 4.5, got.Buckets[models.Morning].Average, 1e-9)
		assert.InDelta(t, 1.5, got.Buckets[models.Night].Average, 1e-9)
		assert.Equal(t, []string{
			"You tend to feel brightest in the morning.",
			"The night tends to feel heavier; a short exercise then may help.",
		}, got.Insights)
	})

	t.Run("even", func(t *testing.T) {
		got := a.DetectTimePatterns([]models.MoodEntry{at(8, 3), at(13, 3), at(18, 3)})
		assert.Equal(t, []string{msgEvenDay}, got.Insights)
	})
}

func TestCalculateMoodScore(t *testing.T) {
	a := New(time.UTC)
	entries := series(2, 2, 2, 5)

	assert.InDelta(t, 2.75, a.CalculateMoodScore(entries, false), 1e-9)
	weighted := a.CalculateMoodScore(entries, true)
	assert.Greater(t, weighted, a.CalculateMoodScore(entries, false))
	assert.InDelta(t, 32.0/10, weighted, 1e-9)

	assert.Equal(t, 0.0, a.CalculateMoodScore(nil, true))
	assert.Equal(t, 0.0, a.CalculateMoodScore(series(0, 7), false))
}

func TestGetMoodInsights(t *testing.T) {
	a := New(time.UTC)

	high := a.GetMoodInsights(series(2, 1, 1, 1))
	assert.Equal(t, models.SeverityHigh, high.Severity)
	assert.True(t, high.CrisisResources)
	assert.NotEmpty(t, high.Recommendations)

	recovering := a.GetMoodInsights(series(1, 1, 2, 3))
	assert.Equal(t, models.SeverityLow, recovering.Severity)
	assert.False(t, recovering.CrisisResources)

	ok := a.GetMoodInsights(series(4, 4, 5))
	assert.Equal(t, models.SeverityLow, ok.Severity)

	sparse := a.GetMoodInsights(series(1))
	assert.Equal(t, models.SeverityLow, sparse.Severity)
}

func TestMessageCatalog_Supportive(t *testing.T) {
	for _, msg := range MessageCatalog() {
		word, hit := wording.Banned(msg)
		assert.False(t, hit, "%q contains %q", msg, word)
	}
}
