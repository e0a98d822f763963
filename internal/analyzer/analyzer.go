package analyzer

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/xaenox/pocket-therapy/internal/models"
)

const (
	// trendEpsilon is the smallest gap between the earlier and later half
	// averages that counts as a change.
	trendEpsilon = 0.3

	// highSeverityAverage is the ceiling of a persistently very-low average.
	highSeverityAverage = 2.0

	minTimePatternEntries = 3
	minTimePatternBuckets = 2
	timeSpreadThreshold   = 0.5
)

var bucketOrder = []models.TimeOfDay{models.Morning, models.Afternoon, models.Evening, models.Night}

// Analyzer derives trends and insights from mood history. It never mutates
// its input.
type Analyzer struct {
	loc *time.Location
}

// New creates an analyzer that buckets timestamps in loc (time.Local if nil).
func New(loc *time.Location) *Analyzer {
	if loc == nil {
		loc = time.Local
	}
	return &Analyzer{loc: loc}
}

// validEntries drops out-of-range and undated entries and returns the rest
// in chronological order.
func validEntries(entries []models.MoodEntry) []models.MoodEntry {
	out := make([]models.MoodEntry, 0, len(entries))
	for _, e := range entries {
		if e.Valid() {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func mean(entries []models.MoodEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	sum := 0
	for _, e := range entries {
		sum += e.Value
	}
	return float64(sum) / float64(len(entries))
}

// classifyTrend compares the earlier half of a chronological sequence with
// the later half. The middle entry of an odd sequence belongs to the later half.
func classifyTrend(sorted []models.MoodEntry) models.Trend {
	if len(sorted) < 2 {
		return models.TrendInsufficientData
	}
	mid := len(sorted) / 2
	diff := mean(sorted[mid:]) - mean(sorted[:mid])
	switch {
	case diff > trendEpsilon:
		return models.TrendImproving
	case diff < -trendEpsilon:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

// AnalyzeMoodPatterns reports trend, average and readable insights.
func (a *Analyzer) AnalyzeMoodPatterns(entries []models.MoodEntry) models.MoodAnalysis {
	valid := validEntries(entries)
	if len(valid) < 2 {
		return models.MoodAnalysis{
			Trend:       models.TrendInsufficientData,
			AverageMood: 0,
			Insights:    []string{msgInsufficientData},
		}
	}

	avg := mean(valid)
	trend := classifyTrend(valid)

	insights := []string{trendMessages[trend], averageMessage(avg)}
	if top, ok := topTrigger(valid); ok {
		insights = append(insights, fmt.Sprintf(msgTopTrigger, capitalize(top)))
	}

	return models.MoodAnalysis{
		Trend:       trend,
		AverageMood: avg,
		Insights:    insights,
	}
}

func averageMessage(avg float64) string {
	band := int(math.Floor(avg))
	if band < 1 {
		band = 1
	}
	if band > 4 {
		band = 4
	}
	return averageMessages[band]
}

// IdentifyTriggers flattens every trigger tag. Duplicates are kept so the
// caller can count frequency.
func (a *Analyzer) IdentifyTriggers(entries []models.MoodEntry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Triggers...)
	}
	return out
}

// TriggerFrequency counts how often each trigger tag appears.
func (a *Analyzer) TriggerFrequency(entries []models.MoodEntry) map[string]int {
	freq := make(map[string]int)
	for _, t := range a.IdentifyTriggers(entries) {
		freq[t]++
	}
	return freq
}

func topTrigger(entries []models.MoodEntry) (string, bool) {
	freq := make(map[string]int)
	for _, e := range entries {
		for _, t := range e.Triggers {
			if t != "" {
				freq[t]++
			}
		}
	}
	best, bestN := "", 0
	for t, n := range freq {
		if n > bestN || (n == bestN && t < best) {
			best, bestN = t, n
		}
	}
	return best, bestN > 0
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}

// DetectTimePatterns averages entries per time-of-day bucket.
func (a *Analyzer) DetectTimePatterns(entries []models.MoodEntry) models.TimePatterns {
	valid := validEntries(entries)
	sums := make(map[models.TimeOfDay]int)
	buckets := make(map[models.TimeOfDay]models.BucketStats)
	for _, e := range valid {
		b := models.TimeOfDayAt(e.Timestamp.In(a.loc))
		s := buckets[b]
		s.Count++
		sums[b] += e.Value
		buckets[b] = s
	}
	for b, s := range buckets {
		s.Average = float64(sums[b]) / float64(s.Count)
		buckets[b] = s
	}

	patterns := models.TimePatterns{Buckets: buckets}
	if len(valid) < minTimePatternEntries || len(buckets) < minTimePatternBuckets {
		patterns.Insights = []string{msgTimeInsufficientData}
		return patterns
	}

	var best, worst models.TimeOfDay
	for _, b := range bucketOrder {
		s, ok := buckets[b]
		if !ok {
			continue
		}
		if best == "" || s.Average > buckets[best].Average {
			best = b
		}
		if worst == "" || s.Average < buckets[worst].Average {
			worst = b
		}
	}

	if buckets[best].Average-buckets[worst].Average < timeSpreadThreshold {
		patterns.Insights = []string{msgEvenDay}
		return patterns
	}
	patterns.Insights = []string{
		fmt.Sprintf(msgBestTime, best),
		fmt.Sprintf(msgHardestTime, worst),
	}
	return patterns
}

// CalculateMoodScore returns the mean of valid entries. When recencyWeighted
// is set, the i-th oldest entry carries weight i+1, so newer check-ins pull
// the score toward themselves.
func (a *Analyzer) CalculateMoodScore(entries []models.MoodEntry, recencyWeighted bool) float64 {
	valid := validEntries(entries)
	if len(valid) == 0 {
		return 0
	}
	if !recencyWeighted {
		return mean(valid)
	}
	var sum, weights float64
	for i, e := range valid {
		w := float64(i + 1)
		sum += w * float64(e.Value)
		weights += w
	}
	return sum / weights
}

// GetMoodInsights maps the analysis into a severity tier. High severity
// flags the crisis-resource flow.
func (a *Analyzer) GetMoodInsights(entries []models.MoodEntry) models.MoodInsights {
	analysis := a.AnalyzeMoodPatterns(entries)
	if analysis.Trend != models.TrendInsufficientData &&
		analysis.AverageMood <= highSeverityAverage &&
		analysis.Trend != models.TrendImproving {
		return models.MoodInsights{
			Severity:        models.SeverityHigh,
			CrisisResources: true,
			Recommendations: append([]string(nil), supportRecommendations...),
			Analysis:        analysis,
		}
	}
	return models.MoodInsights{
		Severity:        models.SeverityLow,
		CrisisResources: false,
		Recommendations: append([]string(nil), everydayRecommendations...),
		Analysis:        analysis,
	}
}
