package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xaenox/pocket-therapy/internal/models"
)

var moodFaces = map[int]string{1: "😞", 2: "🙁", 3: "😐", 4: "🙂", 5: "😄"}

func parseMood(s string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < models.MinMood || v > models.MaxMood {
		return 0, false
	}
	return v, true
}

func minutes(seconds int) string {
	m := (seconds + 59) / 60
	if m <= 1 {
		return "1 min"
	}
	return fmt.Sprintf("%d min", m)
}

func hashtags(tags []string) string {
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = "#" + strings.ReplaceAll(tag, " ", "_")
	}
	return strings.Join(out, " ")
}

func formatMoodLogged(entry *models.MoodEntry, insights models.MoodInsights) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Logged %s %d/5.", moodFaces[entry.Value], entry.Value)
	if len(entry.Triggers) > 0 {
		fmt.Fprintf(&sb, "\nTriggers: %s", hashtags(entry.Triggers))
	}
	for _, insight := range insights.Analysis.Insights {
		sb.WriteString("\n\n" + insight)
	}
	return sb.String()
}

func formatInsights(insights models.MoodInsights, patterns models.TimePatterns, triggers map[string]int) string {
	var sb strings.Builder
	a := insights.Analysis
	if a.Trend != models.TrendInsufficientData {
		fmt.Fprintf(&sb, "Average mood: %.1f/5 (%s)\n", a.AverageMood, strings.ReplaceAll(string(a.Trend), "_", " "))
	}
	for _, line := range a.Insights {
		sb.WriteString(line + "\n")
	}
	for _, line := range patterns.Insights {
		sb.WriteString(line + "\n")
	}
	if top := topTriggers(triggers, 3); len(top) > 0 {
		fmt.Fprintf(&sb, "Most tagged: %s\n", hashtags(top))
	}
	if len(insights.Recommendations) > 0 {
		sb.WriteString("\nIdeas for now:\n")
		for _, r := range insights.Recommendations {
			sb.WriteString("• " + r + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// topTriggers returns the n most frequent triggers, ties in vocabulary order.
func topTriggers(freq map[string]int, n int) []string {
	var out []string
	for count := maxCount(freq); count > 0 && len(out) < n; count-- {
		for _, t := range models.KnownTriggers {
			if freq[string(t)] == count && len(out) < n {
				out = append(out, string(t))
			}
		}
	}
	return out
}

func maxCount(freq map[string]int) int {
	m := 0
	for _, c := range freq {
		if c > m {
			m = c
		}
	}
	return m
}

// formatExercises renders a MarkdownV2 list.
func formatExercises(title string, list []models.Exercise) string {
	var sb strings.Builder
	sb.WriteString("*" + escapeMarkdown(title) + "*\n\n")
	for i, ex := range list {
		fmt.Fprintf(&sb, "%s *%s* \\(%s, %s\\)\n",
			escapeMarkdown(strconv.Itoa(i+1)+"."),
			escapeMarkdown(ex.Title),
			escapeMarkdown(string(ex.Category)),
			escapeMarkdown(minutes(ex.DurationSeconds)))
		if ex.Description != "" {
			sb.WriteString("_" + escapeMarkdown(ex.Description) + "_\n")
		}
		sb.WriteString("`" + ex.ID + "`\n\n")
	}
	sb.WriteString(escapeMarkdown("When you finish one, send /done <id> to log it."))
	return sb.String()
}

func formatSteps(ex models.Exercise) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", ex.Title, minutes(ex.DurationSeconds))
	for i, step := range ex.Instructions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, step)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatEmergency(bundle models.EmergencyBundle) string {
	var sb strings.Builder
	sb.WriteString(msgCrisisHeader + "\n")
	fmt.Fprintf(&sb, "\n🚨 Emergency services: %s\n", bundle.EmergencyNumber)
	for _, r := range bundle.CrisisHotlines {
		fmt.Fprintf(&sb, "📞 %s: %s (%s)\n", r.Name, r.Phone, r.Availability)
	}
	for _, r := range bundle.TextSupport {
		fmt.Fprintf(&sb, "💬 %s: text %s\n", r.Name, r.TextNumber)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatHistory renders a MarkdownV2 list of check-ins, newest first.
func formatHistory(entries []models.MoodEntry) string {
	var sb strings.Builder
	sb.WriteString("*Your recent check\\-ins:*\n\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "*%s* %s %s\n",
			escapeMarkdown(e.Timestamp.Format("Jan 2 15:04")),
			moodFaces[e.Value],
			escapeMarkdown(fmt.Sprintf("%d/5", e.Value)))
		if e.Note != nil {
			sb.WriteString("_" + escapeMarkdown(*e.Note) + "_\n")
		}
		if len(e.Triggers) > 0 {
			sb.WriteString(escapeMarkdown(hashtags(e.Triggers)) + "\n")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
