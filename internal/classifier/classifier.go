package classifier

import (
	"context"
	"strings"

	"github.com/xaenox/pocket-therapy/internal/models"
)

// Classifier extracts trigger tags from a free-text check-in note.
type Classifier interface {
	ExtractTriggers(ctx context.Context, note string) []string
}

type SimpleClassifier struct {
	maxTags int
}

func NewSimpleClassifier(maxTags int) *SimpleClassifier {
	return &SimpleClassifier{
		maxTags: maxTags,
	}
}

var triggerKeywords = map[models.Trigger][]string{
	models.TriggerWork:          {"work", "job", "boss", "meeting", "deadline", "office", "coworker", "shift"},
	models.TriggerSchool:        {"school", "exam", "class", "homework", "study", "teacher", "grades"},
	models.TriggerSleep:         {"sleep", "tired", "insomnia", "exhausted", "nightmare", "awake"},
	models.TriggerRelationships: {"partner", "boyfriend", "girlfriend", "husband", "wife", "breakup", "date"},
	models.TriggerFamily:        {"family", "mom", "dad", "mother", "father", "parents", "sister", "brother", "kids"},
	models.TriggerHealth:        {"sick", "pain", "doctor", "health", "headache", "hospital", "ill"},
	models.TriggerMoney:         {"money", "rent", "bills", "debt", "pay", "budget", "loan"},
	models.TriggerLoneliness:    {"lonely", "alone", "isolated", "nobody", "miss"},
	models.TriggerSocial:        {"party", "friends", "people", "crowd", "social"},
	models.TriggerAnxiety:       {"anxious", "anxiety", "panic", "worried", "nervous", "overthinking"},
	models.TriggerStress:        {"stress", "stressed", "overwhelmed", "pressure", "too much"},
	models.TriggerNews:          {"news", "politics", "headlines", "war"},
}

// ExtractTriggers matches hashtags and keywords against the trigger vocabulary.
func (c *SimpleClassifier) ExtractTriggers(_ context.Context, note string) []string {
	tags := make(map[models.Trigger]struct{})

	// Extract hashtags
	for _, word := range strings.Fields(note) {
		if strings.HasPrefix(word, "#") {
			if t, ok := models.ParseTrigger(strings.Trim(word, "#.,!?")); ok {
				tags[t] = struct{}{}
			}
		}
	}

	words := tokenize(note)
	lower := " " + strings.Join(words, " ") + " "
	for trigger, keywords := range triggerKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, " "+kw+" ") {
				tags[trigger] = struct{}{}
				break
			}
		}
	}

	return c.limit(tags)
}

func (c *SimpleClassifier) limit(tags map[models.Trigger]struct{}) []string {
	result := make([]string, 0, len(tags))
	for _, t := range models.KnownTriggers {
		if _, ok := tags[t]; ok {
			result = append(result, string(t))
		}
	}
	if c.maxTags > 0 && len(result) > c.maxTags {
		result = result[:c.maxTags]
	}
	return result
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '\''
	})
}

// Normalize keeps known triggers only, lowercased, de-duplicated and in
// vocabulary order.
func Normalize(raw []string) []string {
	seen := make(map[models.Trigger]bool)
	for _, r := range raw {
		if t, ok := models.ParseTrigger(r); ok {
			seen[t] = true
		}
	}
	out := make([]string, 0, len(seen))
	for _, t := range models.KnownTriggers {
		if seen[t] {
			out = append(out, string(t))
		}
	}
	return out
}
