package analyzer

import "github.com/xaenox/pocket-therapy/internal/models"

const (
	msgInsufficientData     = "Keep checking in over the next few days to start seeing your patterns."
	msgTopTrigger           = "%s comes up most often alongside your check-ins."
	msgTimeInsufficientData = "A few more check-ins at different times of day will show when you tend to feel best."
	msgBestTime             = "You tend to feel brightest in the %s."
	msgHardestTime          = "The %s tends to feel heavier; a short exercise then may help."
	msgEvenDay              = "Your mood looks fairly even across the day."
)

var trendMessages = map[models.Trend]string{
	models.TrendImproving: "Your mood has been lifting lately. Notice what has been helping.",
	models.TrendDeclining: "Things seem heavier lately. Be gentle with yourself, and reach out for support if it helps.",
	models.TrendStable:    "Your mood has been fairly steady.",
}

// averageMessages is indexed by the floor of the average mood, clamped to [1,4].
var averageMessages = map[int]string{
	1: "Recent days have been really hard. You don't have to go through this alone.",
	2: "You've been carrying a lot. Small moments of care can make a difference.",
	3: "You're finding some balance. Keep noticing what supports you.",
	4: "You've been feeling good. Take a moment to enjoy it.",
}

var supportRecommendations = []string{
	"Reaching out to someone you trust or a crisis line can help right now.",
	"A short breathing exercise can help you feel a little more grounded.",
	"You deserve support, and help is available any time of day.",
}

var everydayRecommendations = []string{
	"Checking in with yourself is a caring habit. Keep it going.",
	"Try an exercise that matches how you feel today.",
}

// MessageCatalog returns every static string the analyzer can produce.
func MessageCatalog() []string {
	out := []string{
		msgInsufficientData, msgTopTrigger, msgTimeInsufficientData,
		msgBestTime, msgHardestTime, msgEvenDay,
	}
	for _, m := range trendMessages {
		out = append(out, m)
	}
	for _, m := range averageMessages {
		out = append(out, m)
	}
	out = append(out, supportRecommendations...)
	out = append(out, everydayRecommendations...)
	return out
}
