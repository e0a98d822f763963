package recommender

import "github.com/xaenox/pocket-therapy/internal/models"

const (
	baseScore = 50.0

	DefaultLimit = 5

	overTimePenalty   = -100.0
	goodFitBonus      = 10.0
	goodFitRatio      = 0.7
	favoriteBonus     = 20.0
	familiarityBonus  = 5.0
	avoidedPenalty    = -50.0
	triggerCategory   = 15.0
	triggerTag        = 10.0
	lowHistoryBonus   = 15.0
	improvingBonus    = 10.0
	historyWindow     = 7
	lowHistoryAverage = 2.5
	historyEpsilon    = 0.3

	crisisMaxDuration   = 300
	crisisLimit         = 3
	fallbackMaxDuration = 600
)

// moodAffinity holds per-category points for each mood level. Low moods lean
// on breathing and grounding, high moods on cognitive work.
var moodAffinity = map[int]map[models.Category]float64{
	1: {models.CategoryBreathing: 30, models.CategoryGrounding: 25, models.CategoryCognitive: 5},
	2: {models.CategoryBreathing: 25, models.CategoryGrounding: 25, models.CategoryCognitive: 10},
	3: {models.CategoryBreathing: 15, models.CategoryGrounding: 15, models.CategoryCognitive: 20},
	4: {models.CategoryBreathing: 10, models.CategoryGrounding: 10, models.CategoryCognitive: 25},
	5: {models.CategoryBreathing: 10, models.CategoryGrounding: 5, models.CategoryCognitive: 30},
}

var lowMoodDifficulty = map[models.Difficulty]float64{
	models.DifficultyBeginner:     15,
	models.DifficultyIntermediate: 0,
	models.DifficultyAdvanced:     -15,
}

type triggerAffinity struct {
	categories []models.Category
	tags       []string
}

var triggerAffinities = map[models.Trigger]triggerAffinity{
	models.TriggerWork:          {[]models.Category{models.CategoryGrounding, models.CategoryCognitive}, []string{"stress", "focus"}},
	models.TriggerSchool:        {[]models.Category{models.CategoryCognitive}, []string{"focus", "stress"}},
	models.TriggerSleep:         {[]models.Category{models.CategoryBreathing}, []string{"sleep", "relaxation"}},
	models.TriggerRelationships: {[]models.Category{models.CategoryCognitive}, []string{"self-compassion"}},
	models.TriggerFamily:        {[]models.Category{models.CategoryCognitive, models.CategoryGrounding}, []string{"self-compassion"}},
	models.TriggerHealth:        {[]models.Category{models.CategoryBreathing, models.CategoryGrounding}, []string{"calming"}},
	models.TriggerMoney:         {[]models.Category{models.CategoryCognitive}, []string{"stress"}},
	models.TriggerLoneliness:    {[]models.Category{models.CategoryCognitive}, []string{"self-compassion", "connection"}},
	models.TriggerSocial:        {[]models.Category{models.CategoryGrounding}, []string{"anxiety"}},
	models.TriggerAnxiety:       {[]models.Category{models.CategoryBreathing, models.CategoryGrounding}, []string{"anxiety", "calming"}},
	models.TriggerStress:        {[]models.Category{models.CategoryBreathing}, []string{"stress", "calming"}},
	models.TriggerNews:          {[]models.Category{models.CategoryGrounding}, []string{"calming"}},
}

var crisisTags = []string{"calming", "anxiety", "stress", "emergency"}

const (
	reasonMood          = "Suited to how you're feeling right now"
	reasonGentle        = "Gentle and easy to start"
	reasonShort         = "Short enough to fit a tough moment"
	reasonTrigger       = "Helps with %s"
	reasonMorning       = "A clear-headed way to start the day"
	reasonWindDown      = "Helps you wind down"
	reasonTooLong       = "Longer than the time you have"
	reasonGoodFit       = "Makes good use of the time you have"
	reasonFavorite      = "From a category you enjoy"
	reasonFamiliar      = "Something you've done before"
	reasonAvoided       = "You asked to see this one less"
	reasonLowStretch    = "Calming support for a hard stretch"
	reasonBuildMomentum = "Builds on your recent lift in mood"
)

// ReasonCatalog returns every static justification string.
func ReasonCatalog() []string {
	return []string{
		reasonMood, reasonGentle, reasonShort, reasonTrigger, reasonMorning,
		reasonWindDown, reasonTooLong, reasonGoodFit, reasonFavorite,
		reasonFamiliar, reasonAvoided, reasonLowStretch, reasonBuildMomentum,
	}
}
