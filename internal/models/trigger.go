package models

import "strings"

// Trigger is a known contextual factor a user can tag on a check-in.
type Trigger string

const (
	TriggerWork          Trigger = "work"
	TriggerSchool        Trigger = "school"
	TriggerSleep         Trigger = "sleep"
	TriggerRelationships Trigger = "relationships"
	TriggerFamily        Trigger = "family"
	TriggerHealth        Trigger = "health"
	TriggerMoney         Trigger = "money"
	TriggerLoneliness    Trigger = "loneliness"
	TriggerSocial        Trigger = "social"
	TriggerAnxiety       Trigger = "anxiety"
	TriggerStress        Trigger = "stress"
	TriggerNews          Trigger = "news"
)

// KnownTriggers lists the trigger vocabulary in display order.
var KnownTriggers = []Trigger{
	TriggerWork, TriggerSchool, TriggerSleep, TriggerRelationships,
	TriggerFamily, TriggerHealth, TriggerMoney, TriggerLoneliness,
	TriggerSocial, TriggerAnxiety, TriggerStress, TriggerNews,
}

// ParseTrigger normalizes a free-form tag. The second result is false for
// tags outside the vocabulary.
func ParseTrigger(s string) (Trigger, bool) {
	t := Trigger(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range KnownTriggers {
		if k == t {
			return t, true
		}
	}
	return t, false
}
