package crisis

import (
	"time"

	"github.com/xaenox/pocket-therapy/internal/models"
)

var staticVerified = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

// staticResources is the last line of fallback when neither the catalog nor
// the cache can be read.
var staticResources = []models.CrisisResource{
	{
		ID:              "us-988-lifeline",
		Name:            "988 Suicide & Crisis Lifeline",
		Type:            models.ResourceHotline,
		Phone:           "988",
		TextNumber:      "988",
		ChatURL:         "https://988lifeline.org/chat",
		Website:         "https://988lifeline.org",
		Region:          "us",
		Availability:    "24/7",
		Specializations: []string{"suicide", "crisis"},
		Languages:       []string{"en", "es"},
		LastVerified:    staticVerified,
	},
	{
		ID:              "us-crisis-text-line",
		Name:            "Crisis Text Line",
		Type:            models.ResourceText,
		TextNumber:      "741741",
		Website:         "https://www.crisistextline.org",
		Region:          "us",
		Availability:    "24/7",
		Specializations: []string{"crisis"},
		Languages:       []string{"en"},
		LastVerified:    staticVerified,
	},
	{
		ID:              "global-find-a-helpline",
		Name:            "Find A Helpline",
		Type:            models.ResourceWebsite,
		Website:         "https://findahelpline.com",
		Region:          models.RegionGlobal,
		Availability:    "24/7",
		Specializations: []string{"crisis"},
		Languages:       []string{"en"},
		LastVerified:    staticVerified,
	},
}

// StaticResources returns a copy of the hardcoded fallback set.
func StaticResources() []models.CrisisResource {
	return append([]models.CrisisResource(nil), staticResources...)
}
