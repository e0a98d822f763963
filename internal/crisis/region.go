package crisis

import (
	"strings"

	"github.com/xaenox/pocket-therapy/internal/models"
)

// countryRegions maps lowercased country names and ISO codes to region codes.
var countryRegions = map[string]string{
	"united states":            "us",
	"united states of america": "us",
	"usa":                      "us",
	"us":                       "us",
	"canada":                   "ca",
	"ca":                       "ca",
	"united kingdom":           "uk",
	"uk":                       "uk",
	"gb":                       "uk",
	"great britain":            "uk",
	"ireland":                  "ie",
	"ie":                       "ie",
	"australia":                "au",
	"au":                       "au",
	"new zealand":              "nz",
	"nz":                       "nz",
	"india":                    "in",
	"in":                       "in",
	"eu":                       "eu",
	"germany":                  "eu",
	"france":                   "eu",
	"spain":                    "eu",
	"italy":                    "eu",
	"netherlands":              "eu",
	"de":                       "eu",
	"fr":                       "eu",
	"es":                       "eu",
	"it":                       "eu",
	"nl":                       "eu",
}

var emergencyNumbers = map[string]string{
	"us":               "911",
	"ca":               "911",
	"uk":               "999",
	"ie":               "112",
	"au":               "000",
	"nz":               "111",
	"in":               "112",
	"eu":               "112",
	models.RegionGlobal: "112",
}

// RegionFor maps a country name or ISO code to a region code, defaulting to
// the global region.
func RegionFor(country string) string {
	if r, ok := countryRegions[strings.ToLower(strings.TrimSpace(country))]; ok {
		return r
	}
	return models.RegionGlobal
}

// EmergencyNumber returns the local emergency services number for a region.
func EmergencyNumber(region string) string {
	if n, ok := emergencyNumbers[region]; ok {
		return n
	}
	return emergencyNumbers[models.RegionGlobal]
}
