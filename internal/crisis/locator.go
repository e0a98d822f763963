package crisis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/pocket-therapy/internal/kv"
	"github.com/xaenox/pocket-therapy/internal/models"
	"github.com/xaenox/pocket-therapy/pkg/fallback"
)

const (
	// locationKey is server-scoped: the service has no per-user device, so
	// the resolved location describes the host and is shared by all callers.
	locationKey  = "crisis:location"
	resourcesKey = "crisis:resources"

	DefaultLocationTTL = 24 * time.Hour
)

var errNoResources = errors.New("no crisis resources for region")

// Catalog is the source of the seeded crisis-resource catalog.
type Catalog interface {
	ListCrisisResources(ctx context.Context) ([]models.CrisisResource, error)
}

// ResourceQuery narrows the catalog. Every field is optional.
type ResourceQuery struct {
	// Country skips location resolution when the caller already knows it.
	Country        string
	Emergency      bool
	Method         models.ContactMethod
	Specialization string
	Language       string
}

type Config struct {
	DefaultCountry string
	LocationTTL    time.Duration
	// ResourceCacheTTL bounds the cached resource list. Zero keeps it
	// until it is overwritten.
	ResourceCacheTTL time.Duration
}

// cachedResources holds the whole catalog; region and query filters are
// applied on read so one entry serves every caller.
type cachedResources struct {
	Resources []models.CrisisResource `json:"resources"`
	CachedAt  time.Time               `json:"cached_at"`
}

// Locator selects crisis resources for the caller's region. None of its
// methods return errors: every failure degrades to cached, then static data.
type Locator struct {
	catalog   Catalog
	store     kv.Store
	providers []LocationProvider
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

// NewLocator builds a locator. Providers are tried in order after the
// cached location and before the configured default country.
func NewLocator(catalog Catalog, store kv.Store, cfg Config, logger *zap.Logger, providers ...LocationProvider) *Locator {
	if cfg.LocationTTL <= 0 {
		cfg.LocationTTL = DefaultLocationTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locator{
		catalog:   catalog,
		store:     store,
		providers: providers,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// ResolveLocation walks cache, providers and the default country. It always
// returns a location; the global region is the last resort.
func (l *Locator) ResolveLocation(ctx context.Context) models.Location {
	attempts := []fallback.Attempt[models.Location]{
		fallback.Step("cache", l.cachedLocation),
	}
	for _, p := range l.providers {
		p := p
		attempts = append(attempts, fallback.Step(p.Name(), func(ctx context.Context) (models.Location, error) {
			loc, err := p.CurrentLocation(ctx)
			if err != nil {
				return loc, err
			}
			loc.Source = p.Name()
			loc.Timestamp = l.now()
			loc.Region = RegionFor(loc.Country)
			l.cacheLocation(ctx, loc)
			return loc, nil
		}))
	}

	loc, source, err := fallback.First(ctx, l.logger, attempts...)
	if err != nil {
		loc = models.Location{
			Country:   l.cfg.DefaultCountry,
			Region:    RegionFor(l.cfg.DefaultCountry),
			Source:    "default",
			Timestamp: l.now(),
		}
		source = "default"
	}
	l.logger.Debug("Resolved location",
		zap.String("source", source),
		zap.String("region", loc.Region))
	return loc
}

func (l *Locator) cachedLocation(ctx context.Context) (models.Location, error) {
	var loc models.Location
	if err := kv.GetJSON(ctx, l.store, locationKey, &loc); err != nil {
		return loc, err
	}
	if l.now().Sub(loc.Timestamp) > l.cfg.LocationTTL {
		return loc, fmt.Errorf("cached location from %s expired", loc.Timestamp.Format(time.RFC3339))
	}
	if loc.Region == "" {
		loc.Region = RegionFor(loc.Country)
	}
	return loc, nil
}

func (l *Locator) cacheLocation(ctx context.Context, loc models.Location) {
	if err := kv.SetJSON(ctx, l.store, locationKey, loc, l.cfg.LocationTTL); err != nil {
		l.logger.Warn("Failed to cache location", zap.Error(err))
	}
}

func (l *Locator) region(ctx context.Context, q ResourceQuery) string {
	if q.Country != "" {
		return RegionFor(q.Country)
	}
	return l.ResolveLocation(ctx).Region
}

// GetCrisisResources returns resources for the caller's region, ranked
// region-specific first. On catalog failure it serves the most recent
// cached list, then the static set.
func (l *Locator) GetCrisisResources(ctx context.Context, q ResourceQuery) []models.CrisisResource {
	region := l.region(ctx, q)

	resources, source, err := fallback.First(ctx, l.logger,
		fallback.Step("catalog", func(ctx context.Context) ([]models.CrisisResource, error) {
			return l.fromCatalog(ctx, region, q)
		}),
		fallback.Step("cache", func(ctx context.Context) ([]models.CrisisResource, error) {
			return l.fromCache(ctx, region, q)
		}),
	)
	if err != nil {
		l.logger.Error("Serving static crisis resources",
			zap.String("region", region),
			zap.Error(err))
		return selectResources(StaticResources(), region, q)
	}
	if source != "catalog" {
		l.logger.Warn("Serving crisis resources from cache", zap.String("region", region))
	}
	return resources
}

func (l *Locator) fromCatalog(ctx context.Context, region string, q ResourceQuery) ([]models.CrisisResource, error) {
	all, err := l.catalog.ListCrisisResources(ctx)
	if err != nil {
		return nil, fmt.Errorf("list crisis resources: %w", err)
	}
	selected := selectResources(all, region, q)
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w %q", errNoResources, region)
	}

	entry := cachedResources{Resources: all, CachedAt: l.now()}
	if err := kv.SetJSON(ctx, l.store, resourcesKey, entry, l.cfg.ResourceCacheTTL); err != nil {
		l.logger.Warn("Failed to cache crisis resources", zap.Error(err))
	}
	return selected, nil
}

func (l *Locator) fromCache(ctx context.Context, region string, q ResourceQuery) ([]models.CrisisResource, error) {
	var entry cachedResources
	if err := kv.GetJSON(ctx, l.store, resourcesKey, &entry); err != nil {
		return nil, err
	}
	selected := selectResources(entry.Resources, region, q)
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w %q in cache", errNoResources, region)
	}
	return selected, nil
}

// selectResources filters to the region (plus global entries) and applies
// the optional filters one at a time, skipping any that would leave nothing.
func selectResources(all []models.CrisisResource, region string, q ResourceQuery) []models.CrisisResource {
	var out []models.CrisisResource
	for _, r := range all {
		if r.Region == region || r.Region == models.RegionGlobal {
			out = append(out, r)
		}
	}

	filters := []func(models.CrisisResource) bool{}
	if q.Emergency {
		filters = append(filters, models.CrisisResource.AlwaysAvailable)
	}
	if q.Method != "" {
		filters = append(filters, func(r models.CrisisResource) bool { return r.ContactFor(q.Method) != "" })
	}
	if q.Specialization != "" {
		filters = append(filters, func(r models.CrisisResource) bool { return containsFold(r.Specializations, q.Specialization) })
	}
	if q.Language != "" {
		filters = append(filters, func(r models.CrisisResource) bool { return containsFold(r.Languages, q.Language) })
	}
	for _, keep := range filters {
		if narrowed := filter(out, keep); len(narrowed) > 0 {
			out = narrowed
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.Region == region) != (b.Region == region) {
			return a.Region == region
		}
		if q.Method != "" {
			am, bm := a.ContactFor(q.Method) != "", b.ContactFor(q.Method) != ""
			if am != bm {
				return am
			}
		}
		if a.AlwaysAvailable() != b.AlwaysAvailable() {
			return a.AlwaysAvailable()
		}
		return a.Name < b.Name
	})
	return out
}

func filter(in []models.CrisisResource, keep func(models.CrisisResource) bool) []models.CrisisResource {
	var out []models.CrisisResource
	for _, r := range in {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(s)) {
			return true
		}
	}
	return false
}

// GetEmergencyResources bundles the local emergency number with 24/7
// hotlines and text lines.
func (l *Locator) GetEmergencyResources(ctx context.Context) models.EmergencyBundle {
	loc := l.ResolveLocation(ctx)
	return l.emergencyBundle(ctx, loc.Country, loc.Region)
}

// GetEmergencyResourcesFor is GetEmergencyResources for a known country.
func (l *Locator) GetEmergencyResourcesFor(ctx context.Context, country string) models.EmergencyBundle {
	return l.emergencyBundle(ctx, country, RegionFor(country))
}

func (l *Locator) emergencyBundle(ctx context.Context, country, region string) models.EmergencyBundle {
	resources := l.GetCrisisResources(ctx, ResourceQuery{Country: countryOrRegion(country, region), Emergency: true})
	bundle := models.EmergencyBundle{EmergencyNumber: EmergencyNumber(region)}
	for _, r := range resources {
		if r.Phone != "" {
			bundle.CrisisHotlines = append(bundle.CrisisHotlines, r)
		}
		if r.TextNumber != "" {
			bundle.TextSupport = append(bundle.TextSupport, r)
		}
	}
	return bundle
}

// countryOrRegion lets a resolved region stand in for an unknown country so
// the bundle stays on the same region as the emergency number.
func countryOrRegion(country, region string) string {
	if country != "" && RegionFor(country) == region {
		return country
	}
	return region
}
