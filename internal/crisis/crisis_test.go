package crisis

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/pocket-therapy/internal/kv"
	"github.com/xaenox/pocket-therapy/internal/models"
	"github.com/xaenox/pocket-therapy/internal/wording"
)

var testNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

type fakeCatalog struct {
	resources []models.CrisisResource
	err       error
	calls     int
}

func (f *fakeCatalog) ListCrisisResources(context.Context) ([]models.CrisisResource, error) {
	f.calls++
	return f.resources, f.err
}

type fakeProvider struct {
	name    string
	country string
	err     error
	calls   int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) CurrentLocation(context.Context) (models.Location, error) {
	p.calls++
	if p.err != nil {
		return models.Location{}, p.err
	}
	return models.Location{Country: p.country}, nil
}

func testResources() []models.CrisisResource {
	return []models.CrisisResource{
		{ID: "us-988", Name: "988 Lifeline", Type: models.ResourceHotline, Phone: "988", TextNumber: "988", Region: "us", Availability: "24/7", Languages: []string{"en", "es"}, LastVerified: testNow.AddDate(0, -1, 0)},
		{ID: "us-ctl", Name: "Crisis Text Line", Type: models.ResourceText, TextNumber: "741741", Region: "us", Availability: "24/7", Languages: []string{"en"}, LastVerified: testNow.AddDate(0, -7, 0)},
		{ID: "us-warm", Name: "Warmline", Type: models.ResourceHotline, Phone: "+1 (555) 010-0000", Region: "us", Availability: "weekdays 9-5", Specializations: []string{"peer"}, Languages: []string{"en"}, LastVerified: testNow.AddDate(0, -2, 0)},
		{ID: "uk-samaritans", Name: "Samaritans", Type: models.ResourceHotline, Phone: "116 123", Region: "uk", Availability: "24/7", Languages: []string{"en"}, LastVerified: testNow.AddDate(-1, 0, 0)},
		{ID: "global-fah", Name: "Find A Helpline", Type: models.ResourceWebsite, Website: "findahelpline.com", Region: models.RegionGlobal, Availability: "24/7", Languages: []string{"en"}, LastVerified: testNow},
	}
}

func newTestLocator(catalog Catalog, store kv.Store, providers ...LocationProvider) *Locator {
	l := NewLocator(catalog, store, Config{DefaultCountry: "United States"}, zap.NewNop(), providers...)
	l.now = func() time.Time { return testNow }
	return l
}

func resourceIDs(list []models.CrisisResource) []string {
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.ID
	}
	return out
}

func TestRegionFor(t *testing.T) {
	assert.Equal(t, "us", RegionFor("United States"))
	assert.Equal(t, "uk", RegionFor(" GB "))
	assert.Equal(t, "eu", RegionFor("Germany"))
	assert.Equal(t, models.RegionGlobal, RegionFor("Atlantis"))
	assert.Equal(t, models.RegionGlobal, RegionFor(""))
	assert.Equal(t, "999", EmergencyNumber("uk"))
	assert.Equal(t, "112", EmergencyNumber("nowhere"))
}

func TestResolveLocation_Chain(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	device := &fakeProvider{name: "device", err: ErrLocationUnavailable}
	ip := &fakeProvider{name: "ip", country: "United Kingdom"}
	l := newTestLocator(&fakeCatalog{}, store, device, ip)

	loc := l.ResolveLocation(ctx)
	assert.Equal(t, "uk", loc.Region)
	assert.Equal(t, "ip", loc.Source)

	// Second call is served from cache.
	loc = l.ResolveLocation(ctx)
	assert.Equal(t, "uk", loc.Region)
	assert.Equal(t, 1, device.calls)
	assert.Equal(t, 1, ip.calls)

	// An expired cache entry is ignored.
	l.now = func() time.Time { return testNow.Add(48 * time.Hour) }
	ip.country = "Canada"
	assert.Equal(t, "ca", l.ResolveLocation(ctx).Region)
}

func TestResolveLocation_DefaultCountry(t *testing.T) {
	l := newTestLocator(&fakeCatalog{}, kv.NewMemoryStore(), &fakeProvider{name: "device", err: errors.New("denied")})
	loc := l.ResolveLocation(context.Background())
	assert.Equal(t, "us", loc.Region)
	assert.Equal(t, "default", loc.Source)

	l.cfg.DefaultCountry = ""
	assert.Equal(t, models.RegionGlobal, l.ResolveLocation(context.Background()).Region)
}

func TestGetCrisisResources_RegionAndRanking(t *testing.T) {
	l := newTestLocator(&fakeCatalog{resources: testResources()}, kv.NewMemoryStore(), StaticLocation{Country: "US"})
	got := l.GetCrisisResources(context.Background(), ResourceQuery{})
	assert.Equal(t, []string{"us-988", "us-ctl", "us-warm", "global-fah"}, resourceIDs(got))

	uk := l.GetCrisisResources(context.Background(), ResourceQuery{Country: "United Kingdom"})
	assert.Equal(t, []string{"uk-samaritans", "global-fah"}, resourceIDs(uk))

	nowhere := l.GetCrisisResources(context.Background(), ResourceQuery{Country: "Atlantis"})
	assert.Equal(t, []string{"global-fah"}, resourceIDs(nowhere))
}

func TestGetCrisisResources_Filters(t *testing.T) {
	l := newTestLocator(&fakeCatalog{resources: testResources()}, kv.NewMemoryStore())
	ctx := context.Background()

	emergency := l.GetCrisisResources(ctx, ResourceQuery{Country: "US", Emergency: true})
	assert.NotContains(t, resourceIDs(emergency), "us-warm")

	text := l.GetCrisisResources(ctx, ResourceQuery{Country: "US", Method: models.ContactText})
	assert.Equal(t, []string{"us-988", "us-ctl"}, resourceIDs(text))

	spanish := l.GetCrisisResources(ctx, ResourceQuery{Country: "US", Language: "ES"})
	assert.Equal(t, []string{"us-988"}, resourceIDs(spanish))

	peer := l.GetCrisisResources(ctx, ResourceQuery{Country: "US", Specialization: "peer"})
	assert.Equal(t, []string{"us-warm"}, resourceIDs(peer))

	// Filters that would empty the list are relaxed.
	chat := l.GetCrisisResources(ctx, ResourceQuery{Country: "United Kingdom", Method: models.ContactChat, Language: "fr"})
	assert.Equal(t, []string{"uk-samaritans", "global-fah"}, resourceIDs(chat))
}

func TestGetCrisisResources_FallsBackToCacheThenStatic(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	catalog := &fakeCatalog{resources: testResources()}
	l := newTestLocator(catalog, store, &fakeProvider{name: "device", err: ErrLocationUnavailable})

	first := l.GetCrisisResources(ctx, ResourceQuery{Country: "UK"})
	require.NotEmpty(t, first)

	catalog.err = errors.New("network unreachable")
	cached := l.GetCrisisResources(ctx, ResourceQuery{Country: "UK"})
	assert.Equal(t, resourceIDs(first), resourceIDs(cached))

	// The cache keeps the whole catalog, so other regions and stricter
	// queries are filtered on read.
	us := l.GetCrisisResources(ctx, ResourceQuery{Country: "United States", Emergency: true})
	assert.Equal(t, []string{"us-988", "us-ctl", "global-fah"}, resourceIDs(us))

	text := l.GetCrisisResources(ctx, ResourceQuery{Country: "US", Method: models.ContactText})
	assert.Equal(t, []string{"us-988", "us-ctl"}, resourceIDs(text))

	uk := l.GetEmergencyResourcesFor(ctx, "United Kingdom")
	assert.Equal(t, "999", uk.EmergencyNumber)
	assert.Equal(t, []string{"uk-samaritans"}, resourceIDs(uk.CrisisHotlines))

	empty := newTestLocator(&fakeCatalog{err: errors.New("storage read failed")}, kv.NewMemoryStore(),
		&fakeProvider{name: "device", err: ErrLocationUnavailable})
	static := empty.GetCrisisResources(ctx, ResourceQuery{})
	assert.Equal(t, []string{"us-988-lifeline", "us-crisis-text-line", "global-find-a-helpline"}, resourceIDs(static))
}

func TestGetCrisisResources_EmptyCatalogUsesStatic(t *testing.T) {
	l := newTestLocator(&fakeCatalog{}, kv.NewMemoryStore())
	got := l.GetCrisisResources(context.Background(), ResourceQuery{Country: "Japan"})
	assert.Equal(t, []string{"global-find-a-helpline"}, resourceIDs(got))
}

func TestGetEmergencyResources(t *testing.T) {
	l := newTestLocator(&fakeCatalog{resources: testResources()}, kv.NewMemoryStore(), StaticLocation{Country: "United States"})
	bundle := l.GetEmergencyResources(context.Background())
	assert.Equal(t, "911", bundle.EmergencyNumber)
	assert.Equal(t, []string{"us-988"}, resourceIDs(bundle.CrisisHotlines))
	assert.Equal(t, []string{"us-988", "us-ctl"}, resourceIDs(bundle.TextSupport))

	uk := l.GetEmergencyResourcesFor(context.Background(), "United Kingdom")
	assert.Equal(t, "999", uk.EmergencyNumber)
	assert.Equal(t, []string{"uk-samaritans"}, resourceIDs(uk.CrisisHotlines))
}

func TestIPLocator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","country":"Australia","countryCode":"AU"}`))
	}))
	defer srv.Close()

	loc, err := NewIPLocator(srv.URL, time.Second).CurrentLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Australia", loc.Country)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"fail","message":"private range"}`))
	}))
	defer failing.Close()
	_, err = NewIPLocator(failing.URL, time.Second).CurrentLocation(context.Background())
	assert.ErrorIs(t, err, ErrLocationUnavailable)

	_, err = NewIPLocator("http://127.0.0.1:1", 200*time.Millisecond).CurrentLocation(context.Background())
	assert.Error(t, err)
}

func TestURIFor(t *testing.T) {
	r := testResources()[2]
	uri, err := URIFor(r, models.ContactPhone)
	require.NoError(t, err)
	assert.Equal(t, "tel:+15550100000", uri)

	_, err = URIFor(r, models.ContactChat)
	assert.ErrorIs(t, err, ErrNoContact)

	uri, err = URIFor(testResources()[4], models.ContactWebsite)
	require.NoError(t, err)
	assert.Equal(t, "https://findahelpline.com", uri)

	uri, err = URIFor(testResources()[1], models.ContactText)
	require.NoError(t, err)
	assert.Equal(t, "sms:741741", uri)
}

type recordingOpener struct {
	canOpen bool
	err     error
	opened  []string
}

func (o *recordingOpener) CanOpen(context.Context, string) bool { return o.canOpen }

func (o *recordingOpener) Open(_ context.Context, uri string) error {
	o.opened = append(o.opened, uri)
	return o.err
}

func TestContactResource(t *testing.T) {
	ctx := context.Background()
	r := testResources()[0]

	ok := &recordingOpener{canOpen: true}
	res := NewContacter(ok, nil).ContactResource(ctx, r, models.ContactPhone)
	assert.True(t, res.Success)
	assert.Equal(t, "tel:988", res.URI)
	assert.Equal(t, []string{"tel:988"}, ok.opened)

	blocked := &recordingOpener{canOpen: false}
	res = NewContacter(blocked, nil).ContactResource(ctx, r, models.ContactText)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.RetryPrompt)
	assert.Empty(t, blocked.opened, "never open what cannot be opened")

	broken := &recordingOpener{canOpen: true, err: errors.New("no dialer")}
	res = NewContacter(broken, nil).ContactResource(ctx, r, models.ContactPhone)
	assert.False(t, res.Success)
	assert.Equal(t, retryPrompt, res.RetryPrompt)

	res = NewContacter(ok, nil).ContactResource(ctx, r, models.ContactChat)
	assert.False(t, res.Success)
	assert.Equal(t, retryPromptNoMethod, res.RetryPrompt)
}

func TestSchemeOpener(t *testing.T) {
	var delivered string
	o := NewSchemeOpener(func(_ context.Context, uri string) error { delivered = uri; return nil })
	ctx := context.Background()

	assert.True(t, o.CanOpen(ctx, "tel:988"))
	assert.True(t, o.CanOpen(ctx, "https://988lifeline.org"))
	assert.False(t, o.CanOpen(ctx, "javascript:alert(1)"))
	assert.False(t, o.CanOpen(ctx, "tel:"))
	require.NoError(t, o.Open(ctx, "sms:741741"))
	assert.Equal(t, "sms:741741", delivered)
}

func TestValidateResources(t *testing.T) {
	l := newTestLocator(&fakeCatalog{resources: testResources()}, kv.NewMemoryStore())
	stale, err := l.ValidateResources(context.Background())
	require.NoError(t, err)
	require.Len(t, stale, 2)
	assert.Equal(t, "uk-samaritans", stale[0].Resource.ID)
	assert.Equal(t, "us-ctl", stale[1].Resource.ID)

	_, err = newTestLocator(&fakeCatalog{err: errors.New("down")}, kv.NewMemoryStore()).ValidateResources(context.Background())
	assert.Error(t, err)
}

func TestPromptCatalog_Supportive(t *testing.T) {
	for _, msg := range PromptCatalog() {
		word, hit := wording.Banned(msg)
		assert.False(t, hit, "%q contains %q", msg, word)
	}
}
