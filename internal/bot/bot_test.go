package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/pocket-therapy/internal/analyzer"
	"github.com/xaenox/pocket-therapy/internal/checkin"
	"github.com/xaenox/pocket-therapy/internal/classifier"
	"github.com/xaenox/pocket-therapy/internal/crisis"
	"github.com/xaenox/pocket-therapy/internal/kv"
	"github.com/xaenox/pocket-therapy/internal/models"
	"github.com/xaenox/pocket-therapy/internal/recommender"
	"github.com/xaenox/pocket-therapy/internal/seed"
	"github.com/xaenox/pocket-therapy/internal/storage"
	"github.com/xaenox/pocket-therapy/internal/wording"
)

const (
	testChatID = int64(42)
	testUserID = int64(7)
)

type fakeAPI struct {
	mu      sync.Mutex
	sent    []tgbotapi.MessageConfig
	updates chan tgbotapi.Update
	stopped bool
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.Text
	}
	return out
}

func (f *fakeAPI) last() tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

func (f *fakeAPI) reset() {
	f.mu.Lock()
	f.sent = nil
	f.mu.Unlock()
}

func newTestBot(t *testing.T) (*Bot, *fakeAPI, *checkin.Service) {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	store := storage.NewMemoryStorage()
	cache := kv.NewMemoryStore()
	_, err := seed.NewSeeder(store, cache, logger).Ensure(ctx)
	require.NoError(t, err)

	svc := checkin.New(store, cache, classifier.NewSimpleClassifier(3), checkin.Options{Location: time.UTC}, logger)
	locator := crisis.NewLocator(store, cache, crisis.Config{DefaultCountry: "United States"}, logger,
		crisis.StaticLocation{Country: "United States"})

	api := &fakeAPI{updates: make(chan tgbotapi.Update)}
	b := NewWithAPI(api, Deps{
		Checkin:     svc,
		Catalog:     store,
		Analyzer:    analyzer.New(time.UTC),
		Recommender: recommender.New(logger),
		Locator:     locator,
	}, logger)
	return b, api, svc
}

func command(text string) *tgbotapi.Message {
	name := strings.Fields(text)[0]
	return &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: testChatID},
		From:     &tgbotapi.User{ID: testUserID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
}

func plain(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: testChatID},
		From: &tgbotapi.User{ID: testUserID},
	}
}

func TestStaticMessages_Supportive(t *testing.T) {
	for _, msg := range staticMessages() {
		word, found := wording.Banned(msg)
		assert.False(t, found, "%q contains %q", msg, word)
	}
}

func TestStartAndHelp(t *testing.T) {
	b, api, _ := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, command("/start"))
	b.handleMessage(ctx, command("/help"))
	b.handleMessage(ctx, command("/nope"))

	assert.Equal(t, []string{msgWelcome, msgHelp, msgUnknownCommand}, api.texts())
}

func TestMood_RecordsAndTags(t *testing.T) {
	b, api, svc := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, command("/mood 3 big deadline at work"))

	texts := api.texts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "Logged")
	assert.Contains(t, texts[0], "3/5")
	assert.Contains(t, texts[0], "#work")

	recent, err := svc.RecentMoods(ctx, testUserID, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, []string{"work"}, recent[0].Triggers)
}

func TestMood_Usage(t *testing.T) {
	b, api, _ := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, command("/mood"))
	b.handleMessage(ctx, command("/mood 9"))

	assert.Equal(t, []string{msgMoodUsage, msgMoodUsage}, api.texts())
}

func TestMood_BareNumber(t *testing.T) {
	b, api, svc := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, plain("4 a calm evening"))
	b.handleMessage(ctx, plain("hello there"))

	texts := api.texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "4/5")
	assert.Equal(t, msgUnknownText, texts[1])

	recent, err := svc.RecentMoods(ctx, testUserID, 0)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestMood_LowMoodSharesCrisisResources(t *testing.T) {
	b, api, _ := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, command("/mood 1"))
	texts := api.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, msgVeryLowCheckIn, texts[1])

	api.reset()
	b.handleMessage(ctx, command("/mood 1 everything feels heavy"))
	texts = api.texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[1], msgCrisisHeader)
	assert.Contains(t, texts[1], "911")
	assert.Contains(t, texts[1], "988 Suicide & Crisis Lifeline")
}

func TestInsights(t *testing.T) {
	b, api, _ := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, command("/insights"))
	assert.Equal(t, []string{msgNoHistory}, api.texts())

	b.handleMessage(ctx, command("/mood 3 exam tomorrow"))
	b.handleMessage(ctx, command("/mood 4 exam went okay"))
	api.reset()

	b.handleMessage(ctx, command("/insights"))
	texts := api.texts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "Average mood: 3.5/5")
	assert.Contains(t, texts[0], "#school")
}

func TestExercise(t *testing.T) {
	b, api, _ := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, command("/exercise short"))

	msg := api.last()
	assert.Equal(t, tgbotapi.ModeMarkdownV2, msg.ParseMode)
	assert.Contains(t, msg.Text, "*Picked for you*")
	assert.NotContains(t, msg.Text, "`values-reflection`")
}

func TestSOS(t *testing.T) {
	b, api, _ := newTestBot(t)

	b.handleMessage(context.Background(), command("/sos"))

	texts := api.texts()
	require.Len(t, texts, 3)
	assert.Equal(t, msgSOSHeader, texts[0])
	assert.Contains(t, texts[1], "Physiological Sigh")
	assert.Contains(t, texts[1], "1. ")
	assert.Contains(t, texts[2], "Emergency services: 911")
	assert.Contains(t, texts[2], "Crisis Text Line: text 741741")
}

func TestSOS_EmptyCatalogServesEmbedded(t *testing.T) {
	b, api, _ := newTestBot(t)
	b.deps.Catalog = seed.NewFallbackCatalog(storage.NewMemoryStorage(), nil)
	ctx := context.Background()

	b.handleMessage(ctx, command("/sos"))
	texts := api.texts()
	require.Len(t, texts, 3)
	assert.Contains(t, texts[1], "Physiological Sigh")

	api.reset()
	b.handleMessage(ctx, command("/exercise short"))
	assert.NotEqual(t, "⚠️ "+msgNoExercises, api.last().Text)
}

func TestDone(t *testing.T) {
	b, api, svc := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, command("/done"))
	b.handleMessage(ctx, command("/done box-breathing 9"))
	b.handleMessage(ctx, command("/done no-such-exercise"))
	b.handleMessage(ctx, command("/done box-breathing 4"))

	assert.Equal(t, []string{
		msgDoneUsage,
		msgRatingRange,
		msgUnknownExercise,
		"Nice work finishing Box Breathing. 🌿",
	}, api.texts())

	rc := svc.BuildContext(ctx, testUserID, checkin.RecommendationRequest{Mood: 3})
	assert.Equal(t, []string{"box-breathing"}, rc.Preferences.CompletedExercises)
}

func TestHistory(t *testing.T) {
	b, api, _ := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, command("/history"))
	assert.Equal(t, []string{msgNoHistory}, api.texts())

	b.handleMessage(ctx, command("/mood 4 slow morning."))
	api.reset()
	b.handleMessage(ctx, command("/history"))

	msg := api.last()
	assert.Equal(t, tgbotapi.ModeMarkdownV2, msg.ParseMode)
	assert.Contains(t, msg.Text, "check\\-ins")
	assert.Contains(t, msg.Text, "_slow morning\\._")
}

func TestFavoriteAndAvoid(t *testing.T) {
	b, api, svc := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, command("/favorite grounding"))
	b.handleMessage(ctx, command("/favorite grounding"))
	b.handleMessage(ctx, command("/favorite juggling"))
	b.handleMessage(ctx, command("/avoid box-breathing"))
	b.handleMessage(ctx, command("/avoid nothing-here"))

	assert.Equal(t, []string{
		"Got it, you'll see more grounding exercises.",
		"Okay, grounding is no longer a favorite.",
		msgFavoriteUsage,
		"Okay, I'll suggest Box Breathing less often.",
		msgUnknownExercise,
	}, api.texts())

	prefs, err := svc.Preferences(ctx, testUserID)
	require.NoError(t, err)
	assert.Empty(t, prefs.FavoriteCategories)
	assert.Equal(t, []string{"box-breathing"}, prefs.AvoidedExercises)
}

func TestContact(t *testing.T) {
	b, api, svc := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, command("/contact"))
	b.handleMessage(ctx, command("/contact fax"))
	assert.Equal(t, []string{msgContactUsage, msgContactUsage}, api.texts())

	api.reset()
	b.handleMessage(ctx, command("/contact text"))
	texts := api.texts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "988 Suicide & Crisis Lifeline")
	assert.Contains(t, texts[0], "sms:988")

	prefs, err := svc.Preferences(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, models.ContactText, prefs.ContactMethod)

	// The stored preference is used when no method is given.
	api.reset()
	b.handleMessage(ctx, command("/contact"))
	assert.Contains(t, api.last().Text, "sms:988")
}

func TestStart_StopsOnCancel(t *testing.T) {
	b, api, _ := newTestBot(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- b.Start(ctx) }()

	api.updates <- tgbotapi.Update{Message: command("/help")}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("bot did not stop")
	}
	assert.Eventually(t, func() bool { return len(api.texts()) == 1 }, time.Second, 10*time.Millisecond)
	api.mu.Lock()
	assert.True(t, api.stopped)
	api.mu.Unlock()
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `a\_b\*c\.d\-e\!`, escapeMarkdown("a_b*c.d-e!"))
	assert.Equal(t, `\\\(x\)`, escapeMarkdown(`\(x)`))
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "1 min", minutes(45))
	assert.Equal(t, "4 min", minutes(240))
	assert.Equal(t, "5 min", minutes(241))

	assert.Equal(t, []string{"sleep", "work"}, topTriggers(map[string]int{"work": 2, "sleep": 3, "news": 1}, 2))
	assert.Equal(t, []string{"work", "news"}, topTriggers(map[string]int{"news": 2, "work": 2}, 3))

	list, added := toggle([]string{"a", "b"}, "a")
	assert.False(t, added)
	assert.Equal(t, []string{"b"}, list)
	list, added = toggle(list, "c")
	assert.True(t, added)
	assert.Equal(t, []string{"b", "c"}, list)
}
