package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xaenox/pocket-therapy/internal/checkin"
	"github.com/xaenox/pocket-therapy/internal/crisis"
	"github.com/xaenox/pocket-therapy/internal/models"
	"github.com/xaenox/pocket-therapy/internal/storage"
)

// insightWindow is how many recent check-ins feed /insights and the
// post-check-in severity check.
const insightWindow = 30

func (b *Bot) handleMood(ctx context.Context, message *tgbotapi.Message) {
	args := strings.Fields(message.CommandArguments())
	if len(args) == 0 {
		b.sendMessage(message.Chat.ID, msgMoodUsage)
		return
	}
	b.recordMood(ctx, message, args[0], strings.Join(args[1:], " "))
}

func (b *Bot) recordMood(ctx context.Context, message *tgbotapi.Message, rawValue, note string) {
	value, ok := parseMood(rawValue)
	if !ok {
		b.sendMessage(message.Chat.ID, msgMoodUsage)
		return
	}

	userID := message.From.ID
	entry, err := b.deps.Checkin.RecordMood(ctx, userID, checkin.MoodInput{Value: value, Note: note})
	if err != nil {
		b.logger.Error("Failed to record mood",
			zap.Error(err),
			zap.Int64("user_id", userID))
		b.sendErrorMessage(message.Chat.ID, msgSaveFailed)
		return
	}

	recent, err := b.deps.Checkin.RecentMoods(ctx, userID, insightWindow)
	if err != nil {
		b.logger.Warn("Failed to load recent moods", zap.Error(err), zap.Int64("user_id", userID))
		recent = []models.MoodEntry{*entry}
	}
	insights := b.deps.Analyzer.GetMoodInsights(recent)
	b.sendMessage(message.Chat.ID, formatMoodLogged(entry, insights))

	switch {
	case insights.CrisisResources:
		b.logger.Info("High severity check-in, sharing crisis resources", zap.Int64("user_id", userID))
		b.sendMessage(message.Chat.ID, formatEmergency(b.deps.Locator.GetEmergencyResources(ctx)))
	case value == models.MinMood:
		b.sendMessage(message.Chat.ID, msgVeryLowCheckIn)
	}
}

func (b *Bot) handleInsights(ctx context.Context, message *tgbotapi.Message) {
	recent, err := b.deps.Checkin.RecentMoods(ctx, message.From.ID, insightWindow)
	if err != nil {
		b.logger.Error("Failed to load moods", zap.Error(err), zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, msgLoadFailed)
		return
	}
	if len(recent) == 0 {
		b.sendMessage(message.Chat.ID, msgNoHistory)
		return
	}

	a := b.deps.Analyzer
	insights := a.GetMoodInsights(recent)
	b.sendMessage(message.Chat.ID, formatInsights(insights, a.DetectTimePatterns(recent), a.TriggerFrequency(recent)))
	if insights.CrisisResources {
		b.sendMessage(message.Chat.ID, formatEmergency(b.deps.Locator.GetEmergencyResources(ctx)))
	}
}

func (b *Bot) handleExercise(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	available := models.AvailableTime(strings.ToLower(strings.TrimSpace(message.CommandArguments())))
	switch available {
	case models.TimeShort, models.TimeMedium, models.TimeLong:
	default:
		available = models.TimeMedium
	}

	exercises, err := b.deps.Catalog.ListExercises(ctx)
	if err != nil || len(exercises) == 0 {
		b.logger.Error("Failed to load exercises", zap.Error(err))
		b.sendErrorMessage(message.Chat.ID, msgNoExercises)
		return
	}

	// The latest check-in stands in for the current mood.
	req := checkin.RecommendationRequest{Mood: 3, AvailableTime: available}
	if recent, err := b.deps.Checkin.RecentMoods(ctx, userID, 1); err == nil && len(recent) > 0 {
		req.Mood = recent[0].Value
		req.Triggers = recent[0].Triggers
	}

	rc := b.deps.Checkin.BuildContext(ctx, userID, req)
	picks := b.deps.Recommender.GetRecommendations(exercises, rc, b.deps.DefaultLimit)
	b.sendMarkdown(message.Chat.ID, formatExercises("Picked for you", picks))
}

func (b *Bot) handleSOS(ctx context.Context, message *tgbotapi.Message) {
	b.logger.Info("SOS requested", zap.Int64("user_id", message.From.ID))
	b.sendMessage(message.Chat.ID, msgSOSHeader)

	exercises, err := b.deps.Catalog.ListExercises(ctx)
	if err != nil {
		b.logger.Error("Failed to load exercises", zap.Error(err))
	}
	if calm := b.deps.Recommender.GetCrisisRecommendations(exercises); len(calm) > 0 {
		b.sendMessage(message.Chat.ID, formatSteps(calm[0]))
	}
	b.sendMessage(message.Chat.ID, formatEmergency(b.deps.Locator.GetEmergencyResources(ctx)))
}

func (b *Bot) handleDone(ctx context.Context, message *tgbotapi.Message) {
	args := strings.Fields(message.CommandArguments())
	if len(args) == 0 {
		b.sendMessage(message.Chat.ID, msgDoneUsage)
		return
	}

	var rating *int
	if len(args) > 1 {
		r, err := strconv.Atoi(args[1])
		if err != nil || r < 1 || r > 5 {
			b.sendMessage(message.Chat.ID, msgRatingRange)
			return
		}
		rating = &r
	}

	session, err := b.deps.Checkin.CompleteExercise(ctx, message.From.ID, args[0], rating)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		b.sendMessage(message.Chat.ID, msgUnknownExercise)
		return
	case err != nil:
		b.logger.Error("Failed to complete exercise",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID),
			zap.String("exercise_id", args[0]))
		b.sendErrorMessage(message.Chat.ID, msgSaveFailed)
		return
	}

	title := session.ExerciseID
	if ex, err := b.deps.Catalog.GetExercise(ctx, session.ExerciseID); err == nil {
		title = ex.Title
	}
	b.sendMessage(message.Chat.ID, fmt.Sprintf(msgDoneLogged, title))
}

func (b *Bot) handleHistory(ctx context.Context, message *tgbotapi.Message) {
	entries, err := b.deps.Checkin.RecentMoods(ctx, message.From.ID, 5)
	if err != nil {
		b.logger.Error("Failed to get mood history",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, msgLoadFailed)
		return
	}
	if len(entries) == 0 {
		b.sendMessage(message.Chat.ID, msgNoHistory)
		return
	}
	b.sendMarkdown(message.Chat.ID, formatHistory(entries))
}

func (b *Bot) handleContact(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	method := models.ContactMethod(strings.ToLower(strings.TrimSpace(message.CommandArguments())))
	if method == "" {
		prefs, err := b.deps.Checkin.Preferences(ctx, userID)
		if err == nil {
			method = prefs.ContactMethod
		}
	}
	if !method.Valid() {
		b.sendMessage(message.Chat.ID, msgContactUsage)
		return
	}

	prefs, err := b.deps.Checkin.UpdatePreferences(ctx, userID, func(p *models.UserPreferences) {
		p.ContactMethod = method
	})
	if err != nil {
		b.logger.Warn("Failed to save contact preference", zap.Error(err), zap.Int64("user_id", userID))
	}

	resources := b.deps.Locator.GetCrisisResources(ctx, crisis.ResourceQuery{
		Emergency: true,
		Method:    method,
		Language:  prefs.Language,
	})
	if len(resources) == 0 {
		resources = crisis.StaticResources()
	}
	target := resources[0]
	for _, r := range resources {
		if r.ContactFor(method) != "" {
			target = r
			break
		}
	}

	chatID := message.Chat.ID
	opener := crisis.NewSchemeOpener(func(ctx context.Context, uri string) error {
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(msgContactIntro, target.Name)+"\n"+uri)
		_, err := b.api.Send(msg)
		return err
	})
	result := crisis.NewContacter(opener, b.logger).ContactResource(ctx, target, method)
	if !result.Success {
		b.sendMessage(chatID, result.RetryPrompt)
	}
}

func (b *Bot) handleFavorite(ctx context.Context, message *tgbotapi.Message) {
	category := models.Category(strings.ToLower(strings.TrimSpace(message.CommandArguments())))
	if !category.Valid() {
		b.sendMessage(message.Chat.ID, msgFavoriteUsage)
		return
	}

	added := false
	_, err := b.deps.Checkin.UpdatePreferences(ctx, message.From.ID, func(p *models.UserPreferences) {
		p.FavoriteCategories, added = toggle(p.FavoriteCategories, category)
	})
	if err != nil {
		b.logger.Error("Failed to update favorites", zap.Error(err), zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, msgSaveFailed)
		return
	}
	if added {
		b.sendMessage(message.Chat.ID, fmt.Sprintf(msgFavoriteAdded, category))
	} else {
		b.sendMessage(message.Chat.ID, fmt.Sprintf(msgFavoriteRemoved, category))
	}
}

func (b *Bot) handleAvoid(ctx context.Context, message *tgbotapi.Message) {
	id := strings.TrimSpace(message.CommandArguments())
	if id == "" {
		b.sendMessage(message.Chat.ID, msgAvoidUsage)
		return
	}
	ex, err := b.deps.Catalog.GetExercise(ctx, id)
	if err != nil {
		b.sendMessage(message.Chat.ID, msgUnknownExercise)
		return
	}

	added := false
	_, err = b.deps.Checkin.UpdatePreferences(ctx, message.From.ID, func(p *models.UserPreferences) {
		p.AvoidedExercises, added = toggle(p.AvoidedExercises, ex.ID)
	})
	if err != nil {
		b.logger.Error("Failed to update avoided exercises", zap.Error(err), zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, msgSaveFailed)
		return
	}
	if added {
		b.sendMessage(message.Chat.ID, fmt.Sprintf(msgAvoidAdded, ex.Title))
	} else {
		b.sendMessage(message.Chat.ID, fmt.Sprintf(msgAvoidRemoved, ex.Title))
	}
}

// toggle removes v from list if present and appends it otherwise. The
// second result reports whether v was added.
func toggle[T comparable](list []T, v T) ([]T, bool) {
	for i, have := range list {
		if have == v {
			return append(list[:i:i], list[i+1:]...), false
		}
	}
	return append(list, v), true
}
