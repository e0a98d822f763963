package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xaenox/pocket-therapy/internal/models"
)

type GPTResponse struct {
	Triggers []string `json:"triggers"`
}

type GPTClassifier struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	maxTags     int
	fallback    *SimpleClassifier
	logger      *zap.Logger
}

// GPTOptions configures the OpenAI-backed classifier. BaseURL is optional.
type GPTOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	MaxTags     int
}

func NewGPTClassifier(opts GPTOptions, logger *zap.Logger) *GPTClassifier {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return &GPTClassifier{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		maxTags:     opts.MaxTags,
		fallback:    NewSimpleClassifier(opts.MaxTags),
		logger:      logger,
	}
}

func (c *GPTClassifier) prompt(note string) string {
	vocab := make([]string, len(models.KnownTriggers))
	for i, t := range models.KnownTriggers {
		vocab[i] = string(t)
	}
	return fmt.Sprintf(`Read the following mood check-in note and list the situations that seem to affect the writer's mood.
Only use labels from this list: %s
Use at most %d labels. If none apply, return an empty list.

Return the response as a JSON object with this structure:
{
    "triggers": ["label1", "label2", ...]
}

Note: %s`, strings.Join(vocab, ", "), c.maxTags, note)
}

// ExtractTriggers asks the model for trigger labels and falls back to
// keyword matching on any error. Labels outside the vocabulary are dropped.
func (c *GPTClassifier) ExtractTriggers(ctx context.Context, note string) []string {
	if strings.TrimSpace(note) == "" {
		return nil
	}

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: c.prompt(note),
				},
			},
			MaxTokens:   c.maxTokens,
			Temperature: float32(c.temperature),
		},
	)
	if err != nil {
		c.logger.Warn("Failed to get GPT response", zap.Error(err))
		return c.fallback.ExtractTriggers(ctx, note)
	}
	if len(resp.Choices) == 0 {
		c.logger.Warn("GPT response had no choices")
		return c.fallback.ExtractTriggers(ctx, note)
	}

	var gptResponse GPTResponse
	response := strings.TrimSpace(resp.Choices[0].Message.Content)
	response = strings.TrimSuffix(strings.TrimPrefix(response, "```json"), "```")
	if err := json.Unmarshal([]byte(strings.TrimSpace(response)), &gptResponse); err != nil {
		c.logger.Warn("Failed to parse GPT response",
			zap.Error(err),
			zap.String("response", response))
		return c.fallback.ExtractTriggers(ctx, note)
	}

	tags := Normalize(gptResponse.Triggers)
	if c.maxTags > 0 && len(tags) > c.maxTags {
		tags = tags[:c.maxTags]
	}
	return tags
}
