package llm

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"vehicle-intelligence/internal/domain/port"
	"vehicle-intelligence/internal/errors"
)

const (
	// DefaultBaseURL OpenAI-совместимый endpoint Gemini
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultModel   = "gemini-2.0-flash"

	maxTokens     = 2048
	systemMessage = "You are an expert vehicle inspection analyst. Respond with a single JSON object only."
)

// Config параметры клиента генеративной модели
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// RPS ограничение запросов в секунду; 0 без ограничения
	RPS float64
}

// Client TextGenerator поверх chat completions с ответом в формате JSON-объекта.
type Client struct {
	api     *openai.Client
	model   string
	limiter *rate.Limiter
}

// NewClient создаёт клиент.
func NewClient(cfg Config) *Client {
	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = DefaultBaseURL
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	}

	return &Client{api: openai.NewClientWithConfig(config), model: model, limiter: limiter}
}

// Generate отправляет prompt и возвращает текст первого варианта ответа.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", errors.NewCollaboratorError("llm", 0, err)
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	}
	// reasoning-модели принимают только MaxCompletionTokens
	if isReasoningModel(c.model) {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", translateError(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errors.NewCollaboratorError("llm", 0, errors.New("empty completion"))
	}
	return resp.Choices[0].Message.Content, nil
}

// translateError переносит HTTP-статус ответа провайдера в CollaboratorError.
func translateError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return errors.NewCollaboratorError("llm", apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return errors.NewCollaboratorError("llm", reqErr.HTTPStatusCode, err)
	}
	return errors.NewCollaboratorError("llm", 0, err)
}

func isReasoningModel(model string) bool {
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

var _ port.TextGenerator = (*Client)(nil)
