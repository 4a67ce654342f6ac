package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/IANDYI/eldercare-service/internal/core/ports"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// GeminiClient calls the Gemini generateContent REST API
type GeminiClient struct {
	httpClient *resty.Client
	apiKey     string
	model      string
	cb         *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

var _ ports.TextGenerator = (*GeminiClient)(nil)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generateRequest struct {
	Contents []geminiContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewGeminiClient creates the client once at startup. Requests are not
// retried and carry no timeout of their own; the caller's context bounds them.
func NewGeminiClient(baseURL, apiKey, model string, settings gobreaker.Settings, logger *zap.Logger) *GeminiClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	settings.Name = "gemini"

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &GeminiClient{
		httpClient: client,
		apiKey:     apiKey,
		model:      model,
		cb:         gobreaker.NewCircuitBreaker(settings),
		logger:     logger.With(zap.String("component", "gemini_client")),
	}
}

// Generate sends one prompt and returns the first candidate's text
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("GEMINI_API_KEY is not set")
	}

	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.generate(ctx, prompt)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *GeminiClient) generate(ctx context.Context, prompt string) (string, error) {
	var response generateResponse
	var apiErr geminiError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", c.apiKey).
		SetPathParam("model", c.model).
		SetBody(generateRequest{
			Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		}).
		SetResult(&response).
		SetError(&apiErr).
		Post("/models/{model}:generateContent")
	if err != nil {
		c.logger.Error("Gemini API call failed", zap.Error(err))
		return "", fmt.Errorf("failed to call Gemini API: %w", err)
	}

	if resp.IsError() {
		c.logger.Error("Gemini API returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("status", apiErr.Error.Status),
			zap.String("msg", apiErr.Error.Message),
		)
		msg := apiErr.Error.Message
		if msg == "" {
			msg = resp.Status()
		}
		return "", fmt.Errorf("Gemini API error: %s (status: %d)", msg, resp.StatusCode())
	}

	if response.PromptFeedback != nil && response.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("Gemini blocked the prompt: %s", response.PromptFeedback.BlockReason)
	}
	if len(response.Candidates) == 0 {
		return "", errors.New("Gemini returned no candidates")
	}

	var b strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}
