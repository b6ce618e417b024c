package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"daily-memo-go/internal/apperr"
	"daily-memo-go/internal/logger"
	"daily-memo-go/internal/metrics"
	"daily-memo-go/internal/transport"
)

const (
	OpenAIBaseURL      = "https://api.openai.com"
	DefaultOpenAIModel = "gpt-4o"
)

// OpenAIChat calls an OpenAI-compatible /v1/chat/completions endpoint.
type OpenAIChat struct {
	BaseURL     string
	Model       string
	Temperature float64
	Transport   *transport.Client
}

func NewOpenAIChat(baseURL, model string, log *logger.Logger, m *metrics.Metrics) *OpenAIChat {
	if baseURL == "" {
		baseURL = OpenAIBaseURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIChat{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Model:       model,
		Temperature: 1,
		Transport:   transport.New(BackendOpenAI, log, m),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIChat) Complete(ctx context.Context, system, user, credential string) (string, error) {
	if credential == "" {
		return "", apperr.MissingCredential(BackendOpenAI)
	}
	payload, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.Temperature,
		MaxTokens:   MaxTokens,
	})
	if err != nil {
		return "", err
	}
	endpoint := c.BaseURL + "/v1/chat/completions"

	body, err := c.Transport.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+credential)
		return req, nil
	})
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &apperr.BackendError{Backend: BackendOpenAI, Body: string(body), Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(parsed.Choices) == 0 {
		return "", &apperr.EmptyGenerationError{Backend: BackendOpenAI}
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", &apperr.EmptyGenerationError{Backend: BackendOpenAI}
	}
	return content, nil
}
