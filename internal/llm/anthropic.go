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
	AnthropicBaseURL      = "https://api.anthropic.com"
	DefaultAnthropicModel = "claude-haiku-4-5"
	anthropicVersion      = "2023-06-01"
)

// Anthropic calls the /v1/messages endpoint.
type Anthropic struct {
	BaseURL   string
	Model     string
	Transport *transport.Client
}

func NewAnthropic(baseURL, model string, log *logger.Logger, m *metrics.Metrics) *Anthropic {
	if baseURL == "" {
		baseURL = AnthropicBaseURL
	}
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &Anthropic{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Model:     model,
		Transport: transport.New(BackendAnthropic, log, m),
	}
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (a *Anthropic) Complete(ctx context.Context, system, user, credential string) (string, error) {
	if credential == "" {
		return "", apperr.MissingCredential(BackendAnthropic)
	}
	payload, err := json.Marshal(anthropicRequest{
		Model:     a.Model,
		MaxTokens: MaxTokens,
		System:    system,
		Messages:  []anthropicMessage{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", err
	}
	endpoint := a.BaseURL + "/v1/messages"

	body, err := a.Transport.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", credential)
		req.Header.Set("anthropic-version", anthropicVersion)
		return req, nil
	})
	if err != nil {
		return "", err
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &apperr.BackendError{Backend: BackendAnthropic, Body: string(body), Err: fmt.Errorf("decode response: %w", err)}
	}
	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", &apperr.EmptyGenerationError{Backend: BackendAnthropic}
	}
	return text, nil
}
