package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"daily-memo-go/internal/apperr"
	"daily-memo-go/internal/logger"
	"daily-memo-go/internal/metrics"
	"daily-memo-go/internal/transport"
)

const (
	BackendName    = "transcription"
	DefaultBaseURL = "https://api.openai.com"
	DefaultModel   = "whisper-1"
)

// Backend turns one audio file into text. An empty prompt means none.
type Backend interface {
	Transcribe(ctx context.Context, audio []byte, filename, credential, prompt string) (string, error)
}

// OpenAIClient talks to an OpenAI-compatible /v1/audio/transcriptions endpoint.
type OpenAIClient struct {
	BaseURL   string
	Model     string
	Transport *transport.Client
}

func NewOpenAIClient(baseURL, model string, log *logger.Logger, m *metrics.Metrics) *OpenAIClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIClient{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Model:     model,
		Transport: transport.New(BackendName, log, m),
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

func (c *OpenAIClient) Transcribe(ctx context.Context, audio []byte, filename, credential, prompt string) (string, error) {
	if credential == "" {
		return "", apperr.MissingCredential(BackendName)
	}
	body, contentType, err := multipartBody(audio, filename, c.Model, prompt)
	if err != nil {
		return "", err
	}
	endpoint := c.BaseURL + "/v1/audio/transcriptions"

	data, err := c.Transport.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+credential)
		return req, nil
	})
	if err != nil {
		return "", err
	}

	var resp transcriptionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", &apperr.BackendError{Backend: BackendName, Body: string(data), Err: fmt.Errorf("decode response: %w", err)}
	}
	return strings.TrimSpace(resp.Text), nil
}

func multipartBody(audio []byte, filename, model, prompt string) ([]byte, string, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("model", model); err != nil {
		return nil, "", err
	}
	if prompt != "" {
		if err := w.WriteField("prompt", prompt); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return b.Bytes(), w.FormDataContentType(), nil
}
