// Package transport sends backend HTTP requests with bounded retries and
// maps failed responses onto the apperr categories.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"daily-memo-go/internal/apperr"
	"daily-memo-go/internal/logger"
	"daily-memo-go/internal/metrics"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTimeout    = 5 * time.Minute
	DefaultMaxElapsed = 30 * time.Second

	// maxErrorBody caps how much of a failed response ends up in an error.
	maxErrorBody = 2048
)

// RequestFunc builds a fresh request for every attempt, since bodies are
// consumed by the previous one.
type RequestFunc func(ctx context.Context) (*http.Request, error)

type Client struct {
	Backend         string
	HTTP            *http.Client
	InitialInterval time.Duration
	MaxElapsed      time.Duration
	Log             *logger.Logger
	Metrics         *metrics.Metrics
}

func New(backend string, log *logger.Logger, m *metrics.Metrics) *Client {
	return &Client{
		Backend:    backend,
		HTTP:       &http.Client{Timeout: DefaultTimeout},
		MaxElapsed: DefaultMaxElapsed,
		Log:        log.WithComponent(backend),
		Metrics:    m,
	}
}

// Do sends the request and returns the body of a 2xx response. Network
// errors, 429 and 5xx responses are retried until MaxElapsed. 401 and 403
// come back as *apperr.AuthError, everything else as *apperr.BackendError.
func (c *Client) Do(ctx context.Context, build RequestFunc) ([]byte, error) {
	start := time.Now()
	requestID := uuid.NewString()
	attempt := 0

	var body []byte
	op := func() error {
		attempt++
		req, err := build(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("X-Request-ID", requestID)

		resp, err := c.httpClient().Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return &apperr.BackendError{Backend: c.Backend, Err: err}
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &apperr.BackendError{Backend: c.Backend, Err: fmt.Errorf("read body: %w", err)}
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			body = data
			return nil
		}
		return classify(c.Backend, resp.StatusCode, data)
	}

	notify := func(err error, wait time.Duration) {
		c.Metrics.RecordRetry(c.Backend)
		c.Log.WithFields(logrus.Fields{
			"request_id": requestID,
			"attempt":    attempt,
			"wait":       wait.String(),
		}).WithError(err).Warn("backend request failed, retrying")
	}

	err := backoff.RetryNotify(op, backoff.WithContext(c.backOff(), ctx), notify)
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailed
	}
	c.Metrics.ObserveBackend(c.Backend, outcome, time.Since(start))
	if err != nil {
		c.Log.WithFields(logrus.Fields{
			"request_id": requestID,
			"attempts":   attempt,
		}).WithError(err).Error("backend request failed")
		return nil, err
	}
	c.Log.WithFields(logrus.Fields{
		"request_id": requestID,
		"attempts":   attempt,
		"elapsed":    time.Since(start).String(),
	}).Debug("backend request succeeded")
	return body, nil
}

// classify turns a non-2xx response into an error. Only throttling and
// server errors are left retryable.
func classify(backend string, status int, data []byte) error {
	text := string(data)
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return backoff.Permanent(&apperr.AuthError{
			Backend: backend,
			Message: fmt.Sprintf("credential rejected (HTTP %d)", status),
			Err:     errors.New(text),
		})
	case status == http.StatusTooManyRequests || status >= 500:
		return &apperr.BackendError{Backend: backend, Status: status, Body: text}
	default:
		return backoff.Permanent(&apperr.BackendError{Backend: backend, Status: status, Body: text})
	}
}

func (c *Client) backOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	if c.InitialInterval > 0 {
		bo.InitialInterval = c.InitialInterval
	}
	bo.MaxElapsedTime = c.MaxElapsed
	return bo
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}
