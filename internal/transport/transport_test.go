package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"daily-memo-go/internal/apperr"
	"daily-memo-go/internal/logger"
	"daily-memo-go/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestClient(m *metrics.Metrics) *Client {
	c := New("test", logger.Discard(), m)
	c.InitialInterval = time.Millisecond
	c.MaxElapsed = 2 * time.Second
	return c
}

func get(url string) RequestFunc {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestDoRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	var ids []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get("X-Request-ID"))
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	m := metrics.NewMetrics()
	body, err := newTestClient(m).Do(context.Background(), get(srv.URL))
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if string(body) != "ok" || calls.Load() != 3 {
		t.Errorf("body = %q after %d calls", body, calls.Load())
	}
	if ids[0] == "" || ids[0] != ids[2] {
		t.Errorf("request id not stable across retries: %v", ids)
	}
	if got := testutil.ToFloat64(m.BackendRetries.WithLabelValues("test")); got != 2 {
		t.Errorf("retries = %v", got)
	}
	if got := testutil.ToFloat64(m.BackendRequests.WithLabelValues("test", metrics.OutcomeSuccess)); got != 1 {
		t.Errorf("successful requests = %v", got)
	}
}

func TestDoAuthFailureIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(nil).Do(context.Background(), get(srv.URL))
	var ae *apperr.AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want AuthError", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d", calls.Load())
	}
}

func TestDoClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
	}))
	defer srv.Close()

	_, err := newTestClient(nil).Do(context.Background(), get(srv.URL))
	var be *apperr.BackendError
	if !errors.As(err, &be) || be.Status != http.StatusRequestEntityTooLarge {
		t.Fatalf("err = %v, want BackendError 413", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d", calls.Load())
	}
}

func TestDoGivesUpOnPersistentServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(nil)
	c.MaxElapsed = 50 * time.Millisecond
	_, err := c.Do(context.Background(), get(srv.URL))
	var be *apperr.BackendError
	if !errors.As(err, &be) || be.Status != http.StatusServiceUnavailable {
		t.Fatalf("err = %v, want BackendError 503", err)
	}
}
