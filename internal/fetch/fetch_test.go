package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"ogyscraper/internal/config"
	"ogyscraper/internal/logger"
)

func testPolicy() *config.RetryPolicy {
	return &config.RetryPolicy{
		MaxAttempts:       2,
		InitialDelayMs:    1,
		MaxDelayMs:        5,
		BackoffMultiplier: 1.0,
		TimeoutSec:        5,
	}
}

func TestFetcher_JSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != userAgent {
			t.Errorf("unexpected User-Agent %q", r.Header.Get("User-Agent"))
		}

		_, _ = w.Write([]byte(`{"list":[{"maz":1,"taz":2}]}`))
	}))
	defer srv.Close()

	f := New(testPolicy(), logger.Nop())

	var doc struct {
		List []map[string]int `json:"list"`
	}

	if err := f.JSON(context.Background(), srv.URL, &doc); err != nil {
		t.Fatalf("JSON failed: %v", err)
	}

	if len(doc.List) != 1 || doc.List[0]["maz"] != 1 {
		t.Errorf("unexpected document: %+v", doc)
	}

	stats := f.Stats()
	if stats.SuccessfulAttempts != 1 || stats.FailedAttempts != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestFetcher_JSON_StatusFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := New(testPolicy(), logger.Nop())

	var v map[string]any

	err := f.JSON(context.Background(), srv.URL, &v)
	if err == nil {
		t.Fatal("expected error for 404")
	}

	var ferr *Error
	if !errors.As(err, &ferr) {
		t.Fatalf("expected *fetch.Error, got %T", err)
	}

	if ferr.Kind != KindStatus {
		t.Errorf("Kind = %v, want KindStatus", ferr.Kind)
	}

	if ferr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", ferr.StatusCode)
	}

	// 404 is not retryable: exactly one attempt should be logged.
	if got := len(f.Attempts()); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestFetcher_JSON_DecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	f := New(testPolicy(), logger.Nop())

	var v map[string]any

	err := f.JSON(context.Background(), srv.URL, &v)

	var ferr *Error
	if !errors.As(err, &ferr) {
		t.Fatalf("expected *fetch.Error, got %v", err)
	}

	if ferr.Kind != KindDecode {
		t.Errorf("Kind = %v, want KindDecode", ferr.Kind)
	}
}

func TestFetcher_TransportFailure(t *testing.T) {
	f := New(testPolicy(), logger.Nop())

	var v map[string]any

	err := f.JSON(context.Background(), "http://127.0.0.1:1/nothing.json", &v)

	var ferr *Error
	if !errors.As(err, &ferr) {
		t.Fatalf("expected *fetch.Error, got %v", err)
	}

	if ferr.Kind != KindTransport {
		t.Errorf("Kind = %v, want KindTransport", ferr.Kind)
	}

	// Transport failures are retried up to MaxAttempts.
	if got := len(f.Attempts()); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
}

func TestFetcher_RetryOnRetryableStatus(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	f := New(testPolicy(), logger.Nop())

	var v map[string]any

	if err := f.JSON(context.Background(), srv.URL, &v); err != nil {
		t.Fatalf("JSON failed after retry: %v", err)
	}

	if calls.Load() != 2 {
		t.Errorf("server calls = %d, want 2", calls.Load())
	}
}

func TestFetcher_CachesSuccessfulResponses(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"n":1}`))
	}))
	defer srv.Close()

	f := New(testPolicy(), logger.Nop())

	for i := 0; i < 3; i++ {
		var v map[string]any
		if err := f.JSON(context.Background(), srv.URL, &v); err != nil {
			t.Fatalf("JSON failed: %v", err)
		}
	}

	if calls.Load() != 1 {
		t.Errorf("server calls = %d, want 1 (cache miss only once)", calls.Load())
	}

	if stats := f.Stats(); stats.CachedDocuments != 1 {
		t.Errorf("CachedDocuments = %d, want 1", stats.CachedDocuments)
	}
}

func TestFetcher_FailuresAreNotCached(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.NotFound(w, r)

			return
		}

		_, _ = w.Write([]byte(`{"n":1}`))
	}))
	defer srv.Close()

	f := New(testPolicy(), logger.Nop())

	var v map[string]any

	if err := f.JSON(context.Background(), srv.URL, &v); err == nil {
		t.Fatal("expected first fetch to fail")
	}

	if err := f.JSON(context.Background(), srv.URL, &v); err != nil {
		t.Fatalf("second fetch should succeed, got %v", err)
	}
}
