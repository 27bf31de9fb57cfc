// Package fetch retrieves remote JSON documents with retry, per-attempt
// logging and a per-run response cache.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"ogyscraper/internal/config"
	"ogyscraper/internal/logger"
)

const userAgent = "ogyscraper/1.0"

// Kind classifies a fetch failure.
type Kind int

// Failure kinds.
const (
	KindTransport Kind = iota + 1 // network/connection error
	KindStatus                    // non-2xx response
	KindDecode                    // body not valid JSON
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	}

	return "unknown"
}

// Error is a typed fetch failure. StatusCode is zero when no response was
// received.
type Error struct {
	Kind       Kind
	StatusCode int
	URL        string
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s failure (status %d): %s", e.URL, e.Kind, e.StatusCode, e.Message)
	}

	return fmt.Sprintf("fetch %s: %s failure: %s", e.URL, e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Attempt records the result of one fetch attempt.
type Attempt struct {
	Timestamp  time.Time
	URL        string
	Error      string
	Duration   time.Duration
	StatusCode int
	Success    bool
}

// Fetcher fetches JSON documents. Successful response bodies are memoized by
// URL for the lifetime of the Fetcher, which is scoped to one pipeline run.
type Fetcher struct {
	client *http.Client
	retry  *config.RetryPolicy
	log    *logger.Logger

	mu       sync.Mutex
	cache    map[string][]byte
	attempts []Attempt
}

// New creates a fetcher with the given retry policy.
func New(retry *config.RetryPolicy, log *logger.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: retry.GetTimeout(),
		},
		retry: retry,
		log:   log,
		cache: make(map[string][]byte),
	}
}

// JSON fetches the document at url and unmarshals it into v. On failure it
// returns a *Error classifying the problem; the attempt log records every
// HTTP attempt either way.
func (f *Fetcher) JSON(ctx context.Context, url string, v any) error {
	body, err := f.body(ctx, url)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return &Error{
			Kind:    KindDecode,
			URL:     url,
			Message: "body is not valid JSON for the expected shape",
			Err:     err,
		}
	}

	return nil
}

// Raw fetches the document at url and returns the raw body.
func (f *Fetcher) Raw(ctx context.Context, url string) (json.RawMessage, error) {
	body, err := f.body(ctx, url)
	if err != nil {
		return nil, err
	}

	if !json.Valid(body) {
		return nil, &Error{
			Kind:    KindDecode,
			URL:     url,
			Message: "body is not valid JSON",
		}
	}

	return json.RawMessage(body), nil
}

func (f *Fetcher) body(ctx context.Context, url string) ([]byte, *Error) {
	f.mu.Lock()
	cached, ok := f.cache[url]
	f.mu.Unlock()

	if ok {
		return cached, nil
	}

	var lastErr *Error

	for attempt := 1; attempt <= f.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := f.retry.GetRetryDelay(attempt)
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					lastErr = &Error{Kind: KindTransport, URL: url, Message: "canceled", Err: ctx.Err()}

					return nil, lastErr
				}
			}
		}

		body, ferr := f.attemptOnce(ctx, url)
		if ferr == nil {
			f.mu.Lock()
			f.cache[url] = body
			f.mu.Unlock()

			return body, nil
		}

		lastErr = ferr

		// Only status failures on retryable codes are worth another attempt;
		// transport failures always are.
		if ferr.Kind == KindStatus && !isRetryableStatus(ferr.StatusCode) {
			break
		}
	}

	return nil, lastErr
}

func (f *Fetcher) attemptOnce(ctx context.Context, url string) ([]byte, *Error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		ferr := &Error{Kind: KindTransport, URL: url, Message: "failed to create request", Err: err}
		f.record(url, 0, time.Since(start), ferr)

		return nil, ferr
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		ferr := &Error{Kind: KindTransport, URL: url, Message: "request failed", Err: err}
		f.record(url, 0, time.Since(start), ferr)

		return nil, ferr
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ferr := &Error{
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			URL:        url,
			Message:    http.StatusText(resp.StatusCode),
		}
		f.record(url, resp.StatusCode, time.Since(start), ferr)

		return nil, ferr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		ferr := &Error{Kind: KindTransport, StatusCode: resp.StatusCode, URL: url, Message: "failed to read response body", Err: err}
		f.record(url, resp.StatusCode, time.Since(start), ferr)

		return nil, ferr
	}

	f.record(url, resp.StatusCode, time.Since(start), nil)

	return body, nil
}

// record appends one attempt log entry. The log is diagnostic only and never
// feeds back into control flow.
func (f *Fetcher) record(url string, statusCode int, duration time.Duration, ferr *Error) {
	entry := Attempt{
		Timestamp:  time.Now(),
		URL:        url,
		Duration:   duration,
		StatusCode: statusCode,
		Success:    ferr == nil,
	}

	if ferr != nil {
		entry.Error = ferr.Error()
		f.log.Debug("fetch attempt failed", "url", url, "status", statusCode, "error", ferr.Message)
	} else {
		f.log.Debug("fetch attempt succeeded", "url", url, "status", statusCode, "duration", duration)
	}

	f.mu.Lock()
	f.attempts = append(f.attempts, entry)
	f.mu.Unlock()
}

// Attempts returns a copy of the attempt log.
func (f *Fetcher) Attempts() []Attempt {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Attempt, len(f.attempts))
	copy(out, f.attempts)

	return out
}

// Stats contains statistics about fetch attempts.
type Stats struct {
	TotalAttempts      int
	SuccessfulAttempts int
	FailedAttempts     int
	CachedDocuments    int
}

// Stats aggregates the attempt log.
func (f *Fetcher) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()

	stats := Stats{
		TotalAttempts:   len(f.attempts),
		CachedDocuments: len(f.cache),
	}

	for _, a := range f.attempts {
		if a.Success {
			stats.SuccessfulAttempts++
		} else {
			stats.FailedAttempts++
		}
	}

	return stats
}

// String returns a string representation of the stats.
func (s Stats) String() string {
	return fmt.Sprintf(
		"Attempts: %d total, %d success, %d failed | Cached documents: %d",
		s.TotalAttempts,
		s.SuccessfulAttempts,
		s.FailedAttempts,
		s.CachedDocuments,
	)
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests,
		http.StatusRequestTimeout:
		return true
	}

	return false
}
