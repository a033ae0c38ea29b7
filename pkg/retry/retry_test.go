package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"
)

func fastPolicy(maxRetries int) Policy {
	return Policy{MaxRetries: maxRetries, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

// TestDoSucceedsAfterTransientFailures tests that 5xx responses are retried
func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	retries := 0
	policy := fastPolicy(3)
	policy.OnRetry = func(attempt, attempts int, err error, delay time.Duration) { retries++ }

	got, err := Do(context.Background(), policy, func() (string, int, error) {
		calls++
		if calls < 3 {
			return "", 503, errors.New("service unavailable")
		}
		return "ok", 200, nil
	})

	if err != nil || got != "ok" {
		t.Fatalf("expected ok, got %q / %v", got, err)
	}
	if calls != 3 || retries != 2 {
		t.Errorf("expected 3 calls and 2 retries, got %d / %d", calls, retries)
	}
}

// TestDoStopsOnClientError tests that a 4xx other than 429 is returned at once
func TestDoStopsOnClientError(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(3), func() (int, int, error) {
		calls++
		return 0, 401, errors.New("unauthorized")
	})

	var retryErr *Error
	if !errors.As(err, &retryErr) || retryErr.Reason != ReasonClient || retryErr.Status != 401 {
		t.Fatalf("expected client error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

// TestDoRetriesTooManyRequests tests that 429 counts as transient
func TestDoRetriesTooManyRequests(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(2), func() (int, int, error) {
		calls++
		return 0, 429, errors.New("rate limited")
	})

	var retryErr *Error
	if !errors.As(err, &retryErr) || retryErr.Reason != ReasonExhausted || retryErr.Attempts != 3 {
		t.Fatalf("expected exhausted after 3 attempts, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

// TestDoStopsOnPermanentError tests that unclassified errors are not retried
func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(3), func() (int, int, error) {
		calls++
		return 0, 0, errors.New("malformed payload")
	})

	var retryErr *Error
	if !errors.As(err, &retryErr) || retryErr.Reason != ReasonPermanent {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

// TestDoReportsCanceledContext tests that a finished caller context ends the loop
func TestDoReportsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, fastPolicy(3), func() (int, int, error) {
		return 0, 0, context.Canceled
	})

	var retryErr *Error
	if !errors.As(err, &retryErr) || retryErr.Reason != ReasonCanceled {
		t.Fatalf("expected canceled, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected the context error to be wrapped, got %v", err)
	}
}

// TestDoExhaustedKeepsLastError tests that the last attempt's error is wrapped
func TestDoExhaustedKeepsLastError(t *testing.T) {
	_, err := Do(context.Background(), fastPolicy(1), func() (int, int, error) {
		return 0, 0, context.DeadlineExceeded
	})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded to be wrapped, got %v", err)
	}
}

// TestIsTransient tests error classification
func TestIsTransient(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   bool
	}{
		{"rate limited", errors.New("x"), 429, true},
		{"server error", errors.New("x"), 502, true},
		{"bad request", errors.New("x"), 400, false},
		{"nil error", nil, 0, false},
		{"deadline", context.DeadlineExceeded, 0, true},
		{"op error", &net.OpError{Op: "dial", Err: errors.New("refused")}, 0, true},
		{"dns error", &net.DNSError{Name: "api.example"}, 0, true},
		{"eof", io.EOF, 0, true},
		{"unexpected eof", io.ErrUnexpectedEOF, 0, true},
		{"connection reset", errors.New("read: connection reset by peer"), 0, true},
		{"other", errors.New("json: cannot unmarshal"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err, tt.status); got != tt.want {
				t.Errorf("IsTransient() = %v, want %v", got, tt.want)
			}
		})
	}
}
