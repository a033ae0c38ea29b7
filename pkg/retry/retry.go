package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Default backoff values
const (
	DefaultInitialDelay = 500 * time.Millisecond
	DefaultMaxDelay     = 5 * time.Second
	backoffMultiplier   = 2
)

// Reason tells why Do gave up
type Reason int

const (
	// ReasonClient - a 4xx other than 429, never retried
	ReasonClient Reason = iota + 1
	// ReasonCanceled - the caller's context ended
	ReasonCanceled
	// ReasonPermanent - an error that is not worth retrying
	ReasonPermanent
	// ReasonExhausted - every attempt failed with a transient error
	ReasonExhausted
)

// Error wraps the last attempt's error with the reason Do stopped
type Error struct {
	Reason   Reason
	Status   int
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	if e.Reason == ReasonExhausted {
		return fmt.Sprintf("%v after %d attempts", e.Err, e.Attempts)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Policy configures Do. OnRetry, when set, runs before each wait.
type Policy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	OnRetry      func(attempt, attempts int, err error, delay time.Duration)
}

// Do runs op until it succeeds, fails for a non-transient reason, or runs out of attempts.
// op returns the HTTP status it saw, 0 when the request never got a response.
// Failures are always *Error.
func Do[T any](ctx context.Context, p Policy, op func() (T, int, error)) (T, error) {
	attempts := p.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	attempt := 0
	operation := func() (T, error) {
		attempt++
		result, status, err := op()
		if err == nil {
			return result, nil
		}
		if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
			return result, backoff.Permanent(&Error{Reason: ReasonClient, Status: status, Attempts: attempt, Err: err})
		}
		if ctx.Err() != nil {
			return result, backoff.Permanent(&Error{Reason: ReasonCanceled, Status: status, Attempts: attempt, Err: ctx.Err()})
		}
		if !IsTransient(err, status) {
			return result, backoff.Permanent(&Error{Reason: ReasonPermanent, Status: status, Attempts: attempt, Err: err})
		}
		return result, err
	}

	notify := func(err error, delay time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(attempt, attempts, err, delay)
		}
	}

	result, err := backoff.RetryNotifyWithData(operation, p.backOff(ctx, attempts-1), notify)
	if err == nil {
		return result, nil
	}

	var retryErr *Error
	if errors.As(err, &retryErr) {
		return result, retryErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, &Error{Reason: ReasonCanceled, Attempts: attempt, Err: ctxErr}
	}
	return result, &Error{Reason: ReasonExhausted, Attempts: attempt, Err: err}
}

// backOff builds a deterministic exponential schedule bounded by maxRetries and ctx
func (p Policy) backOff(ctx context.Context, maxRetries int) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	if b.InitialInterval <= 0 {
		b.InitialInterval = DefaultInitialDelay
	}
	b.MaxInterval = p.MaxDelay
	if b.MaxInterval <= 0 {
		b.MaxInterval = DefaultMaxDelay
	}
	b.Multiplier = backoffMultiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries)), ctx)
}

var transientPatterns = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"i/o timeout",
	"eof",
}

// IsTransient determines if an error or status code is transient and should be retried
func IsTransient(err error, statusCode int) bool {
	if statusCode == http.StatusTooManyRequests || (statusCode >= 500 && statusCode < 600) {
		return true
	}
	if statusCode >= 400 && statusCode < 500 {
		return false
	}

	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}
