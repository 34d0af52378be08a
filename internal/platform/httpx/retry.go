package httpx

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

// StatusCoder is implemented by transport errors that carry an HTTP status.
type StatusCoder interface {
	HTTPStatusCode() int
}

// Retryable lets an error state its own retry classification.
type Retryable interface {
	Retryable() bool
}

// IsRetryableError reports whether err looks transient: timeouts, dropped
// connections, 408, 429 and 5xx responses. Caller cancellation is never retried.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		return IsRetryableStatus(sc.HTTPStatusCode())
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") || strings.Contains(msg, "connection refused")
}

func IsRetryableStatus(code int) bool {
	return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500
}

// RetryAfterDuration honors a Retry-After header (seconds) capped at max, else returns fallback.
func RetryAfterDuration(resp *http.Response, fallback, max time.Duration) time.Duration {
	if resp == nil {
		return fallback
	}
	raw := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if raw == "" {
		return fallback
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return fallback
	}
	d := time.Duration(secs) * time.Second
	if max > 0 && d > max {
		return max
	}
	return d
}

func JitterSleep(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d/2 + time.Duration(rand.Int63n(int64(d/2)+1))
}

// Policy controls Do.
type Policy struct {
	MaxRetries        int
	InitialInterval   time.Duration
	PerAttemptTimeout time.Duration
}

// DefaultPolicy retries a transient failure exactly once.
func DefaultPolicy(perAttempt time.Duration) Policy {
	return Policy{MaxRetries: 1, InitialInterval: 500 * time.Millisecond, PerAttemptTimeout: perAttempt}
}

// Do runs fn, retrying transient failures per p. Non-retryable errors are returned on first sight.
func Do(ctx context.Context, log *logger.Logger, op string, p Policy, fn func(ctx context.Context) error) error {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = 500 * time.Millisecond
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialInterval
	exp.MaxInterval = 10 * time.Second
	exp.MaxElapsedTime = 0

	attempt := 0
	operation := func() error {
		attempt++
		callCtx := ctx
		if p.PerAttemptTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, p.PerAttemptTimeout)
			defer cancel()
		}
		err := fn(callCtx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		if !IsRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		if log == nil {
			return
		}
		log.Warn("retrying transient failure",
			"op", op,
			"attempt", attempt,
			"max_retries", p.MaxRetries,
			"sleep", wait.String(),
			"error", err.Error(),
		)
	}
	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(p.MaxRetries)), ctx)
	return backoff.RetryNotify(operation, b, notify)
}
