package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// sendWithRetry runs do up to MaxRetries+1 times. Only transient
// network failures and 408/429/5xx responses are retried; context
// cancellation always wins. A 429 with Retry-After sleeps for the
// advertised delay, everything else backs off exponentially with full
// jitter.
func (c *client) sendWithRetry(
	ctx context.Context,
	body []byte,
	do func(ctx context.Context, body []byte) (*http.Response, error),
) (*http.Response, error) {
	attempts := c.cfg.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		resp, err := do(ctx, body)

		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		c.logger.Debug("llm upstream request",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", attempts),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)

		switch {
		case err != nil:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			if !transientNetError(err) {
				return nil, err
			}
			lastErr = err

		case !retryableStatus(status):
			// Success, or a status the caller must handle itself.
			return resp, nil

		default:
			lastErr = fmt.Errorf("upstream status %d", status)

			// Read the hint before the body goes away; the body must
			// close so the connection returns to the pool.
			hint := retryAfterHint(resp)
			if resp.Body != nil {
				resp.Body.Close()
			}

			if hint > 0 && attempt < attempts-1 {
				c.logger.Info("honoring Retry-After header",
					zap.Duration("wait", hint),
					zap.Int("status", status),
				)
				if err := waitFor(ctx, hint); err != nil {
					return nil, err
				}
				continue
			}
		}

		if attempt == attempts-1 {
			break
		}
		if err := waitFor(ctx, backoffDelay(c.cfg.BaseBackoff, attempt)); err != nil {
			return nil, err
		}
	}

	c.logger.Warn("llm request exhausted all retries",
		zap.Int("attempts", attempts),
		zap.Error(lastErr),
	)
	if lastErr == nil {
		lastErr = errors.New("unknown upstream error")
	}
	return nil, fmt.Errorf("llmclient: max retries (%d) exceeded: %w", attempts, lastErr)
}

func waitFor(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// transientNetError reports whether a transport failure is worth a
// second attempt.
func transientNetError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTimeout || dnsErr.IsTemporary
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch opErr.Op {
		case "dial", "read", "write":
			return true
		}
	}

	// Wrapped errors can lose their concrete type on the way up.
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"no such host",
		"temporary failure",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// retryableStatus: 0 means no response at all, then 408, 429 and the
// 5xx range. 4xx client errors never retry.
func retryableStatus(status int) bool {
	switch {
	case status == 0:
		return true
	case status == http.StatusRequestTimeout:
		return true
	case status == http.StatusTooManyRequests:
		return true
	case status >= 500 && status <= 599:
		return true
	}
	return false
}

// retryAfterHint reads the Retry-After header, accepting both the
// delta-seconds and the HTTP-date form. Absent or unparseable headers
// yield 0; absurd values are capped at five minutes.
func retryAfterHint(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}

	const maxWait = 5 * time.Minute

	if seconds, err := strconv.Atoi(strings.TrimSpace(header)); err == nil {
		if seconds <= 0 {
			return 0
		}
		return min(time.Duration(seconds)*time.Second, maxWait)
	}

	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return min(d, maxWait)
		}
	}
	return 0
}

// backoffDelay picks a random delay in [0, base*2^attempt), capped at
// a minute so a long retry chain cannot stall a request forever.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	if attempt > 10 {
		attempt = 10
	}

	ceiling := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if ceiling > time.Minute {
		ceiling = time.Minute
	}
	return time.Duration(rand.Float64() * float64(ceiling))
}
