package middleware

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"editorial-gateway/pkg/logging/logging"
)

// Timeout cancels the request context after d and answers 504 if the
// handler is still running. The editorial pipeline threads this
// context through every upstream call, so cancellation propagates all
// the way down to the scrapes and the model call.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(w, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				// This write races a handler that keeps going after
				// cancellation. Every handler here stops on ctx; use
				// the buffering http.TimeoutHandler if one ever cannot.
				logging.L(ctx).Warn("request timeout", zap.Duration("timeout", d))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusGatewayTimeout)
				_, _ = w.Write([]byte(`{"error":{"kind":"internal","message":"request timed out"}}`))
			}
		})
	}
}
