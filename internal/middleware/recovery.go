package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"editorial-gateway/pkg/logging/logging"
)

// Recoverer turns a handler panic into a logged 500 instead of a
// dropped connection. The body uses the same error envelope the
// handlers write.
func Recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logging.L(r.Context()).Error("panic recovered",
						zap.Any("error", rec),
						zap.ByteString("stack", debug.Stack()),
					)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":{"kind":"internal","message":"internal server error"}}`))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
