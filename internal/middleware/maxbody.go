package middleware

import "net/http"

// MaxBodySize caps request body reads at n bytes. Handlers reading
// past the cap get an error from the body, which json decoding surfaces
// as a normal bad-request path.
func MaxBodySize(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
