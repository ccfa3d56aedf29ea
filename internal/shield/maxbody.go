package shield

import "net/http"

// MaxJSONBody returns middleware that caps the request body size for
// JSON requests at maxBytes (spec.md §6: every request/response body is
// JSON). Other content types are passed through unchanged.
func MaxJSONBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Content-Type") == "application/json" {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
