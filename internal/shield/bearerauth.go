package shield

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// BearerAuth returns middleware gating every request on a static bearer
// token (spec.md §1's non-goal: "user authentication beyond possession
// of a static bearer header" — this is the one authentication check
// coordplane performs at the HTTP layer; everything past it is the
// client's own E2EE keys and PIN/passkey). excludePrefixes bypass the
// check entirely, the same convention as RateLimiter/MaintenanceMode.
func BearerAuth(token []byte, excludePrefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range excludePrefixes {
				if strings.HasPrefix(r.URL.Path, p) {
					next.ServeHTTP(w, r)
					return
				}
			}

			const prefix = "Bearer "
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, prefix) {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			provided := strings.TrimPrefix(auth, prefix)
			if subtle.ConstantTimeCompare([]byte(provided), token) != 1 {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
