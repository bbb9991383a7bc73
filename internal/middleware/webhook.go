// Package middleware provides inbound webhook authentication.
package middleware

import (
	"crypto/subtle"
	"net/http"
)

// WebhookToken returns middleware that validates a shared-token header set
// by the dialogue platform on every webhook call. An empty configured token
// disables the check (local development).
func WebhookToken(token, header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			got := r.Header.Get(header)
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				http.Error(w, "invalid webhook token", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
