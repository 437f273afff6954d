// Package middleware provides the HTTP middleware stack: request IDs,
// logging, panic recovery, CORS, bearer-token auth and per-IP rate limits.
package middleware

import "net/http"

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain combines middleware into one. Application order follows the
// argument order: Chain(a, b)(h) runs a first, then b, then h.
func Chain(mws ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			final = mws[i](final)
		}
		return final
	}
}
