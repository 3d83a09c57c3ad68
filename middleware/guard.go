package middleware

import (
	"net"
	"net/http"

	authgate "github.com/hqstack/authgate"
)

// RefreshHeader is the response header carrying the refresh advisory. Its
// value is "true" or "false" on every guarded response, allowed or denied.
const RefreshHeader = "refresh"

// Options tunes a [Guard].
type Options struct {
	// Header names the request header carrying the token. Defaults to
	// "Authorization". A "bearer" scheme prefix is accepted but optional.
	Header string
	// ExemptPatterns lists ant-style path patterns ("/login", "/static/**")
	// that bypass authentication entirely.
	ExemptPatterns []string
	// OptionalAuth admits requests without a token as anonymous instead of
	// denying them. Requests WITH a token are still fully checked: a bad
	// token denies even on an optional route.
	OptionalAuth bool
}

// Guard returns middleware enforcing gate decisions. Every denial is the
// same 401 with the body "unauthorized"; the reason lives in the gate's
// logs and audit trail, never on the wire.
func Guard(gate *authgate.Gate, opts Options) func(http.Handler) http.Handler {
	header := opts.Header
	if header == "" {
		header = "Authorization"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if gate == nil {
				unauthorized(w)
				return
			}

			for _, pattern := range opts.ExemptPatterns {
				if matchPattern(pattern, r.URL.Path) {
					next.ServeHTTP(w, r)
					return
				}
			}

			headerValue := r.Header.Get(header)
			ctx := authgate.WithClientIP(r.Context(), remoteIP(r))

			if headerValue == "" && opts.OptionalAuth {
				w.Header().Set(RefreshHeader, "false")
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			decision, err := gate.Authenticate(ctx, headerValue)
			if err != nil {
				w.Header().Set(RefreshHeader, "false")
				unauthorized(w)
				return
			}

			if decision.RefreshAdvised {
				w.Header().Set(RefreshHeader, "true")
			} else {
				w.Header().Set(RefreshHeader, "false")
			}

			next.ServeHTTP(w, r.WithContext(withDecision(ctx, decision)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

// remoteIP strips the port from RemoteAddr. X-Forwarded-For is deliberately
// not consulted: trusting proxy headers is a deployment decision the host
// makes by rewriting RemoteAddr in its own outer middleware.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
