package middleware

import (
	"context"

	authgate "github.com/hqstack/authgate"
)

type principalContextKey struct{}

type decisionContextKey struct{}

// PrincipalFromContext returns the principal the guard authenticated for
// this request.
func PrincipalFromContext(ctx context.Context) (*authgate.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*authgate.Principal)
	return p, ok
}

// DecisionFromContext returns the full gate decision, including the token id
// and the refresh advisory.
func DecisionFromContext(ctx context.Context) (*authgate.Decision, bool) {
	d, ok := ctx.Value(decisionContextKey{}).(*authgate.Decision)
	return d, ok
}

func withDecision(ctx context.Context, d *authgate.Decision) context.Context {
	ctx = context.WithValue(ctx, decisionContextKey{}, d)
	return context.WithValue(ctx, principalContextKey{}, d.Principal)
}
