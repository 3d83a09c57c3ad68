package authgate

import "context"

// Verifier is one strategy in the authentication chain. Supports filters by
// credential kind; Authenticate produces a principal or an error.
type Verifier interface {
	Supports(cred Credential) bool
	Authenticate(ctx context.Context, cred Credential) (*Principal, error)
}

// Chain applies an ordered list of verifiers with first-success semantics:
// the first verifier to produce a principal wins and short-circuits the
// rest. When every supporting verifier fails, the chain fails with the LAST
// verifier's error; later failures overwrite earlier failure reasons. This
// tie-break is deliberate and preserved from the design this gate descends
// from; do not flip it to first-failure-wins.
type Chain struct {
	verifiers []Verifier
}

// NewChain builds a chain over the given verifiers, tried in order.
func NewChain(verifiers ...Verifier) *Chain {
	return &Chain{verifiers: verifiers}
}

// Run evaluates the chain for one credential.
func (c *Chain) Run(ctx context.Context, cred Credential) (*Principal, error) {
	if c == nil || len(c.verifiers) == 0 {
		return nil, ErrChainExhausted
	}

	var lastErr error
	for _, v := range c.verifiers {
		if !v.Supports(cred) {
			continue
		}
		principal, err := v.Authenticate(ctx, cred)
		if err == nil && principal != nil {
			return principal, nil
		}
		if err == nil {
			err = ErrChainExhausted
		}
		lastErr = err
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrChainExhausted
}
