package internaldefs

import (
	authgate "github.com/hqstack/authgate"
)

// CounterDef binds one gate counter to its exported metric name.
type CounterDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// CounterDefs enumerates every exported gate counter. Exporters iterate
// this table so the set of published metrics stays identical across
// backends.
var CounterDefs = []CounterDef{
	{ID: authgate.MetricAllow, Name: "authgate_allow_total", Help: "Requests admitted by the gate."},
	{ID: authgate.MetricDenyNoToken, Name: "authgate_deny_no_token_total", Help: "Requests denied for carrying no token."},
	{ID: authgate.MetricDenyInvalidToken, Name: "authgate_deny_invalid_token_total", Help: "Requests denied for malformed or unverifiable tokens."},
	{ID: authgate.MetricDenyExpiredToken, Name: "authgate_deny_expired_token_total", Help: "Requests denied for expired tokens."},
	{ID: authgate.MetricDenyRevokedToken, Name: "authgate_deny_revoked_token_total", Help: "Requests denied for revoked tokens."},
	{ID: authgate.MetricDenyLockedAccount, Name: "authgate_deny_locked_account_total", Help: "Requests denied for locked accounts."},
	{ID: authgate.MetricDenyChain, Name: "authgate_deny_chain_total", Help: "Requests denied by the authentication chain for other reasons."},
	{ID: authgate.MetricLoginSuccess, Name: "authgate_login_success_total", Help: "Successful password logins."},
	{ID: authgate.MetricLoginFailure, Name: "authgate_login_failure_total", Help: "Failed password logins."},
	{ID: authgate.MetricLogout, Name: "authgate_logout_total", Help: "Logout operations."},
	{ID: authgate.MetricSessionEvicted, Name: "authgate_session_evicted_total", Help: "Sessions evicted by the concurrency cap."},
	{ID: authgate.MetricSessionRejected, Name: "authgate_session_rejected_total", Help: "Logins rejected by the concurrency cap."},
	{ID: authgate.MetricStoreFallback, Name: "authgate_store_fallback_total", Help: "Store failures absorbed by the fail-open policy."},
}
