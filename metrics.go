package authgate

import "sync/atomic"

// MetricID identifies one gate counter.
type MetricID uint16

const (
	// MetricAllow counts requests the gate admitted.
	MetricAllow MetricID = iota
	// MetricDenyNoToken counts requests carrying no token.
	MetricDenyNoToken
	// MetricDenyInvalidToken counts malformed or unverifiable tokens.
	MetricDenyInvalidToken
	// MetricDenyExpiredToken counts expired tokens.
	MetricDenyExpiredToken
	// MetricDenyRevokedToken counts revoked token ids.
	MetricDenyRevokedToken
	// MetricDenyLockedAccount counts denials for locked accounts.
	MetricDenyLockedAccount
	// MetricDenyChain counts chain failures not covered above.
	MetricDenyChain
	// MetricLoginSuccess counts successful password logins.
	MetricLoginSuccess
	// MetricLoginFailure counts failed password logins.
	MetricLoginFailure
	// MetricLogout counts logouts.
	MetricLogout
	// MetricSessionEvicted counts sessions kicked out by the cap.
	MetricSessionEvicted
	// MetricSessionRejected counts logins rejected by the cap.
	MetricSessionRejected
	// MetricStoreFallback counts store failures absorbed by the fail-open
	// policy.
	MetricStoreFallback

	metricCount
)

// Metrics is the gate's set of in-process counters. A nil *Metrics is a
// valid no-op receiver.
type Metrics struct {
	counters [metricCount]atomic.Uint64
}

func newMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	return &Metrics{}
}

// Inc increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricCount)}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
