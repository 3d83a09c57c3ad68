package authgate

import (
	"sync"
	"testing"
)

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricAllow)

	snap := m.Snapshot()
	if len(snap.Counters) != 0 {
		t.Fatalf("nil metrics snapshot has %d counters", len(snap.Counters))
	}
}

func TestMetricsConcurrentIncrements(t *testing.T) {
	m := newMetrics(MetricsConfig{Enabled: true})

	var wg sync.WaitGroup
	const workers = 16
	const perWorker = 1000
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.Inc(MetricAllow)
			}
		}()
	}
	wg.Wait()

	if got := m.Snapshot().Counters[MetricAllow]; got != workers*perWorker {
		t.Fatalf("counter = %d, want %d", got, workers*perWorker)
	}
}

func TestMetricsDisabled(t *testing.T) {
	if m := newMetrics(MetricsConfig{Enabled: false}); m != nil {
		t.Fatal("disabled metrics should be nil")
	}
}

func TestMetricsIgnoresUnknownID(t *testing.T) {
	m := newMetrics(MetricsConfig{Enabled: true})
	m.Inc(metricCount + 5)
	for id, v := range m.Snapshot().Counters {
		if v != 0 {
			t.Fatalf("counter %d = %d after out-of-range increment", id, v)
		}
	}
}
