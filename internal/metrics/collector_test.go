package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"sola-docstore/internal/cache"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mockStatsProvider struct {
	mu    sync.Mutex
	stats cache.Stats
	err   error
	calls int
}

func (m *mockStatsProvider) Stats() (cache.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.stats, m.err
}

func (m *mockStatsProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestCollectorCollect(t *testing.T) {
	provider := &mockStatsProvider{stats: cache.Stats{
		Files:        3,
		Bytes:        1500,
		KnownBytes:   1400,
		MaxBytes:     2000,
		ResizedBytes: 1200,
	}}

	c := NewCollector(provider, time.Minute)
	c.collect()

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"files", testutil.ToFloat64(CacheFiles), 3},
		{"bytes", testutil.ToFloat64(CacheSizeBytes), 1500},
		{"known", testutil.ToFloat64(CacheKnownBytes), 1400},
		{"max", testutil.ToFloat64(CacheLimitBytes.WithLabelValues("max")), 2000},
		{"resized", testutil.ToFloat64(CacheLimitBytes.WithLabelValues("resized")), 1200},
	}
	for _, ch := range checks {
		if ch.got != ch.want {
			t.Errorf("%s = %v, want %v", ch.name, ch.got, ch.want)
		}
	}
}

func TestCollectorKeepsGaugesOnError(t *testing.T) {
	good := &mockStatsProvider{stats: cache.Stats{Files: 7}}
	NewCollector(good, time.Minute).collect()

	bad := &mockStatsProvider{err: errors.New("stale handle")}
	NewCollector(bad, time.Minute).collect()

	if got := testutil.ToFloat64(CacheFiles); got != 7 {
		t.Errorf("CacheFiles = %v after failed collection, want 7", got)
	}
}

func TestCollectorNilProvider(t *testing.T) {
	c := NewCollector(nil, time.Minute)
	c.collect()
}

func TestCollectorStartStop(t *testing.T) {
	provider := &mockStatsProvider{}
	c := NewCollector(provider, 10*time.Millisecond)
	c.Start()

	deadline := time.Now().Add(2 * time.Second)
	for provider.callCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	c.Stop()

	if provider.callCount() < 2 {
		t.Errorf("collector ran %d times, want at least 2", provider.callCount())
	}
}
