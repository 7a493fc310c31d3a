package metrics

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeStatsProvider struct {
	calls atomic.Int32
	stats Stats
}

func (f *fakeStatsProvider) GetStats() Stats {
	f.calls.Add(1)
	return f.stats
}

func TestCollectorCollectsImmediately(t *testing.T) {
	provider := &fakeStatsProvider{stats: Stats{Kept: 7, Deleted: 3}}
	c := NewCollector(provider, time.Hour)
	c.Start()
	defer c.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for provider.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if provider.calls.Load() == 0 {
		t.Fatal("collector did not call GetStats on start")
	}

	// collect runs in the goroutine; wait for the gauges to settle
	deadline = time.Now().Add(2 * time.Second)
	for testutil.ToFloat64(SessionFilesTotal.WithLabelValues("keep")) != 7 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if got := testutil.ToFloat64(SessionFilesTotal.WithLabelValues("keep")); got != 7 {
		t.Errorf("keep gauge = %v, want 7", got)
	}
	if got := testutil.ToFloat64(SessionFilesTotal.WithLabelValues("delete")); got != 3 {
		t.Errorf("delete gauge = %v, want 3", got)
	}
}

func TestCollectorNilProvider(_ *testing.T) {
	c := NewCollector(nil, time.Hour)
	c.collect()
}

func TestInitializeMetrics(t *testing.T) {
	InitializeMetrics()

	if n := testutil.CollectAndCount(DecodeTotal); n != 6 {
		t.Errorf("DecodeTotal series = %d, want 6", n)
	}
	if n := testutil.CollectAndCount(NavigationActions); n != 5 {
		t.Errorf("NavigationActions series = %d, want 5", n)
	}
}

func TestFilesystemObserver(t *testing.T) {
	o := NewFilesystemObserver()

	before := testutil.ToFloat64(FilesystemRetryAttempts.WithLabelValues("rename", "output"))
	o.ObserveRetryAttempt("rename", "output")
	if got := testutil.ToFloat64(FilesystemRetryAttempts.WithLabelValues("rename", "output")); got != before+1 {
		t.Errorf("retry attempts = %v, want %v", got, before+1)
	}

	errsBefore := testutil.ToFloat64(FilesystemOperationErrors.WithLabelValues("input", "read"))
	o.ObserveOperation("input", "read", 0.01, nil)
	o.ObserveOperation("input", "read", 0.01, errTest)
	if got := testutil.ToFloat64(FilesystemOperationErrors.WithLabelValues("input", "read")); got != errsBefore+1 {
		t.Errorf("operation errors = %v, want %v", got, errsBefore+1)
	}
}

type testError string

func (e testError) Error() string { return string(e) }

var errTest = testError("boom")

type poolStatsProvider struct {
	fakeStatsProvider
	updates atomic.Int32
}

func (p *poolStatsProvider) UpdateDBMetrics() {
	p.updates.Add(1)
}

func TestCollectorUpdatesDBMetrics(t *testing.T) {
	provider := &poolStatsProvider{}
	c := NewCollector(provider, time.Hour)
	c.collect()

	if got := provider.updates.Load(); got != 1 {
		t.Errorf("UpdateDBMetrics calls = %d, want 1", got)
	}
}
