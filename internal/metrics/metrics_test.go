package metrics

import (
	"sync"
	"testing"
)

func TestRecordRequestUpdatesSnapshot(t *testing.T) {
	r := New()
	r.RecordRequest(10, 3)
	r.RecordRequest(20, 5)

	snap := r.Snapshot()
	if snap.RequestsTotal != 2 {
		t.Fatalf("RequestsTotal = %d, want 2", snap.RequestsTotal)
	}
	if snap.PatternsReturned.Total != 8 {
		t.Fatalf("PatternsReturned.Total = %d, want 8", snap.PatternsReturned.Total)
	}
	if snap.PatternsReturned.MaxPerReq != 5 {
		t.Fatalf("PatternsReturned.MaxPerReq = %d, want 5", snap.PatternsReturned.MaxPerReq)
	}
	if snap.PatternsReturned.AvgPerReq != 4 {
		t.Fatalf("PatternsReturned.AvgPerReq = %v, want 4", snap.PatternsReturned.AvgPerReq)
	}
}

func TestRecordRequestEWMAConverges(t *testing.T) {
	r := New()
	for i := 0; i < 50; i++ {
		r.RecordRequest(100, 1)
	}
	snap := r.Snapshot()
	if snap.AvgLatencyMs < 99 || snap.AvgLatencyMs > 101 {
		t.Fatalf("AvgLatencyMs = %v, expected convergence near 100", snap.AvgLatencyMs)
	}
}

func TestCacheHitRateWithNoActivityIsZero(t *testing.T) {
	r := New()
	if got := r.Snapshot().CacheHitRate(); got != 0 {
		t.Fatalf("CacheHitRate = %v, want 0", got)
	}
}

func TestCacheHitRateComputation(t *testing.T) {
	r := New()
	r.RecordCacheHit()
	r.RecordCacheHit()
	r.RecordCacheHit()
	r.RecordCacheMiss()

	if got := r.Snapshot().CacheHitRate(); got != 75 {
		t.Fatalf("CacheHitRate = %v, want 75", got)
	}
}

func TestErrorRateComputation(t *testing.T) {
	r := New()
	r.RecordRequest(1, 0)
	r.RecordRequest(1, 0)
	r.RecordRequest(1, 0)
	r.RecordRequest(1, 0)
	r.RecordError("bad_request")

	if got := r.Snapshot().ErrorRate(); got != 25 {
		t.Fatalf("ErrorRate = %v, want 25", got)
	}
}

func TestResetGlobalGivesAFreshRecorder(t *testing.T) {
	Global().RecordRequest(5, 1)
	ResetGlobal()
	if got := Global().Snapshot().RequestsTotal; got != 0 {
		t.Fatalf("RequestsTotal after ResetGlobal = %d, want 0", got)
	}
}

func TestConcurrentRecordRequestLosesNoIncrements(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	const n = 200
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			r.RecordRequest(1, 1)
		}()
	}
	wg.Wait()

	if got := r.Snapshot().RequestsTotal; got != n {
		t.Fatalf("RequestsTotal = %d, want %d", got, n)
	}
}
