package tracker

import (
	"sync"
	"testing"
)

func TestTracker(t *testing.T) {
	tr := New()
	provider := "test.provider"

	// Test Initial State
	stats := tr.Snapshot()
	if len(stats) != 0 {
		t.Errorf("Expected empty stats, got %d", len(stats))
	}

	// Test Tracking
	tr.TrackCacheHit(provider)
	tr.TrackCacheMiss(provider)
	tr.TrackSuccess(provider)
	tr.TrackFailure(provider)
	tr.TrackFallback(provider)

	// Verify Snapshot
	stats = tr.Snapshot()
	pStats, ok := stats[provider]
	if !ok {
		t.Fatalf("Expected stats for provider %s", provider)
	}

	if pStats.CacheHits != 1 {
		t.Errorf("Expected 1 CacheHit, got %d", pStats.CacheHits)
	}
	if pStats.CacheMisses != 1 {
		t.Errorf("Expected 1 CacheMiss, got %d", pStats.CacheMisses)
	}
	if pStats.Successes != 1 {
		t.Errorf("Expected 1 Success, got %d", pStats.Successes)
	}
	if pStats.Failures != 1 {
		t.Errorf("Expected 1 Failure, got %d", pStats.Failures)
	}
	if pStats.FallbackHits != 1 {
		t.Errorf("Expected 1 FallbackHit, got %d", pStats.FallbackHits)
	}
}

func TestTrackerConcurrent(t *testing.T) {
	tr := New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.TrackSuccess("gemini")
				tr.TrackFailure("openai")
			}
		}()
	}
	wg.Wait()

	stats := tr.Snapshot()
	if stats["gemini"].Successes != 1000 {
		t.Errorf("Expected 1000 successes, got %d", stats["gemini"].Successes)
	}
	if stats["openai"].Failures != 1000 {
		t.Errorf("Expected 1000 failures, got %d", stats["openai"].Failures)
	}
}
