package ratelimiter

import (
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestAllowEnforcesWindowBudget(t *testing.T) {
	fw := New(Options{Requests: 50, Window: time.Minute})

	for i := 0; i < 50; i++ {
		if !fw.Allow("token-a") {
			t.Fatalf("request %d unexpectedly denied", i+1)
		}
	}

	if fw.Allow("token-a") {
		t.Fatal("request 51 should be denied")
	}

	if got := fw.Remaining("token-a"); got != 0 {
		t.Fatalf("remaining after exhaustion: got %d, want 0", got)
	}
}

func TestAllowIsolatesIdentities(t *testing.T) {
	fw := New(Options{Requests: 1, Window: time.Minute})

	if !fw.Allow("token-a") {
		t.Fatal("first request for token-a denied")
	}
	if fw.Allow("token-a") {
		t.Fatal("second request for token-a allowed")
	}

	// A different credential has its own untouched budget.
	if !fw.Allow("token-b") {
		t.Fatal("first request for token-b denied")
	}
}

func TestWindowExpiryResetsBudget(t *testing.T) {
	fw := New(Options{Requests: 2, Window: 50 * time.Millisecond})

	if !fw.Allow("token-a") || !fw.Allow("token-a") {
		t.Fatal("initial budget denied")
	}
	if fw.Allow("token-a") {
		t.Fatal("over-budget request allowed")
	}

	time.Sleep(60 * time.Millisecond)

	if !fw.Allow("token-a") {
		t.Fatal("request after window expiry denied")
	}
}

func TestConcurrentAllowNeverOverAdmits(t *testing.T) {
	const limit = 50

	fw := New(Options{Requests: limit, Window: time.Minute})

	var (
		wg      sync.WaitGroup
		allowed int64
	)

	for i := 0; i < 4*limit; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if fw.Allow("shared-token") {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	if allowed != limit {
		t.Fatalf("admitted %d requests, want exactly %d", allowed, limit)
	}
}

func TestSourceKeyPrefersCredentialHeader(t *testing.T) {
	fw := New(Options{})

	r := httptest.NewRequest("POST", "/api/rooms/1/messages", nil)
	r.Header.Set("Authorization", "Bot abc123")
	r.RemoteAddr = "10.0.0.1:55555"

	if got := fw.SourceKey(r); got != "Bot abc123" {
		t.Fatalf("source key: got %q, want credential header", got)
	}

	r.Header.Del("Authorization")
	if got := fw.SourceKey(r); got != "10.0.0.1:55555" {
		t.Fatalf("source key without credential: got %q, want remote addr", got)
	}
}

func TestDefaultsApplied(t *testing.T) {
	fw := New(Options{})

	if fw.Limit() != 50 {
		t.Fatalf("default limit: got %d, want 50", fw.Limit())
	}
	if fw.window != 100*time.Millisecond {
		t.Fatalf("default window: got %v, want 100ms", fw.window)
	}
}

func TestInMemoryCacheExpiration(t *testing.T) {
	cache := NewInMemory()
	defer cache.Close()

	if err := cache.SetWithExpiration("k", windowState{Count: 3, StartMS: 1}, 20*time.Millisecond); err != nil {
		t.Fatal(err)
	}

	state, err := cache.Get("k")
	if err != nil {
		t.Fatal(err)
	}
	if state.Count != 3 {
		t.Fatalf("count: got %d, want 3", state.Count)
	}

	time.Sleep(30 * time.Millisecond)

	if _, err := cache.Get("k"); err != ErrCacheMiss {
		t.Fatalf("expected ErrCacheMiss after expiry, got %v", err)
	}
}
