package request

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"staticnews/pkg/cache"
	"staticnews/pkg/tracker"
)

func TestGetPrefersNetworkOverCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("fresh"))
	}))
	defer srv.Close()

	ctx := context.Background()
	mem := cache.NewMemory()
	if err := mem.SetCache(ctx, "k", []byte("stale")); err != nil {
		t.Fatal(err)
	}
	c := New(mem, tracker.New(), 5*time.Second)

	body, err := c.Get(ctx, srv.URL, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(body) != "fresh" {
		t.Errorf("expected live response, got cached %q", body)
	}
}

func TestGetFallsBackToCacheOnFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) > 1 {
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	ctx := context.Background()
	c := New(cache.NewMemory(), tracker.New(), 5*time.Second)

	if _, err := c.Get(ctx, srv.URL, "k"); err != nil {
		t.Fatalf("first Get failed: %v", err)
	}

	body, err := c.Get(ctx, srv.URL, "k")
	if err != nil {
		t.Fatalf("expected cached fallback, got error: %v", err)
	}
	if string(body) != "hello" {
		t.Errorf("expected cached body, got %q", body)
	}
}
