package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "http://example.com/bookmarks.html"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "https://other.example.com/export.json"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()
	ref := "http://example.com/a.html"

	if err := limiter.Wait(ctx, ref); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// burst 1: the token is gone, same host case-insensitively
	if limiter.Allow("http://EXAMPLE.com/b.html") {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}

	if !limiter.Allow("http://other.com") {
		t.Errorf("expected allow for other host")
	}
}

func TestLimiter_LocalSourcesNeverThrottled(t *testing.T) {
	limiter := NewLimiter(0.001, 1)

	for _, ref := range []string{"bookmarks.html", "-", "/tmp/export.json", "bookmarks.html"} {
		if !limiter.Allow(ref) {
			t.Errorf("expected %q to be allowed", ref)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx, "bookmarks.html"); err != nil {
		t.Errorf("local wait failed: %v", err)
	}
}

func TestLimiter_ZeroRateIsUnlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 10; i++ {
		if !limiter.Allow("https://example.com/") {
			t.Fatalf("request %d throttled with zero rate", i)
		}
	}
}

func TestLimiter_SetHostRate(t *testing.T) {
	limiter := NewLimiter(10, 10)
	limiter.SetHostRate("Slow.com", 0.1, 1)

	if !limiter.Allow("http://slow.com") {
		t.Errorf("first request should pass")
	}
	if limiter.Allow("http://slow.com") {
		t.Errorf("second request should fail")
	}
	if !limiter.Allow("http://fast.com") {
		t.Errorf("other host should pass")
	}
}

func TestLimiter_SetHostRateUnlimited(t *testing.T) {
	limiter := NewLimiter(0.1, 1)
	limiter.SetHostRate("mirror.example", 0, 1)

	for i := 0; i < 5; i++ {
		if !limiter.Allow("https://mirror.example/bookmarks.html") {
			t.Fatalf("request %d to an unlimited host was throttled", i)
		}
	}
	if !limiter.Allow("https://other.example/") {
		t.Errorf("first request to another host should pass")
	}
	if limiter.Allow("https://other.example/") {
		t.Errorf("second request to another host should fail")
	}
}

func TestRemoteHost(t *testing.T) {
	tests := []struct {
		ref  string
		host string
		ok   bool
	}{
		{"http://example.com/foo", "example.com", true},
		{"https://Example.com:8443/x", "example.com:8443", true},
		{"bookmarks.html", "", false},
		{"file:///tmp/b.html", "", false},
		{"::invalid", "", false},
	}

	for _, tt := range tests {
		host, ok := remoteHost(tt.ref)
		if host != tt.host || ok != tt.ok {
			t.Errorf("remoteHost(%q) = %q, %v; want %q, %v", tt.ref, host, ok, tt.host, tt.ok)
		}
	}
}
