// internal/app/system/ratelimit/ratelimit_test.go

package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowWithinBurst(t *testing.T) {
	l := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d blocked within burst", i+1)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Fatal("request past burst allowed")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New(1, time.Minute)

	if !l.Allow("a") {
		t.Fatal("first request for key a blocked")
	}
	if !l.Allow("b") {
		t.Fatal("first request for key b blocked after key a exhausted")
	}
}

func TestResetClearsBucket(t *testing.T) {
	l := New(1, time.Minute)

	l.Allow("a")
	if l.Allow("a") {
		t.Fatal("second request allowed before reset")
	}
	l.Reset("a")
	if !l.Allow("a") {
		t.Fatal("request blocked after reset")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{name: "remote addr with port", remoteAddr: "10.0.0.1:5123", want: "10.0.0.1"},
		{name: "remote addr without port", remoteAddr: "10.0.0.1", want: "10.0.0.1"},
		{name: "forwarded for wins", remoteAddr: "10.0.0.1:5123", xff: "203.0.113.7, 10.0.0.2", want: "203.0.113.7"},
		{name: "real ip fallback", remoteAddr: "10.0.0.1:5123", xri: "203.0.113.9", want: "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiterBlocksEmail(t *testing.T) {
	ll := NewLoginLimiterWithConfig(100, time.Minute, 2, time.Minute)

	for i := 0; i < 2; i++ {
		r := httptest.NewRequest("POST", "/api/auth/signin", nil)
		r.RemoteAddr = "10.0.0.1:1000"
		if ok, _ := ll.Check(r, "Ada@Example.com"); !ok {
			t.Fatalf("attempt %d blocked within limit", i+1)
		}
	}

	// Different IP, same account: still blocked.
	r := httptest.NewRequest("POST", "/api/auth/signin", nil)
	r.RemoteAddr = "10.0.0.2:1000"
	ok, reason := ll.Check(r, "ada@example.com")
	if ok {
		t.Fatal("third attempt for account allowed")
	}
	if reason == "" {
		t.Error("blocked attempt returned empty reason")
	}

	ll.ResetEmail("ADA@example.com")
	r.RemoteAddr = "10.0.0.3:1000"
	if ok, _ := ll.Check(r, "ada@example.com"); !ok {
		t.Fatal("attempt blocked after ResetEmail")
	}
}

func TestLoginLimiterBlocksIP(t *testing.T) {
	ll := NewLoginLimiterWithConfig(2, time.Minute, 100, time.Minute)

	for i := 0; i < 2; i++ {
		r := httptest.NewRequest("POST", "/api/auth/signin", nil)
		r.RemoteAddr = "10.0.0.1:1000"
		ll.Check(r, "")
	}
	r := httptest.NewRequest("POST", "/api/auth/signin", nil)
	r.RemoteAddr = "10.0.0.1:1000"
	if ok, _ := ll.Check(r, ""); ok {
		t.Fatal("third attempt from IP allowed")
	}
}
