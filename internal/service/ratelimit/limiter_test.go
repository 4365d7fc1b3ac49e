package ratelimit

import (
	"testing"
	"time"
)

func TestAllowConsumesTokens(t *testing.T) {
	l := New()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	if !l.AllowAt("Bitcoin", 1, 1.0/3600, now) {
		t.Fatalf("first call should be allowed")
	}
	if l.AllowAt("Bitcoin", 1, 1.0/3600, now.Add(time.Minute)) {
		t.Fatalf("second call within refill window should be denied")
	}
}

func TestAllowRefills(t *testing.T) {
	l := New()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	l.AllowAt("Bitcoin", 1, 1.0/3600, now)
	if !l.AllowAt("Bitcoin", 1, 1.0/3600, now.Add(time.Hour)) {
		t.Fatalf("expected token after refill interval")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	l.AllowAt("Bitcoin", 1, 1.0/3600, now)
	if !l.AllowAt("Ethereum", 1, 1.0/3600, now) {
		t.Fatalf("a different key should have its own bucket")
	}
}
