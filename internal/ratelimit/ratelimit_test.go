package ratelimit

import (
	"testing"
	"time"
)

func TestSlidingWindow_AllowWithinLimit(t *testing.T) {
	l := NewSlidingWindow(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("ws-1") {
			t.Fatalf("expected call %d to be allowed", i+1)
		}
	}
	if l.Allow("ws-1") {
		t.Error("expected fourth call to be denied")
	}
}

func TestSlidingWindow_KeysAreIndependent(t *testing.T) {
	l := NewSlidingWindow(1, time.Minute)

	if !l.Allow("ws-1") {
		t.Fatal("expected first ws-1 call allowed")
	}
	if l.Allow("ws-1") {
		t.Error("expected second ws-1 call denied")
	}
	if !l.Allow("ws-2") {
		t.Error("expected ws-2 to have its own budget")
	}
}

func TestSlidingWindow_ExpiredHitsFreeTheWindow(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewSlidingWindow(2, time.Minute)
	l.now = func() time.Time { return current }

	if !l.Allow("ws-1") || !l.Allow("ws-1") {
		t.Fatal("expected first two calls allowed")
	}
	if l.Allow("ws-1") {
		t.Error("expected third call denied inside the window")
	}

	current = current.Add(61 * time.Second)
	if !l.Allow("ws-1") {
		t.Error("expected call allowed after the window slid past old hits")
	}
}

func TestSlidingWindow_PartialWindowSlide(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewSlidingWindow(2, time.Minute)
	l.now = func() time.Time { return current }

	if !l.Allow("ws-1") {
		t.Fatal("expected first call allowed")
	}

	current = current.Add(30 * time.Second)
	if !l.Allow("ws-1") {
		t.Fatal("expected second call allowed")
	}
	if l.Allow("ws-1") {
		t.Error("expected third call denied, both hits still in window")
	}

	// The first hit expires; the second is still inside.
	current = current.Add(31 * time.Second)
	if !l.Allow("ws-1") {
		t.Error("expected one slot freed after the older hit expired")
	}
	if l.Allow("ws-1") {
		t.Error("expected no further slots")
	}
}

func TestSlidingWindow_ZeroLimitIsUnlimited(t *testing.T) {
	l := NewSlidingWindow(0, time.Minute)

	for i := 0; i < 100; i++ {
		if !l.Allow("ws-1") {
			t.Fatalf("expected unlimited limiter to allow call %d", i+1)
		}
	}
}

func TestSlidingWindow_Reset(t *testing.T) {
	l := NewSlidingWindow(1, time.Minute)

	if !l.Allow("ws-1") {
		t.Fatal("expected first call allowed")
	}
	if l.Allow("ws-1") {
		t.Error("expected second call denied")
	}

	l.Reset("ws-1")
	if !l.Allow("ws-1") {
		t.Error("expected call allowed after reset")
	}
}
