package relay

import (
	"testing"
	"time"
)

func TestComboClockAcceptsHonestTimeline(t *testing.T) {
	var clock comboClock
	start := time.Now()

	// A combo opening at t=0 and reported accurately every 100ms.
	for i := 0; i < 50; i++ {
		now := start.Add(time.Duration(i) * 100 * time.Millisecond)
		timeout := int32(i * 100)
		prev := int32(0)
		if i > 0 {
			prev = int32((i - 1) * 100)
		}
		if !clock.observe(now, 100, 100, prev, timeout) {
			t.Fatalf("honest packet %d rejected", i)
		}
	}
}

func TestComboClockAcceptsSmallJitter(t *testing.T) {
	var clock comboClock
	start := time.Now()

	clock.observe(start, 100, 100, 0, 0)
	// 40ms of jitter per packet, alternating sign, never accumulates.
	for i := 1; i < 100; i++ {
		jitter := int32(40)
		if i%2 == 0 {
			jitter = -40
		}
		now := start.Add(time.Duration(i) * 100 * time.Millisecond)
		timeout := int32(i*100) + jitter
		if !clock.observe(now, 100, 100, int32((i-1)*100), timeout) {
			t.Fatalf("jittery packet %d rejected", i)
		}
	}
}

func TestComboClockKicksSteadyDrift(t *testing.T) {
	var clock comboClock
	start := time.Now()

	clock.observe(start, 100, 100, 0, 0)

	// Each packet reports 300ms more combo time than really elapsed, the
	// profile of a sped-up client clock. No single packet crosses the
	// per-packet threshold, but the accumulator must catch it quickly.
	prev := int32(0)
	for i := 1; i <= 20; i++ {
		now := start.Add(time.Duration(i) * 100 * time.Millisecond)
		timeout := int32(i * 400) // 100ms real + 300ms drift per packet
		if !clock.observe(now, 100, 100, prev, timeout) {
			if i > 10 {
				t.Fatalf("drift not caught until packet %d", i)
			}
			return
		}
		prev = timeout
	}
	t.Fatal("steady +300ms drift was never caught")
}

func TestComboClockForgivesLagSpike(t *testing.T) {
	var clock comboClock
	start := time.Now()

	clock.observe(start, 100, 100, 0, 0)

	// A burst of packets arrives 800ms late after a network stall.
	now := start.Add(1000 * time.Millisecond)
	if !clock.observe(now, 100, 100, 0, 1800) {
		t.Fatal("lag spike packet rejected")
	}
	// Followups within the grace window pass untouched.
	now = start.Add(1100 * time.Millisecond)
	if !clock.observe(now, 100, 100, 1800, 1900) {
		t.Fatal("packet within lag grace rejected")
	}
}

func TestComboClockFreezesWhileDead(t *testing.T) {
	var clock comboClock
	start := time.Now()

	clock.observe(start, 100, 100, 0, 0)
	// Dead creatures report stale combo timers; ignore them entirely.
	if !clock.observe(start.Add(time.Hour), 0, 0, 0, 123456) {
		t.Fatal("dead creature's combo timer was judged")
	}
}

func TestComboClockResetsOnLandedHit(t *testing.T) {
	var clock comboClock
	start := time.Now()

	clock.observe(start, 100, 100, 0, 0)
	// A hit resets the combo window: timeout drops and the epoch follows.
	now := start.Add(5 * time.Second)
	if !clock.observe(now, 100, 100, 5000, 0) {
		t.Fatal("combo reset rejected")
	}
	if !clock.observe(now.Add(100*time.Millisecond), 100, 100, 0, 100) {
		t.Fatal("post-reset packet rejected")
	}
}
