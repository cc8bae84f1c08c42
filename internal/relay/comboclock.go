package relay

import (
	"math"
	"time"
)

const (
	// Per-packet drift beyond this is treated as a lag spike rather than
	// fed into the drift accumulator.
	comboSpikeThreshold = 500 * time.Millisecond
	// How long after a lag spike packets are accepted without judgement.
	comboSpikeGrace = 2 * time.Second
	// Accumulated drift beyond this is a kick.
	comboMaxShift = 2000 * time.Millisecond
	// Exponential decay rate of the accumulator, per second.
	comboShiftDecay = 0.9
)

// comboClock detects client clock manipulation through the combo timeout
// field. The timeout is the client's self-reported time since its current
// combo window opened, so across packets it must advance at wall-clock
// rate. A single late packet is indistinguishable from network jitter,
// which is why per-packet judgement alone is useless: the clock instead
// accumulates every small shift into a leaky counter, so a slow-motion
// hack that stays under the per-packet threshold still drifts the counter
// past the limit within a few seconds.
//
// All methods are called from the owning session's reader loop only.
type comboClock struct {
	initialized bool
	// Wall-clock instant the current combo window opened.
	epoch time.Time

	spikePending bool
	spikeAt      time.Time

	// Accumulated epoch shift in milliseconds, decayed over time.
	cumulativeShift float64
	lastDecay       time.Time
}

// observe feeds one creature update's combo timeout to the detector.
// It returns false when the accumulated drift marks the client as
// desynced on purpose.
func (c *comboClock) observe(now time.Time, prevHealth, health float32, prevTimeout, timeout int32) bool {
	if prevHealth == 0 && health == 0 {
		// Death freezes the combo clock.
		return true
	}

	reported := time.Duration(timeout) * time.Millisecond

	if !c.initialized || (prevHealth == 0 && health > 0) || timeout <= prevTimeout {
		// First sighting, respawn, or a landed hit resetting the window.
		c.initialized = true
		c.spikePending = false
		c.epoch = now.Add(-reported)
		return true
	}

	delta := reported - now.Sub(c.epoch)

	if delta > comboSpikeThreshold || delta < -comboSpikeThreshold {
		c.spikePending = true
		c.spikeAt = now
		return true
	}

	if c.spikePending {
		if now.Sub(c.spikeAt) <= comboSpikeGrace {
			return true
		}
		// The spike settled; realign instead of punishing the backlog.
		c.spikePending = false
		c.epoch = now.Add(-reported)
		return true
	}

	return c.shiftEpoch(now, delta)
}

func (c *comboClock) shiftEpoch(now time.Time, delta time.Duration) bool {
	if !c.lastDecay.IsZero() {
		elapsed := now.Sub(c.lastDecay).Seconds()
		c.cumulativeShift *= math.Pow(comboShiftDecay, elapsed)
	}
	c.lastDecay = now

	// Absorb the measured drift so the next packet is judged only on new
	// drift, while the leaky counter remembers the total.
	c.epoch = c.epoch.Add(-delta)
	c.cumulativeShift += float64(delta) / float64(time.Millisecond)

	return math.Abs(c.cumulativeShift) <= float64(comboMaxShift/time.Millisecond)
}
