package relay

import (
	"github.com/opencw/brazier/internal/protocol"
)

// alwaysStripped are fields the client either ignores from other players
// or that would leak private signal (camera, stamina, progress) if
// rebroadcast.
var alwaysStripped = []int{
	protocol.FieldRotation,
	protocol.FieldHeadTilt,
	protocol.FieldPhysicsFlags,
	protocol.FieldComboTimeout,
	protocol.FieldMana,
	protocol.FieldBlockingGauge,
	protocol.FieldExperience,
	protocol.FieldHome,
	protocol.FieldHomeZone,
	protocol.FieldZoneToReveal,
	protocol.FieldManaCubes,
}

// retreatAxisChanged reports a real change of one retreat velocity axis,
// as opposed to the passive decay the client simulates on its own.
func retreatAxisChanged(before, after float32) bool {
	if before == 0 {
		return after != 0
	}
	ratio := after / before
	return ratio < 0 || ratio >= 1
}

// filterUpdate reduces a creature diff to the fields worth fanning out,
// judged against the reporter's pre-merge state. It returns nil when
// nothing of the diff survives.
func filterUpdate(prev *protocol.CreatureData, diff *protocol.CreatureUpdate) *protocol.CreatureUpdate {
	out := &protocol.CreatureUpdate{ID: diff.ID, Mask: diff.Mask, Data: diff.Data}

	for _, field := range alwaysStripped {
		out.Mask.Clear(field)
	}

	// Animation time only matters when it jumps backwards: an animation
	// restart. Forward progress is simulated client-side.
	if out.Mask.Has(protocol.FieldAnimationTime) && diff.Data.AnimationTime >= prev.AnimationTime {
		out.Mask.Clear(protocol.FieldAnimationTime)
	}

	if out.Mask.Has(protocol.FieldRetreatVelocity) {
		before, after := prev.RetreatVelocity, diff.Data.RetreatVelocity
		if !retreatAxisChanged(before.X, after.X) &&
			!retreatAxisChanged(before.Y, after.Y) &&
			!retreatAxisChanged(before.Z, after.Z) {
			out.Mask.Clear(protocol.FieldRetreatVelocity)
		}
	}

	// Effect timers pass only when the effect got refreshed; the decay is
	// simulated by every client on its own.
	for _, timer := range []struct {
		field         int
		before, after int32
	}{
		{protocol.FieldEffectTimeDodge, prev.EffectTimeDodge, diff.Data.EffectTimeDodge},
		{protocol.FieldEffectTimeStun, prev.EffectTimeStun, diff.Data.EffectTimeStun},
		{protocol.FieldEffectTimeFear, prev.EffectTimeFear, diff.Data.EffectTimeFear},
		{protocol.FieldEffectTimeChill, prev.EffectTimeChill, diff.Data.EffectTimeChill},
		{protocol.FieldEffectTimeWind, prev.EffectTimeWind, diff.Data.EffectTimeWind},
	} {
		if out.Mask.Has(timer.field) && timer.after <= timer.before {
			out.Mask.Clear(timer.field)
		}
	}

	// Starting a new animation while other clients still run our dodge
	// roll leaves them animating a ghost dodge. Cancel it explicitly.
	if out.Mask.Has(protocol.FieldAnimation) && diff.Data.Animation != prev.Animation && prev.EffectTimeDodge > 0 {
		out.Mask.Set(protocol.FieldEffectTimeDodge)
		out.Data.EffectTimeDodge = 0
	}

	if out.Mask.Has(protocol.FieldAimOffset) {
		flags := prev.CreatureFlags
		if diff.Mask.Has(protocol.FieldCreatureFlags) {
			flags = diff.Data.CreatureFlags
		}
		if flags&protocol.FlagAiming == 0 {
			out.Mask.Clear(protocol.FieldAimOffset)
		}
	}

	if out.Mask == 0 {
		return nil
	}
	return out
}
