package relay

import (
	"testing"

	"github.com/opencw/brazier/internal/protocol"
)

func diffWith(id protocol.CreatureID, fields ...int) *protocol.CreatureUpdate {
	diff := &protocol.CreatureUpdate{ID: id}
	for _, f := range fields {
		diff.Mask.Set(f)
	}
	return diff
}

func TestFilterStripsPrivateFields(t *testing.T) {
	var prev protocol.CreatureData

	diff := diffWith(4,
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
	)

	if filtered := filterUpdate(&prev, diff); filtered != nil {
		t.Errorf("all-private diff survived with mask %#x", uint64(filtered.Mask))
	}
}

func TestFilterKeepsPosition(t *testing.T) {
	var prev protocol.CreatureData

	diff := diffWith(4, protocol.FieldPosition, protocol.FieldRotation)
	diff.Data.Position = protocol.QVector3{X: 1, Y: 2, Z: 3}

	filtered := filterUpdate(&prev, diff)
	if filtered == nil {
		t.Fatal("position diff dropped")
	}
	if !filtered.Mask.Has(protocol.FieldPosition) {
		t.Error("position stripped")
	}
	if filtered.Mask.Has(protocol.FieldRotation) {
		t.Error("rotation kept")
	}
}

func TestFilterAnimationTime(t *testing.T) {
	prev := protocol.CreatureData{AnimationTime: 400}

	// Forward progress: stripped.
	diff := diffWith(4, protocol.FieldAnimationTime)
	diff.Data.AnimationTime = 500
	if filterUpdate(&prev, diff) != nil {
		t.Error("animation progress survived the filter")
	}

	// Restart: kept.
	diff = diffWith(4, protocol.FieldAnimationTime)
	diff.Data.AnimationTime = 0
	filtered := filterUpdate(&prev, diff)
	if filtered == nil || !filtered.Mask.Has(protocol.FieldAnimationTime) {
		t.Error("animation restart was stripped")
	}
}

func TestFilterRetreatVelocityDecay(t *testing.T) {
	prev := protocol.CreatureData{RetreatVelocity: protocol.Vector3{X: 10}}

	// Same-direction decay toward zero is client-simulated; strip it.
	diff := diffWith(4, protocol.FieldRetreatVelocity)
	diff.Data.RetreatVelocity = protocol.Vector3{X: 5}
	if filterUpdate(&prev, diff) != nil {
		t.Error("retreat decay survived the filter")
	}

	// A fresh knockback is a real change.
	diff = diffWith(4, protocol.FieldRetreatVelocity)
	diff.Data.RetreatVelocity = protocol.Vector3{X: -20}
	if filterUpdate(&prev, diff) == nil {
		t.Error("fresh knockback was stripped")
	}
}

func TestFilterEffectTimers(t *testing.T) {
	prev := protocol.CreatureData{EffectTimeStun: 1000}

	diff := diffWith(4, protocol.FieldEffectTimeStun)
	diff.Data.EffectTimeStun = 500
	if filterUpdate(&prev, diff) != nil {
		t.Error("stun decay survived the filter")
	}

	diff = diffWith(4, protocol.FieldEffectTimeStun)
	diff.Data.EffectTimeStun = 2000
	if filterUpdate(&prev, diff) == nil {
		t.Error("stun refresh was stripped")
	}
}

func TestFilterCancelsStaleDodge(t *testing.T) {
	prev := protocol.CreatureData{
		Animation:       protocol.AnimIdle,
		EffectTimeDodge: 300,
	}

	diff := diffWith(4, protocol.FieldAnimation)
	diff.Data.Animation = protocol.AnimSmash

	filtered := filterUpdate(&prev, diff)
	if filtered == nil {
		t.Fatal("animation change dropped")
	}
	if !filtered.Mask.Has(protocol.FieldEffectTimeDodge) || filtered.Data.EffectTimeDodge != 0 {
		t.Error("stale dodge timer was not cancelled")
	}
}

func TestFilterAimOffsetRequiresAiming(t *testing.T) {
	var prev protocol.CreatureData

	diff := diffWith(4, protocol.FieldAimOffset)
	diff.Data.AimOffset = protocol.Vector3{X: 1}
	if filterUpdate(&prev, diff) != nil {
		t.Error("aim offset survived without the aiming flag")
	}

	prev.CreatureFlags = protocol.FlagAiming
	if filterUpdate(&prev, diff) == nil {
		t.Error("aim offset stripped while aiming")
	}
}
