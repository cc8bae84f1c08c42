package relay

import (
	"github.com/opencw/brazier/internal/core"
	"github.com/opencw/brazier/internal/protocol"
)

// unholyKey tunes self-heals of everyone but water mages, whose
// dedicated heal_self knob exists because the client applies their
// self-heal twice.
const unholyKey = "unholy"

// balancer rewrites combat packets in flight according to the configured
// multipliers. All methods are pure except for reading the config.
type balancer struct {
	cfg core.BalancerConfig
}

func newBalancer(cfg core.BalancerConfig) *balancer {
	if cfg.GlobalDamage == 0 {
		cfg.GlobalDamage = 1
	}
	if cfg.HealSelf == 0 {
		cfg.HealSelf = 1
	}
	if cfg.HealOther == 0 {
		cfg.HealOther = 1
	}
	return &balancer{cfg: cfg}
}

func damageKey(m map[string]float64, key string) float64 {
	if v, ok := m[key]; ok {
		return v
	}
	return 1
}

// attackWeapon picks the weapon a creature attacks with: the right hand
// unless only the left holds a weapon.
func attackWeapon(d *protocol.CreatureData) (protocol.WeaponKind, bool) {
	for _, slot := range []protocol.Slot{protocol.SlotRightWeapon, protocol.SlotLeftWeapon} {
		item := d.Equipment[slot]
		if !item.IsVoid() && item.Kind == protocol.KindWeapon {
			return item.WeaponKind(), true
		}
	}
	return 0, false
}

func hasShield(d *protocol.CreatureData) bool {
	for _, slot := range []protocol.Slot{protocol.SlotLeftWeapon, protocol.SlotRightWeapon} {
		item := d.Equipment[slot]
		if !item.IsVoid() && item.Kind == protocol.KindWeapon && item.WeaponKind() == protocol.WeaponShield {
			return true
		}
	}
	return false
}

func shieldCount(d *protocol.CreatureData) int {
	count := 0
	for _, slot := range []protocol.Slot{protocol.SlotLeftWeapon, protocol.SlotRightWeapon} {
		item := d.Equipment[slot]
		if !item.IsVoid() && item.Kind == protocol.KindWeapon && item.WeaponKind() == protocol.WeaponShield {
			count++
		}
	}
	return count
}

func classKey(d *protocol.CreatureData) string {
	key := d.Occupation.String()
	if d.Occupation == protocol.OccupationMage && d.Specialization == protocol.SpecializationAlternative {
		key = "watermage"
	}
	return key
}

func isWaterMage(d *protocol.CreatureData) bool {
	return d.Occupation == protocol.OccupationMage && d.Specialization == protocol.SpecializationAlternative
}

// adjustHit rewrites a hit in place. The returned bool is false when the
// hit should be dropped instead of delivered.
func (b *balancer) adjustHit(hit *protocol.Hit, attacker, target *protocol.CreatureData) bool {
	if hit.Damage < 0 {
		return b.adjustHeal(hit, attacker)
	}

	if hit.Kind == protocol.HitBlock {
		// Blocked hits keep chip damage only when something solid did the
		// blocking.
		if hasShield(target) {
			hit.Damage *= 0.5
		} else {
			hit.Damage = 0
		}
		return true
	}

	multiplier := b.cfg.GlobalDamage
	bonus := b.cfg.GlobalStun

	if weapon, ok := attackWeapon(attacker); ok {
		multiplier *= damageKey(b.cfg.WeaponDamage, weapon.String())
		bonus += b.cfg.WeaponStun[weapon.String()]
	}
	multiplier *= damageKey(b.cfg.ClassDamage, classKey(attacker))
	bonus += b.cfg.ClassStun[classKey(attacker)]

	// Each equipped shield shaves a configured fraction off.
	multiplier *= 1 - b.cfg.ShieldDefense*float64(shieldCount(target))
	if multiplier < 0 {
		multiplier = 0
	}

	hit.Damage *= float32(multiplier)
	if hit.Damage > 0 && hit.Kind == protocol.HitNormal {
		hit.StunTime += int32(bonus)
	}
	return true
}

// adjustHeal rewrites a negative-damage hit. Self-heals are already
// applied client-side, so the relay only delivers the configured surplus;
// at a neutral config the surplus is zero and the packet is dropped.
func (b *balancer) adjustHeal(hit *protocol.Hit, attacker *protocol.CreatureData) bool {
	var multiplier float64
	if hit.Attacker == hit.Target {
		if isWaterMage(attacker) {
			multiplier = b.cfg.HealSelf - 1
		} else {
			multiplier = damageKey(b.cfg.WeaponDamage, unholyKey) - 1
		}
	} else {
		multiplier = b.cfg.HealOther
	}

	hit.Damage *= float32(multiplier)
	return hit.Damage != 0
}

// adjustStatusEffect rewrites an effect in place and optionally returns a
// sibling effect that should ride along to everyone else.
func (b *balancer) adjustStatusEffect(effect *protocol.StatusEffect) *protocol.StatusEffect {
	switch effect.Kind {
	case protocol.StatusManaShield:
		effect.Duration = b.cfg.ManashieldDuration
		if b.cfg.ManashieldCapacityAbsolute != 0 {
			effect.Modifier = b.cfg.ManashieldCapacityAbsolute
		} else if b.cfg.ManashieldCapacityRelative != 0 {
			effect.Modifier *= b.cfg.ManashieldCapacityRelative
		}
	case protocol.StatusWarFrenzy:
		sibling := *effect
		sibling.Kind = protocol.StatusSwiftness
		return &sibling
	}
	return nil
}
