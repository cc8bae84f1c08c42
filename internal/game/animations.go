package game

import (
	"github.com/opencw/brazier/internal/protocol"
)

// AnimationSet is a set of animation ids.
type AnimationSet map[protocol.Animation]struct{}

func (s AnimationSet) add(anims ...protocol.Animation) {
	for _, a := range anims {
		s[a] = struct{}{}
	}
}

// Contains reports membership.
func (s AnimationSet) Contains(a protocol.Animation) bool {
	_, ok := s[a]
	return ok
}

// generalAnimations are available to every creature regardless of class
// or equipment.
var generalAnimations = []protocol.Animation{
	protocol.AnimIdle,
	protocol.AnimDrink,
	protocol.AnimEat,
	protocol.AnimPetFoodPresent,
	protocol.AnimSit,
	protocol.AnimSleep,
	protocol.AnimRiding,
	protocol.AnimSail,
}

// timelessAnimations may run with an unbounded animation time.
var timelessAnimations = map[protocol.Animation]struct{}{
	protocol.AnimIdle:            {},
	protocol.AnimStealth:         {},
	protocol.AnimSail:            {},
	protocol.AnimSit:             {},
	protocol.AnimPetFoodPresent:  {},
	protocol.AnimSleep:           {},
	protocol.AnimMeleeM2:         {},
	protocol.AnimGreatweaponM2:   {},
	protocol.AnimUnarmedM2:       {},
	protocol.AnimBowCharge:       {},
	protocol.AnimCrossbowCharge:  {},
	protocol.AnimBoomerangCharge: {},
	protocol.AnimStaffFireM2:     {},
	protocol.AnimStaffWaterM2:    {},
	protocol.AnimWandFireM2:      {},
	protocol.AnimWandWaterM2:     {},
	protocol.AnimBraceletFireM2:  {},
	protocol.AnimBraceletWaterM2: {},
	protocol.AnimShieldM2:        {},
}

// Timeless reports whether the animation is exempt from the 10 second
// animation-time cap.
func Timeless(a protocol.Animation) bool {
	_, ok := timelessAnimations[a]
	return ok
}

func classAnimations(occupation protocol.Occupation, specialization protocol.Specialization) []protocol.Animation {
	switch occupation {
	case protocol.OccupationWarrior:
		return []protocol.Animation{protocol.AnimSmash, protocol.AnimCyclone}
	case protocol.OccupationRanger:
		return []protocol.Animation{protocol.AnimKick}
	case protocol.OccupationMage:
		if specialization == protocol.SpecializationAlternative {
			return []protocol.Animation{protocol.AnimTeleport, protocol.AnimHealingStream}
		}
		return []protocol.Animation{protocol.AnimTeleport, protocol.AnimFireExplosionShort}
	case protocol.OccupationRogue:
		if specialization == protocol.SpecializationAlternative {
			return []protocol.Animation{protocol.AnimIntercept, protocol.AnimStealth, protocol.AnimShuriken}
		}
		return []protocol.Animation{protocol.AnimIntercept, protocol.AnimStealth}
	}
	return nil
}

// weaponAnimations returns the M1 and M2 sets keyed by weapon kind.
func weaponAnimations(kind protocol.WeaponKind, specialization protocol.Specialization) (m1, m2 []protocol.Animation) {
	switch kind {
	case protocol.WeaponSword, protocol.WeaponAxe, protocol.WeaponMace,
		protocol.WeaponDagger, protocol.WeaponFist, protocol.WeaponLongsword,
		protocol.WeaponPickaxe, protocol.WeaponTorch:
		return []protocol.Animation{protocol.AnimMeleeM1A, protocol.AnimMeleeM1B},
			[]protocol.Animation{protocol.AnimMeleeM2}
	case protocol.WeaponGreatsword, protocol.WeaponGreataxe, protocol.WeaponGreatmace, protocol.WeaponPitchfork:
		return []protocol.Animation{protocol.AnimGreatweaponM1A, protocol.AnimGreatweaponM1B, protocol.AnimGreatweaponM1C},
			[]protocol.Animation{protocol.AnimGreatweaponM2}
	case protocol.WeaponBow:
		return []protocol.Animation{protocol.AnimBowShot}, []protocol.Animation{protocol.AnimBowCharge}
	case protocol.WeaponCrossbow:
		return []protocol.Animation{protocol.AnimCrossbowShot}, []protocol.Animation{protocol.AnimCrossbowCharge}
	case protocol.WeaponBoomerang:
		return []protocol.Animation{protocol.AnimBoomerangThrow}, []protocol.Animation{protocol.AnimBoomerangCharge}
	case protocol.WeaponStaff:
		if specialization == protocol.SpecializationAlternative {
			return []protocol.Animation{protocol.AnimStaffWaterM1}, []protocol.Animation{protocol.AnimStaffWaterM2}
		}
		return []protocol.Animation{protocol.AnimStaffFireM1}, []protocol.Animation{protocol.AnimStaffFireM2}
	case protocol.WeaponWand:
		if specialization == protocol.SpecializationAlternative {
			return []protocol.Animation{protocol.AnimWandWaterM1}, []protocol.Animation{protocol.AnimWandWaterM2}
		}
		return []protocol.Animation{protocol.AnimWandFireM1}, []protocol.Animation{protocol.AnimWandFireM2}
	case protocol.WeaponBracelet:
		if specialization == protocol.SpecializationAlternative {
			return []protocol.Animation{protocol.AnimBraceletWaterM1}, []protocol.Animation{protocol.AnimBraceletWaterM2}
		}
		return []protocol.Animation{protocol.AnimBraceletFireM1}, []protocol.Animation{protocol.AnimBraceletFireM2}
	}
	return nil, nil
}

// AllowedAnimations computes the animation ids a creature may legally
// report given its class, specialization, and equipped weapons.
func AllowedAnimations(d *protocol.CreatureData) AnimationSet {
	set := make(AnimationSet, 32)
	set.add(generalAnimations...)
	set.add(classAnimations(d.Occupation, d.Specialization)...)

	right := d.Equipment[protocol.SlotRightWeapon]
	left := d.Equipment[protocol.SlotLeftWeapon]

	rightIsWeapon := !right.IsVoid() && right.Kind == protocol.KindWeapon
	leftIsWeapon := !left.IsVoid() && left.Kind == protocol.KindWeapon

	if rightIsWeapon {
		m1, m2 := weaponAnimations(right.WeaponKind(), d.Specialization)
		set.add(m1...)
		set.add(m2...)
	}
	if leftIsWeapon {
		// Bows and crossbows are held in the left hand, so the left slot
		// contributes attack animations too.
		m1, m2 := weaponAnimations(left.WeaponKind(), d.Specialization)
		set.add(m1...)
		set.add(m2...)
	}

	if !rightIsWeapon && !leftIsWeapon {
		if d.Occupation == protocol.OccupationMage {
			// Bare-handed mages fall back to the bracelet moves of their
			// subclass.
			m1, m2 := weaponAnimations(protocol.WeaponBracelet, d.Specialization)
			set.add(m1...)
			set.add(m2...)
		} else {
			set.add(protocol.AnimUnarmedM1A, protocol.AnimUnarmedM1B, protocol.AnimUnarmedM2)
		}
	}

	// A shield in the off hand replaces the charged attack.
	if leftIsWeapon && left.WeaponKind() == protocol.WeaponShield {
		set.add(protocol.AnimShieldM2)
	}

	return set
}
