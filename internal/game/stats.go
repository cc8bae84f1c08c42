// Package game implements the rules layer on top of the wire protocol:
// derived creature stats, the per-race appearance tables, the animation
// availability tables, and the creature id pool.
package game

import (
	"math"

	"github.com/opencw/brazier/internal/protocol"
)

// MaxLevel is the level cap enforced on every reporting player.
const MaxLevel = 500

// levelScaling matches the client's exponential health growth curve.
func levelScaling(level int32) float64 {
	return math.Pow(2, float64(level-1)/17.33)
}

// rarityScaling matches the client's per-rarity health multiplier.
func rarityScaling(rarity uint8) float64 {
	return math.Pow(2, float64(rarity)/4)
}

// classMultiplier is the per-class health factor.
func classMultiplier(occupation protocol.Occupation, specialization protocol.Specialization) float64 {
	switch occupation {
	case protocol.OccupationWarrior:
		mult := 1.3
		if specialization == protocol.SpecializationAlternative {
			mult *= 1.25
		}
		return mult
	case protocol.OccupationRanger:
		return 1.1
	case protocol.OccupationRogue:
		return 1.2
	}
	return 1.0
}

// MaxHealth derives a creature's health cap from its level, class, stat
// multipliers, and equipped items. Players always count as legendary
// rarity; everything else uses its reported power base.
func MaxHealth(d *protocol.CreatureData) float32 {
	effectiveRarity := uint8(d.PowerBase)
	if d.Affiliation == protocol.AffiliationPlayer {
		effectiveRarity = protocol.RarityLegendary
	}

	health := float64(d.Multipliers[protocol.StatHealth]) *
		levelScaling(d.Level) *
		rarityScaling(effectiveRarity) *
		classMultiplier(d.Occupation, d.Specialization)

	for slot := protocol.Slot(0); slot < protocol.EquipmentSlots; slot++ {
		item := d.Equipment[slot]
		if item.IsVoid() {
			continue
		}
		health += float64(ItemStats(&item, d.Occupation).Health)
	}

	return float32(health)
}

// LevelPower is the exponential power curve used to cap equipment and
// consumable strength against the holder's level.
func LevelPower(level int32) float64 {
	return math.Pow(2, float64(level)/10)
}

// MaxExperience returns the experience required to leave the given level;
// reported experience must stay strictly below it.
func MaxExperience(level int32) int32 {
	return int32(1050 * math.Pow(1.05, float64(level-1)))
}

// Stats is the 7-slot derived stat block of an item.
type Stats struct {
	Damage float32
	Armor  float32
	Resi   float32
	Health float32
	Reg    float32
	Crit   float32
	Tempo  float32
}

// seedPhase maps an item seed to a deterministic roll in [0, 1).
func seedPhase(seed int32) float64 {
	return float64(uint32(seed)%21) / 21
}

func weaponBase(kind protocol.WeaponKind) float64 {
	switch kind {
	case protocol.WeaponGreatsword, protocol.WeaponGreataxe, protocol.WeaponGreatmace, protocol.WeaponPitchfork:
		return 2.0
	case protocol.WeaponBow, protocol.WeaponCrossbow, protocol.WeaponBoomerang, protocol.WeaponStaff:
		return 1.6
	case protocol.WeaponShield:
		return 0.5
	case protocol.WeaponDagger, protocol.WeaponFist:
		return 0.85
	}
	return 1.0
}

// sizeMultiplier reflects how much of a full armor set the slot covers.
func sizeMultiplier(kind protocol.ItemKind) float64 {
	switch kind {
	case protocol.KindChest:
		return 1.0
	case protocol.KindBoots, protocol.KindGloves:
		return 0.5
	case protocol.KindShoulder:
		return 0.75
	case protocol.KindAmulet, protocol.KindRing:
		return 0.25
	}
	return 1.0
}

func classStatsMultiplier(occupation protocol.Occupation) float64 {
	switch occupation {
	case protocol.OccupationWarrior:
		return 1.15
	case protocol.OccupationMage:
		return 0.9
	}
	return 1.0
}

// ItemStats derives the stat block of an item as the client computes it.
func ItemStats(item *protocol.Item, occupation protocol.Occupation) Stats {
	if item.IsVoid() {
		return Stats{}
	}

	base := LevelPower(int32(item.Level)) *
		rarityScaling(item.Rarity) *
		sizeMultiplier(item.Kind) *
		classStatsMultiplier(occupation) *
		(1 + float64(item.SpiritCounter)/protocol.MaxSpirits/2) *
		(0.75 + seedPhase(item.Seed)/2)

	var stats Stats
	switch item.Kind {
	case protocol.KindWeapon:
		stats.Damage = float32(base * 5 * weaponBase(item.WeaponKind()))
		stats.Crit = float32(seedPhase(item.Seed) / 10)
		stats.Tempo = float32(base / 40)
	case protocol.KindChest, protocol.KindGloves, protocol.KindBoots, protocol.KindShoulder:
		stats.Armor = float32(base * 3)
		stats.Resi = float32(base * 2)
		stats.Health = float32(base * 10)
	case protocol.KindAmulet:
		stats.Resi = float32(base * 3)
		stats.Reg = float32(base / 2)
	case protocol.KindRing:
		stats.Damage = float32(base)
		stats.Tempo = float32(base / 50)
	case protocol.KindPet:
		stats.Health = float32(base * 5)
	}
	return stats
}

// ItemPower is the effective power of an item for the level gate.
func ItemPower(item *protocol.Item) float64 {
	return LevelPower(int32(item.Level))
}
