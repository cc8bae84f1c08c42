package relay

import (
	"fmt"
	"math"
	"strings"

	"github.com/opencw/brazier/internal/game"
	"github.com/opencw/brazier/internal/protocol"
)

// maxHealthSlack absorbs float rounding between the client's and our own
// max-health computation.
const maxHealthSlack = 0.5

// inspector checks one aspect of a creature state transition. A non-nil
// error is the kick reason shown to the player and logged.
type inspector func(prev, cur *protocol.CreatureData) error

// inspectors is the validation chain run against every creature update,
// in order, after the diff has been merged into a copy of the mirror.
var inspectors = []inspector{
	inspectRotation,
	inspectAcceleration,
	inspectRetreatVelocity,
	inspectHeadTilt,
	inspectAffiliation,
	inspectRace,
	inspectAnimation,
	inspectAppearance,
	inspectFlags,
	inspectEffectTimes,
	inspectVitals,
	inspectMultipliers,
	inspectProgress,
	inspectConsumable,
	inspectEquipment,
	inspectName,
	inspectSkillTree,
}

// validate runs the chain and returns the first violation.
func validate(prev, cur *protocol.CreatureData) error {
	for _, inspect := range inspectors {
		if err := inspect(prev, cur); err != nil {
			return err
		}
	}
	return nil
}

func finite(f float32) bool {
	f64 := float64(f)
	return !math.IsNaN(f64) && !math.IsInf(f64, 0)
}

func inspectRotation(_, cur *protocol.CreatureData) error {
	if !finite(cur.Rotation.Pitch) {
		return fmt.Errorf("rotation.pitch was %v allowed was a finite angle", cur.Rotation.Pitch)
	}
	if cur.Rotation.Roll < -90 || cur.Rotation.Roll > 90 || !finite(cur.Rotation.Roll) {
		return fmt.Errorf("rotation.roll was %v allowed was -90..90", cur.Rotation.Roll)
	}
	// Yaw legitimately overflows during spin attacks; finite is all we ask.
	if !finite(cur.Rotation.Yaw) {
		return fmt.Errorf("rotation.yaw was %v allowed was a finite angle", cur.Rotation.Yaw)
	}
	return nil
}

func inspectAcceleration(prev, cur *protocol.CreatureData) error {
	z := cur.Acceleration.Z
	switch {
	case cur.HasPhysicsFlag(protocol.PhysicsSwimming):
		if z < -80 || z > 80 {
			return fmt.Errorf("acceleration.z was %v allowed was -80..80 while swimming", z)
		}
	case cur.HasFlag(protocol.FlagClimbing) || prev.HasFlag(protocol.FlagClimbing):
		if z != -16 && z != 0 && z != 16 {
			return fmt.Errorf("acceleration.z was %v allowed was one of [-16 0 16] while climbing", z)
		}
	default:
		if z != 0 {
			return fmt.Errorf("acceleration.z was %v allowed was 0", z)
		}
	}
	return nil
}

func inspectRetreatVelocity(_, cur *protocol.CreatureData) error {
	v := cur.RetreatVelocity
	horizontal := math.Hypot(float64(v.X), float64(v.Y))
	if cur.Occupation == protocol.OccupationRanger {
		if horizontal > 35 {
			return fmt.Errorf("retreat_velocity horizontal was %v allowed was <=35", horizontal)
		}
		if v.Z < 0 || v.Z > 17 {
			return fmt.Errorf("retreat_velocity.z was %v allowed was 0..17", v.Z)
		}
		return nil
	}
	if horizontal > 0.1 {
		return fmt.Errorf("retreat_velocity horizontal was %v allowed was <=0.1", horizontal)
	}
	if v.Z != 0 {
		return fmt.Errorf("retreat_velocity.z was %v allowed was 0", v.Z)
	}
	return nil
}

func inspectHeadTilt(_, cur *protocol.CreatureData) error {
	if cur.HeadTilt < -32.5 || cur.HeadTilt > 45 {
		return fmt.Errorf("head_tilt was %v allowed was -32.5..45", cur.HeadTilt)
	}
	return nil
}

func inspectAffiliation(_, cur *protocol.CreatureData) error {
	if cur.Affiliation != protocol.AffiliationPlayer {
		return fmt.Errorf("affiliation was %d allowed was %d", cur.Affiliation, protocol.AffiliationPlayer)
	}
	return nil
}

func inspectRace(_, cur *protocol.CreatureData) error {
	if !cur.Race.Playable() {
		return fmt.Errorf("race was %d allowed was a playable race", cur.Race)
	}
	return nil
}

func inspectAnimation(_, cur *protocol.CreatureData) error {
	if !game.AllowedAnimations(cur).Contains(cur.Animation) {
		return fmt.Errorf("animation was %d allowed was the set for %s equipment", cur.Animation, cur.Occupation)
	}
	if cur.AnimationTime < 0 {
		return fmt.Errorf("animation_time was %d allowed was non-negative", cur.AnimationTime)
	}
	if !game.Timeless(cur.Animation) && cur.AnimationTime > 10000 {
		return fmt.Errorf("animation_time was %d allowed was <=10000 for animation %d", cur.AnimationTime, cur.Animation)
	}
	return nil
}

func inspectAppearance(_, cur *protocol.CreatureData) error {
	return game.ValidateAppearance(cur.Race, &cur.Appearance)
}

// hasCrossbow reports whether either weapon slot carries a crossbow,
// which is the only legitimate source of the sniping flag.
func hasCrossbow(d *protocol.CreatureData) bool {
	for _, slot := range []protocol.Slot{protocol.SlotLeftWeapon, protocol.SlotRightWeapon} {
		item := d.Equipment[slot]
		if !item.IsVoid() && item.Kind == protocol.KindWeapon && item.WeaponKind() == protocol.WeaponCrossbow {
			return true
		}
	}
	return false
}

func inspectFlags(_, cur *protocol.CreatureData) error {
	if cur.HasFlag(protocol.FlagFriendlyFire) {
		return fmt.Errorf("flags.friendly_fire was true allowed was false")
	}
	if cur.HasFlag(protocol.FlagSniping) && !hasCrossbow(cur) {
		return fmt.Errorf("flags.sniping was true allowed was false without a crossbow")
	}
	if cur.HasFlag(protocol.FlagLamp) && cur.Equipment[protocol.SlotLamp].IsVoid() {
		return fmt.Errorf("flags.lamp was true allowed was false without a lamp")
	}
	return nil
}

func inspectEffectTimes(prev, cur *protocol.CreatureData) error {
	if cur.EffectTimeDodge < 0 || cur.EffectTimeDodge > 600 {
		return fmt.Errorf("effect_time_dodge was %d allowed was 0..600", cur.EffectTimeDodge)
	}
	if cur.EffectTimeStun > prev.EffectTimeStun && cur.EffectTimeStun < 0 {
		// The client reports a one-shot -3000 on respawn.
		respawning := prev.Health == 0 && cur.Health > 0 && cur.EffectTimeStun == -3000
		if !respawning {
			return fmt.Errorf("effect_time_stun was %d allowed was non-negative", cur.EffectTimeStun)
		}
	}
	if cur.EffectTimeFear < 0 {
		return fmt.Errorf("effect_time_fear was %d allowed was non-negative", cur.EffectTimeFear)
	}
	if cur.EffectTimeChill < 0 {
		return fmt.Errorf("effect_time_chill was %d allowed was non-negative", cur.EffectTimeChill)
	}
	if cur.EffectTimeWind < 0 || cur.EffectTimeWind > 5000 {
		return fmt.Errorf("effect_time_wind was %d allowed was 0..5000", cur.EffectTimeWind)
	}
	return nil
}

func inspectVitals(_, cur *protocol.CreatureData) error {
	if cur.Mana < 0 || cur.Mana > 1 {
		return fmt.Errorf("mana was %v allowed was 0..1", cur.Mana)
	}
	if cur.ManaCharge > cur.Mana {
		return fmt.Errorf("mana_charge was %v allowed was <=mana (%v)", cur.ManaCharge, cur.Mana)
	}
	if max := game.MaxHealth(cur) + maxHealthSlack; cur.Health < 0 || cur.Health > max {
		return fmt.Errorf("health was %v allowed was 0..%v", cur.Health, max)
	}
	return nil
}

func inspectMultipliers(_, cur *protocol.CreatureData) error {
	expected := [5]float32{100, 1, 1, 1, 1}
	if cur.Multipliers != expected {
		return fmt.Errorf("multipliers was %v allowed was %v", cur.Multipliers, expected)
	}
	return nil
}

func inspectProgress(_, cur *protocol.CreatureData) error {
	if cur.Level < 1 || cur.Level > game.MaxLevel {
		return fmt.Errorf("level was %d allowed was 1..%d", cur.Level, game.MaxLevel)
	}
	if cur.Experience < 0 || cur.Experience >= game.MaxExperience(cur.Level) {
		return fmt.Errorf("experience was %d allowed was 0..%d", cur.Experience, game.MaxExperience(cur.Level)-1)
	}
	if cur.Master != 0 {
		return fmt.Errorf("master was %d allowed was 0", cur.Master)
	}
	if cur.PowerBase != 0 {
		return fmt.Errorf("power_base was %d allowed was 0", cur.PowerBase)
	}
	if cur.ManaCubes < 0 {
		return fmt.Errorf("mana_cubes was %d allowed was non-negative", cur.ManaCubes)
	}
	return nil
}

func inspectConsumable(_, cur *protocol.CreatureData) error {
	item := cur.Consumable
	if item.IsVoid() {
		return nil
	}
	if item.Kind != protocol.KindConsumable {
		return fmt.Errorf("consumable.kind was %s allowed was any of [Consumable]", item.Kind)
	}
	if item.Rarity != protocol.RarityNormal {
		return fmt.Errorf("consumable.rarity was %d allowed was %d", item.Rarity, protocol.RarityNormal)
	}
	if game.ItemPower(&item) > game.LevelPower(cur.Level) {
		return fmt.Errorf("consumable.level was %d allowed was <=creature level power", item.Level)
	}
	return nil
}

// allowedSlotKinds is the equipment kind table: what each slot may hold.
var allowedSlotKinds = [protocol.EquipmentSlots][]protocol.ItemKind{
	protocol.SlotUnknown:     nil,
	protocol.SlotNeck:        {protocol.KindAmulet},
	protocol.SlotChest:       {protocol.KindChest},
	protocol.SlotFeet:        {protocol.KindBoots},
	protocol.SlotHands:       {protocol.KindGloves},
	protocol.SlotShoulder:    {protocol.KindShoulder},
	protocol.SlotLeftWeapon:  {protocol.KindWeapon},
	protocol.SlotRightWeapon: {protocol.KindWeapon},
	protocol.SlotLeftRing:    {protocol.KindRing},
	protocol.SlotRightRing:   {protocol.KindRing},
	protocol.SlotLamp:        {protocol.KindLamp},
	protocol.SlotSpecial:     {protocol.KindSpecial},
	protocol.SlotPet:         {protocol.KindPet, protocol.KindPetFood},
}

func kindSetString(kinds []protocol.ItemKind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, " ")
}

func kindAllowed(kind protocol.ItemKind, allowed []protocol.ItemKind) bool {
	for _, k := range allowed {
		if kind == k {
			return true
		}
	}
	return false
}

func inspectEquipment(_, cur *protocol.CreatureData) error {
	hands := 0
	levelPower := game.LevelPower(cur.Level)

	for slot := protocol.Slot(0); slot < protocol.EquipmentSlots; slot++ {
		item := cur.Equipment[slot]
		if item.IsVoid() {
			// Empty slots are uninitialized client memory; skip entirely.
			continue
		}

		allowed := allowedSlotKinds[slot]
		if !kindAllowed(item.Kind, allowed) {
			return fmt.Errorf("equipment[%s].kind was %s allowed was any of [%s]",
				slot, item.Kind, kindSetString(allowed))
		}
		if item.Rarity > protocol.RarityLegendary {
			return fmt.Errorf("equipment[%s].rarity was %d allowed was <=%d",
				slot, item.Rarity, protocol.RarityLegendary)
		}
		if set := game.AllowedMaterials(item.Kind, cur.Occupation); set != nil && !set.Contains(item.Material) {
			return fmt.Errorf("equipment[%s].material was %d allowed was the %s set for %s",
				slot, item.Material, item.Kind, cur.Occupation)
		}
		if game.ItemPower(&item) > levelPower {
			return fmt.Errorf("equipment[%s].level was %d allowed was <=creature level power", slot, item.Level)
		}
		if item.SpiritCounter < 0 || item.SpiritCounter > protocol.MaxSpirits {
			return fmt.Errorf("equipment[%s].spirit_counter was %d allowed was 0..%d",
				slot, item.SpiritCounter, protocol.MaxSpirits)
		}
		if item.Recipe() != protocol.KindVoid {
			return fmt.Errorf("equipment[%s].as_formula was true allowed was false", slot)
		}

		if item.Kind == protocol.KindWeapon {
			if item.WeaponKind().TwoHanded() {
				hands += 2
			} else {
				hands++
			}
		}
	}

	if hands > 2 {
		return fmt.Errorf("equipment weapon hands was %d allowed was <=2", hands)
	}
	return nil
}

func inspectName(_, cur *protocol.CreatureData) error {
	name := cur.Name()
	if len(name) == 0 || len(name) > 15 {
		return fmt.Errorf("name length was %d allowed was 1..15", len(name))
	}
	for _, c := range []byte(name) {
		if c < '!' || c > '~' {
			return fmt.Errorf("name byte was %#02x allowed was printable ascii", c)
		}
	}
	return nil
}

func inspectSkillTree(_, cur *protocol.CreatureData) error {
	var sum int64
	for i, points := range cur.SkillTree {
		if points < 0 {
			return fmt.Errorf("skill_tree[%d] was %d allowed was non-negative", i, points)
		}
		sum += int64(points)
	}
	if limit := 2 * int64(cur.Level-1); sum > limit {
		return fmt.Errorf("skill_tree sum was %d allowed was <=%d", sum, limit)
	}
	return nil
}
