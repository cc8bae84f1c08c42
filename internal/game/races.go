package game

import (
	"fmt"

	"github.com/opencw/brazier/internal/protocol"
)

// AppearanceSpec pins a playable race's visual attributes. Model ids may
// roll within their listed inclusive range; every other attribute must
// match the constant exactly.
type AppearanceSpec struct {
	HeadModels [2]int16
	HairModels [2]int16

	HandModel     int16
	FootModel     int16
	BodyModel     int16
	BackModel     int16
	ShoulderModel int16
	WingModel     int16

	Size      protocol.Vector3
	HeadScale float32
	Hitbox    protocol.Vector3
}

// raceFamily is shared by the male/female variants of one race.
type raceFamily struct {
	headBase  int16
	hairBase  int16
	size      protocol.Vector3
	headScale float32
	hitbox    protocol.Vector3
}

var families = map[protocol.Race]raceFamily{
	protocol.RaceElfMale:       {headBase: 0, hairBase: 64, size: protocol.Vector3{X: 0.96, Y: 0.96, Z: 2.16}, headScale: 1, hitbox: protocol.Vector3{X: 0.8, Y: 0.8, Z: 1.8}},
	protocol.RaceHumanMale:     {headBase: 32, hairBase: 128, size: protocol.Vector3{X: 1, Y: 1, Z: 2.2}, headScale: 1, hitbox: protocol.Vector3{X: 0.8, Y: 0.8, Z: 1.8}},
	protocol.RaceGoblinMale:    {headBase: 48, hairBase: 160, size: protocol.Vector3{X: 0.8, Y: 0.8, Z: 1.7}, headScale: 1.05, hitbox: protocol.Vector3{X: 0.7, Y: 0.7, Z: 1.4}},
	protocol.RaceLizardmanMale: {headBase: 80, hairBase: 192, size: protocol.Vector3{X: 1, Y: 1, Z: 2.2}, headScale: 1, hitbox: protocol.Vector3{X: 0.8, Y: 0.8, Z: 1.8}},
	protocol.RaceDwarfMale:     {headBase: 96, hairBase: 208, size: protocol.Vector3{X: 0.9, Y: 0.9, Z: 1.8}, headScale: 1.1, hitbox: protocol.Vector3{X: 0.8, Y: 0.8, Z: 1.5}},
	protocol.RaceOrcMale:       {headBase: 112, hairBase: 224, size: protocol.Vector3{X: 1.1, Y: 1.1, Z: 2.34}, headScale: 0.95, hitbox: protocol.Vector3{X: 0.9, Y: 0.9, Z: 2}},
	protocol.RaceFrogmanMale:   {headBase: 144, hairBase: 240, size: protocol.Vector3{X: 1, Y: 1, Z: 2.1}, headScale: 1, hitbox: protocol.Vector3{X: 0.8, Y: 0.8, Z: 1.7}},
	protocol.RaceUndeadMale:    {headBase: 160, hairBase: 248, size: protocol.Vector3{X: 0.98, Y: 0.98, Z: 2.18}, headScale: 1, hitbox: protocol.Vector3{X: 0.8, Y: 0.8, Z: 1.8}},
}

// ExpectedAppearance returns the appearance constraints for a playable
// race, or false if the race has no table entry (non-playable).
func ExpectedAppearance(race protocol.Race) (AppearanceSpec, bool) {
	if !race.Playable() {
		return AppearanceSpec{}, false
	}

	// Female variants sit one past their male counterpart and offset the
	// model blocks by half a block.
	family, female := race, false
	if race%2 == 1 {
		family, female = race-1, true
	}

	base, ok := families[family]
	if !ok {
		return AppearanceSpec{}, false
	}

	spec := AppearanceSpec{
		HandModel: 0, FootModel: 0, BodyModel: 0,
		BackModel: -1, ShoulderModel: -1, WingModel: -1,
		Size:      base.size,
		HeadScale: base.headScale,
		Hitbox:    base.hitbox,
	}
	headBase, hairBase := base.headBase, base.hairBase
	if female {
		headBase += 16
		hairBase += 8
	}
	spec.HeadModels = [2]int16{headBase, headBase + 15}
	spec.HairModels = [2]int16{hairBase, hairBase + 7}
	return spec, true
}

func inRange(v int16, r [2]int16) bool { return v >= r[0] && v <= r[1] }

// ValidateAppearance checks a reported appearance block against the
// race's table. Only the head and hair models have any freedom; every
// other attribute must sit at the client's fixed default.
func ValidateAppearance(race protocol.Race, a *protocol.Appearance) error {
	spec, ok := ExpectedAppearance(race)
	if !ok {
		return fmt.Errorf("race %d has no appearance table", race)
	}

	if !inRange(a.HeadModel, spec.HeadModels) {
		return fmt.Errorf("appearance.head_model was %d allowed was %d..%d", a.HeadModel, spec.HeadModels[0], spec.HeadModels[1])
	}
	if !inRange(a.HairModel, spec.HairModels) {
		return fmt.Errorf("appearance.hair_model was %d allowed was %d..%d", a.HairModel, spec.HairModels[0], spec.HairModels[1])
	}
	if a.HandModel != spec.HandModel || a.FootModel != spec.FootModel || a.BodyModel != spec.BodyModel {
		return fmt.Errorf("appearance body models do not match the race table")
	}
	if a.BackModel != spec.BackModel || a.ShoulderModel != spec.ShoulderModel || a.WingModel != spec.WingModel {
		return fmt.Errorf("appearance attachment models do not match the race table")
	}
	if a.CreatureSize != spec.Size {
		return fmt.Errorf("appearance.size was %v allowed was %v", a.CreatureSize, spec.Size)
	}
	if a.HeadScale != spec.HeadScale {
		return fmt.Errorf("appearance.head_scale was %v allowed was %v", a.HeadScale, spec.HeadScale)
	}
	if a.Hitbox != spec.Hitbox {
		return fmt.Errorf("appearance.hitbox was %v allowed was %v", a.Hitbox, spec.Hitbox)
	}

	// The remaining scales and rotations are fixed client constants.
	if a.BodyScale != 1 || a.HandScale != 1 || a.FootScale != 0.98 ||
		a.ShoulderScale != 1 || a.WeaponScale != 1 || a.BackScale != 1 || a.WingScale != 1 {
		return fmt.Errorf("appearance scales do not match the fixed constants")
	}
	if a.BodyPitch != 0 || a.ArmPitch != 0 || a.ArmRoll != 0 || a.ArmYaw != 0 ||
		a.FeetPitch != 0 || a.WingPitch != 0 || a.BackPitch != 0 {
		return fmt.Errorf("appearance rotations do not match the fixed constants")
	}
	return nil
}

// DefaultAppearance returns an appearance passing ValidateAppearance for
// the race, used for synthesized creatures.
func DefaultAppearance(race protocol.Race) protocol.Appearance {
	spec, ok := ExpectedAppearance(race)
	if !ok {
		return protocol.Appearance{}
	}
	return protocol.Appearance{
		CreatureSize:  spec.Size,
		HeadModel:     spec.HeadModels[0],
		HairModel:     spec.HairModels[0],
		HandModel:     spec.HandModel,
		FootModel:     spec.FootModel,
		BodyModel:     spec.BodyModel,
		BackModel:     spec.BackModel,
		ShoulderModel: spec.ShoulderModel,
		WingModel:     spec.WingModel,
		HeadScale:     spec.HeadScale,
		BodyScale:     1,
		HandScale:     1,
		FootScale:     0.98,
		ShoulderScale: 1,
		WeaponScale:   1,
		BackScale:     1,
		WingScale:     1,
		Hitbox:        spec.Hitbox,
	}
}

// GroanSound picks the hurt groan matching a race.
func GroanSound(race protocol.Race) protocol.SoundKind {
	female := race%2 == 1
	switch race &^ 1 {
	case protocol.RaceGoblinMale:
		if female {
			return protocol.SoundGoblinFemaleGroan
		}
		return protocol.SoundGoblinMaleGroan
	case protocol.RaceLizardmanMale:
		if female {
			return protocol.SoundLizardFemaleGroan
		}
		return protocol.SoundLizardMaleGroan
	case protocol.RaceDwarfMale:
		if female {
			return protocol.SoundDwarfFemaleGroan
		}
		return protocol.SoundDwarfMaleGroan
	case protocol.RaceOrcMale:
		if female {
			return protocol.SoundOrcFemaleGroan
		}
		return protocol.SoundOrcMaleGroan
	case protocol.RaceFrogmanMale:
		if female {
			return protocol.SoundFrogmanFemaleGroan
		}
		return protocol.SoundFrogmanMaleGroan
	case protocol.RaceUndeadMale:
		if female {
			return protocol.SoundUndeadFemaleGroan
		}
		return protocol.SoundUndeadMaleGroan
	}
	if female {
		return protocol.SoundFemaleGroan
	}
	return protocol.SoundMaleGroan
}
