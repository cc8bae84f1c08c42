package protocol

// CreatureID identifies a creature in the shared world. ID 0 is the server
// voice used for system chat, IDs 1 through 3 are the reserved team display
// slots, and everything above is allocated to connecting players.
type CreatureID int64

const (
	ServerVoiceID CreatureID = 0

	// The three creature IDs rendered by clients as the team HUD.
	TeamDisplaySlot1 CreatureID = 1
	TeamDisplaySlot2 CreatureID = 2
	TeamDisplaySlot3 CreatureID = 3

	FirstPlayerID CreatureID = 4
)

// Vector3 is a 3-component float vector in the game's coordinate system.
type Vector3 struct {
	X, Y, Z float32
}

// QVector3 is a 3-component world position in integer world-millis.
type QVector3 struct {
	X, Y, Z int64
}

// IVector3 is a 3-component integer vector used for zone-scale hints.
type IVector3 struct {
	X, Y, Z int32
}

// Zone is the 2D coordinate of one world partition used for loot,
// discovery, and world-object grouping.
type Zone struct {
	X, Y int32
}

// Rotation holds a creature's orientation in degrees.
type Rotation struct {
	Pitch, Roll, Yaw float32
}

// Affiliation describes which broad group a creature belongs to.
type Affiliation uint8

const (
	AffiliationPlayer Affiliation = iota
	AffiliationEnemy
	AffiliationNPC
	AffiliationPet
	AffiliationNeutral
)

func (a Affiliation) Valid() bool { return a <= AffiliationNeutral }

// Race is a creature's model race. The first sixteen are playable.
type Race uint8

const (
	RaceElfMale Race = iota
	RaceElfFemale
	RaceHumanMale
	RaceHumanFemale
	RaceGoblinMale
	RaceGoblinFemale
	RaceLizardmanMale
	RaceLizardmanFemale
	RaceDwarfMale
	RaceDwarfFemale
	RaceOrcMale
	RaceOrcFemale
	RaceFrogmanMale
	RaceFrogmanFemale
	RaceUndeadMale
	RaceUndeadFemale

	// NPC races follow the playable block.
	RaceNPCFirst
)

// Playable reports whether the race may be reported by a connected player.
func (r Race) Playable() bool { return r < RaceNPCFirst }

// Occupation is a creature's character class.
type Occupation uint8

const (
	OccupationNone Occupation = iota
	OccupationWarrior
	OccupationRanger
	OccupationMage
	OccupationRogue
	OccupationGeneralShopkeep
	OccupationWeaponShopkeep
	OccupationArmorShopkeep
	OccupationInnkeeper
)

func (o Occupation) Valid() bool { return o >= OccupationWarrior && o <= OccupationInnkeeper }

func (o Occupation) String() string {
	switch o {
	case OccupationWarrior:
		return "warrior"
	case OccupationRanger:
		return "ranger"
	case OccupationMage:
		return "mage"
	case OccupationRogue:
		return "rogue"
	case OccupationGeneralShopkeep:
		return "general_shopkeep"
	case OccupationWeaponShopkeep:
		return "weapon_shopkeep"
	case OccupationArmorShopkeep:
		return "armor_shopkeep"
	case OccupationInnkeeper:
		return "innkeeper"
	}
	return "none"
}

// Specialization is the sub-class choice within an Occupation.
type Specialization uint8

const (
	SpecializationDefault Specialization = iota
	SpecializationAlternative
	SpecializationWitch
)

func (s Specialization) Valid() bool { return s <= SpecializationWitch }

// Physics flags, reported by clients in the 32-bit physics bitset.
const (
	PhysicsOnGround uint32 = 1 << iota
	PhysicsSwimming
	PhysicsTouchingWall
	PhysicsCanBreathe
	PhysicsPushingWall
	PhysicsPushingObject
)

// Creature flags, reported in the 16-bit creature bitset.
const (
	FlagClimbing uint16 = 1 << iota
	FlagAiming
	FlagGliding
	FlagFriendlyFire
	FlagSprinting
	FlagUnreachable
	FlagLamp
	FlagSniping
)

// Animation is the numeric animation id carried in creature updates.
type Animation uint8

const (
	AnimIdle Animation = iota
	AnimDrink
	AnimEat
	AnimPetFoodPresent
	AnimSit
	AnimSleep
	AnimRiding
	AnimSail
	AnimStealth

	// Class skills.
	AnimSmash
	AnimCyclone
	AnimKick
	AnimTeleport
	AnimFireExplosionShort
	AnimHealingStream
	AnimIntercept
	AnimShuriken

	// Weapon M1 swings.
	AnimMeleeM1A
	AnimMeleeM1B
	AnimGreatweaponM1A
	AnimGreatweaponM1B
	AnimGreatweaponM1C
	AnimUnarmedM1A
	AnimUnarmedM1B
	AnimBowShot
	AnimCrossbowShot
	AnimBoomerangThrow
	AnimStaffFireM1
	AnimStaffWaterM1
	AnimWandFireM1
	AnimWandWaterM1
	AnimBraceletFireM1
	AnimBraceletWaterM1

	// Weapon M2 charges. The charging animations run for as long as the
	// player holds the button and are exempt from the animation-time cap.
	AnimMeleeM2
	AnimGreatweaponM2
	AnimUnarmedM2
	AnimBowCharge
	AnimCrossbowCharge
	AnimBoomerangCharge
	AnimStaffFireM2
	AnimStaffWaterM2
	AnimWandFireM2
	AnimWandWaterM2
	AnimBraceletFireM2
	AnimBraceletWaterM2
	AnimShieldM2

	animationCount
)

func (a Animation) Valid() bool { return a < animationCount }

// HitKind classifies a Hit packet.
type HitKind uint8

const (
	HitNormal HitKind = iota
	HitBlock
	HitMiss
	HitDodge
	HitAbsorb
	HitInvincible
)

func (h HitKind) Valid() bool { return h <= HitInvincible }

// StatusEffectKind classifies a StatusEffect packet.
type StatusEffectKind uint8

const (
	StatusBulwalk StatusEffectKind = iota + 1
	StatusWarFrenzy
	StatusCamouflage
	StatusPoison
	StatusManaShield
	StatusSwiftness
	StatusAnger
	StatusAffection
)

func (s StatusEffectKind) Valid() bool { return s >= StatusBulwalk && s <= StatusAffection }

// ActionKind classifies a CreatureAction packet.
type ActionKind uint8

const (
	ActionNone ActionKind = iota
	ActionBomb
	ActionTalk
	ActionObjectInteraction
	ActionUnknown4
	ActionPickUp
	ActionDrop
	ActionUnknown7
	ActionCallPet
)

func (a ActionKind) Valid() bool { return a <= ActionCallPet }

// SoundKind identifies one of the client's built-in sound effects.
type SoundKind int32

const (
	SoundHit SoundKind = iota + 1
	SoundBlade1
	SoundBlade2
	SoundLongBlade1
	SoundLongBlade2
	SoundPunch1
	SoundPunch2
	SoundHitArrow
	SoundSmash1
	SoundSlam
	SoundWorldHit
	SoundWaterSplash01
	SoundBlock
	SoundShieldSlam
	SoundSpikeTrap
	SoundFireHit
	SoundWatersplash
	SoundWatersplash2
	SoundSlime1
	SoundSlime2
	SoundMaleGroan
	SoundFemaleGroan
	SoundMaleGroan2
	SoundFemaleGroan2
	SoundGoblinMaleGroan
	SoundGoblinFemaleGroan
	SoundLizardMaleGroan
	SoundLizardFemaleGroan
	SoundDwarfMaleGroan
	SoundDwarfFemaleGroan
	SoundOrcMaleGroan
	SoundOrcFemaleGroan
	SoundFrogmanMaleGroan
	SoundFrogmanFemaleGroan
	SoundUndeadMaleGroan
	SoundUndeadFemaleGroan
	SoundMagic01
	SoundMagic02
)
