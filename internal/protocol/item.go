package protocol

// ItemKind is the primary kind tag of an item.
type ItemKind uint8

const (
	KindVoid ItemKind = iota
	KindConsumable
	KindFormula
	KindWeapon
	KindChest
	KindGloves
	KindBoots
	KindShoulder
	KindAmulet
	KindRing
	KindCube
	KindObject
	KindCoin
	KindPlatinumCoin
	KindLeftovers
	KindBeak
	KindPainting
	KindVase
	KindCandle
	KindPet
	KindPetFood
	KindQuestItem
	KindUnknown22
	KindSpecial
	KindLamp

	itemKindCount
)

func (k ItemKind) Valid() bool { return k < itemKindCount }

func (k ItemKind) String() string {
	switch k {
	case KindVoid:
		return "Void"
	case KindConsumable:
		return "Consumable"
	case KindFormula:
		return "Formula"
	case KindWeapon:
		return "Weapon"
	case KindChest:
		return "Chest"
	case KindGloves:
		return "Gloves"
	case KindBoots:
		return "Boots"
	case KindShoulder:
		return "Shoulder"
	case KindAmulet:
		return "Amulet"
	case KindRing:
		return "Ring"
	case KindCube:
		return "Cube"
	case KindObject:
		return "Object"
	case KindCoin:
		return "Coin"
	case KindPlatinumCoin:
		return "PlatinumCoin"
	case KindLeftovers:
		return "Leftovers"
	case KindBeak:
		return "Beak"
	case KindPainting:
		return "Painting"
	case KindVase:
		return "Vase"
	case KindCandle:
		return "Candle"
	case KindPet:
		return "Pet"
	case KindPetFood:
		return "PetFood"
	case KindQuestItem:
		return "QuestItem"
	case KindSpecial:
		return "Special"
	case KindLamp:
		return "Lamp"
	}
	return "Unknown"
}

// WeaponKind is the weapon variant carried in the sub-kind byte of
// KindWeapon items.
type WeaponKind uint8

const (
	WeaponSword WeaponKind = iota
	WeaponAxe
	WeaponMace
	WeaponDagger
	WeaponFist
	WeaponLongsword
	WeaponBow
	WeaponCrossbow
	WeaponBoomerang
	WeaponArrow
	WeaponStaff
	WeaponWand
	WeaponBracelet
	WeaponShield
	WeaponQuiver
	WeaponGreatsword
	WeaponGreataxe
	WeaponGreatmace
	WeaponPitchfork
	WeaponPickaxe
	WeaponTorch

	weaponKindCount
)

func (w WeaponKind) Valid() bool { return w < weaponKindCount }

// TwoHanded reports whether the weapon occupies both hands.
func (w WeaponKind) TwoHanded() bool {
	switch w {
	case WeaponBow, WeaponCrossbow, WeaponBoomerang, WeaponStaff,
		WeaponGreatsword, WeaponGreataxe, WeaponGreatmace, WeaponPitchfork:
		return true
	}
	return false
}

func (w WeaponKind) String() string {
	switch w {
	case WeaponSword:
		return "sword"
	case WeaponAxe:
		return "axe"
	case WeaponMace:
		return "mace"
	case WeaponDagger:
		return "dagger"
	case WeaponFist:
		return "fist"
	case WeaponLongsword:
		return "longsword"
	case WeaponBow:
		return "bow"
	case WeaponCrossbow:
		return "crossbow"
	case WeaponBoomerang:
		return "boomerang"
	case WeaponArrow:
		return "arrow"
	case WeaponStaff:
		return "staff"
	case WeaponWand:
		return "wand"
	case WeaponBracelet:
		return "bracelet"
	case WeaponShield:
		return "shield"
	case WeaponQuiver:
		return "quiver"
	case WeaponGreatsword:
		return "greatsword"
	case WeaponGreataxe:
		return "greataxe"
	case WeaponGreatmace:
		return "greatmace"
	case WeaponPitchfork:
		return "pitchfork"
	case WeaponPickaxe:
		return "pickaxe"
	case WeaponTorch:
		return "torch"
	}
	return "unknown"
}

// Material is an item's material tag.
type Material uint8

const (
	MaterialNone Material = iota
	MaterialIron
	MaterialWood
	MaterialGold
	MaterialSilver
	MaterialEmerald
	MaterialSapphire
	MaterialRuby
	MaterialDiamond
	MaterialObsidian
	MaterialBone
	MaterialSaurian
	MaterialParrot
	MaterialMammoth
	MaterialPlant
	MaterialIce
	MaterialLicht
	MaterialGlass
	MaterialSilk
	MaterialLinen
	MaterialCotton
	MaterialFire
	MaterialUnholy
	MaterialWater

	materialCount
)

func (m Material) Valid() bool { return m < materialCount }

// Rarity tiers.
const (
	RarityNormal uint8 = iota
	RarityUncommon
	RarityRare
	RarityEpic
	RarityLegendary
)

// Slot indexes the 13-slot equipment array.
type Slot int

const (
	SlotUnknown Slot = iota
	SlotNeck
	SlotChest
	SlotFeet
	SlotHands
	SlotShoulder
	SlotLeftWeapon
	SlotRightWeapon
	SlotLeftRing
	SlotRightRing
	SlotLamp
	SlotSpecial
	SlotPet

	EquipmentSlots
)

func (s Slot) String() string {
	switch s {
	case SlotNeck:
		return "Neck"
	case SlotChest:
		return "Chest"
	case SlotFeet:
		return "Feet"
	case SlotHands:
		return "Hands"
	case SlotShoulder:
		return "Shoulder"
	case SlotLeftWeapon:
		return "LeftWeapon"
	case SlotRightWeapon:
		return "RightWeapon"
	case SlotLeftRing:
		return "LeftRing"
	case SlotRightRing:
		return "RightRing"
	case SlotLamp:
		return "Lamp"
	case SlotSpecial:
		return "Special"
	case SlotPet:
		return "Pet"
	}
	return "Unknown"
}

// MaxSpirits is the size of an item's spirit array.
const MaxSpirits = 32

// Spirit is one entry of an item's spirit array.
type Spirit struct {
	X, Y, Z  int8
	Material Material
	Level    int16
	Pad      [2]byte
}

// Item is the wire representation of an item. Empty slots carry whatever
// bytes the client had in memory, so every field is preserved verbatim on
// round trip; a KindVoid tag means none of the rest is meaningful.
//
// The Formula kind overloads the first padding byte after the sub-kind as
// a second kind discriminant naming the item the recipe crafts. The byte
// is always carried raw in Pad[0]; Recipe and SetRecipe interpret it.
type Item struct {
	Kind     ItemKind
	SubKind  uint8
	Pad      [2]byte
	Seed     int32
	Unknown  int32
	Material Material
	Rarity   uint8
	Level    int16

	Spirits       [MaxSpirits]Spirit
	SpiritCounter int32
}

// WeaponKind returns the weapon variant for KindWeapon items.
func (i *Item) WeaponKind() WeaponKind {
	return WeaponKind(i.SubKind)
}

// Recipe returns the crafted kind for KindFormula items.
func (i *Item) Recipe() ItemKind {
	return ItemKind(i.Pad[0])
}

// SetRecipe stores the crafted kind into the aliased padding byte.
func (i *Item) SetRecipe(kind ItemKind) {
	i.Pad[0] = byte(kind)
}

// IsVoid reports whether the slot holds no item.
func (i *Item) IsVoid() bool {
	return i.Kind == KindVoid
}
