package game

import (
	"github.com/opencw/brazier/internal/protocol"
)

// MaterialSet is a set of item materials.
type MaterialSet map[protocol.Material]struct{}

// Contains reports membership.
func (s MaterialSet) Contains(m protocol.Material) bool {
	_, ok := s[m]
	return ok
}

func materials(ms ...protocol.Material) MaterialSet {
	set := make(MaterialSet, len(ms))
	for _, m := range ms {
		set[m] = struct{}{}
	}
	return set
}

var (
	weaponMaterials = materials(
		protocol.MaterialIron,
		protocol.MaterialWood,
		protocol.MaterialObsidian,
		protocol.MaterialBone,
		protocol.MaterialGold,
		protocol.MaterialSilver,
	)
	jewelryMaterials = materials(protocol.MaterialGold, protocol.MaterialSilver)

	armorMaterials = map[protocol.Occupation]MaterialSet{
		protocol.OccupationWarrior: materials(protocol.MaterialIron),
		protocol.OccupationRanger:  materials(protocol.MaterialLinen),
		protocol.OccupationMage:    materials(protocol.MaterialSilk),
		protocol.OccupationRogue:   materials(protocol.MaterialCotton),
	}
)

// AllowedMaterials returns the materials a player of the given class may
// carry on an item of the given kind. A nil return means the material
// byte is unconstrained for that kind.
func AllowedMaterials(kind protocol.ItemKind, occupation protocol.Occupation) MaterialSet {
	switch kind {
	case protocol.KindWeapon:
		return weaponMaterials
	case protocol.KindChest, protocol.KindGloves, protocol.KindBoots, protocol.KindShoulder:
		if set, ok := armorMaterials[occupation]; ok {
			return set
		}
		return nil
	case protocol.KindAmulet, protocol.KindRing:
		return jewelryMaterials
	}
	return nil
}
