package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	corebytes "github.com/opencw/brazier/internal/core/bytes"
)

// Appearance is the visual attribute block of a creature. The anti-cheat
// pins every one of these to a per-race table of constants, so the struct
// is compared wholesale with ==.
type Appearance struct {
	Flags1 uint8
	Flags2 uint8
	Pad    [2]byte

	CreatureSize Vector3

	HeadModel     int16
	HairModel     int16
	HandModel     int16
	FootModel     int16
	BodyModel     int16
	BackModel     int16
	ShoulderModel int16
	WingModel     int16

	HeadScale     float32
	BodyScale     float32
	HandScale     float32
	FootScale     float32
	ShoulderScale float32
	WeaponScale   float32
	BackScale     float32
	Unknown       float32
	WingScale     float32

	BodyPitch float32
	ArmPitch  float32
	ArmRoll   float32
	ArmYaw    float32
	FeetPitch float32
	WingPitch float32
	BackPitch float32

	BodyOffset Vector3
	HeadOffset Vector3
	HandOffset Vector3
	FootOffset Vector3
	BackOffset Vector3
	WingOffset Vector3

	Hitbox Vector3
}

// StatHealth et al index the 5-slot stat multiplier array.
const (
	StatHealth = iota
	StatAttackSpeed
	StatDamage
	StatResi
	StatArmor
)

// CreatureData is the full field set of one creature. The wire format's
// diff form populates any subset of it, gated by the field mask; the full
// update form populates all of it.
type CreatureData struct {
	Position        QVector3
	Rotation        Rotation
	Velocity        Vector3
	Acceleration    Vector3
	RetreatVelocity Vector3
	HeadTilt        float32
	PhysicsFlags    uint32
	CreatureFlags   uint16
	Affiliation     Affiliation
	Race            Race
	Animation       Animation
	AnimationTime   int32
	Combo           int32
	ComboTimeout    int32
	Appearance      Appearance
	EffectTimeDodge int32
	EffectTimeStun  int32
	EffectTimeFear  int32
	EffectTimeChill int32
	EffectTimeWind  int32
	ShowPatchTime   int32
	Occupation      Occupation
	Specialization  Specialization
	ManaCharge      float32
	Unknown24       Vector3
	Unknown25       Vector3
	AimOffset       Vector3
	Health          float32
	Mana            float32
	BlockingGauge   float32
	Multipliers     [5]float32
	Unknown31       int8
	Unknown32       int8
	Level           int32
	Experience      int32
	Master          CreatureID
	Unknown36       int64
	PowerBase       int8
	Unknown38       int32
	HomeZone        IVector3
	Home            QVector3
	ZoneToReveal    IVector3
	Unknown42       int8
	Consumable      Item
	Equipment       [EquipmentSlots]Item
	NameBytes       [16]byte
	SkillTree       [11]int32
	ManaCubes       int32
}

// Name returns the creature name as a string.
func (d *CreatureData) Name() string {
	return string(corebytes.StripPadding(d.NameBytes[:]))
}

// SetName stores a name of at most 15 bytes, NUL-padded to 16.
func (d *CreatureData) SetName(name string) error {
	if len(name) > 15 {
		return fmt.Errorf("name %q longer than 15 bytes", name)
	}
	d.NameBytes = [16]byte{}
	copy(d.NameBytes[:], name)
	return nil
}

// HasFlag reports whether a creature flag bit is set.
func (d *CreatureData) HasFlag(flag uint16) bool {
	return d.CreatureFlags&flag != 0
}

// HasPhysicsFlag reports whether a physics flag bit is set.
func (d *CreatureData) HasPhysicsFlag(flag uint32) bool {
	return d.PhysicsFlags&flag != 0
}

// Field bit indices of the creature update mask, in wire order.
const (
	FieldPosition = iota
	FieldRotation
	FieldVelocity
	FieldAcceleration
	FieldRetreatVelocity
	FieldHeadTilt
	FieldPhysicsFlags
	FieldCreatureFlags
	FieldAffiliation
	FieldRace
	FieldAnimation
	FieldAnimationTime
	FieldCombo
	FieldComboTimeout
	FieldAppearance
	FieldEffectTimeDodge
	FieldEffectTimeStun
	FieldEffectTimeFear
	FieldEffectTimeChill
	FieldEffectTimeWind
	FieldShowPatchTime
	FieldOccupation
	FieldSpecialization
	FieldManaCharge
	FieldUnknown24
	FieldUnknown25
	FieldAimOffset
	FieldHealth
	FieldMana
	FieldBlockingGauge
	FieldMultipliers
	FieldUnknown31
	FieldUnknown32
	FieldLevel
	FieldExperience
	FieldMaster
	FieldUnknown36
	FieldPowerBase
	FieldUnknown38
	FieldHomeZone
	FieldHome
	FieldZoneToReveal
	FieldUnknown42
	FieldConsumable
	FieldEquipment
	FieldName
	FieldSkillTree
	FieldManaCubes

	NumCreatureFields
)

// FieldMask gates which creature fields are present in a diff.
type FieldMask uint64

// MaskAll marks every field present; the full-update form of the packet.
const MaskAll FieldMask = 1<<NumCreatureFields - 1

func (m FieldMask) Has(field int) bool { return m&(1<<field) != 0 }

func (m *FieldMask) Set(field int) { *m |= 1 << field }

func (m *FieldMask) Clear(field int) { *m &^= 1 << field }

// Count returns the number of present fields.
func (m FieldMask) Count() int {
	count := 0
	for i := 0; i < NumCreatureFields; i++ {
		if m.Has(i) {
			count++
		}
	}
	return count
}

// fieldCodec is one row of the declarative creature field table. The
// encoder, decoder, apply, full-update, and traffic filter all run off
// this single table so the field list cannot drift between them.
type fieldCodec struct {
	name  string
	read  func(r io.Reader, d *CreatureData) error
	write func(w io.Writer, d *CreatureData) error
	copy  func(dst, src *CreatureData)
}

func blitField[T any](name string, ptr func(*CreatureData) *T) fieldCodec {
	return fieldCodec{
		name: name,
		read: func(r io.Reader, d *CreatureData) error {
			return readLE(r, ptr(d))
		},
		write: func(w io.Writer, d *CreatureData) error {
			return writeLE(w, *ptr(d))
		},
		copy: func(dst, src *CreatureData) {
			*ptr(dst) = *ptr(src)
		},
	}
}

// The race field is serialized widened to 32 bits; the upper three bytes
// must be zero or the update is invalid.
var raceField = fieldCodec{
	name: "race",
	read: func(r io.Reader, d *CreatureData) error {
		var widened uint32
		if err := readLE(r, &widened); err != nil {
			return err
		}
		if widened > 0xFF {
			return fmt.Errorf("%w: race high bytes %#08x", ErrBadPadding, widened)
		}
		d.Race = Race(widened)
		return nil
	},
	write: func(w io.Writer, d *CreatureData) error {
		return writeLE(w, uint32(d.Race))
	},
	copy: func(dst, src *CreatureData) { dst.Race = src.Race },
}

var creatureFields = [NumCreatureFields]fieldCodec{
	FieldPosition:        blitField("position", func(d *CreatureData) *QVector3 { return &d.Position }),
	FieldRotation:        blitField("rotation", func(d *CreatureData) *Rotation { return &d.Rotation }),
	FieldVelocity:        blitField("velocity", func(d *CreatureData) *Vector3 { return &d.Velocity }),
	FieldAcceleration:    blitField("acceleration", func(d *CreatureData) *Vector3 { return &d.Acceleration }),
	FieldRetreatVelocity: blitField("retreat_velocity", func(d *CreatureData) *Vector3 { return &d.RetreatVelocity }),
	FieldHeadTilt:        blitField("head_tilt", func(d *CreatureData) *float32 { return &d.HeadTilt }),
	FieldPhysicsFlags:    blitField("physics_flags", func(d *CreatureData) *uint32 { return &d.PhysicsFlags }),
	FieldCreatureFlags:   blitField("creature_flags", func(d *CreatureData) *uint16 { return &d.CreatureFlags }),
	FieldAffiliation:     blitField("affiliation", func(d *CreatureData) *Affiliation { return &d.Affiliation }),
	FieldRace:            raceField,
	FieldAnimation:       blitField("animation", func(d *CreatureData) *Animation { return &d.Animation }),
	FieldAnimationTime:   blitField("animation_time", func(d *CreatureData) *int32 { return &d.AnimationTime }),
	FieldCombo:           blitField("combo", func(d *CreatureData) *int32 { return &d.Combo }),
	FieldComboTimeout:    blitField("combo_timeout", func(d *CreatureData) *int32 { return &d.ComboTimeout }),
	FieldAppearance:      blitField("appearance", func(d *CreatureData) *Appearance { return &d.Appearance }),
	FieldEffectTimeDodge: blitField("effect_time_dodge", func(d *CreatureData) *int32 { return &d.EffectTimeDodge }),
	FieldEffectTimeStun:  blitField("effect_time_stun", func(d *CreatureData) *int32 { return &d.EffectTimeStun }),
	FieldEffectTimeFear:  blitField("effect_time_fear", func(d *CreatureData) *int32 { return &d.EffectTimeFear }),
	FieldEffectTimeChill: blitField("effect_time_chill", func(d *CreatureData) *int32 { return &d.EffectTimeChill }),
	FieldEffectTimeWind:  blitField("effect_time_wind", func(d *CreatureData) *int32 { return &d.EffectTimeWind }),
	FieldShowPatchTime:   blitField("show_patch_time", func(d *CreatureData) *int32 { return &d.ShowPatchTime }),
	FieldOccupation:      blitField("occupation", func(d *CreatureData) *Occupation { return &d.Occupation }),
	FieldSpecialization:  blitField("specialization", func(d *CreatureData) *Specialization { return &d.Specialization }),
	FieldManaCharge:      blitField("mana_charge", func(d *CreatureData) *float32 { return &d.ManaCharge }),
	FieldUnknown24:       blitField("unknown24", func(d *CreatureData) *Vector3 { return &d.Unknown24 }),
	FieldUnknown25:       blitField("unknown25", func(d *CreatureData) *Vector3 { return &d.Unknown25 }),
	FieldAimOffset:       blitField("aim_offset", func(d *CreatureData) *Vector3 { return &d.AimOffset }),
	FieldHealth:          blitField("health", func(d *CreatureData) *float32 { return &d.Health }),
	FieldMana:            blitField("mana", func(d *CreatureData) *float32 { return &d.Mana }),
	FieldBlockingGauge:   blitField("blocking_gauge", func(d *CreatureData) *float32 { return &d.BlockingGauge }),
	FieldMultipliers:     blitField("multipliers", func(d *CreatureData) *[5]float32 { return &d.Multipliers }),
	FieldUnknown31:       blitField("unknown31", func(d *CreatureData) *int8 { return &d.Unknown31 }),
	FieldUnknown32:       blitField("unknown32", func(d *CreatureData) *int8 { return &d.Unknown32 }),
	FieldLevel:           blitField("level", func(d *CreatureData) *int32 { return &d.Level }),
	FieldExperience:      blitField("experience", func(d *CreatureData) *int32 { return &d.Experience }),
	FieldMaster:          blitField("master", func(d *CreatureData) *CreatureID { return &d.Master }),
	FieldUnknown36:       blitField("unknown36", func(d *CreatureData) *int64 { return &d.Unknown36 }),
	FieldPowerBase:       blitField("power_base", func(d *CreatureData) *int8 { return &d.PowerBase }),
	FieldUnknown38:       blitField("unknown38", func(d *CreatureData) *int32 { return &d.Unknown38 }),
	FieldHomeZone:        blitField("home_zone", func(d *CreatureData) *IVector3 { return &d.HomeZone }),
	FieldHome:            blitField("home", func(d *CreatureData) *QVector3 { return &d.Home }),
	FieldZoneToReveal:    blitField("zone_to_reveal", func(d *CreatureData) *IVector3 { return &d.ZoneToReveal }),
	FieldUnknown42:       blitField("unknown42", func(d *CreatureData) *int8 { return &d.Unknown42 }),
	FieldConsumable:      blitField("consumable", func(d *CreatureData) *Item { return &d.Consumable }),
	FieldEquipment:       blitField("equipment", func(d *CreatureData) *[EquipmentSlots]Item { return &d.Equipment }),
	FieldName:            blitField("name", func(d *CreatureData) *[16]byte { return &d.NameBytes }),
	FieldSkillTree:       blitField("skill_tree", func(d *CreatureData) *[11]int32 { return &d.SkillTree }),
	FieldManaCubes:       blitField("mana_cubes", func(d *CreatureData) *int32 { return &d.ManaCubes }),
}

// CreatureUpdate is a diff of one creature's state: a field mask followed
// by the masked fields in table order, zlib-compressed on the wire.
type CreatureUpdate struct {
	ID   CreatureID
	Mask FieldMask
	Data CreatureData
}

func (p *CreatureUpdate) PacketID() PacketID { return IDCreatureUpdate }

func (p *CreatureUpdate) ReadBody(r io.Reader) error {
	inflated, err := readCompressed(r)
	if err != nil {
		return err
	}
	br := bytes.NewReader(inflated)
	if err := p.readRawBody(br); err != nil {
		return err
	}
	// A compressed body longer than its decoded fields is malformed.
	return expectEOF(br)
}

func (p *CreatureUpdate) WriteBody(w io.Writer) error {
	var raw bytes.Buffer
	if err := p.writeRawBody(&raw); err != nil {
		return err
	}
	return writeCompressed(w, raw.Bytes())
}

// readRawBody decodes the uncompressed form: id, mask, masked fields.
func (p *CreatureUpdate) readRawBody(r io.Reader) error {
	if err := readLE(r, &p.ID); err != nil {
		return err
	}
	if err := readLE(r, (*uint64)(&p.Mask)); err != nil {
		return err
	}
	if p.Mask&^MaskAll != 0 {
		return errors.New("field mask has bits beyond the field table")
	}
	for i := 0; i < NumCreatureFields; i++ {
		if !p.Mask.Has(i) {
			continue
		}
		if err := creatureFields[i].read(r, &p.Data); err != nil {
			return fmt.Errorf("field %s: %w", creatureFields[i].name, err)
		}
	}
	return nil
}

func (p *CreatureUpdate) writeRawBody(w io.Writer) error {
	if err := writeLE(w, p.ID); err != nil {
		return err
	}
	if err := writeLE(w, uint64(p.Mask)); err != nil {
		return err
	}
	for i := 0; i < NumCreatureFields; i++ {
		if !p.Mask.Has(i) {
			continue
		}
		if err := creatureFields[i].write(w, &p.Data); err != nil {
			return fmt.Errorf("field %s: %w", creatureFields[i].name, err)
		}
	}
	return nil
}

// ApplyTo overwrites the masked fields of dst with the diff's values.
// Absent fields are untouched.
func (p *CreatureUpdate) ApplyTo(dst *CreatureData) {
	for i := 0; i < NumCreatureFields; i++ {
		if p.Mask.Has(i) {
			creatureFields[i].copy(dst, &p.Data)
		}
	}
}

// FullUpdate returns a diff carrying every field of d, the form sent to a
// newly joined session for each existing player.
func FullUpdate(id CreatureID, d *CreatureData) *CreatureUpdate {
	return &CreatureUpdate{ID: id, Mask: MaskAll, Data: *d}
}
