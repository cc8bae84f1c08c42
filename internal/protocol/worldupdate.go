package protocol

import (
	"bytes"
	"io"
)

// WorldEdit is one placed or removed block.
type WorldEdit struct {
	Position  IVector3
	ColorR    uint8
	ColorG    uint8
	ColorB    uint8
	BlockKind uint8
	Padding   int32
}

// Particle spawns a particle burst at a world position.
type Particle struct {
	Position QVector3
	Velocity Vector3
	Color    [4]float32
	Scale    float32
	Count    int32
	Kind     int32
	Spread   float32
	Unknown  int32
}

// SoundEffect plays one of the client's built-in sounds.
type SoundEffect struct {
	// Position in block-scale coordinates, not world-millis.
	Position Vector3
	Sound    SoundKind
	Pitch    float32
	Volume   float32
}

// SoundAt converts a world-millis position to the block-scale coordinates
// sound effects use.
func SoundAt(pos QVector3, sound SoundKind) SoundEffect {
	return SoundEffect{
		Position: Vector3{
			X: float32(pos.X) / 0x10000,
			Y: float32(pos.Y) / 0x10000,
			Z: float32(pos.Z) / 0x10000,
		},
		Sound:  sound,
		Pitch:  1,
		Volume: 1,
	}
}

// WorldObject is a dynamic world prop (doors, boats, wheels...).
type WorldObject struct {
	Zone        Zone
	ID          int32
	Unknown1    int32
	Kind        int32
	Pad         int32
	Position    QVector3
	Orientation uint8
	Pad2        [3]byte
	Size        Vector3
	Closed      uint8
	Pad3        [3]byte
	Time        int32
	Unknown2    int32
	Interactor  CreatureID
}

// GroundItem is one dropped item resting in a zone.
type GroundItem struct {
	Item     Item
	Position QVector3
	Rotation float32
	Scale    float32
	Unknown1 uint8
	Pad      [3]byte
	DropTime int32
	Unknown2 int32
}

// ChunkLoot is the full ground-item list of one zone. The client replaces
// its view of the zone's loot with the listed items.
type ChunkLoot struct {
	Zone  Zone
	Items []GroundItem
}

// ZoneLootBeacon marks a zone as holding loot for the minimap.
type ZoneLootBeacon struct {
	Zone Zone
}

// Pickup credits an item to a creature with the pickup swirl.
type Pickup struct {
	ID   CreatureID
	Item Item
}

// Kill credits a kill for the xp feed.
type Kill struct {
	Killer  CreatureID
	Target  CreatureID
	Unknown int32
	XP      int32
}

// Attack is a damage indicator entry.
type Attack struct {
	Target CreatureID
	Damage float32
	Pad    int32
}

// Mission is the state of one region mission.
type Mission struct {
	Region    Zone
	Unknown1  int32
	Unknown2  int32
	Unknown3  int32
	ID        int32
	Kind      int32
	Boss      int32
	Level     int32
	Unknown4  uint8
	State     uint8
	Pad       [2]byte
	Health    int32
	MaxHealth int32
	Zone      Zone
}

// WorldUpdate is the server->client fan-out packet: thirteen sub-sequences
// in a fixed catalog order, zlib-compressed on the wire.
type WorldUpdate struct {
	WorldEdits    []WorldEdit
	Hits          []Hit
	Particles     []Particle
	Sounds        []SoundEffect
	Projectiles   []Projectile
	WorldObjects  []WorldObject
	ChunkLoots    []ChunkLoot
	LootBeacons   []ZoneLootBeacon
	Pickups       []Pickup
	Kills         []Kill
	Attacks       []Attack
	StatusEffects []StatusEffect
	Missions      []Mission
}

func (p *WorldUpdate) PacketID() PacketID { return IDWorldUpdate }

func readChunkLoot(r io.Reader) (ChunkLoot, error) {
	var loot ChunkLoot
	if err := readLE(r, &loot.Zone); err != nil {
		return loot, err
	}
	items, err := readBlitSequence[GroundItem](r)
	if err != nil {
		return loot, err
	}
	loot.Items = items
	return loot, nil
}

func writeChunkLoot(w io.Writer, loot ChunkLoot) error {
	if err := writeLE(w, loot.Zone); err != nil {
		return err
	}
	return writeBlitSequence(w, loot.Items)
}

func (p *WorldUpdate) readRawBody(r io.Reader) (err error) {
	if p.WorldEdits, err = readBlitSequence[WorldEdit](r); err != nil {
		return err
	}
	if p.Hits, err = readBlitSequence[Hit](r); err != nil {
		return err
	}
	if p.Particles, err = readBlitSequence[Particle](r); err != nil {
		return err
	}
	if p.Sounds, err = readBlitSequence[SoundEffect](r); err != nil {
		return err
	}
	if p.Projectiles, err = readBlitSequence[Projectile](r); err != nil {
		return err
	}
	if p.WorldObjects, err = readBlitSequence[WorldObject](r); err != nil {
		return err
	}
	if p.ChunkLoots, err = readSequence(r, readChunkLoot); err != nil {
		return err
	}
	if p.LootBeacons, err = readBlitSequence[ZoneLootBeacon](r); err != nil {
		return err
	}
	if p.Pickups, err = readBlitSequence[Pickup](r); err != nil {
		return err
	}
	if p.Kills, err = readBlitSequence[Kill](r); err != nil {
		return err
	}
	if p.Attacks, err = readBlitSequence[Attack](r); err != nil {
		return err
	}
	if p.StatusEffects, err = readBlitSequence[StatusEffect](r); err != nil {
		return err
	}
	if p.Missions, err = readBlitSequence[Mission](r); err != nil {
		return err
	}
	return nil
}

func (p *WorldUpdate) writeRawBody(w io.Writer) error {
	if err := writeBlitSequence(w, p.WorldEdits); err != nil {
		return err
	}
	if err := writeBlitSequence(w, p.Hits); err != nil {
		return err
	}
	if err := writeBlitSequence(w, p.Particles); err != nil {
		return err
	}
	if err := writeBlitSequence(w, p.Sounds); err != nil {
		return err
	}
	if err := writeBlitSequence(w, p.Projectiles); err != nil {
		return err
	}
	if err := writeBlitSequence(w, p.WorldObjects); err != nil {
		return err
	}
	if err := writeSequence(w, p.ChunkLoots, writeChunkLoot); err != nil {
		return err
	}
	if err := writeBlitSequence(w, p.LootBeacons); err != nil {
		return err
	}
	if err := writeBlitSequence(w, p.Pickups); err != nil {
		return err
	}
	if err := writeBlitSequence(w, p.Kills); err != nil {
		return err
	}
	if err := writeBlitSequence(w, p.Attacks); err != nil {
		return err
	}
	if err := writeBlitSequence(w, p.StatusEffects); err != nil {
		return err
	}
	return writeBlitSequence(w, p.Missions)
}

func (p *WorldUpdate) ReadBody(r io.Reader) error {
	inflated, err := readCompressed(r)
	if err != nil {
		return err
	}
	br := bytes.NewReader(inflated)
	if err := p.readRawBody(br); err != nil {
		return err
	}
	return expectEOF(br)
}

func (p *WorldUpdate) WriteBody(w io.Writer) error {
	var raw bytes.Buffer
	if err := p.writeRawBody(&raw); err != nil {
		return err
	}
	return writeCompressed(w, raw.Bytes())
}
