package protocol

import (
	"fmt"
	"io"
)

// PacketID is the one-byte packet kind discriminator leading every packet.
// The values match the game's stock server.
type PacketID uint8

const (
	IDCreatureUpdate       PacketID = 0
	IDMultiCreatureUpdate  PacketID = 1
	IDServerTick           PacketID = 2
	IDAirshipTraffic       PacketID = 3
	IDWorldUpdate          PacketID = 4
	IDIngameDatetime       PacketID = 5
	IDCreatureAction       PacketID = 6
	IDHit                  PacketID = 7
	IDStatusEffect         PacketID = 8
	IDProjectile           PacketID = 9
	IDChatMessage          PacketID = 10
	IDZoneDiscovery        PacketID = 11
	IDRegionDiscovery      PacketID = 12
	IDMapSeed              PacketID = 15
	IDConnectionAcceptance PacketID = 16
	IDProtocolVersion      PacketID = 17
	IDConnectionRejection  PacketID = 18
	IDCurrentChunk         PacketID = 33
	IDCurrentBiome         PacketID = 34
)

// Packet is implemented by every wire packet.
type Packet interface {
	PacketID() PacketID
	ReadBody(r io.Reader) error
	WriteBody(w io.Writer) error
}

// WritePacket writes the id byte followed by the packet body.
func WritePacket(w io.Writer, p Packet) error {
	if _, err := w.Write([]byte{byte(p.PacketID())}); err != nil {
		return err
	}
	return p.WriteBody(w)
}

// ReadPacketFromClient reads the next packet off a client connection,
// dispatching on the id byte. Only the kinds a client is permitted to send
// are recognized; anything else is ErrUnknownPacket and fatal for the
// session. The chat message id byte is shared between directions, so the
// dispatch here settles its shape by role rather than by id.
func ReadPacketFromClient(r io.Reader) (Packet, error) {
	var id [1]byte
	if _, err := io.ReadFull(r, id[:]); err != nil {
		return nil, err
	}

	var packet Packet
	switch PacketID(id[0]) {
	case IDCreatureUpdate:
		packet = &CreatureUpdate{}
	case IDCreatureAction:
		packet = &CreatureAction{}
	case IDHit:
		packet = &Hit{}
	case IDStatusEffect:
		packet = &StatusEffect{}
	case IDProjectile:
		packet = &Projectile{}
	case IDChatMessage:
		packet = &ChatMessageFromClient{}
	case IDZoneDiscovery:
		packet = &ZoneDiscovery{}
	case IDRegionDiscovery:
		packet = &RegionDiscovery{}
	case IDProtocolVersion:
		packet = &ProtocolVersion{}
	case IDCurrentChunk:
		packet = &CurrentChunk{}
	case IDCurrentBiome:
		packet = &CurrentBiome{}
	default:
		return nil, fmt.Errorf("%w: %#02x", ErrUnknownPacket, id[0])
	}

	if err := packet.ReadBody(r); err != nil {
		return nil, err
	}
	return packet, nil
}

// ProtocolVersion is the first packet a client sends after connecting.
type ProtocolVersion struct {
	Version int32
}

func (p *ProtocolVersion) PacketID() PacketID          { return IDProtocolVersion }
func (p *ProtocolVersion) ReadBody(r io.Reader) error  { return readLE(r, &p.Version) }
func (p *ProtocolVersion) WriteBody(w io.Writer) error { return writeLE(w, p.Version) }

// ConnectionAcceptance acknowledges a matching protocol version. Empty body.
type ConnectionAcceptance struct{}

func (p *ConnectionAcceptance) PacketID() PacketID        { return IDConnectionAcceptance }
func (p *ConnectionAcceptance) ReadBody(io.Reader) error  { return nil }
func (p *ConnectionAcceptance) WriteBody(io.Writer) error { return nil }

// ConnectionRejection tells a client it may not join. Empty body.
type ConnectionRejection struct{}

func (p *ConnectionRejection) PacketID() PacketID        { return IDConnectionRejection }
func (p *ConnectionRejection) ReadBody(io.Reader) error  { return nil }
func (p *ConnectionRejection) WriteBody(io.Writer) error { return nil }

// MapSeed carries the world seed shared by all clients.
type MapSeed struct {
	Seed int32
}

func (p *MapSeed) PacketID() PacketID          { return IDMapSeed }
func (p *MapSeed) ReadBody(r io.Reader) error  { return readLE(r, &p.Seed) }
func (p *MapSeed) WriteBody(w io.Writer) error { return writeLE(w, p.Seed) }

// ServerTick is an empty keepalive.
type ServerTick struct{}

func (p *ServerTick) PacketID() PacketID        { return IDServerTick }
func (p *ServerTick) ReadBody(io.Reader) error  { return nil }
func (p *ServerTick) WriteBody(io.Writer) error { return nil }

// IngameDatetime sets the client's in-game clock.
type IngameDatetime struct {
	Day  int32
	Time int32 // milliseconds into the day
}

func (p *IngameDatetime) PacketID() PacketID          { return IDIngameDatetime }
func (p *IngameDatetime) ReadBody(r io.Reader) error  { return readLE(r, p) }
func (p *IngameDatetime) WriteBody(w io.Writer) error { return writeLE(w, *p) }

// Hit reports one landed (or blocked, dodged, absorbed...) attack.
type Hit struct {
	Attacker  CreatureID
	Target    CreatureID
	Damage    float32
	Critical  uint8
	Pad       [3]byte
	StunTime  int32
	Unknown   int32
	Position  QVector3
	Direction Vector3
	IsYell    uint8
	Kind      HitKind
	ShowLight uint8
	Pad2      [1]byte
}

func (p *Hit) PacketID() PacketID { return IDHit }

func (p *Hit) ReadBody(r io.Reader) error {
	if err := readLE(r, p); err != nil {
		return err
	}
	if !p.Kind.Valid() {
		return fmt.Errorf("invalid hit kind %d", p.Kind)
	}
	return nil
}

func (p *Hit) WriteBody(w io.Writer) error { return writeLE(w, *p) }

// StatusEffect applies a timed effect from Source to Target.
type StatusEffect struct {
	Source   CreatureID
	Target   CreatureID
	Kind     StatusEffectKind
	Pad      [3]byte
	Modifier float32
	Duration int32
	Unknown  int32
}

func (p *StatusEffect) PacketID() PacketID { return IDStatusEffect }

func (p *StatusEffect) ReadBody(r io.Reader) error {
	if err := readLE(r, p); err != nil {
		return err
	}
	if !p.Kind.Valid() {
		return fmt.Errorf("invalid status effect kind %d", p.Kind)
	}
	return nil
}

func (p *StatusEffect) WriteBody(w io.Writer) error { return writeLE(w, *p) }

// Projectile reports a fired projectile. Most of the fields are carried
// opaquely; the client fully simulates flight on its own.
type Projectile struct {
	Source    CreatureID
	ZoneX     int32
	ZoneY     int32
	Unknown1  int32
	Position  QVector3
	Unknown2  [3]int32
	Velocity  Vector3
	Damage    float32
	Unknown3  float32
	Scale     float32
	Mana      float32
	Particles float32
	Unknown4  [1]byte
	Kind      uint8
	Pad       [2]byte
	Unknown5  int32
}

func (p *Projectile) PacketID() PacketID          { return IDProjectile }
func (p *Projectile) ReadBody(r io.Reader) error  { return readLE(r, p) }
func (p *Projectile) WriteBody(w io.Writer) error { return writeLE(w, *p) }

// CreatureAction is a client request to interact with the world, most
// importantly dropping and picking up loot.
type CreatureAction struct {
	Item    Item
	ZoneX   int32
	ZoneY   int32
	Index   int32
	Unknown int32
	Kind    ActionKind
	Pad     [3]byte
}

func (p *CreatureAction) PacketID() PacketID { return IDCreatureAction }

func (p *CreatureAction) ReadBody(r io.Reader) error {
	if err := readLE(r, p); err != nil {
		return err
	}
	if !p.Kind.Valid() {
		return fmt.Errorf("invalid action kind %d", p.Kind)
	}
	return nil
}

func (p *CreatureAction) WriteBody(w io.Writer) error { return writeLE(w, *p) }

// ChatMessageFromClient is the client->server shape of the shared chat id.
type ChatMessageFromClient struct {
	Text string
}

func (p *ChatMessageFromClient) PacketID() PacketID { return IDChatMessage }

func (p *ChatMessageFromClient) ReadBody(r io.Reader) error {
	text, err := readString(r)
	if err != nil {
		return err
	}
	p.Text = text
	return nil
}

func (p *ChatMessageFromClient) WriteBody(w io.Writer) error {
	return writeString(w, p.Text)
}

// ChatMessageFromServer is the server->client shape of the shared chat id;
// it additionally names the speaking creature. Source 0 is the server voice.
type ChatMessageFromServer struct {
	Source CreatureID
	Text   string
}

func (p *ChatMessageFromServer) PacketID() PacketID { return IDChatMessage }

func (p *ChatMessageFromServer) ReadBody(r io.Reader) error {
	if err := readLE(r, &p.Source); err != nil {
		return err
	}
	text, err := readString(r)
	if err != nil {
		return err
	}
	p.Text = text
	return nil
}

func (p *ChatMessageFromServer) WriteBody(w io.Writer) error {
	if err := writeLE(w, p.Source); err != nil {
		return err
	}
	return writeString(w, p.Text)
}

// ZoneDiscovery reports that the client has discovered a zone.
type ZoneDiscovery struct {
	Zone Zone
}

func (p *ZoneDiscovery) PacketID() PacketID          { return IDZoneDiscovery }
func (p *ZoneDiscovery) ReadBody(r io.Reader) error  { return readLE(r, &p.Zone) }
func (p *ZoneDiscovery) WriteBody(w io.Writer) error { return writeLE(w, p.Zone) }

// RegionDiscovery reports that the client has discovered a region.
type RegionDiscovery struct {
	Region Zone
}

func (p *RegionDiscovery) PacketID() PacketID          { return IDRegionDiscovery }
func (p *RegionDiscovery) ReadBody(r io.Reader) error  { return readLE(r, &p.Region) }
func (p *RegionDiscovery) WriteBody(w io.Writer) error { return writeLE(w, p.Region) }

// CurrentChunk reports the chunk the client currently occupies.
type CurrentChunk struct {
	Chunk Zone
}

func (p *CurrentChunk) PacketID() PacketID          { return IDCurrentChunk }
func (p *CurrentChunk) ReadBody(r io.Reader) error  { return readLE(r, &p.Chunk) }
func (p *CurrentChunk) WriteBody(w io.Writer) error { return writeLE(w, p.Chunk) }

// CurrentBiome reports the biome the client currently occupies.
type CurrentBiome struct {
	Biome int32
}

func (p *CurrentBiome) PacketID() PacketID          { return IDCurrentBiome }
func (p *CurrentBiome) ReadBody(r io.Reader) error  { return readLE(r, &p.Biome) }
func (p *CurrentBiome) WriteBody(w io.Writer) error { return writeLE(w, p.Biome) }

// Airship is one vehicle entry of the ambient airship traffic broadcast.
type Airship struct {
	ID       int64
	Unknown1 int32
	Unknown2 int32
	Position QVector3
	Velocity Vector3
	Rotation float32
	Station  QVector3
	PathID   int32
	Unknown3 int32
}

// AirshipTraffic carries ambient airship positions.
type AirshipTraffic struct {
	Airships []Airship
}

func (p *AirshipTraffic) PacketID() PacketID { return IDAirshipTraffic }

func (p *AirshipTraffic) ReadBody(r io.Reader) error {
	airships, err := readBlitSequence[Airship](r)
	if err != nil {
		return err
	}
	p.Airships = airships
	return nil
}

func (p *AirshipTraffic) WriteBody(w io.Writer) error {
	return writeBlitSequence(w, p.Airships)
}

// MultiCreatureUpdate batches uncompressed creature updates. The stock
// server never emits it but the id is part of the catalog.
type MultiCreatureUpdate struct {
	Updates []CreatureUpdate
}

func (p *MultiCreatureUpdate) PacketID() PacketID { return IDMultiCreatureUpdate }

func (p *MultiCreatureUpdate) ReadBody(r io.Reader) error {
	updates, err := readSequence(r, func(r io.Reader) (CreatureUpdate, error) {
		var u CreatureUpdate
		err := u.readRawBody(r)
		return u, err
	})
	if err != nil {
		return err
	}
	p.Updates = updates
	return nil
}

func (p *MultiCreatureUpdate) WriteBody(w io.Writer) error {
	return writeSequence(w, p.Updates, func(w io.Writer, u CreatureUpdate) error {
		return u.writeRawBody(w)
	})
}
