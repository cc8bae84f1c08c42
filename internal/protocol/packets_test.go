package protocol

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestZoneDiscoveryDecode(t *testing.T) {
	raw := []byte{0x78, 0x56, 0x34, 0x12, 0x44, 0x33, 0x22, 0x11}

	var pkt ZoneDiscovery
	if err := pkt.ReadBody(bytes.NewReader(raw)); err != nil {
		t.Fatalf("ReadBody() error = %v", err)
	}

	want := Zone{X: 0x12345678, Y: 0x11223344}
	if pkt.Zone != want {
		t.Errorf("decoded zone = %+v, want %+v", pkt.Zone, want)
	}

	var out bytes.Buffer
	if err := pkt.WriteBody(&out); err != nil {
		t.Fatalf("WriteBody() error = %v", err)
	}
	if diff := cmp.Diff(raw, out.Bytes()); diff != "" {
		t.Errorf("re-encode produced different bytes; diff:\n%s", diff)
	}
}

func roundTrip(t *testing.T, pkt Packet, decoded Packet) {
	t.Helper()

	var wire bytes.Buffer
	if err := WritePacket(&wire, pkt); err != nil {
		t.Fatalf("WritePacket() error = %v", err)
	}

	encoded := append([]byte(nil), wire.Bytes()...)
	if encoded[0] != byte(pkt.PacketID()) {
		t.Fatalf("leading id byte = %#02x, want %#02x", encoded[0], byte(pkt.PacketID()))
	}

	if err := decoded.ReadBody(bytes.NewReader(encoded[1:])); err != nil {
		t.Fatalf("ReadBody() error = %v", err)
	}
	if diff := cmp.Diff(pkt, decoded, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch; diff:\n%s", diff)
	}

	var rewire bytes.Buffer
	if err := WritePacket(&rewire, decoded); err != nil {
		t.Fatalf("WritePacket() re-encode error = %v", err)
	}
	if !bytes.Equal(encoded, rewire.Bytes()) {
		t.Errorf("re-encode produced different bytes")
	}
}

func TestPacketRoundTrips(t *testing.T) {
	hit := Hit{
		Attacker:  5,
		Target:    9,
		Damage:    120.5,
		Critical:  1,
		StunTime:  250,
		Position:  QVector3{X: 1 << 20, Y: 2 << 20, Z: 3 << 20},
		Direction: Vector3{X: 0.2, Y: -0.4, Z: 0.1},
		Kind:      HitBlock,
	}
	status := StatusEffect{
		Source:   5,
		Target:   9,
		Kind:     StatusManaShield,
		Modifier: 180,
		Duration: 5000,
	}

	tests := []struct {
		name    string
		pkt     Packet
		decoded Packet
	}{
		{"protocol version", &ProtocolVersion{Version: 3}, &ProtocolVersion{}},
		{"map seed", &MapSeed{Seed: 0x5eed}, &MapSeed{}},
		{"ingame datetime", &IngameDatetime{Day: 12, Time: 340000}, &IngameDatetime{}},
		{"hit", &hit, &Hit{}},
		{"status effect", &status, &StatusEffect{}},
		{
			"projectile",
			&Projectile{Source: 5, ZoneX: 3, ZoneY: -2, Velocity: Vector3{X: 1, Y: 2, Z: 3}, Damage: 85, Kind: 1},
			&Projectile{},
		},
		{
			"creature action",
			&CreatureAction{Item: Item{Kind: KindConsumable, Material: MaterialPlant, Level: 3}, ZoneX: 1, ZoneY: 2, Index: 0, Kind: ActionDrop},
			&CreatureAction{},
		},
		{"chat from client", &ChatMessageFromClient{Text: "hello there"}, &ChatMessageFromClient{}},
		{"chat from server", &ChatMessageFromServer{Source: ServerVoiceID, Text: "welcome!"}, &ChatMessageFromServer{}},
		{"zone discovery", &ZoneDiscovery{Zone: Zone{X: -4, Y: 9}}, &ZoneDiscovery{}},
		{"region discovery", &RegionDiscovery{Region: Zone{X: 1, Y: 1}}, &RegionDiscovery{}},
		{"current chunk", &CurrentChunk{Chunk: Zone{X: 32, Y: 32}}, &CurrentChunk{}},
		{"current biome", &CurrentBiome{Biome: 4}, &CurrentBiome{}},
		{
			"airship traffic",
			&AirshipTraffic{Airships: []Airship{{ID: 1, Position: QVector3{X: 5, Y: 5, Z: 5}, Rotation: 90}}},
			&AirshipTraffic{},
		},
		{"server tick", &ServerTick{}, &ServerTick{}},
		{"connection acceptance", &ConnectionAcceptance{}, &ConnectionAcceptance{}},
		{"connection rejection", &ConnectionRejection{}, &ConnectionRejection{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roundTrip(t, tt.pkt, tt.decoded)
		})
	}
}

func TestWorldUpdateRoundTrip(t *testing.T) {
	update := &WorldUpdate{
		WorldEdits: []WorldEdit{{Position: IVector3{X: 1, Y: 2, Z: 3}, ColorR: 255, BlockKind: 1}},
		Hits:       []Hit{{Attacker: 4, Target: 5, Damage: 10}},
		Sounds:     []SoundEffect{SoundAt(QVector3{X: 1 << 16, Y: 2 << 16, Z: 3 << 16}, SoundSlime1)},
		ChunkLoots: []ChunkLoot{
			{
				Zone: Zone{X: 100, Y: 200},
				Items: []GroundItem{
					{
						Item:     Item{Kind: KindWeapon, SubKind: uint8(WeaponSword), Material: MaterialIron, Level: 4},
						Position: QVector3{X: 9, Y: 9, Z: 9},
						Rotation: 45,
						Scale:    1,
						DropTime: 5000,
					},
				},
			},
		},
		LootBeacons:   []ZoneLootBeacon{{Zone: Zone{X: 100, Y: 200}}},
		Pickups:       []Pickup{{ID: 6, Item: Item{Kind: KindCoin}}},
		Kills:         []Kill{{Killer: 4, Target: 5, XP: 25}},
		StatusEffects: []StatusEffect{{Source: 4, Target: 4, Kind: StatusSwiftness, Duration: 8000}},
	}

	roundTrip(t, update, &WorldUpdate{})
}

func TestWorldUpdateRejectsTrailingBytes(t *testing.T) {
	update := &WorldUpdate{}

	var raw bytes.Buffer
	if err := update.writeRawBody(&raw); err != nil {
		t.Fatalf("writeRawBody() error = %v", err)
	}
	raw.WriteByte(0xFF)

	var wire bytes.Buffer
	if err := writeCompressed(&wire, raw.Bytes()); err != nil {
		t.Fatalf("writeCompressed() error = %v", err)
	}

	if err := new(WorldUpdate).ReadBody(&wire); err == nil {
		t.Error("expected trailing byte to be rejected")
	}
}

func TestReadPacketFromClientUnknownID(t *testing.T) {
	if _, err := ReadPacketFromClient(bytes.NewReader([]byte{0xEE})); err == nil {
		t.Error("expected unknown packet id error")
	}
}

func TestReadPacketFromClientDispatch(t *testing.T) {
	var wire bytes.Buffer
	if err := WritePacket(&wire, &ProtocolVersion{Version: 3}); err != nil {
		t.Fatalf("WritePacket() error = %v", err)
	}

	pkt, err := ReadPacketFromClient(&wire)
	if err != nil {
		t.Fatalf("ReadPacketFromClient() error = %v", err)
	}
	version, ok := pkt.(*ProtocolVersion)
	if !ok {
		t.Fatalf("decoded packet type = %T, want *ProtocolVersion", pkt)
	}
	if version.Version != 3 {
		t.Errorf("version = %d, want 3", version.Version)
	}
}

func TestFormulaRecipeBytePreserved(t *testing.T) {
	item := Item{Kind: KindFormula, Material: MaterialWood, Level: 2}
	item.SetRecipe(KindWeapon)

	var wire bytes.Buffer
	if err := writeLE(&wire, item); err != nil {
		t.Fatalf("writeLE() error = %v", err)
	}

	var decoded Item
	if err := readLE(&wire, &decoded); err != nil {
		t.Fatalf("readLE() error = %v", err)
	}

	if decoded.Recipe() != KindWeapon {
		t.Errorf("recipe = %v, want %v", decoded.Recipe(), KindWeapon)
	}
	if decoded != item {
		t.Errorf("item did not round trip byte for byte")
	}
}
