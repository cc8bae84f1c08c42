package relay

import (
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opencw/brazier/internal/core"
	"github.com/opencw/brazier/internal/protocol"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := &core.Config{}
	cfg.GameServer.ProtocolVersion = 3
	cfg.GameServer.MapSeed = 26879
	cfg.GameServer.CommandPrefix = "/"

	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewServer(cfg, log, nil, nil)
}

// startSession wires one pipe-backed session into the server the way an
// accepted connection would be, returning the client end.
func startSession(t *testing.T, srv *Server) (net.Conn, protocol.CreatureID) {
	t.Helper()
	serverEnd, clientEnd := net.Pipe()
	t.Cleanup(func() { clientEnd.Close() })

	id := srv.pool.Claim()
	session := newSession(srv, serverEnd, id)
	go session.run()
	return clientEnd, id
}

// waitForPlayers polls until the registry reaches the wanted size. The
// final handshake steps run after the map seed write, so the client side
// has no packet to synchronize on.
func waitForPlayers(t *testing.T, srv *Server, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for srv.PlayerCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("player count = %d, want %d", srv.PlayerCount(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readByte(t *testing.T, conn net.Conn) byte {
	t.Helper()
	var b [1]byte
	if _, err := io.ReadFull(conn, b[:]); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return b[0]
}

func readServerPacket(t *testing.T, conn net.Conn, p protocol.Packet) {
	t.Helper()
	if id := readByte(t, conn); id != byte(p.PacketID()) {
		t.Fatalf("packet id = %d, want %d", id, p.PacketID())
	}
	if err := p.ReadBody(conn); err != nil {
		t.Fatalf("reading packet body: %v", err)
	}
}

func TestHandshakeHangsUpOnWrongVersion(t *testing.T) {
	srv := testServer(t)
	conn, _ := startSession(t, srv)

	if err := protocol.WritePacket(conn, &protocol.ProtocolVersion{Version: 2}); err != nil {
		t.Fatalf("writing version: %v", err)
	}

	// The server must close without sending anything back.
	var b [1]byte
	n, err := conn.Read(b[:])
	if n != 0 || err != io.EOF {
		t.Errorf("read after version mismatch = (%d, %v), want (0, EOF)", n, err)
	}
}

func TestHandshakeSequence(t *testing.T) {
	srv := testServer(t)
	conn, id := startSession(t, srv)

	if err := protocol.WritePacket(conn, &protocol.ProtocolVersion{Version: 3}); err != nil {
		t.Fatalf("writing version: %v", err)
	}

	if got := readByte(t, conn); got != byte(protocol.IDConnectionAcceptance) {
		t.Fatalf("first reply byte = %d, want connection acceptance", got)
	}

	// The id assignment: the creature update id byte, the assigned id,
	// and the fixed block of zeros, with no size prefix and no compression.
	blob := make([]byte, 1+8+idAssignmentPadding)
	if _, err := io.ReadFull(conn, blob); err != nil {
		t.Fatalf("reading id assignment: %v", err)
	}
	if blob[0] != byte(protocol.IDCreatureUpdate) {
		t.Errorf("id assignment leads with %d, want %d", blob[0], protocol.IDCreatureUpdate)
	}
	if got := protocol.CreatureID(binary.LittleEndian.Uint64(blob[1:9])); got != id {
		t.Errorf("assigned id = %d, want %d", got, id)
	}
	for i, b := range blob[9:] {
		if b != 0 {
			t.Fatalf("id assignment padding byte %d = %d, want 0", i, b)
		}
	}

	data := validPlayerData(t)
	if err := protocol.WritePacket(conn, protocol.FullUpdate(id, &data)); err != nil {
		t.Fatalf("writing full update: %v", err)
	}

	var seed protocol.MapSeed
	readServerPacket(t, conn, &seed)
	if seed.Seed != 26879 {
		t.Errorf("seed = %d, want 26879", seed.Seed)
	}

	waitForPlayers(t, srv, 1)
}

func TestHandshakeRejectsInvalidFirstUpdate(t *testing.T) {
	srv := testServer(t)
	conn, id := startSession(t, srv)

	if err := protocol.WritePacket(conn, &protocol.ProtocolVersion{Version: 3}); err != nil {
		t.Fatalf("writing version: %v", err)
	}
	readByte(t, conn)
	if _, err := io.ReadFull(conn, make([]byte, 1+8+idAssignmentPadding)); err != nil {
		t.Fatalf("reading id assignment: %v", err)
	}

	data := validPlayerData(t)
	data.Affiliation = protocol.AffiliationNeutral
	if err := protocol.WritePacket(conn, protocol.FullUpdate(id, &data)); err != nil {
		t.Fatalf("writing full update: %v", err)
	}

	var b [1]byte
	if n, err := conn.Read(b[:]); n != 0 || err != io.EOF {
		t.Errorf("read after rejected update = (%d, %v), want (0, EOF)", n, err)
	}
	if srv.PlayerCount() != 0 {
		t.Errorf("player count = %d, want 0", srv.PlayerCount())
	}
}

// joinSession drives a full handshake and returns the joined client end.
func joinSession(t *testing.T, srv *Server, existing int) (net.Conn, protocol.CreatureID) {
	t.Helper()
	conn, id := startSession(t, srv)

	if err := protocol.WritePacket(conn, &protocol.ProtocolVersion{Version: 3}); err != nil {
		t.Fatalf("writing version: %v", err)
	}
	readByte(t, conn)
	if _, err := io.ReadFull(conn, make([]byte, 1+8+idAssignmentPadding)); err != nil {
		t.Fatalf("reading id assignment: %v", err)
	}

	data := validPlayerData(t)
	if err := protocol.WritePacket(conn, protocol.FullUpdate(id, &data)); err != nil {
		t.Fatalf("writing full update: %v", err)
	}

	readServerPacket(t, conn, &protocol.MapSeed{})
	for i := 0; i < existing; i++ {
		readServerPacket(t, conn, &protocol.CreatureUpdate{})
	}
	return conn, id
}

func TestJoinIntroductionsMarkStrangersHostile(t *testing.T) {
	srv := testServer(t)
	_, firstID := joinSession(t, srv, 0)
	waitForPlayers(t, srv, 1)

	conn, id := startSession(t, srv)
	if err := protocol.WritePacket(conn, &protocol.ProtocolVersion{Version: 3}); err != nil {
		t.Fatalf("writing version: %v", err)
	}
	readByte(t, conn)
	if _, err := io.ReadFull(conn, make([]byte, 1+8+idAssignmentPadding)); err != nil {
		t.Fatalf("reading id assignment: %v", err)
	}
	data := validPlayerData(t)
	if err := protocol.WritePacket(conn, protocol.FullUpdate(id, &data)); err != nil {
		t.Fatalf("writing full update: %v", err)
	}
	readServerPacket(t, conn, &protocol.MapSeed{})

	// The newcomer hears about the pre-existing stranger with the
	// friendly-fire flag already forced on.
	var intro protocol.CreatureUpdate
	readServerPacket(t, conn, &intro)
	if intro.ID != firstID {
		t.Fatalf("introduction for creature %d, want %d", intro.ID, firstID)
	}
	if intro.Mask != protocol.MaskAll {
		t.Error("introduction is not a full state report")
	}
	if intro.Data.CreatureFlags&protocol.FlagFriendlyFire == 0 {
		t.Error("pre-existing stranger introduced without the friendly-fire flag")
	}
}

func TestJoinIntroducesPlayersBothWays(t *testing.T) {
	srv := testServer(t)
	first, firstID := joinSession(t, srv, 0)
	waitForPlayers(t, srv, 1)
	_, secondID := joinSession(t, srv, 1)

	// The earlier player hears about the newcomer as a hostile: same
	// state, friendly-fire flag forced on.
	var update protocol.CreatureUpdate
	readServerPacket(t, first, &update)
	if update.ID != secondID {
		t.Fatalf("broadcast update for %d, want %d", update.ID, secondID)
	}
	if !update.Mask.Has(protocol.FieldCreatureFlags) {
		t.Fatal("broadcast update does not carry creature flags")
	}
	if update.Data.CreatureFlags&protocol.FlagFriendlyFire == 0 {
		t.Error("stranger update is missing the friendly-fire flag")
	}

	// A position-bearing update to a stranger also moves their map-head.
	var head protocol.CreatureUpdate
	readServerPacket(t, first, &head)
	if head.ID != secondID+mapHeadOffset {
		t.Errorf("map-head id = %d, want %d", head.ID, secondID+mapHeadOffset)
	}
	if head.Data.Health != 0 || head.Data.Affiliation != protocol.AffiliationPlayer {
		t.Errorf("map-head is not a harmless ghost: %+v", head.Data)
	}

	waitForPlayers(t, srv, 2)
	if firstID == secondID {
		t.Errorf("both sessions share id %d", firstID)
	}
}

func TestViolationField(t *testing.T) {
	if got := violationField("appearance.head_model was 5 allowed was 1..2"); got != "appearance.head_model" {
		t.Errorf("violationField = %q", got)
	}
	if got := violationField("timewarp.clockdesync"); got != "timewarp.clockdesync" {
		t.Errorf("violationField = %q", got)
	}
}
