package relay

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opencw/brazier/internal/protocol"
)

// idAssignmentPadding is the size of the zero block trailing the initial
// creature update. The client only reads the id out of this packet, but
// it insists on the full body being present, uncompressed and without the
// usual size prefix, before it proceeds with the handshake.
const idAssignmentPadding = 0x1168

// kickGrace is how long a kicked session's queued writes get to flush
// before the socket is torn down.
const kickGrace = 100 * time.Millisecond

// Session is one connected player: the socket, a mirror of the creature
// state the client last reported, and the per-player relay bookkeeping.
type Session struct {
	server *Server
	conn   net.Conn
	log    *logrus.Entry
	id     protocol.CreatureID

	writeMu sync.Mutex
	bw      *bufio.Writer

	mu       sync.RWMutex
	creature protocol.CreatureData
	team     *int32

	joined           atomic.Bool
	shouldDisconnect atomic.Bool
	admin            atomic.Bool
	acImmune         atomic.Bool

	// Reader-goroutine state, never touched elsewhere.
	clock         comboClock
	airborneSince time.Time
	airStage      int
	headNeutral   bool
}

func newSession(server *Server, conn net.Conn, id protocol.CreatureID) *Session {
	return &Session{
		server: server,
		conn:   conn,
		id:     id,
		bw:     bufio.NewWriter(conn),
		log: server.log.WithFields(logrus.Fields{
			"player": id,
			"addr":   conn.RemoteAddr().String(),
		}),
	}
}

// ID returns the creature id assigned to this session.
func (s *Session) ID() protocol.CreatureID { return s.id }

// Name returns the player's last reported name.
func (s *Session) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creature.Name()
}

// Creature returns a copy of the mirrored creature state.
func (s *Session) Creature() protocol.CreatureData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creature
}

// Position returns the player's last reported world position.
func (s *Session) Position() protocol.QVector3 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creature.Position
}

func (s *Session) setCreature(d protocol.CreatureData) {
	s.mu.Lock()
	s.creature = d
	s.mu.Unlock()
}

// Team returns the session's team id, nil when teamless.
func (s *Session) Team() *int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.team
}

func (s *Session) setTeam(team *int32) {
	s.mu.Lock()
	s.team = team
	s.mu.Unlock()
}

// IsAdmin reports whether the session has authenticated as an admin.
func (s *Session) IsAdmin() bool { return s.admin.Load() }

// SetAdmin toggles admin rights. Admins are also exempt from the
// anti-cheat chain so they can teleport and spawn freely.
func (s *Session) SetAdmin(enabled bool) {
	s.admin.Store(enabled)
	s.acImmune.Store(enabled)
}

// send writes one packet through the buffered writer. Concurrent senders
// serialize on the write lock; the reader is never blocked by a send.
func (s *Session) send(p protocol.Packet) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if timeout := s.server.cfg.GameServer.SocketTimeout; timeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	if err := protocol.WritePacket(s.bw, p); err != nil {
		return err
	}
	return s.bw.Flush()
}

// trySend sends and swallows the error. A failed write means the peer is
// going away; the reader loop will observe the closed socket shortly.
func (s *Session) trySend(p protocol.Packet) {
	if err := s.send(p); err != nil {
		s.shouldDisconnect.Store(true)
	}
}

// SendMessage delivers a private server-voice chat line.
func (s *Session) SendMessage(text string) {
	s.trySend(&protocol.ChatMessageFromServer{Source: protocol.ServerVoiceID, Text: text})
}

// Kick flags the session for disconnection and tells the player why.
// Queued writes get a short grace to flush before the socket closes.
func (s *Session) Kick(reason string) {
	if s.shouldDisconnect.Swap(true) {
		return
	}
	s.log.WithField("reason", reason).Info("kicking player")
	s.SendMessage("You have been kicked: " + reason)
	if s.joined.Load() {
		s.server.Announce(s.Name() + " was kicked (" + reason + ")")
	}

	conn := s.conn
	time.AfterFunc(kickGrace, func() { conn.Close() })
}

// run drives the session from handshake to disconnect. It is the only
// goroutine reading from the socket.
func (s *Session) run() {
	defer s.conn.Close()

	if err := s.handshake(); err != nil {
		if !errors.Is(err, io.EOF) {
			s.log.WithError(err).Debug("handshake failed")
		}
		return
	}

	defer s.leave()

	s.log.WithField("name", s.Name()).Info("player joined")

	for !s.shouldDisconnect.Load() {
		packet, err := s.readPacket()
		if err != nil {
			if !errors.Is(err, io.EOF) && !s.shouldDisconnect.Load() {
				s.log.WithError(err).Debug("read failed")
			}
			return
		}
		if err := s.handlePacket(packet); err != nil {
			s.log.WithError(err).Warn("closing session")
			return
		}
	}
}

func (s *Session) readPacket() (protocol.Packet, error) {
	if timeout := s.server.cfg.GameServer.SocketTimeout; timeout > 0 {
		if err := s.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return nil, err
		}
	}
	packet, err := protocol.ReadPacketFromClient(s.conn)
	if err != nil {
		return nil, err
	}
	if s.server.cfg.Debugging.PacketLoggingEnabled {
		s.log.Debug(s.server.dumpPacket(packet))
	}
	return packet, nil
}

// handshake performs the version exchange, assigns the creature id, and
// admits the session into the registry once the first full state report
// arrives.
func (s *Session) handshake() error {
	packet, err := s.readPacket()
	if err != nil {
		return err
	}
	version, ok := packet.(*protocol.ProtocolVersion)
	if !ok {
		return fmt.Errorf("expected a protocol version, got packet id %d", packet.PacketID())
	}
	if version.Version != s.server.cfg.GameServer.ProtocolVersion {
		// Wrong version: hang up without a reply; old clients misrender
		// every response shape we could give them.
		return fmt.Errorf("unsupported protocol version %d", version.Version)
	}

	if err := s.send(&protocol.ConnectionAcceptance{}); err != nil {
		return err
	}
	if err := s.sendIDAssignment(); err != nil {
		return err
	}

	packet, err = s.readPacket()
	if err != nil {
		return err
	}
	first, ok := packet.(*protocol.CreatureUpdate)
	if !ok {
		return fmt.Errorf("expected the initial creature update, got packet id %d", packet.PacketID())
	}
	if first.ID != s.id {
		return fmt.Errorf("initial update for creature %d, assigned id was %d", first.ID, s.id)
	}
	if first.Mask != protocol.MaskAll {
		return fmt.Errorf("initial update mask %#x is not a full state report", uint64(first.Mask))
	}

	var blank protocol.CreatureData
	if err := validate(&blank, &first.Data); err != nil {
		s.server.reportViolation(s, err)
		return fmt.Errorf("initial state rejected: %w", err)
	}
	s.setCreature(first.Data)

	// Bans by name can only be enforced once the name is known.
	if s.server.isBanned(s.Name(), remoteIP(s.conn)) {
		_ = s.send(&protocol.ConnectionRejection{})
		return fmt.Errorf("banned player %s tried to join", s.Name())
	}

	if err := s.send(&protocol.MapSeed{Seed: s.server.cfg.GameServer.MapSeed}); err != nil {
		return err
	}
	if welcome := s.server.cfg.GameServer.WelcomeMessage; welcome != "" {
		s.SendMessage(welcome)
	}

	// Introduce every existing player and NPC to the newcomer, then the
	// newcomer to everyone else.
	for _, other := range s.server.Sessions() {
		creature := other.Creature()
		intro := protocol.FullUpdate(other.ID(), &creature)
		if !isTeammate(s, other) {
			intro.Data.CreatureFlags |= protocol.FlagFriendlyFire
		}
		s.trySend(intro)
	}
	for _, npc := range s.server.npcs.NPCs() {
		s.trySend(npc)
	}
	s.server.addSession(s)
	s.joined.Store(true)
	s.server.broadcastCreatureUpdate(s, protocol.FullUpdate(s.id, &first.Data))

	return nil
}

// sendIDAssignment writes the one packet in the protocol with no size
// prefix and no compression: the id byte, the assigned creature id, and a
// fixed-size block of zeros standing in for the rest of the body.
func (s *Session) sendIDAssignment() error {
	body := make([]byte, 1+8+idAssignmentPadding)
	body[0] = byte(protocol.IDCreatureUpdate)
	binary.LittleEndian.PutUint64(body[1:9], uint64(s.id))

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if timeout := s.server.cfg.GameServer.SocketTimeout; timeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	if _, err := s.bw.Write(body); err != nil {
		return err
	}
	return s.bw.Flush()
}

// leave removes the session from the shared state and tells the other
// clients the creature is gone.
func (s *Session) leave() {
	name := s.Name()
	s.server.removeSession(s)
	if s.Team() != nil {
		s.server.setSessionTeam(s, nil)
	}
	s.server.pool.Free(s.id)

	// A dead neutral creature is how clients unrender a player.
	vanish := &protocol.CreatureUpdate{ID: s.id}
	vanish.Mask.Set(protocol.FieldHealth)
	vanish.Mask.Set(protocol.FieldAffiliation)
	vanish.Data.Health = 0
	vanish.Data.Affiliation = protocol.AffiliationNeutral
	s.server.Broadcast(vanish, s)

	headVanish := *vanish
	headVanish.ID = s.id + mapHeadOffset
	s.server.Broadcast(&headVanish, s)

	s.log.WithField("name", name).Info("player left")
}
