package relay

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/opencw/brazier/internal/bridge"
	"github.com/opencw/brazier/internal/core"
	"github.com/opencw/brazier/internal/core/data"
	"github.com/opencw/brazier/internal/core/debug"
	"github.com/opencw/brazier/internal/game"
	"github.com/opencw/brazier/internal/protocol"
	"github.com/opencw/brazier/internal/relay/command"
)

// tickInterval is the cadence of the server tick and in-game clock
// broadcast.
const tickInterval = time.Second

// Server owns the shared world state and the session registry. One
// goroutine per session reads from its socket; everything cross-session
// goes through the registry lock or a dedicated component lock.
type Server struct {
	cfg      *core.Config
	log      *logrus.Logger
	db       *gorm.DB
	notifier *bridge.Notifier

	pool     *game.IDPool
	balancer *balancer
	loot     *lootRegistry
	feed     *killFeed
	commands *command.Dispatcher
	bridge   publisher
	npcs     NPCProvider
	blocks   BlockProvider

	mu       sync.RWMutex
	sessions []*Session

	started time.Time
}

// publisher is the slice of the bridge the relay needs; the indirection
// keeps a nil notifier harmless.
type publisher interface {
	PublishChat(name, text string)
	PublishAnnouncement(text string)
	PublishAdmin(text string)
}

func NewServer(cfg *core.Config, log *logrus.Logger, db *gorm.DB, notifier *bridge.Notifier) *Server {
	srv := &Server{
		cfg:      cfg,
		log:      log,
		db:       db,
		notifier: notifier,
		pool:     game.NewIDPool(),
		balancer: newBalancer(cfg.Balancer),
		loot:     newLootRegistry(),
		feed:     newKillFeed(),
		bridge:   notifier,
		npcs:     emptyWorld{},
		blocks:   emptyWorld{},
		started:  time.Now(),
	}
	srv.commands = command.NewDispatcher(
		cfg.GameServer.CommandPrefix,
		cfg.GameServer.AdminPassword,
		&commandWorld{srv},
		log,
	)
	return srv
}

// ListenAndServe blocks accepting game connections.
func (srv *Server) ListenAndServe() error {
	listener, err := net.Listen("tcp", srv.cfg.ListenAddress())
	if err != nil {
		return fmt.Errorf("error listening on %s: %w", srv.cfg.ListenAddress(), err)
	}
	srv.log.WithField("addr", srv.cfg.ListenAddress()).Info("game server listening")
	return srv.Serve(listener)
}

// Serve accepts connections off an existing listener until it closes.
func (srv *Server) Serve(listener net.Listener) error {
	srv.started = time.Now()
	go srv.runClock()

	for {
		conn, err := listener.Accept()
		if err != nil {
			return err
		}
		go srv.handleConnection(conn)
	}
}

func remoteIP(conn net.Conn) string {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return conn.RemoteAddr().String()
	}
	return host
}

// isBanned checks the ban list by name and address. At connect time only
// the address is known; the name is rechecked once the handshake has it.
func (srv *Server) isBanned(name, ip string) bool {
	if srv.db == nil {
		return false
	}
	ban, err := data.FindBan(srv.db, name, ip)
	if err != nil {
		srv.log.WithError(err).Error("ban lookup failed")
		return false
	}
	return ban != nil
}

func (srv *Server) handleConnection(conn net.Conn) {
	ip := remoteIP(conn)

	if srv.isBanned("", ip) {
		srv.log.WithField("addr", ip).Info("rejecting banned address")
		_ = protocol.WritePacket(conn, &protocol.ConnectionRejection{})
		conn.Close()
		return
	}

	if max := srv.cfg.MaxConnections; max > 0 && srv.PlayerCount() >= max {
		srv.log.WithField("addr", ip).Info("rejecting connection, server full")
		_ = protocol.WritePacket(conn, &protocol.ConnectionRejection{})
		conn.Close()
		return
	}

	id := srv.pool.Claim()
	session := newSession(srv, conn, id)
	session.run()
	if !session.joined.Load() {
		srv.pool.Free(id)
	}
}

// Sessions returns a snapshot of the joined sessions in join order.
func (srv *Server) Sessions() []*Session {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	return append([]*Session(nil), srv.sessions...)
}

// PlayerCount returns the number of joined sessions.
func (srv *Server) PlayerCount() int {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	return len(srv.sessions)
}

// PlayerNames lists the joined players in join order.
func (srv *Server) PlayerNames() []string {
	sessions := srv.Sessions()
	names := make([]string, len(sessions))
	for i, s := range sessions {
		names[i] = s.Name()
	}
	return names
}

// Uptime reports how long the server has been serving.
func (srv *Server) Uptime() time.Duration { return time.Since(srv.started) }

// Seed returns the shared world seed.
func (srv *Server) Seed() int32 { return srv.cfg.GameServer.MapSeed }

func (srv *Server) addSession(s *Session) {
	srv.mu.Lock()
	srv.sessions = append(srv.sessions, s)
	srv.mu.Unlock()
}

func (srv *Server) removeSession(s *Session) {
	srv.mu.Lock()
	for i, other := range srv.sessions {
		if other == s {
			srv.sessions = append(srv.sessions[:i], srv.sessions[i+1:]...)
			break
		}
	}
	srv.mu.Unlock()
}

// findByID resolves a creature id to its session.
func (srv *Server) findByID(id protocol.CreatureID) *Session {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	for _, s := range srv.sessions {
		if s.id == id {
			return s
		}
	}
	return nil
}

// FindPlayer resolves a creature id or a case-insensitive name fragment.
func (srv *Server) FindPlayer(query string) *Session {
	if id, err := strconv.ParseInt(query, 10, 64); err == nil {
		if s := srv.findByID(protocol.CreatureID(id)); s != nil {
			return s
		}
	}
	fragment := strings.ToLower(query)
	for _, s := range srv.Sessions() {
		if strings.Contains(strings.ToLower(s.Name()), fragment) {
			return s
		}
	}
	return nil
}

// Broadcast sends a packet to every joined session except skip.
func (srv *Server) Broadcast(p protocol.Packet, skip *Session) {
	for _, s := range srv.Sessions() {
		if s != skip {
			s.trySend(p)
		}
	}
}

// Announce sends a server-voice chat line to everyone and the bridge.
func (srv *Server) Announce(text string) {
	srv.log.Info("announce: " + text)
	srv.Broadcast(&protocol.ChatMessageFromServer{Source: protocol.ServerVoiceID, Text: text}, nil)
	srv.bridge.PublishAnnouncement(text)
}

// reportViolation logs an anti-cheat violation, persists it, and bans
// the player when they hit the configured strike count.
func (srv *Server) reportViolation(s *Session, violation error) {
	name := s.Name()
	ip := remoteIP(s.conn)
	reason := violation.Error()

	s.log.WithFields(logrus.Fields{
		"name":   name,
		"reason": reason,
	}).Warn("anti-cheat violation")
	srv.bridge.PublishAdmin(fmt.Sprintf("violation by %s (%s): %s", name, ip, reason))

	if srv.db == nil {
		return
	}
	record := &data.Violation{
		Name:   name,
		IPAddr: ip,
		Field:  violationField(reason),
		Reason: reason,
	}
	if err := data.RecordViolation(srv.db, record); err != nil {
		srv.log.WithError(err).Error("failed to record violation")
		return
	}

	strikes := srv.cfg.AntiCheat.StrikesUntilBan
	if strikes <= 0 || name == "" {
		return
	}
	count, err := data.CountViolations(srv.db, name)
	if err != nil {
		srv.log.WithError(err).Error("failed to count violations")
		return
	}
	if count >= int64(strikes) {
		ban := &data.Ban{Name: name, IPAddr: ip, Reason: reason}
		if err := data.CreateBan(srv.db, ban); err != nil {
			srv.log.WithError(err).Error("failed to create ban")
			return
		}
		srv.bridge.PublishAdmin(fmt.Sprintf("%s banned after %d violations", name, count))
	}
}

// violationField extracts the offending field from a violation reason,
// which leads with "<field> was".
func violationField(reason string) string {
	if i := strings.Index(reason, " was "); i > 0 {
		return reason[:i]
	}
	return reason
}

func (srv *Server) dumpPacket(p protocol.Packet) string {
	return debug.DumpPacket(p)
}

// runClock broadcasts the shared in-game clock. Clients run their own
// day cycle otherwise and drift apart within minutes.
func (srv *Server) runClock() {
	rate := srv.cfg.GameServer.TimeRate
	if rate <= 0 {
		return
	}

	const dayMillis = 24 * 60 * 60 * 1000
	var day, millis int32

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for range ticker.C {
		millis += int32(rate) * 60 * 1000 / int32(time.Second/tickInterval)
		for millis >= dayMillis {
			millis -= dayMillis
			day++
		}
		srv.Broadcast(&protocol.ServerTick{}, nil)
		srv.Broadcast(&protocol.IngameDatetime{Day: day, Time: millis}, nil)
	}
}
