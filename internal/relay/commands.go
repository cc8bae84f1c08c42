package relay

import (
	"github.com/opencw/brazier/internal/protocol"
	"github.com/opencw/brazier/internal/relay/command"
)

// Teleport moves the player by sending their own creature an
// authoritative position. The client snaps to it.
func (s *Session) Teleport(position protocol.QVector3) {
	update := &protocol.CreatureUpdate{ID: s.id}
	update.Mask.Set(protocol.FieldPosition)
	update.Data.Position = position
	s.trySend(update)

	s.mu.Lock()
	s.creature.Position = position
	s.mu.Unlock()
}

// commandWorld adapts the server to the command package's World.
type commandWorld struct {
	srv *Server
}

func (w *commandWorld) FindPlayer(query string) command.Player {
	if s := w.srv.FindPlayer(query); s != nil {
		return s
	}
	return nil
}

func (w *commandWorld) Players() []command.Player {
	sessions := w.srv.Sessions()
	players := make([]command.Player, len(sessions))
	for i, s := range sessions {
		players[i] = s
	}
	return players
}

func (w *commandWorld) Kick(target command.Player, reason string) {
	if s, ok := target.(*Session); ok {
		s.Kick(reason)
	}
}

func (w *commandWorld) Announce(text string) {
	w.srv.Announce(text)
}

func (w *commandWorld) SetTeam(target command.Player, team *int32) {
	if s, ok := target.(*Session); ok {
		w.srv.setSessionTeam(s, team)
	}
}
