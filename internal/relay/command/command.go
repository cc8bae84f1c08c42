// Package command implements the in-chat command surface of the relay.
// Commands operate on the server through narrow interfaces so the
// handlers stay testable without a live socket behind them.
package command

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/opencw/brazier/internal/protocol"
)

// Player is the command-facing view of one connected session.
type Player interface {
	ID() protocol.CreatureID
	Name() string
	IsAdmin() bool
	SetAdmin(enabled bool)
	SendMessage(text string)
	Position() protocol.QVector3
	Teleport(position protocol.QVector3)
	Team() *int32
}

// World is the command-facing view of the server.
type World interface {
	// FindPlayer resolves a creature id or a case-insensitive name
	// fragment to a player; nil when nothing matches.
	FindPlayer(query string) Player
	Players() []Player
	Kick(target Player, reason string)
	Announce(text string)
	SetTeam(target Player, team *int32)
}

// handler runs one parsed command.
type handler struct {
	usage     string
	adminOnly bool
	run       func(w World, p Player, args []string)
}

// Dispatcher parses chat lines into commands. Lines not starting with
// the configured prefix are not commands and flow on to regular chat.
type Dispatcher struct {
	prefix        string
	adminPassword string
	world         World
	log           *logrus.Logger
	handlers      map[string]handler
}

func NewDispatcher(prefix, adminPassword string, world World, log *logrus.Logger) *Dispatcher {
	d := &Dispatcher{
		prefix:        prefix,
		adminPassword: adminPassword,
		world:         world,
		log:           log,
	}
	d.handlers = map[string]handler{
		"login":    {usage: "login <password>", run: d.login},
		"tp":       {usage: "tp <player>", adminOnly: true, run: d.teleport},
		"kick":     {usage: "kick <player> [reason]", adminOnly: true, run: d.kick},
		"announce": {usage: "announce <text>", adminOnly: true, run: d.announce},
		"team":     {usage: "team <number>|leave", run: d.team},
		"who":      {usage: "who", run: d.who},
	}
	return d
}

// Dispatch runs text as a command if it is one. The return reports
// whether the line was consumed; consumed lines are never echoed to chat.
func (d *Dispatcher) Dispatch(p Player, text string) bool {
	if d.prefix == "" || !strings.HasPrefix(text, d.prefix) {
		return false
	}
	fields := strings.Fields(strings.TrimPrefix(text, d.prefix))
	if len(fields) == 0 {
		return true
	}
	name := strings.ToLower(fields[0])

	h, ok := d.handlers[name]
	if !ok {
		p.SendMessage("Unknown command: " + name)
		return true
	}
	if h.adminOnly && !p.IsAdmin() {
		p.SendMessage("You need to /login first.")
		return true
	}

	d.log.WithFields(logrus.Fields{
		"player":  p.Name(),
		"command": name,
	}).Info("command")
	h.run(d.world, p, fields[1:])
	return true
}

func (d *Dispatcher) login(_ World, p Player, args []string) {
	if d.adminPassword == "" {
		p.SendMessage("Admin login is disabled on this server.")
		return
	}
	if len(args) != 1 || args[0] != d.adminPassword {
		p.SendMessage("Wrong password.")
		return
	}
	p.SetAdmin(true)
	p.SendMessage("You are now an admin.")
}

func (d *Dispatcher) teleport(w World, p Player, args []string) {
	if len(args) != 1 {
		p.SendMessage("Usage: " + d.prefix + "tp <player>")
		return
	}
	target := w.FindPlayer(args[0])
	if target == nil {
		p.SendMessage("No player matches " + args[0])
		return
	}
	p.Teleport(target.Position())
	p.SendMessage("Teleported to " + target.Name())
}

func (d *Dispatcher) kick(w World, p Player, args []string) {
	if len(args) == 0 {
		p.SendMessage("Usage: " + d.prefix + "kick <player> [reason]")
		return
	}
	target := w.FindPlayer(args[0])
	if target == nil {
		p.SendMessage("No player matches " + args[0])
		return
	}
	reason := "kicked by an admin"
	if len(args) > 1 {
		reason = strings.Join(args[1:], " ")
	}
	w.Kick(target, reason)
}

func (d *Dispatcher) announce(w World, p Player, args []string) {
	if len(args) == 0 {
		p.SendMessage("Usage: " + d.prefix + "announce <text>")
		return
	}
	w.Announce(strings.Join(args, " "))
}

func (d *Dispatcher) team(w World, p Player, args []string) {
	if len(args) != 1 {
		p.SendMessage("Usage: " + d.prefix + "team <number>|leave")
		return
	}
	if strings.EqualFold(args[0], "leave") {
		if p.Team() == nil {
			p.SendMessage("You are not on a team.")
			return
		}
		w.SetTeam(p, nil)
		p.SendMessage("You left your team.")
		return
	}

	parsed, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		p.SendMessage("Team must be a number.")
		return
	}
	id := int32(parsed)
	w.SetTeam(p, &id)
	p.SendMessage("You joined team " + args[0])
}

func (d *Dispatcher) who(w World, p Player, args []string) {
	players := w.Players()
	names := make([]string, len(players))
	for i, other := range players {
		names[i] = other.Name()
	}
	p.SendMessage(strings.Join(names, ", "))
}
