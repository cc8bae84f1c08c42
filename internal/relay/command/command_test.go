package command

import (
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/opencw/brazier/internal/protocol"
)

type fakePlayer struct {
	id       protocol.CreatureID
	name     string
	admin    bool
	team     *int32
	position protocol.QVector3
	messages []string
}

func (p *fakePlayer) ID() protocol.CreatureID             { return p.id }
func (p *fakePlayer) Name() string                        { return p.name }
func (p *fakePlayer) IsAdmin() bool                       { return p.admin }
func (p *fakePlayer) SetAdmin(enabled bool)               { p.admin = enabled }
func (p *fakePlayer) SendMessage(text string)             { p.messages = append(p.messages, text) }
func (p *fakePlayer) Position() protocol.QVector3         { return p.position }
func (p *fakePlayer) Teleport(position protocol.QVector3) { p.position = position }
func (p *fakePlayer) Team() *int32                        { return p.team }

type fakeWorld struct {
	players       []*fakePlayer
	kicked        []string
	announcements []string
}

func (w *fakeWorld) FindPlayer(query string) Player {
	for _, p := range w.players {
		if strings.Contains(strings.ToLower(p.name), strings.ToLower(query)) {
			return p
		}
	}
	return nil
}

func (w *fakeWorld) Players() []Player {
	out := make([]Player, len(w.players))
	for i, p := range w.players {
		out[i] = p
	}
	return out
}

func (w *fakeWorld) Kick(target Player, reason string) {
	w.kicked = append(w.kicked, target.Name()+": "+reason)
}

func (w *fakeWorld) Announce(text string) {
	w.announcements = append(w.announcements, text)
}

func (w *fakeWorld) SetTeam(target Player, team *int32) {
	target.(*fakePlayer).team = team
}

func testDispatcher(world *fakeWorld) *Dispatcher {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewDispatcher("/", "hunter2", world, log)
}

func TestDispatchIgnoresRegularChat(t *testing.T) {
	d := testDispatcher(&fakeWorld{})
	p := &fakePlayer{name: "Alice"}

	if d.Dispatch(p, "hello everyone") {
		t.Error("plain chat was consumed as a command")
	}
	if d.Dispatch(p, "10/10 would raid again") {
		t.Error("mid-sentence slash was consumed as a command")
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	d := testDispatcher(&fakeWorld{})
	p := &fakePlayer{name: "Alice"}

	if !d.Dispatch(p, "/dance") {
		t.Fatal("command line was not consumed")
	}
	if len(p.messages) != 1 || !strings.Contains(p.messages[0], "Unknown command") {
		t.Errorf("messages = %v", p.messages)
	}
}

func TestLogin(t *testing.T) {
	d := testDispatcher(&fakeWorld{})
	p := &fakePlayer{name: "Alice"}

	d.Dispatch(p, "/login wrong")
	if p.admin {
		t.Fatal("wrong password granted admin")
	}
	d.Dispatch(p, "/login hunter2")
	if !p.admin {
		t.Fatal("right password did not grant admin")
	}
}

func TestAdminOnlyCommandsAreGated(t *testing.T) {
	world := &fakeWorld{}
	world.players = []*fakePlayer{{id: 4, name: "Alice"}, {id: 5, name: "Bob"}}
	d := testDispatcher(world)
	p := world.players[0]

	d.Dispatch(p, "/kick Bob")
	if len(world.kicked) != 0 {
		t.Fatal("non-admin kick went through")
	}
	if !strings.Contains(p.messages[len(p.messages)-1], "/login") {
		t.Errorf("gate message = %q", p.messages[len(p.messages)-1])
	}

	p.admin = true
	d.Dispatch(p, "/kick Bob speedhacking somehow")
	if len(world.kicked) != 1 || world.kicked[0] != "Bob: speedhacking somehow" {
		t.Errorf("kicked = %v", world.kicked)
	}
}

func TestTeleport(t *testing.T) {
	world := &fakeWorld{}
	world.players = []*fakePlayer{
		{id: 4, name: "Alice", admin: true},
		{id: 5, name: "Bob", position: protocol.QVector3{X: 100, Y: 200, Z: 300}},
	}
	d := testDispatcher(world)

	d.Dispatch(world.players[0], "/tp bob")
	if world.players[0].position != world.players[1].position {
		t.Errorf("position = %+v, want Bob's", world.players[0].position)
	}
}

func TestTeamJoinAndLeave(t *testing.T) {
	world := &fakeWorld{}
	p := &fakePlayer{id: 4, name: "Alice"}
	world.players = []*fakePlayer{p}
	d := testDispatcher(world)

	d.Dispatch(p, "/team 7")
	if p.team == nil || *p.team != 7 {
		t.Fatalf("team = %v, want 7", p.team)
	}

	d.Dispatch(p, "/team leave")
	if p.team != nil {
		t.Fatalf("team = %v, want nil", *p.team)
	}

	d.Dispatch(p, "/team blue")
	if p.team != nil {
		t.Error("non-numeric team was accepted")
	}
}

func TestWho(t *testing.T) {
	world := &fakeWorld{}
	world.players = []*fakePlayer{{name: "Alice"}, {name: "Bob"}}
	d := testDispatcher(world)
	p := world.players[0]

	d.Dispatch(p, "/who")
	if got := p.messages[len(p.messages)-1]; got != "Alice, Bob" {
		t.Errorf("who = %q", got)
	}
}
