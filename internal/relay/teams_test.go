package relay

import (
	"net"
	"testing"

	"github.com/opencw/brazier/internal/protocol"
)

// joinPair connects two players and drains the join broadcast the first
// client hears about the second.
func joinPair(t *testing.T, srv *Server) (first, second net.Conn, a, b *Session) {
	t.Helper()
	first, firstID := joinSession(t, srv, 0)
	waitForPlayers(t, srv, 1)
	second, secondID := joinSession(t, srv, 1)
	readServerPacket(t, first, &protocol.CreatureUpdate{})
	readServerPacket(t, first, &protocol.CreatureUpdate{})
	waitForPlayers(t, srv, 2)
	return first, second, srv.findByID(firstID), srv.findByID(secondID)
}

// formTeam puts both sessions on one team, consuming the repaint traffic
// each client receives along the way.
func formTeam(t *testing.T, srv *Server, a, b *Session, first, second net.Conn, team int32) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		srv.setSessionTeam(a, &team)
		srv.setSessionTeam(b, &team)
		close(done)
	}()
	for i := 0; i < 3; i++ {
		readServerPacket(t, first, &protocol.CreatureUpdate{})
	}
	readServerPacket(t, first, &protocol.CreatureUpdate{})
	readServerPacket(t, first, &protocol.StatusEffect{})
	readServerPacket(t, second, &protocol.CreatureUpdate{})
	readServerPacket(t, second, &protocol.StatusEffect{})
	for i := 0; i < 3; i++ {
		readServerPacket(t, first, &protocol.CreatureUpdate{})
	}
	for i := 0; i < 3; i++ {
		readServerPacket(t, second, &protocol.CreatureUpdate{})
	}
	<-done
}

func TestTeamCommandRepaintsBothClients(t *testing.T) {
	srv := testServer(t)
	first, second, a, b := joinPair(t, srv)

	// The founder of a one-member team gets three blank HUD slots and
	// the confirmation line.
	if err := protocol.WritePacket(first, &protocol.ChatMessageFromClient{Text: "/team 7"}); err != nil {
		t.Fatalf("writing chat: %v", err)
	}
	for i := 0; i < 3; i++ {
		var slot protocol.CreatureUpdate
		readServerPacket(t, first, &slot)
		if want := protocol.TeamDisplaySlot1 + protocol.CreatureID(i); slot.ID != want {
			t.Fatalf("slot id = %d, want %d", slot.ID, want)
		}
		if slot.Data.Appearance.HeadModel != -1 {
			t.Errorf("slot %d is not blanked", i)
		}
	}
	var confirm protocol.ChatMessageFromServer
	readServerPacket(t, first, &confirm)
	if confirm.Text != "You joined team 7" {
		t.Errorf("confirmation = %q", confirm.Text)
	}

	if err := protocol.WritePacket(second, &protocol.ChatMessageFromClient{Text: "/team 7"}); err != nil {
		t.Fatalf("writing chat: %v", err)
	}

	// Each side hears the other's flags without friendly fire, then the
	// heart marker.
	assertPair := func(conn net.Conn, subject protocol.CreatureID) {
		t.Helper()
		var flags protocol.CreatureUpdate
		readServerPacket(t, conn, &flags)
		if flags.ID != subject {
			t.Fatalf("flags update for creature %d, want %d", flags.ID, subject)
		}
		if !flags.Mask.Has(protocol.FieldCreatureFlags) {
			t.Fatal("team repaint does not carry creature flags")
		}
		if flags.Data.CreatureFlags&protocol.FlagFriendlyFire != 0 {
			t.Error("teammate still carries the friendly-fire flag")
		}
		var heart protocol.StatusEffect
		readServerPacket(t, conn, &heart)
		if heart.Kind != protocol.StatusAffection {
			t.Fatalf("effect kind = %d, want affection", heart.Kind)
		}
		if heart.Source != subject || heart.Target != subject {
			t.Errorf("heart on %d->%d, want %d", heart.Source, heart.Target, subject)
		}
		if heart.Duration != heartDuration {
			t.Errorf("heart duration = %d, want %d", heart.Duration, int32(heartDuration))
		}
	}
	assertPair(first, b.ID())
	assertPair(second, a.ID())

	// Both HUDs refresh: the teammate in the first slot, the rest blanked.
	assertHUD := func(conn net.Conn, teammate *Session) {
		t.Helper()
		var slot protocol.CreatureUpdate
		readServerPacket(t, conn, &slot)
		if slot.ID != protocol.TeamDisplaySlot1 {
			t.Fatalf("first slot id = %d", slot.ID)
		}
		if slot.Mask != displayMask {
			t.Errorf("slot mask = %#x, want %#x", uint64(slot.Mask), uint64(displayMask))
		}
		mirror := teammate.Creature()
		if slot.Data.NameBytes != mirror.NameBytes {
			t.Errorf("slot name = %q, want %q", slot.Data.Name(), mirror.Name())
		}
		if slot.Data.Health != mirror.Health {
			t.Errorf("slot health = %v, want %v", slot.Data.Health, mirror.Health)
		}
		for i := 1; i < 3; i++ {
			var blank protocol.CreatureUpdate
			readServerPacket(t, conn, &blank)
			if blank.Data.Appearance.HeadModel != -1 {
				t.Errorf("slot %d is not blanked", i)
			}
		}
	}
	assertHUD(first, b)
	assertHUD(second, a)

	readServerPacket(t, second, &confirm)
	if confirm.Text != "You joined team 7" {
		t.Errorf("confirmation = %q", confirm.Text)
	}
}

func TestTeammateReceivesUnmodifiedDiff(t *testing.T) {
	srv := testServer(t)
	first, second, a, b := joinPair(t, srv)
	formTeam(t, srv, a, b, first, second, 3)

	diff := &protocol.CreatureUpdate{ID: b.ID()}
	diff.Mask.Set(protocol.FieldCreatureFlags)
	go srv.broadcastCreatureUpdate(b, diff)

	var relayed protocol.CreatureUpdate
	readServerPacket(t, first, &relayed)
	if relayed.ID != b.ID() {
		t.Fatalf("relayed update for creature %d, want %d", relayed.ID, b.ID())
	}
	if relayed.Mask != diff.Mask {
		t.Errorf("relayed mask = %#x, want %#x", uint64(relayed.Mask), uint64(diff.Mask))
	}
	if relayed.Data.CreatureFlags&protocol.FlagFriendlyFire != 0 {
		t.Error("teammate diff had the friendly-fire flag forced on")
	}
}

func TestMapHeadAffiliationToggles(t *testing.T) {
	srv := testServer(t)
	first, _, _, b := joinPair(t, srv)

	diff := &protocol.CreatureUpdate{ID: b.ID()}
	diff.Mask.Set(protocol.FieldPosition)
	diff.Data.Position = protocol.QVector3{X: 1 << 20, Y: 1 << 20, Z: 1 << 20}

	var affiliations [2]protocol.Affiliation
	for i := range affiliations {
		done := make(chan struct{})
		go func() {
			srv.broadcastCreatureUpdate(b, diff)
			close(done)
		}()
		readServerPacket(t, first, &protocol.CreatureUpdate{})
		var head protocol.CreatureUpdate
		readServerPacket(t, first, &head)
		<-done
		if head.ID != b.ID()+mapHeadOffset {
			t.Fatalf("map-head id = %d, want %d", head.ID, b.ID()+mapHeadOffset)
		}
		affiliations[i] = head.Data.Affiliation
	}
	if affiliations[0] == affiliations[1] {
		t.Errorf("map-head affiliation did not toggle: %v", affiliations)
	}
}

func TestTeamLeaveRestoresHostility(t *testing.T) {
	srv := testServer(t)
	first, second, a, b := joinPair(t, srv)
	formTeam(t, srv, a, b, first, second, 9)

	go srv.setSessionTeam(b, nil)

	// The stayer sees the leaver hostile again and the heart cleared.
	var flags protocol.CreatureUpdate
	readServerPacket(t, first, &flags)
	if flags.ID != b.ID() {
		t.Fatalf("flags update for creature %d, want %d", flags.ID, b.ID())
	}
	if flags.Data.CreatureFlags&protocol.FlagFriendlyFire == 0 {
		t.Error("former teammate is missing the friendly-fire flag")
	}
	var heart protocol.StatusEffect
	readServerPacket(t, first, &heart)
	if heart.Kind != protocol.StatusAffection || heart.Duration != 0 {
		t.Errorf("heart not cleared: kind=%d duration=%d", heart.Kind, heart.Duration)
	}

	// And symmetrically for the leaver.
	readServerPacket(t, second, &flags)
	readServerPacket(t, second, &heart)
	if heart.Duration != 0 {
		t.Errorf("leaver's heart not cleared: duration=%d", heart.Duration)
	}

	// The shrunken team repaints its HUD.
	for i := 0; i < 3; i++ {
		var blank protocol.CreatureUpdate
		readServerPacket(t, first, &blank)
		if blank.Data.Appearance.HeadModel != -1 {
			t.Errorf("slot %d is not blanked", i)
		}
	}
}
