package relay

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/opencw/brazier/internal/core"
	"github.com/opencw/brazier/internal/protocol"
)

func TestPoisonTickRidesBalancedWorldUpdate(t *testing.T) {
	cfg := &core.Config{}
	cfg.GameServer.ProtocolVersion = 3
	cfg.GameServer.MapSeed = 26879
	cfg.GameServer.CommandPrefix = "/"
	cfg.Balancer.GlobalDamage = 2

	log := logrus.New()
	log.SetOutput(io.Discard)
	srv := NewServer(cfg, log, nil, nil)

	conn, id := joinSession(t, srv, 0)
	waitForPlayers(t, srv, 1)
	victim := srv.findByID(id)
	if victim == nil {
		t.Fatal("victim session not registered")
	}

	go runPoisonTicker(victim, 99, 10, 0)

	var update protocol.WorldUpdate
	readServerPacket(t, conn, &update)
	if len(update.Hits) != 1 {
		t.Fatalf("tick carried %d hits, want 1", len(update.Hits))
	}
	hit := update.Hits[0]
	if hit.Attacker != 99 || hit.Target != id {
		t.Errorf("tick hit %d->%d, want 99->%d", hit.Attacker, hit.Target, id)
	}
	if hit.Damage != 20 {
		t.Errorf("tick damage = %v, want 20", hit.Damage)
	}
	if hit.Kind != protocol.HitNormal {
		t.Errorf("tick hit kind = %d, want normal", hit.Kind)
	}
	if hit.ShowLight != 1 {
		t.Error("tick hit does not flash")
	}
	if len(update.Sounds) != 1 {
		t.Errorf("tick carried %d sounds, want 1", len(update.Sounds))
	}
}
