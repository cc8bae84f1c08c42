package game

import (
	"testing"

	"github.com/opencw/brazier/internal/protocol"
)

func TestIDPoolSkipsReservedIDs(t *testing.T) {
	pool := NewIDPool()
	if id := pool.Claim(); id != protocol.FirstPlayerID {
		t.Errorf("first claimed id = %d, expected %d", id, protocol.FirstPlayerID)
	}
}

func TestIDPoolReusesFreedIDs(t *testing.T) {
	pool := NewIDPool()
	first := pool.Claim()
	second := pool.Claim()
	if first == second {
		t.Fatalf("pool handed out id %d twice", first)
	}

	pool.Free(first)
	if id := pool.Claim(); id != first {
		t.Errorf("claim after free = %d, expected the freed id %d", id, first)
	}
	if id := pool.Claim(); id == second {
		t.Errorf("pool handed out id %d while still outstanding", second)
	}
}

func TestIDPoolNeverFreesReservedIDs(t *testing.T) {
	pool := NewIDPool()
	pool.Free(protocol.ServerVoiceID)
	if id := pool.Claim(); id != protocol.FirstPlayerID {
		t.Errorf("claim after freeing a reserved id = %d, expected %d", id, protocol.FirstPlayerID)
	}
}
