package game

import (
	"sync"

	"github.com/opencw/brazier/internal/protocol"
)

// IDPool hands out creature ids for connecting players. Ids 0 through 3
// are reserved at construction for the server voice and the team display
// slots and are never returned by Claim.
type IDPool struct {
	mu      sync.Mutex
	claimed map[protocol.CreatureID]struct{}
}

func NewIDPool() *IDPool {
	p := &IDPool{claimed: make(map[protocol.CreatureID]struct{})}
	for id := protocol.CreatureID(0); id < protocol.FirstPlayerID; id++ {
		p.claimed[id] = struct{}{}
	}
	return p
}

// Claim returns the smallest non-negative id not currently outstanding.
func (p *IDPool) Claim() protocol.CreatureID {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id := protocol.CreatureID(0); ; id++ {
		if _, taken := p.claimed[id]; !taken {
			p.claimed[id] = struct{}{}
			return id
		}
	}
}

// Free returns an id to the pool. Reserved ids stay claimed.
func (p *IDPool) Free(id protocol.CreatureID) {
	if id < protocol.FirstPlayerID {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.claimed, id)
}
