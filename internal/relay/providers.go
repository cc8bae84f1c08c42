package relay

import (
	"github.com/opencw/brazier/internal/protocol"
)

// NPCProvider supplies the static NPC population. Each update is fanned
// out to every session as it joins, the same way existing players are.
type NPCProvider interface {
	NPCs() []*protocol.CreatureUpdate
}

// BlockProvider supplies persistent block edits for a zone, applied when
// a client reports entering it.
type BlockProvider interface {
	Edits(zone protocol.Zone) []protocol.WorldEdit
}

// emptyWorld is the default provider pair: no NPCs, no edits.
type emptyWorld struct{}

func (emptyWorld) NPCs() []*protocol.CreatureUpdate         { return nil }
func (emptyWorld) Edits(protocol.Zone) []protocol.WorldEdit { return nil }

// SetNPCProvider replaces the NPC source. Call before Serve.
func (srv *Server) SetNPCProvider(p NPCProvider) { srv.npcs = p }

// SetBlockProvider replaces the block edit source. Call before Serve.
func (srv *Server) SetBlockProvider(p BlockProvider) { srv.blocks = p }
