package relay

import (
	"sync"

	"github.com/opencw/brazier/internal/protocol"
)

// lootRegistry is the shared ground-item state, an ordered item list per
// zone. Order matters: clients reference ground items by index.
type lootRegistry struct {
	mu    sync.RWMutex
	zones map[protocol.Zone][]protocol.GroundItem
}

func newLootRegistry() *lootRegistry {
	return &lootRegistry{zones: make(map[protocol.Zone][]protocol.GroundItem)}
}

// drop appends an item to a zone and returns the zone's new loot list.
func (l *lootRegistry) drop(zone protocol.Zone, item protocol.GroundItem) []protocol.GroundItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.zones[zone] = append(l.zones[zone], item)
	return append([]protocol.GroundItem(nil), l.zones[zone]...)
}

// pickup removes the item at index from a zone. The second return is
// false when the index is stale, which happens when two players race for
// the same drop.
func (l *lootRegistry) pickup(zone protocol.Zone, index int32) (protocol.GroundItem, []protocol.GroundItem, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	items := l.zones[zone]
	if index < 0 || int(index) >= len(items) {
		return protocol.GroundItem{}, nil, false
	}

	taken := items[index]
	items = append(items[:index], items[index+1:]...)
	if len(items) == 0 {
		delete(l.zones, zone)
	} else {
		l.zones[zone] = items
	}
	return taken, append([]protocol.GroundItem(nil), items...), true
}

// chunk returns a copy of a zone's loot list.
func (l *lootRegistry) chunk(zone protocol.Zone) []protocol.GroundItem {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]protocol.GroundItem(nil), l.zones[zone]...)
}

// beacons lists every zone currently holding loot, for the minimap.
func (l *lootRegistry) beacons() []protocol.ZoneLootBeacon {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]protocol.ZoneLootBeacon, 0, len(l.zones))
	for zone := range l.zones {
		out = append(out, protocol.ZoneLootBeacon{Zone: zone})
	}
	return out
}
