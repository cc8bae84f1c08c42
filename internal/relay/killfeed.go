package relay

import (
	"fmt"
	"strconv"
	"time"

	"github.com/opencw/brazier/internal/protocol"
	"github.com/patrickmn/go-cache"
)

// attackerTTL is how long after the last hit a death is still credited
// to the attacker.
const attackerTTL = time.Second

// killFeed turns deaths into chat announcements. Every delivered hit
// records its source against the victim; a death within the window is a
// kill, one outside it a plain death.
type killFeed struct {
	lastAttacker *cache.Cache
}

func newKillFeed() *killFeed {
	return &killFeed{lastAttacker: cache.New(attackerTTL, time.Minute)}
}

func feedKey(victim protocol.CreatureID) string {
	return strconv.FormatInt(int64(victim), 10)
}

func (f *killFeed) recordHit(victim protocol.CreatureID, attackerName string) {
	f.lastAttacker.SetDefault(feedKey(victim), attackerName)
}

// announcement returns the kill feed line for a death.
func (f *killFeed) announcement(victimName string, victim protocol.CreatureID) string {
	if name, found := f.lastAttacker.Get(feedKey(victim)); found {
		return fmt.Sprintf("%s killed %s", name, victimName)
	}
	return fmt.Sprintf("%s died", victimName)
}
