package relay

import (
	"time"

	"github.com/opencw/brazier/internal/protocol"
)

// poisonTickInterval is the cadence the client expects poison damage at.
const poisonTickInterval = 500 * time.Millisecond

// runPoisonTicker delivers the periodic damage of a poison effect to its
// victim. The client renders the effect but does not apply the damage
// itself, so the relay has to. Runs as its own goroutine per application;
// it stops early when the victim's session dies.
func runPoisonTicker(victim *Session, source protocol.CreatureID, damage float32, duration int32) {
	ticks := int(duration/int32(poisonTickInterval/time.Millisecond)) + 1

	srv := victim.server

	for i := 0; i < ticks; i++ {
		time.Sleep(poisonTickInterval)
		if victim.shouldDisconnect.Load() {
			return
		}

		// Tick damage goes through the same rewrite as a landed attack.
		// The poisoner may have left by now; a blank attacker takes no
		// weapon or class multipliers.
		var attacker protocol.CreatureData
		if poisoner := srv.findByID(source); poisoner != nil {
			attacker = poisoner.Creature()
		}
		target := victim.Creature()

		position := victim.Position()
		hit := protocol.Hit{
			Attacker:  source,
			Target:    victim.ID(),
			Damage:    damage,
			Kind:      protocol.HitNormal,
			Position:  position,
			ShowLight: 1,
		}
		if !srv.balancer.adjustHit(&hit, &attacker, &target) {
			continue
		}

		// The gurgle is for the victim only; broadcasting every tick of
		// every poison would be deafening.
		update := &protocol.WorldUpdate{
			Hits:   []protocol.Hit{hit},
			Sounds: []protocol.SoundEffect{protocol.SoundAt(position, protocol.SoundSlime1)},
		}
		if err := victim.send(update); err != nil {
			return
		}
	}
}
