package relay

import (
	"time"

	"github.com/opencw/brazier/internal/protocol"
)

// Rogues chain their aerial moves to stay airborne indefinitely, which
// makes them unhittable in PvP. The punisher warns after warnAirtime and
// slams them with a self-stun after maxAirtime.
const (
	warnAirtime = 3 * time.Second
	maxAirtime  = 5 * time.Second

	airtimeStun = 3000 * time.Millisecond
)

// trackAirtime is called from the reader loop after every state commit.
func (s *Session) trackAirtime(cur *protocol.CreatureData) {
	if cur.Occupation != protocol.OccupationRogue ||
		cur.HasPhysicsFlag(protocol.PhysicsOnGround) ||
		cur.HasPhysicsFlag(protocol.PhysicsSwimming) ||
		cur.HasFlag(protocol.FlagGliding) ||
		cur.HasFlag(protocol.FlagClimbing) ||
		cur.Health == 0 {
		s.airborneSince = time.Time{}
		s.airStage = 0
		return
	}

	if s.airborneSince.IsZero() {
		s.airborneSince = time.Now()
		return
	}
	airborne := time.Since(s.airborneSince)

	if s.airStage == 0 && airborne > warnAirtime {
		s.airStage = 1
		anger := &protocol.StatusEffect{
			Source:   s.id,
			Target:   s.id,
			Kind:     protocol.StatusAnger,
			Duration: int32((maxAirtime - warnAirtime) / time.Millisecond),
		}
		s.trySend(anger)
		s.trySend(&protocol.WorldUpdate{
			Sounds: []protocol.SoundEffect{protocol.SoundAt(cur.Position, protocol.SoundMagic01)},
		})
		return
	}

	if s.airStage == 1 && airborne > maxAirtime {
		s.airborneSince = time.Time{}
		s.airStage = 0
		slam := &protocol.Hit{
			Attacker: s.id,
			Target:   s.id,
			StunTime: int32(airtimeStun / time.Millisecond),
			Kind:     protocol.HitNormal,
			Position: cur.Position,
		}
		s.trySend(slam)
		s.trySend(&protocol.WorldUpdate{
			Sounds: []protocol.SoundEffect{protocol.SoundAt(cur.Position, protocol.SoundSpikeTrap)},
		})
		s.SendMessage("Gravity called: stay out of the air.")
	}
}
