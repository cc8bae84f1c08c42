package relay

import (
	"fmt"
	"time"

	"github.com/opencw/brazier/internal/game"
	"github.com/opencw/brazier/internal/protocol"
)

// handlePacket dispatches one live-phase packet. A returned error is a
// protocol violation and closes the session; rule violations go through
// the kick path instead.
func (s *Session) handlePacket(packet protocol.Packet) error {
	switch p := packet.(type) {
	case *protocol.CreatureUpdate:
		return s.handleCreatureUpdate(p)
	case *protocol.Hit:
		return s.handleHit(p)
	case *protocol.StatusEffect:
		return s.handleStatusEffect(p)
	case *protocol.Projectile:
		s.server.Broadcast(p, s)
		return nil
	case *protocol.ChatMessageFromClient:
		s.handleChat(p.Text)
		return nil
	case *protocol.CreatureAction:
		return s.handleAction(p)
	case *protocol.CurrentChunk:
		s.sendChunkState(p.Chunk)
		return nil
	case *protocol.ZoneDiscovery:
		s.log.WithField("zone", p.Zone).Debug("zone discovered")
		return nil
	case *protocol.RegionDiscovery:
		s.log.WithField("region", p.Region).Debug("region discovered")
		return nil
	case *protocol.CurrentBiome:
		return nil
	default:
		return fmt.Errorf("packet id %d is not valid after the handshake", packet.PacketID())
	}
}

func (s *Session) handleCreatureUpdate(diff *protocol.CreatureUpdate) error {
	if diff.ID != s.id {
		return fmt.Errorf("update for creature %d from session %d", diff.ID, s.id)
	}

	prev := s.Creature()
	updated := prev
	diff.ApplyTo(&updated)

	if !s.acImmune.Load() {
		if err := validate(&prev, &updated); err != nil {
			s.server.reportViolation(s, err)
			s.Kick(err.Error())
			return nil
		}
		if diff.Mask.Has(protocol.FieldComboTimeout) {
			if !s.clock.observe(time.Now(), prev.Health, updated.Health, prev.ComboTimeout, updated.ComboTimeout) {
				err := fmt.Errorf("timewarp.clockdesync")
				s.server.reportViolation(s, err)
				s.Kick(err.Error())
				return nil
			}
		}
	}

	s.setCreature(updated)
	s.trackAirtime(&updated)

	if prev.Health > 0 && updated.Health == 0 {
		s.server.Announce(s.server.feed.announcement(updated.Name(), s.id))
	}

	if filtered := filterUpdate(&prev, diff); filtered != nil {
		s.server.broadcastCreatureUpdate(s, filtered)
	}
	return nil
}

func (s *Session) handleHit(hit *protocol.Hit) error {
	if hit.Attacker != s.id {
		return fmt.Errorf("hit from creature %d sent by session %d", hit.Attacker, s.id)
	}

	target := s.server.findByID(hit.Target)
	if target == nil {
		// The target left or never existed; nothing to relay.
		return nil
	}

	attacker := s.Creature()
	targetState := target.Creature()

	if !s.server.balancer.adjustHit(hit, &attacker, &targetState) {
		return nil
	}

	if hit.Kind == protocol.HitBlock {
		// The attacker's client depletes the target's block gauge on its
		// own; reassert the authoritative value so it doesn't drain.
		gauge := &protocol.CreatureUpdate{ID: target.ID()}
		gauge.Mask.Set(protocol.FieldBlockingGauge)
		gauge.Data.BlockingGauge = targetState.BlockingGauge
		s.trySend(gauge)
	}

	target.trySend(hit)
	if hit.Damage > 0 {
		s.server.feed.recordHit(hit.Target, attacker.Name())
	}

	if sounds := hitSounds(hit, &attacker, &targetState); len(sounds) > 0 {
		s.server.Broadcast(&protocol.WorldUpdate{Sounds: sounds}, s)
	}
	return nil
}

// hitSounds picks the effects heard around a landed hit.
func hitSounds(hit *protocol.Hit, attacker, target *protocol.CreatureData) []protocol.SoundEffect {
	var kinds []protocol.SoundKind

	switch hit.Kind {
	case protocol.HitMiss, protocol.HitDodge:
		return nil
	case protocol.HitBlock:
		if hasShield(target) {
			kinds = append(kinds, protocol.SoundShieldSlam)
		} else {
			kinds = append(kinds, protocol.SoundBlock)
		}
	case protocol.HitAbsorb, protocol.HitInvincible:
		kinds = append(kinds, protocol.SoundMagic02)
	default:
		if hit.Damage <= 0 {
			return nil
		}
		kinds = append(kinds, impactSound(attacker))
		kinds = append(kinds, game.GroanSound(target.Race))
		if hit.Critical != 0 {
			kinds = append(kinds, protocol.SoundSmash1)
		}
		if target.HasPhysicsFlag(protocol.PhysicsSwimming) {
			kinds = append(kinds, protocol.SoundWatersplash)
		}
	}

	sounds := make([]protocol.SoundEffect, len(kinds))
	for i, kind := range kinds {
		sounds[i] = protocol.SoundAt(hit.Position, kind)
	}
	return sounds
}

func impactSound(attacker *protocol.CreatureData) protocol.SoundKind {
	weapon, ok := attackWeapon(attacker)
	if !ok {
		return protocol.SoundPunch1
	}
	switch weapon {
	case protocol.WeaponSword, protocol.WeaponDagger, protocol.WeaponAxe:
		return protocol.SoundBlade1
	case protocol.WeaponLongsword, protocol.WeaponGreatsword, protocol.WeaponGreataxe:
		return protocol.SoundLongBlade1
	case protocol.WeaponBow, protocol.WeaponCrossbow:
		return protocol.SoundHitArrow
	case protocol.WeaponMace, protocol.WeaponGreatmace:
		return protocol.SoundSlam
	case protocol.WeaponStaff, protocol.WeaponWand, protocol.WeaponBracelet:
		return protocol.SoundMagic01
	case protocol.WeaponFist:
		return protocol.SoundPunch1
	}
	return protocol.SoundHit
}

func (s *Session) handleStatusEffect(effect *protocol.StatusEffect) error {
	if effect.Source != s.id {
		return fmt.Errorf("status effect from creature %d sent by session %d", effect.Source, s.id)
	}

	sibling := s.server.balancer.adjustStatusEffect(effect)

	// The sender's client has already applied the effect locally; only
	// the other sessions need to hear about it.
	s.server.Broadcast(effect, s)
	if sibling != nil {
		s.server.Broadcast(sibling, s)
	}

	if effect.Kind == protocol.StatusPoison {
		if victim := s.server.findByID(effect.Target); victim != nil {
			go runPoisonTicker(victim, effect.Source, effect.Modifier, effect.Duration)
		}
	}
	return nil
}

func (s *Session) handleChat(text string) {
	if text == "" {
		return
	}
	if s.server.commands.Dispatch(s, text) {
		return
	}

	s.log.WithField("name", s.Name()).Info("chat: " + text)
	s.server.bridge.PublishChat(s.Name(), text)
	for _, other := range s.server.Sessions() {
		other.trySend(&protocol.ChatMessageFromServer{Source: s.id, Text: text})
	}
}

func (s *Session) handleAction(action *protocol.CreatureAction) error {
	zone := protocol.Zone{X: action.ZoneX, Y: action.ZoneY}

	switch action.Kind {
	case protocol.ActionPickUp:
		taken, remaining, ok := s.server.loot.pickup(zone, action.Index)
		if !ok {
			// Someone else got there first; the stale index is harmless.
			return nil
		}
		s.server.Broadcast(&protocol.WorldUpdate{
			ChunkLoots: []protocol.ChunkLoot{{Zone: zone, Items: remaining}},
		}, nil)
		s.trySend(&protocol.WorldUpdate{
			Pickups: []protocol.Pickup{{ID: s.id, Item: taken.Item}},
		})

	case protocol.ActionDrop:
		dropped := protocol.GroundItem{
			Item:     action.Item,
			Position: s.Position(),
			Scale:    0.1,
		}
		items := s.server.loot.drop(zone, dropped)
		s.server.Broadcast(&protocol.WorldUpdate{
			ChunkLoots:  []protocol.ChunkLoot{{Zone: zone, Items: items}},
			LootBeacons: []protocol.ZoneLootBeacon{{Zone: zone}},
		}, nil)

	default:
		s.log.WithField("kind", action.Kind).Debug("unhandled creature action")
	}
	return nil
}

// sendChunkState pushes the loot and block edits of a zone the client
// just entered.
func (s *Session) sendChunkState(zone protocol.Zone) {
	items := s.server.loot.chunk(zone)
	edits := s.server.blocks.Edits(zone)
	if len(items) == 0 && len(edits) == 0 {
		return
	}
	update := &protocol.WorldUpdate{WorldEdits: edits}
	if len(items) > 0 {
		update.ChunkLoots = []protocol.ChunkLoot{{Zone: zone, Items: items}}
	}
	s.trySend(update)
}
