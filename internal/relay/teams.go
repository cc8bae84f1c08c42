package relay

import (
	"math"

	"github.com/opencw/brazier/internal/protocol"
)

// mapHeadOffset displaces a player's id to form the id of their map-head,
// the ghost creature non-teammates see on the minimap.
// TODO: claim these from the id pool instead once ids can be reserved in
// ranges; the offset collides after 2496 concurrent players.
const mapHeadOffset = 2500

// heartDuration is the Affection duration used when two players become
// teammates. Clients treat it as "until told otherwise".
const heartDuration = math.MaxInt32

func sameTeamIDs(a, b *int32) bool {
	return a != nil && b != nil && *a == *b
}

// isTeammate reports whether two sessions share a team.
func isTeammate(a, b *Session) bool {
	return sameTeamIDs(a.Team(), b.Team())
}

// displayMask covers the creature fields mirrored onto the team HUD.
var displayMask = func() protocol.FieldMask {
	var m protocol.FieldMask
	for _, field := range []int{
		protocol.FieldAppearance,
		protocol.FieldOccupation,
		protocol.FieldSpecialization,
		protocol.FieldHealth,
		protocol.FieldMultipliers,
		protocol.FieldLevel,
		protocol.FieldEquipment,
		protocol.FieldName,
	} {
		m.Set(field)
	}
	return m
}()

// broadcastCreatureUpdate fans a creature diff out to every other session.
// Teammates get the diff as-is; everyone else gets a clone with the
// friendly-fire flag forced on, which is what makes the client offer the
// attack affordance against them.
func (srv *Server) broadcastCreatureUpdate(from *Session, diff *protocol.CreatureUpdate) {
	mirror := from.Creature()

	flags := mirror.CreatureFlags
	if diff.Mask.Has(protocol.FieldCreatureFlags) {
		flags = diff.Data.CreatureFlags
	}

	hostile := *diff
	hostile.Mask.Set(protocol.FieldCreatureFlags)
	hostile.Data.CreatureFlags = flags | protocol.FlagFriendlyFire

	var head *protocol.CreatureUpdate
	if diff.Mask.Has(protocol.FieldPosition) {
		head = mapHeadUpdate(from.ID(), diff, &mirror, from.headNeutral)
		from.headNeutral = !from.headNeutral
	}

	for _, other := range srv.Sessions() {
		if other == from {
			continue
		}
		if isTeammate(from, other) {
			other.trySend(diff)
			continue
		}
		other.trySend(&hostile)
		if head != nil {
			other.trySend(head)
		}
	}

	if team := from.Team(); team != nil && diff.Mask&displayMask != 0 {
		srv.refreshTeamDisplay(*team)
	}
}

// mapHeadUpdate synthesizes the minimap ghost for a position diff: a
// harmless zero-health creature at the same spot. The affiliation
// alternates between player and neutral on successive updates; the
// client only redraws the minimap icon when it changes.
func mapHeadUpdate(id protocol.CreatureID, diff *protocol.CreatureUpdate, mirror *protocol.CreatureData, neutral bool) *protocol.CreatureUpdate {
	head := &protocol.CreatureUpdate{ID: id + mapHeadOffset}
	head.Mask.Set(protocol.FieldPosition)
	head.Mask.Set(protocol.FieldRotation)
	head.Mask.Set(protocol.FieldAppearance)
	head.Mask.Set(protocol.FieldHealth)
	head.Mask.Set(protocol.FieldAffiliation)
	head.Data.Position = diff.Data.Position
	head.Data.Rotation = mirror.Rotation
	head.Data.Appearance = mirror.Appearance
	head.Data.Health = 0
	head.Data.Affiliation = protocol.AffiliationPlayer
	if neutral {
		head.Data.Affiliation = protocol.AffiliationNeutral
	}
	return head
}

// setSessionTeam moves a session between teams and repaints the state
// every affected pair of clients holds about each other: the
// friendly-fire flag and the heart marker, in both directions, plus the
// team HUD of the old and new team.
func (srv *Server) setSessionTeam(s *Session, team *int32) {
	oldTeam := s.Team()
	s.setTeam(team)

	for _, other := range srv.Sessions() {
		if other == s {
			continue
		}
		was := sameTeamIDs(oldTeam, other.Team())
		now := sameTeamIDs(team, other.Team())
		if was == now {
			continue
		}
		sendTeamPair(other, s, now)
		sendTeamPair(s, other, now)
	}

	if oldTeam != nil {
		srv.refreshTeamDisplay(*oldTeam)
	}
	if team != nil {
		srv.refreshTeamDisplay(*team)
	}
}

// sendTeamPair tells viewer how to render subject after a team change:
// whether to offer the attack affordance and whether to draw the heart.
func sendTeamPair(viewer, subject *Session, teammate bool) {
	mirror := subject.Creature()

	flags := &protocol.CreatureUpdate{ID: subject.ID()}
	flags.Mask.Set(protocol.FieldCreatureFlags)
	flags.Data.CreatureFlags = mirror.CreatureFlags
	if !teammate {
		flags.Data.CreatureFlags |= protocol.FlagFriendlyFire
	}
	viewer.trySend(flags)

	heart := &protocol.StatusEffect{
		Source: subject.ID(),
		Target: subject.ID(),
		Kind:   protocol.StatusAffection,
	}
	if teammate {
		heart.Duration = heartDuration
	}
	viewer.trySend(heart)
}

// teamMembers returns the sessions currently on a team, registry order.
func (srv *Server) teamMembers(team int32) []*Session {
	var members []*Session
	for _, s := range srv.Sessions() {
		if t := s.Team(); t != nil && *t == team {
			members = append(members, s)
		}
	}
	return members
}

// refreshTeamDisplay repaints the three HUD slots of every member of a
// team. Slot n of a member's HUD mirrors their n-th teammate; unused
// slots get the headless placeholder.
func (srv *Server) refreshTeamDisplay(team int32) {
	members := srv.teamMembers(team)

	for _, member := range members {
		slot := 0
		for _, teammate := range members {
			if teammate == member || slot >= 3 {
				continue
			}
			member.trySend(displaySlotUpdate(protocol.TeamDisplaySlot1+protocol.CreatureID(slot), teammate))
			slot++
		}
		for ; slot < 3; slot++ {
			member.trySend(displaySlotPlaceholder(protocol.TeamDisplaySlot1 + protocol.CreatureID(slot)))
		}
	}
}

func displaySlotUpdate(slot protocol.CreatureID, teammate *Session) *protocol.CreatureUpdate {
	mirror := teammate.Creature()
	update := &protocol.CreatureUpdate{ID: slot, Mask: displayMask}
	update.Data.Appearance = mirror.Appearance
	update.Data.Occupation = mirror.Occupation
	update.Data.Specialization = mirror.Specialization
	update.Data.Health = mirror.Health
	update.Data.Multipliers = mirror.Multipliers
	update.Data.Level = mirror.Level
	update.Data.Equipment = mirror.Equipment
	update.Data.NameBytes = mirror.NameBytes
	return update
}

// displaySlotPlaceholder blanks a HUD slot. Model id -1 renders nothing.
func displaySlotPlaceholder(slot protocol.CreatureID) *protocol.CreatureUpdate {
	update := &protocol.CreatureUpdate{ID: slot}
	update.Mask.Set(protocol.FieldAppearance)
	update.Mask.Set(protocol.FieldHealth)
	update.Data.Appearance.HeadModel = -1
	update.Data.Appearance.HairModel = -1
	return update
}
