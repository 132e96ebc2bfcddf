package sim

import (
	"fmt"
	"image/color"
)

// EntityID is a stable identifier, unique for the life of a World. IDs are
// never reused.
type EntityID int

// NoEntity is the zero EntityID; no live entity has it.
const NoEntity EntityID = 0

// Kind is the entity role.
type Kind int

const (
	KindPlayer Kind = iota
	KindNPC
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindNPC:
		return "npc"
	default:
		return "unknown"
	}
}

// Speech is a timed line shown above an entity.
type Speech struct {
	Text  string
	Ticks int // remaining display ticks
}

// Active reports whether the line is still on screen.
func (s Speech) Active() bool {
	return s.Text != "" && s.Ticks > 0
}

// Entity is a body plus the optional module its kind needs: players carry a
// Steering controller, NPCs a Mind.
type Entity struct {
	ID    EntityID
	Kind  Kind
	Label string
	Color color.RGBA
	Body

	Active  bool
	Visible bool

	Steering *Steering // player only
	Mind     *Mind     // NPC only

	Speech Speech
}

// IsPlayer reports whether e is the player.
func (e *Entity) IsPlayer() bool {
	return e.Kind == KindPlayer
}

// Say shows text above the entity for ticks ticks.
func (e *Entity) Say(text string, ticks int) {
	e.Speech = Speech{Text: text, Ticks: ticks}
}

// Behavior returns the NPC's state, or BehaviorIdle for the player.
func (e *Entity) Behavior() Behavior {
	if e.Mind == nil {
		return BehaviorIdle
	}
	return e.Mind.State
}

// Tag is a short state label for overlays and logs.
func (e *Entity) Tag() string {
	if e.Kind == KindPlayer {
		if e.Steering != nil && e.Steering.FinalApproach {
			return "final"
		}
		if e.Steering != nil && e.Steering.Moving {
			return "moving"
		}
		return "player"
	}
	return e.Behavior().String()
}

func entityLabel(kind Kind, id EntityID) string {
	if kind == KindPlayer {
		return "P"
	}
	return fmt.Sprintf("N%d", id)
}

// Population is read access to the live entity set.
type Population interface {
	Lookup(id EntityID) (*Entity, bool)
	Entities() []*Entity
}
