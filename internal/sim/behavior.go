package sim

import (
	"math"
	"math/rand"
)

// Behavior is an NPC's high-level state.
type Behavior int

const (
	BehaviorIdle    Behavior = iota // rest state, friction only
	BehaviorWander                  // random strolling, scans for others
	BehaviorFollow                  // keeps follow distance from a leader
	BehaviorFlee                    // runs from the player
	BehaviorTalking                 // in a conversation with a partner
)

func (b Behavior) String() string {
	switch b {
	case BehaviorIdle:
		return "idle"
	case BehaviorWander:
		return "wander"
	case BehaviorFollow:
		return "follow"
	case BehaviorFlee:
		return "flee"
	case BehaviorTalking:
		return "talking"
	default:
		return "unknown"
	}
}

// AllBehaviors lists every state in declaration order.
var AllBehaviors = []Behavior{BehaviorIdle, BehaviorWander, BehaviorFollow, BehaviorFlee, BehaviorTalking}

// Mind is the per-NPC behaviour state. Target and Partner are ids resolved
// through the Population each tick; a failed lookup means the other entity
// is gone.
type Mind struct {
	State   Behavior
	Target  EntityID // follow leader or flee threat
	Partner EntityID // conversation partner

	WanderTarget    Vec2
	HasWanderTarget bool
	WanderTimer     int
	WanderInterval  int

	DetectionRadius float64
	FollowDistance  float64
	FleeDistance    float64
}

// Brain runs the NPC state machine. It holds no per-NPC state; the shared
// group and conversation tables are passed in explicitly.
type Brain struct {
	cfg BehaviorConfig
	rng *rand.Rand

	// comparisons counts candidate distance checks made by scans since the
	// last reset. Every wandering NPC looks at every other entity, so this
	// grows with the square of the population.
	comparisons int
}

// NewBrain creates a brain drawing randomness from rng.
func NewBrain(cfg BehaviorConfig, rng *rand.Rand) *Brain {
	return &Brain{cfg: cfg, rng: rng}
}

// Think runs one tick of self's behaviour: the action for the current state,
// then the detection scan if the NPC is (still) wandering. It only changes
// velocity; integration is the caller's job.
func (br *Brain) Think(self *Entity, pop Population, reg *Registry) {
	m := self.Mind
	if m == nil {
		return
	}
	switch m.State {
	case BehaviorIdle:
	case BehaviorWander:
		br.wander(self, reg)
	case BehaviorFollow:
		br.follow(self, pop, reg)
	case BehaviorFlee:
		br.flee(self, pop)
	case BehaviorTalking:
		br.talk(self, pop, reg)
	}
	if m.State == BehaviorWander {
		br.scan(self, pop, reg)
	}
}

func (br *Brain) wander(self *Entity, reg *Registry) {
	m := self.Mind
	if reg.HasFollowers(self.ID) && br.rng.Float64() < br.cfg.WanderSuppressChance {
		return
	}
	m.WanderTimer--
	if !m.HasWanderTarget || m.WanderTimer <= 0 {
		angle := br.rng.Float64() * 2 * math.Pi
		dist := br.cfg.WanderDistMin + br.rng.Float64()*(br.cfg.WanderDistMax-br.cfg.WanderDistMin)
		m.WanderTarget = self.Pos.Add(V(math.Cos(angle), math.Sin(angle)).Scale(dist))
		m.HasWanderTarget = true
		m.WanderTimer = m.WanderInterval
	}
	if self.MoveTowards(m.WanderTarget, self.Accel) {
		m.HasWanderTarget = false
	}
}

// keepBand seeks toward other beyond the follow distance and pushes away
// inside the inner band. It reports whether self sits in the dead-band.
func (br *Brain) keepBand(self, other *Entity) bool {
	m := self.Mind
	delta := other.Pos.Sub(self.Pos)
	dist := delta.Len()
	switch {
	case dist > m.FollowDistance:
		self.MoveTowards(other.Pos, self.Accel)
		return false
	case dist < m.FollowDistance*br.cfg.FollowBandInner:
		if dist > 0 {
			self.ApplyForce(delta.Scale(-self.Accel / dist))
		}
		return false
	default:
		return true
	}
}

func (br *Brain) follow(self *Entity, pop Population, reg *Registry) {
	leader, ok := pop.Lookup(self.Mind.Target)
	if !ok {
		br.dropFollow(self, reg)
		return
	}
	br.keepBand(self, leader)
}

func (br *Brain) flee(self *Entity, pop Population) {
	m := self.Mind
	threat, ok := pop.Lookup(m.Target)
	if !ok {
		m.State = BehaviorWander
		m.Target = NoEntity
		return
	}
	delta := threat.Pos.Sub(self.Pos)
	dist := delta.Len()
	switch {
	case dist < m.FleeDistance:
		if dist > 0 {
			self.ApplyForce(delta.Scale(-self.Accel * br.cfg.FleeBoost / dist))
		}
	case dist > m.FleeDistance*br.cfg.FleeReleaseFactor:
		m.State = BehaviorWander
		m.Target = NoEntity
	}
}

func (br *Brain) talk(self *Entity, pop Population, reg *Registry) {
	m := self.Mind
	partner, ok := pop.Lookup(m.Partner)
	_, _, inConvo := reg.ConversationOf(self.ID)
	if !ok || !inConvo {
		br.leaveConversation(self, pop, reg)
		return
	}
	if br.keepBand(self, partner) {
		self.Vel = self.Vel.Scale(br.cfg.TalkSettleFriction)
	}
}

// leaveConversation handles a conversation that ended underneath self (its
// partner vanished or the registry entry was dropped). A follower whose
// leader is still alive goes back to following; everyone else wanders.
func (br *Brain) leaveConversation(self *Entity, pop Population, reg *Registry) {
	m := self.Mind
	m.Partner = NoEntity
	if leader, ok := reg.LeaderOf(self.ID); ok && leader == m.Target {
		if _, alive := pop.Lookup(leader); alive {
			m.State = BehaviorFollow
			return
		}
	}
	br.dropFollow(self, reg)
}

// dropFollow dissolves self's follow edge, if any, and reverts to Wander.
func (br *Brain) dropFollow(self *Entity, reg *Registry) {
	m := self.Mind
	if leader, ok := reg.LeaderOf(self.ID); ok {
		reg.RemoveFollower(leader, self.ID)
	}
	m.State = BehaviorWander
	m.Target = NoEntity
	m.Partner = NoEntity
}

// scan looks for the player first (flee), then, unless self already leads a
// group, for an NPC to follow.
func (br *Brain) scan(self *Entity, pop Population, reg *Registry) {
	m := self.Mind
	all := pop.Entities()
	for _, e := range all {
		if e.ID == self.ID || !e.Active || e.Kind != KindPlayer {
			continue
		}
		br.comparisons++
		if self.Pos.Dist(e.Pos) < m.DetectionRadius {
			m.State = BehaviorFlee
			m.Target = e.ID
			m.HasWanderTarget = false
			return
		}
	}
	if reg.HasFollowers(self.ID) {
		// a leader never follows, so groups stay one level deep
		return
	}
	for _, e := range all {
		if e.ID == self.ID || !e.Active || e.Kind != KindNPC {
			continue
		}
		br.comparisons++
		if self.Pos.Dist(e.Pos) >= m.DetectionRadius {
			continue
		}
		if !br.canFollow(e, reg) {
			continue
		}
		if br.rng.Float64() >= br.cfg.FollowChance {
			continue
		}
		br.beginFollow(self, e, reg)
		return
	}
}

// canFollow is the follow-chain guard: the candidate must have no followers,
// and if it follows someone, that leader must have none either.
func (br *Brain) canFollow(candidate *Entity, reg *Registry) bool {
	if reg.HasFollowers(candidate.ID) {
		return false
	}
	if leader, ok := reg.LeaderOf(candidate.ID); ok && reg.HasFollowers(leader) {
		return false
	}
	return true
}

// beginFollow forms the edge self → leader. When it creates the leader's
// group and no conversation is running, both sides start talking.
func (br *Brain) beginFollow(self, leader *Entity, reg *Registry) {
	m := self.Mind
	m.State = BehaviorFollow
	m.Target = leader.ID
	m.HasWanderTarget = false

	first := reg.AddFollower(leader.ID, self.ID)
	if !first || leader.Mind == nil {
		return
	}
	if !reg.StartConversation(leader.ID, self.ID, br.cfg.GreetingTicks) {
		return
	}
	m.State = BehaviorTalking
	m.Partner = leader.ID

	lm := leader.Mind
	lm.State = BehaviorTalking
	lm.Partner = self.ID
	lm.Target = NoEntity
	lm.HasWanderTarget = false
}

// Comparisons returns the scan comparison count and resets it.
func (br *Brain) Comparisons() int {
	n := br.comparisons
	br.comparisons = 0
	return n
}
