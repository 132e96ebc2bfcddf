package sim

import "sort"

// ConvoPhase is the stage of a two-party conversation.
type ConvoPhase int

const (
	ConvoGreeting ConvoPhase = iota // leader about to greet
	ConvoResponse                   // follower about to reply
	ConvoFinished                   // lines spoken, winding down
)

func (p ConvoPhase) String() string {
	switch p {
	case ConvoGreeting:
		return "greeting"
	case ConvoResponse:
		return "response"
	case ConvoFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Conversation is one active exchange, keyed in the registry by its leader.
type Conversation struct {
	Follower  EntityID
	Phase     ConvoPhase
	Countdown int
}

// ConvoEvent reports what the registry did to a conversation during Advance.
type ConvoEvent struct {
	Leader   EntityID
	Follower EntityID
	Key      string // "start", "line", "end", "abort"
	Speaker  EntityID
	Text     string
	Phase    ConvoPhase
}

// Registry is the world-scoped group and conversation bookkeeping shared by
// all NPCs. A leader id is a group key only while it has at least one
// follower.
type Registry struct {
	groups   map[EntityID][]EntityID
	leaderOf map[EntityID]EntityID
	convs    map[EntityID]*Conversation
	started  []ConvoEvent // reported by the next Advance
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		groups:   make(map[EntityID][]EntityID),
		leaderOf: make(map[EntityID]EntityID),
		convs:    make(map[EntityID]*Conversation),
	}
}

// AddFollower records follower under leader. It reports true when this
// created the leader's group. A follower already attached elsewhere is
// detached from its old leader first.
func (r *Registry) AddFollower(leader, follower EntityID) bool {
	if old, ok := r.leaderOf[follower]; ok {
		if old == leader {
			return false
		}
		r.RemoveFollower(old, follower)
	}
	_, existed := r.groups[leader]
	r.groups[leader] = append(r.groups[leader], follower)
	r.leaderOf[follower] = leader
	return !existed
}

// RemoveFollower dissolves the follow edge. The leader's conversation is
// dropped when the departing follower was its partner or the group empties.
// It reports whether the leader's group is gone.
func (r *Registry) RemoveFollower(leader, follower EntityID) bool {
	fs := r.groups[leader]
	for i, f := range fs {
		if f == follower {
			fs = append(fs[:i:i], fs[i+1:]...)
			break
		}
	}
	if r.leaderOf[follower] == leader {
		delete(r.leaderOf, follower)
	}
	if c, ok := r.convs[leader]; ok && c.Follower == follower {
		delete(r.convs, leader)
	}
	if len(fs) == 0 {
		delete(r.groups, leader)
		delete(r.convs, leader)
		return true
	}
	r.groups[leader] = fs
	return false
}

// Followers returns a copy of leader's followers in join order.
func (r *Registry) Followers(leader EntityID) []EntityID {
	fs := r.groups[leader]
	out := make([]EntityID, len(fs))
	copy(out, fs)
	return out
}

// HasFollowers reports whether leader heads a group.
func (r *Registry) HasFollowers(leader EntityID) bool {
	return len(r.groups[leader]) > 0
}

// LeaderOf returns the leader follower is attached to.
func (r *Registry) LeaderOf(follower EntityID) (EntityID, bool) {
	l, ok := r.leaderOf[follower]
	return l, ok
}

// Leaders returns all group keys in ascending order.
func (r *Registry) Leaders() []EntityID {
	out := make([]EntityID, 0, len(r.groups))
	for id := range r.groups {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// GroupCount is the number of leaders with followers.
func (r *Registry) GroupCount() int {
	return len(r.groups)
}

// StartConversation opens a conversation for leader unless one is already
// running. It reports whether a new one was created.
func (r *Registry) StartConversation(leader, follower EntityID, greetingTicks int) bool {
	if _, ok := r.convs[leader]; ok {
		return false
	}
	r.convs[leader] = &Conversation{Follower: follower, Phase: ConvoGreeting, Countdown: greetingTicks}
	r.started = append(r.started, ConvoEvent{Leader: leader, Follower: follower, Key: "start", Phase: ConvoGreeting})
	return true
}

// Conversation returns a copy of leader's conversation.
func (r *Registry) Conversation(leader EntityID) (Conversation, bool) {
	c, ok := r.convs[leader]
	if !ok {
		return Conversation{}, false
	}
	return *c, true
}

// ConversationOf finds the conversation id takes part in, as leader or as
// follower, and returns its leader.
func (r *Registry) ConversationOf(id EntityID) (EntityID, Conversation, bool) {
	if c, ok := r.convs[id]; ok {
		return id, *c, true
	}
	if l, ok := r.leaderOf[id]; ok {
		if c, ok := r.convs[l]; ok && c.Follower == id {
			return l, *c, true
		}
	}
	return 0, Conversation{}, false
}

// ConversationCount is the number of active conversations.
func (r *Registry) ConversationCount() int {
	return len(r.convs)
}

// Purge removes every trace of id: its own follow edge, the group it leads
// and any conversation it takes part in. It returns the followers that lost
// their leader.
func (r *Registry) Purge(id EntityID) []EntityID {
	if l, ok := r.leaderOf[id]; ok {
		r.RemoveFollower(l, id)
	}
	orphans := r.groups[id]
	for _, f := range orphans {
		delete(r.leaderOf, f)
	}
	delete(r.groups, id)
	delete(r.convs, id)
	return orphans
}

// Advance ticks every conversation once, in ascending leader order, and
// applies phase effects to the participants. Conversations whose
// participants are no longer alive are dropped.
func (r *Registry) Advance(pop Population, cfg BehaviorConfig) []ConvoEvent {
	events := r.started
	r.started = nil
	if len(r.convs) == 0 {
		return events
	}
	leaders := make([]EntityID, 0, len(r.convs))
	for id := range r.convs {
		leaders = append(leaders, id)
	}
	sort.Slice(leaders, func(i, j int) bool { return leaders[i] < leaders[j] })

	for _, lid := range leaders {
		c := r.convs[lid]
		leader, lok := pop.Lookup(lid)
		follower, fok := pop.Lookup(c.Follower)
		if !lok || !fok {
			delete(r.convs, lid)
			events = append(events, ConvoEvent{Leader: lid, Follower: c.Follower, Key: "abort", Phase: c.Phase})
			continue
		}

		c.Countdown--
		if c.Countdown > 0 {
			continue
		}
		switch c.Phase {
		case ConvoGreeting:
			leader.Say(cfg.GreetingLine, cfg.LineVisibleTicks)
			events = append(events, ConvoEvent{Leader: lid, Follower: c.Follower, Key: "line", Speaker: lid, Text: cfg.GreetingLine, Phase: c.Phase})
			c.Phase = ConvoResponse
			c.Countdown = cfg.ResponseTicks
		case ConvoResponse:
			follower.Say(cfg.ResponseLine, cfg.LineVisibleTicks)
			events = append(events, ConvoEvent{Leader: lid, Follower: c.Follower, Key: "line", Speaker: c.Follower, Text: cfg.ResponseLine, Phase: c.Phase})
			c.Phase = ConvoFinished
			c.Countdown = cfg.FinishTicks
		case ConvoFinished:
			delete(r.convs, lid)
			if m := leader.Mind; m != nil {
				m.State = BehaviorWander
				m.Partner = NoEntity
			}
			if m := follower.Mind; m != nil {
				m.State = BehaviorFollow
				m.Target = lid
				m.Partner = NoEntity
			}
			events = append(events, ConvoEvent{Leader: lid, Follower: c.Follower, Key: "end", Phase: c.Phase})
		}
	}
	return events
}
