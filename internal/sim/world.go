package sim

import (
	"errors"
	"fmt"
	"image/color"
	"math/rand"
)

// tickDT is the integration step; one tick advances positions by one
// velocity unit.
const tickDT = 1.0

// ErrPlayerExists is returned when a second player is added.
var ErrPlayerExists = errors.New("world already has a player")

// World owns every entity, the group/conversation registry and the camera,
// and advances them one tick at a time. It is not safe for concurrent use;
// callers drive it from a single loop.
type World struct {
	cfg   Config
	rng   *rand.Rand
	brain *Brain
	reg   *Registry

	entities []*Entity // creation order
	byID     map[EntityID]*Entity
	player   *Entity
	nextID   EntityID

	Camera *Camera
	log    *SimLog

	tick            int
	scanComparisons int
	convoEvents     []ConvoEvent
	stats           WorldStats
}

// WorldStats are cumulative event counters since the world was created.
type WorldStats struct {
	ConvosStarted  int
	ConvosFinished int
	ConvosAborted  int
	LinesSpoken    int
	FleesStarted   int
	FollowsFormed  int
	Arrivals       int
}

// NewWorld validates cfg and returns an empty world.
func NewWorld(cfg Config) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed)) // #nosec G404 -- simulation only
	return &World{
		cfg:    cfg,
		rng:    rng,
		brain:  NewBrain(cfg.Behavior, rng),
		reg:    NewRegistry(),
		byID:   make(map[EntityID]*Entity),
		nextID: 1,
		Camera: NewCamera(cfg.ViewportWidth, cfg.ViewportHeight, cfg.WorldWidth, cfg.WorldHeight),
		log:    NewSimLog(false),
	}, nil
}

// SetLog replaces the world's event log.
func (w *World) SetLog(l *SimLog) {
	if l == nil {
		l = NewSimLog(false)
	}
	w.log = l
}

// Log returns the world's event log.
func (w *World) Log() *SimLog { return w.log }

// Config returns the world's tuning.
func (w *World) Config() Config { return w.cfg }

// Registry exposes the shared group/conversation tables.
func (w *World) Registry() *Registry { return w.reg }

// CurrentTick returns the number of completed ticks.
func (w *World) CurrentTick() int { return w.tick }

// ScanComparisons is the number of detection-scan distance checks made on
// the last tick. It grows quadratically with the NPC count.
func (w *World) ScanComparisons() int { return w.scanComparisons }

// Stats returns the cumulative event counters.
func (w *World) Stats() WorldStats { return w.stats }

// LastConvoEvents returns the conversation events of the last tick.
func (w *World) LastConvoEvents() []ConvoEvent { return w.convoEvents }

// Lookup resolves an id to a live entity.
func (w *World) Lookup(id EntityID) (*Entity, bool) {
	e, ok := w.byID[id]
	return e, ok
}

// Entities returns the live entities in creation order. The slice must not
// be modified.
func (w *World) Entities() []*Entity { return w.entities }

// Player returns the player entity, or nil.
func (w *World) Player() *Entity { return w.player }

// Bounds returns the world rectangle.
func (w *World) Bounds() (lo, hi Vec2) {
	return Vec2{}, V(w.cfg.WorldWidth, w.cfg.WorldHeight)
}

func (w *World) add(e *Entity) *Entity {
	e.ID = w.nextID
	w.nextID++
	e.Label = entityLabel(e.Kind, e.ID)
	e.Active = true
	e.Visible = true
	w.entities = append(w.entities, e)
	w.byID[e.ID] = e
	w.log.Add(w.tick, e.Label, e.Kind.String(), "world", "spawn",
		fmt.Sprintf("at (%.0f,%.0f)", e.Pos.X, e.Pos.Y), 0)
	return e
}

// AddPlayer creates the single player entity at pos and points the camera
// at it.
func (w *World) AddPlayer(pos Vec2) (*Entity, error) {
	if w.player != nil {
		return nil, ErrPlayerExists
	}
	p := w.cfg.Player
	body, err := NewBody(pos, p.Radius, p.Acceleration, p.Friction, p.MaxVelocity)
	if err != nil {
		return nil, err
	}
	e := w.add(&Entity{
		Kind:     KindPlayer,
		Color:    color.RGBA{A: 255},
		Body:     body,
		Steering: NewSteering(w.cfg.Steering, p.MinVelocity),
	})
	w.player = e
	w.Camera.Follow = e.ID
	w.Camera.Update(e.Pos)
	return e, nil
}

// SpawnNPC creates a wandering NPC at pos with the given colour.
func (w *World) SpawnNPC(pos Vec2, col color.RGBA) (*Entity, error) {
	n := w.cfg.NPC
	body, err := NewBody(pos, n.Radius, n.Acceleration, n.Friction, n.MaxVelocity)
	if err != nil {
		return nil, err
	}
	b := w.cfg.Behavior
	interval := b.WanderIntervalMin + w.rng.Intn(b.WanderIntervalMax-b.WanderIntervalMin+1)
	return w.add(&Entity{
		Kind:  KindNPC,
		Color: col,
		Body:  body,
		Mind: &Mind{
			State:           BehaviorWander,
			WanderInterval:  interval,
			DetectionRadius: n.DetectionRadius,
			FollowDistance:  n.FollowDistance,
			FleeDistance:    n.FleeDistance,
		},
	}), nil
}

// RandomNPCColor picks a mid-range colour (each channel 50..200).
func (w *World) RandomNPCColor() color.RGBA {
	return color.RGBA{
		R: uint8(50 + w.rng.Intn(151)),
		G: uint8(50 + w.rng.Intn(151)),
		B: uint8(50 + w.rng.Intn(151)),
		A: 255,
	}
}

// SpawnRandomNPCs scatters n NPCs at least 50 units from every wall.
func (w *World) SpawnRandomNPCs(n int) ([]*Entity, error) {
	out := make([]*Entity, 0, n)
	for i := 0; i < n; i++ {
		x := 50 + w.rng.Float64()*(w.cfg.WorldWidth-100)
		y := 50 + w.rng.Float64()*(w.cfg.WorldHeight-100)
		e, err := w.SpawnNPC(V(x, y), w.RandomNPCColor())
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Remove deletes an entity and purges it from the registry. NPCs that
// referenced it notice on their next update and fall back to wandering.
func (w *World) Remove(id EntityID) bool {
	e, ok := w.byID[id]
	if !ok {
		return false
	}
	delete(w.byID, id)
	for i, x := range w.entities {
		if x == e {
			w.entities = append(w.entities[:i], w.entities[i+1:]...)
			break
		}
	}
	if e == w.player {
		w.player = nil
		w.Camera.Follow = NoEntity
	}
	orphans := w.reg.Purge(id)
	w.log.Add(w.tick, e.Label, e.Kind.String(), "world", "remove",
		fmt.Sprintf("orphaned %d followers", len(orphans)), float64(len(orphans)))
	return true
}

// ClampTarget moves p into the area the player's centre can actually reach.
func (w *World) ClampTarget(p Vec2) Vec2 {
	r := 0.0
	if w.player != nil {
		r = w.player.Radius
	}
	return V(Clamp(p.X, r, w.cfg.WorldWidth-r), Clamp(p.Y, r, w.cfg.WorldHeight-r))
}

// SetPlayerTarget replaces the player's path with a single waypoint.
func (w *World) SetPlayerTarget(p Vec2) bool {
	if w.player == nil {
		return false
	}
	p = w.ClampTarget(p)
	w.player.Steering.SetTarget(p)
	w.log.Add(w.tick, w.player.Label, "player", "steer", "target",
		fmt.Sprintf("(%.1f,%.1f)", p.X, p.Y), w.player.Pos.Dist(p))
	return true
}

// Tick advances the world by one fixed step: the player, then every NPC in
// creation order, each constrained to the world right after its update;
// then speech timers, conversations and the camera.
func (w *World) Tick() {
	w.tick++
	prev := make(map[EntityID]Behavior, len(w.entities))
	for _, e := range w.entities {
		if e.Mind != nil {
			prev[e.ID] = e.Mind.State
		}
	}
	lo, hi := w.Bounds()

	if p := w.player; p != nil && p.Active {
		rep := p.Steering.Step(&p.Body, tickDT)
		p.ConstrainToBounds(lo, hi, w.cfg.Bounce)
		w.logSteer(p, rep)
	}

	for _, e := range w.entities {
		if e.Kind != KindNPC || !e.Active {
			continue
		}
		w.brain.Think(e, w, w.reg)
		e.Integrate(tickDT)
		e.ConstrainToBounds(lo, hi, w.cfg.Bounce)
	}
	w.scanComparisons = w.brain.Comparisons()

	for _, e := range w.entities {
		if e.Speech.Ticks > 0 {
			e.Speech.Ticks--
			if e.Speech.Ticks == 0 {
				e.Speech.Text = ""
			}
		}
	}

	w.convoEvents = w.reg.Advance(w, w.cfg.Behavior)
	w.logConvo(w.convoEvents)

	if f, ok := w.byID[w.Camera.Follow]; ok {
		w.Camera.Update(f.Pos)
	}

	for _, e := range w.entities {
		if e.Mind == nil {
			continue
		}
		if was, ok := prev[e.ID]; ok && was != e.Mind.State {
			switch e.Mind.State {
			case BehaviorFlee:
				w.stats.FleesStarted++
			case BehaviorFollow, BehaviorTalking:
				if was == BehaviorWander {
					w.stats.FollowsFormed++
				}
			}
			w.log.Add(w.tick, e.Label, "npc", "behavior", "change",
				fmt.Sprintf("%s → %s", was, e.Mind.State), 0)
		}
		w.log.AddVerbose(w.tick, e.Label, "npc", "move", "position",
			fmt.Sprintf("(%.1f,%.1f)", e.Pos.X, e.Pos.Y), e.Speed())
	}
	if p := w.player; p != nil {
		w.log.AddVerbose(w.tick, p.Label, "player", "move", "position",
			fmt.Sprintf("(%.1f,%.1f)", p.Pos.X, p.Pos.Y), p.Speed())
	}
}

func (w *World) logSteer(p *Entity, rep SteerReport) {
	if rep.EnteredFinal {
		w.log.Add(w.tick, p.Label, "player", "steer", "final_approach",
			fmt.Sprintf("speed %.2f", p.Speed()), p.Speed())
	}
	if rep.Arrived {
		w.stats.Arrivals++
		w.log.Add(w.tick, p.Label, "player", "steer", "arrive",
			fmt.Sprintf("(%.1f,%.1f)", p.Pos.X, p.Pos.Y), 0)
	}
}

func (w *World) logConvo(events []ConvoEvent) {
	for _, ev := range events {
		label := fmt.Sprintf("N%d", ev.Leader)
		switch ev.Key {
		case "start":
			w.stats.ConvosStarted++
			w.log.Add(w.tick, label, "npc", "convo", "start", fmt.Sprintf("with N%d", ev.Follower), 0)
		case "line":
			w.stats.LinesSpoken++
			speaker := fmt.Sprintf("N%d", ev.Speaker)
			w.log.Add(w.tick, speaker, "npc", "convo", "line", fmt.Sprintf("%q", ev.Text), 0)
		case "end":
			w.stats.ConvosFinished++
			w.log.Add(w.tick, label, "npc", "convo", "end", fmt.Sprintf("with N%d", ev.Follower), 0)
		case "abort":
			w.stats.ConvosAborted++
			w.log.Add(w.tick, label, "npc", "convo", "abort", fmt.Sprintf("with N%d in %s", ev.Follower, ev.Phase), 0)
		}
	}
}

// Snapshot returns a read-only copy of everything a renderer needs.
func (w *World) Snapshot() WorldSnapshot {
	snap := WorldSnapshot{
		Tick:     w.tick,
		Width:    w.cfg.WorldWidth,
		Height:   w.cfg.WorldHeight,
		Camera:   w.Camera.Offset,
		Entities: make([]EntitySnapshot, 0, len(w.entities)),
	}
	for _, e := range w.entities {
		es := EntitySnapshot{
			ID:          e.ID,
			Kind:        e.Kind,
			Label:       e.Label,
			Pos:         e.Pos,
			Vel:         e.Vel,
			Radius:      e.Radius,
			Color:       e.Color,
			Visible:     e.Visible,
			Tag:         e.Tag(),
			Speech:      e.Speech.Text,
			SpeechTicks: e.Speech.Ticks,
		}
		if s := e.Steering; s != nil {
			es.Waypoints = append([]Vec2(nil), s.Path...)
			es.Moving = s.Moving
			es.FinalApproach = s.FinalApproach
		}
		if m := e.Mind; m != nil {
			es.Behavior = m.State
			es.Target = m.Target
			es.Partner = m.Partner
			es.DetectionRadius = m.DetectionRadius
			es.WanderTarget = m.WanderTarget
			es.HasWanderTarget = m.HasWanderTarget && m.State == BehaviorWander
		}
		snap.Entities = append(snap.Entities, es)
	}
	return snap
}

// WorldSnapshot is the renderer's view of one tick.
type WorldSnapshot struct {
	Tick          int
	Width, Height float64
	Camera        Vec2
	Entities      []EntitySnapshot
}

// EntitySnapshot is a copy of one entity's render-relevant state.
type EntitySnapshot struct {
	ID      EntityID
	Kind    Kind
	Label   string
	Pos     Vec2
	Vel     Vec2
	Radius  float64
	Color   color.RGBA
	Visible bool
	Tag     string

	// Player.
	Waypoints     []Vec2
	Moving        bool
	FinalApproach bool

	// NPC.
	Behavior        Behavior
	Target          EntityID
	Partner         EntityID
	DetectionRadius float64
	WanderTarget    Vec2
	HasWanderTarget bool
	Speech          string
	SpeechTicks     int
}
