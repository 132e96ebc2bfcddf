package sim

import (
	"errors"
	"reflect"
	"testing"
)

// checkInBounds fails the test if any entity's circle leaves the world.
func checkInBounds(t *testing.T, w *World) {
	t.Helper()
	lo, hi := w.Bounds()
	for _, e := range w.Entities() {
		if e.Pos.X < lo.X+e.Radius || e.Pos.X > hi.X-e.Radius ||
			e.Pos.Y < lo.Y+e.Radius || e.Pos.Y > hi.Y-e.Radius {
			t.Fatalf("T=%d: %s at (%.2f,%.2f) r=%.0f is outside the world",
				w.CurrentTick(), e.Label, e.Pos.X, e.Pos.Y, e.Radius)
		}
	}
}

func TestWorld_EntitiesStayInBounds(t *testing.T) {
	ts := mustSim(t,
		WithSeed(7),
		WithWorldSize(600, 400),
		WithPlayer(300, 200),
		WithRandomNPCs(30),
	)
	corners := []Vec2{V(0, 0), V(600, 0), V(600, 400), V(0, 400), V(-50, 900)}
	for i, c := range corners {
		ts.World.SetPlayerTarget(c)
		ts.RunUntil(func(ts *TestSim) bool {
			checkInBounds(t, ts.World)
			return false
		}, 300)
		t.Logf("leg %d: player at (%.1f,%.1f)", i, ts.Player().Pos.X, ts.Player().Pos.Y)
	}
}

func TestWorld_WallBounceHalvesNormalVelocity(t *testing.T) {
	ts := mustSim(t, WithWorldSize(400, 400), WithNPC(395, 200))
	npc := ts.NPC(0)
	cfg := ts.World.Config()
	npc.Pos = V(400-npc.Radius-0.5, 200)
	npc.Vel = V(2, 0)
	npc.Mind.State = BehaviorIdle

	ts.RunTicks(1)
	if npc.Pos.X != 400-npc.Radius {
		t.Fatalf("x = %.3f, want exactly %.1f", npc.Pos.X, 400-npc.Radius)
	}
	want := -cfg.Bounce * 2 * cfg.NPC.Friction
	if diff := npc.Vel.X - want; diff > eps || diff < -eps {
		t.Fatalf("vel.x = %.4f, want %.4f", npc.Vel.X, want)
	}
}

func TestWorld_PlayerReachesClampedTarget(t *testing.T) {
	ts := mustSim(t, WithWorldSize(800, 600), WithPlayer(400, 300))
	p := ts.Player()
	ts.World.SetPlayerTarget(V(5000, -20))
	want := V(800-p.Radius, p.Radius)
	if got, _ := p.Steering.Target(); got != want {
		t.Fatalf("target = %+v, want %+v", got, want)
	}
	at := ts.RunUntil(func(ts *TestSim) bool { return !ts.Player().Steering.Moving }, 2000)
	if at < 0 {
		t.Fatalf("player never arrived, pos=%+v", p.Pos)
	}
	if p.Pos != want {
		t.Fatalf("pos = %+v, want %+v", p.Pos, want)
	}
	if !ts.SimLog.HasEntry("steer", "arrive", "") {
		t.Fatal("arrival not logged")
	}
}

func TestWorld_TargetAtCurrentPositionStopsInOneTick(t *testing.T) {
	ts := mustSim(t, WithPlayer(400, 300))
	p := ts.Player()
	ts.World.SetPlayerTarget(p.Pos)
	ts.RunTicks(1)
	if p.Steering.Moving || !p.Vel.IsZero() {
		t.Fatalf("moving=%v vel=%+v", p.Steering.Moving, p.Vel)
	}
}

func TestWorld_SingleAndStableIDs(t *testing.T) {
	ts := mustSim(t, WithPlayer(100, 100), WithNPC(300, 300), WithNPC(500, 500))
	w := ts.World
	if _, err := w.AddPlayer(V(50, 50)); !errors.Is(err, ErrPlayerExists) {
		t.Fatalf("second player: err = %v", err)
	}
	removed := ts.NPC(0).ID
	if !w.Remove(removed) {
		t.Fatal("remove failed")
	}
	if w.Remove(removed) {
		t.Fatal("removing twice should report false")
	}
	e, err := w.SpawnNPC(V(700, 700), w.RandomNPCColor())
	if err != nil {
		t.Fatal(err)
	}
	if e.ID <= removed || e.ID == ts.NPC(0).ID {
		t.Fatalf("new id %d reuses or precedes a removed id", e.ID)
	}
	if _, ok := w.Lookup(removed); ok {
		t.Fatal("removed entity still resolvable")
	}
}

func TestWorld_SameSeedSameRun(t *testing.T) {
	run := func() WorldSnapshot {
		ts := mustSim(t, WithSeed(99), WithPlayer(1000, 1000), WithRandomNPCs(25),
			WithPlayerTarget(200, 1700))
		ts.RunTicks(600)
		return ts.Snapshot()
	}
	a, b := run(), run()
	if !reflect.DeepEqual(a, b) {
		t.Fatal("two runs with the same seed diverged")
	}
}

func TestWorld_CameraFollowsPlayer(t *testing.T) {
	ts := mustSim(t, WithPlayer(1000, 1000), WithPlayerTarget(1900, 1900))
	ts.RunTicks(800)
	cam := ts.World.Camera
	cfg := ts.World.Config()
	if cam.Offset != V(cfg.WorldWidth-cfg.ViewportWidth, cfg.WorldHeight-cfg.ViewportHeight) {
		t.Fatalf("camera offset %+v should be pinned to the far corner", cam.Offset)
	}
	if !cam.IsVisible(ts.Player().Pos, ts.Player().Radius) {
		t.Fatal("player is off screen")
	}
}

func TestWorld_SnapshotCarriesOverlayState(t *testing.T) {
	ts := mustSim(t, WithPlayer(100, 100), WithPlayerTarget(600, 100), WithNPC(1500, 1500))
	ts.RunTicks(2)
	snap := ts.Snapshot()
	if len(snap.Entities) != 2 {
		t.Fatalf("entities = %d", len(snap.Entities))
	}
	p, n := snap.Entities[0], snap.Entities[1]
	if p.Kind != KindPlayer || len(p.Waypoints) != 1 || !p.Moving {
		t.Fatalf("player snapshot = %+v", p)
	}
	if n.Behavior != BehaviorWander || n.DetectionRadius != ts.World.Config().NPC.DetectionRadius {
		t.Fatalf("npc snapshot = %+v", n)
	}
	p.Waypoints[0] = V(0, 0)
	if got, _ := ts.Player().Steering.Target(); got != V(600, 100) {
		t.Fatal("snapshot waypoints alias the live path")
	}
}

func TestDebugReport_CoversPartner(t *testing.T) {
	ts := mustSim(t,
		WithConfig(alwaysFollow),
		WithNPC(500, 500),
		WithNPC(530, 500),
	)
	ts.RunTicks(40)
	rep := ts.World.DebugReport(ts.NPC(0).ID, 60)
	for _, want := range []string{"selected=N1", "== SELECTED (N1) ==", "== RELATED (N2) ==", "behavior=talking", "convo"} {
		if !containsLine(rep, want) {
			t.Fatalf("report missing %q:\n%s", want, rep)
		}
	}
	if ts.World.DebugReport(999, 10) != "" {
		t.Fatal("unknown id should produce an empty report")
	}
}
