package game

import (
	"image/color"
	"strings"
	"testing"

	"github.com/Garsondee/Crowd-Sense/internal/sim"
)

func newTestGame(t *testing.T, edit func(*sim.Config)) *Game {
	t.Helper()
	cfg := sim.DefaultConfig()
	cfg.NPCCount = 0
	if edit != nil {
		edit(&cfg)
	}
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func TestThoughtLog_WrapsOldestFirst(t *testing.T) {
	tl := NewThoughtLog()
	for i := 0; i < logMaxEntries+5; i++ {
		tl.Add(i, "N1", color.RGBA{A: 255}, "msg")
	}
	if tl.Len() != logMaxEntries {
		t.Fatalf("len = %d, want %d", tl.Len(), logMaxEntries)
	}
	recent := tl.Recent()
	if recent[0].Tick != 5 || recent[len(recent)-1].Tick != logMaxEntries+4 {
		t.Fatalf("window = [%d..%d], want [5..%d]", recent[0].Tick, recent[len(recent)-1].Tick, logMaxEntries+4)
	}
}

func TestThoughtFromLog_SkipsNoise(t *testing.T) {
	cases := []struct {
		entry sim.SimLogEntry
		want  string
		ok    bool
	}{
		{sim.SimLogEntry{Category: "behavior", Key: "change", Value: "wander → flee"}, "wander → flee", true},
		{sim.SimLogEntry{Category: "convo", Key: "line", Value: `"Hi"`}, `says "Hi"`, true},
		{sim.SimLogEntry{Category: "convo", Key: "end", Value: "with N2"}, "convo end with N2", true},
		{sim.SimLogEntry{Category: "steer", Key: "target", Value: "(1,1)"}, "", false},
		{sim.SimLogEntry{Category: "move", Key: "position", Value: "(1,1)"}, "", false},
		{sim.SimLogEntry{Category: "world", Key: "spawn", Value: "at (1,1)"}, "", false},
	}
	for _, c := range cases {
		got, ok := thoughtFromLog(c.entry)
		if ok != c.ok || got != c.want {
			t.Errorf("%s/%s: got %q,%v want %q,%v", c.entry.Category, c.entry.Key, got, ok, c.want, c.ok)
		}
	}
}

func TestSpeedSteps(t *testing.T) {
	if got := fasterSpeed(1); got != 2 {
		t.Fatalf("faster(1) = %g", got)
	}
	if got := fasterSpeed(4); got != 4 {
		t.Fatalf("faster(4) = %g, should stay at the top", got)
	}
	if got := slowerSpeed(0.5); got != 0 {
		t.Fatalf("slower(0.5) = %g", got)
	}
	if got := slowerSpeed(0); got != 0 {
		t.Fatalf("slower(0) = %g, should stay paused", got)
	}
}

func TestNew_CentresPlayerAndSpawnsCrowd(t *testing.T) {
	g := newTestGame(t, func(c *sim.Config) { c.NPCCount = 7 })
	w := g.World()
	p := w.Player()
	if p == nil || p.Pos != sim.V(1000, 1000) {
		t.Fatalf("player = %+v", p)
	}
	if n := len(w.Entities()); n != 8 {
		t.Fatalf("entities = %d, want 8", n)
	}
	lw, lh := g.Layout(0, 0)
	if lw != 2*borderWidth+800+logPanelWidth || lh != 2*borderWidth+600 {
		t.Fatalf("layout = %dx%d", lw, lh)
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Player.Friction = 2
	if _, err := New(cfg); err == nil {
		t.Fatal("invalid friction should fail")
	}
}

func TestSimTick_FeedsThoughtLog(t *testing.T) {
	g := newTestGame(t, func(c *sim.Config) { c.Behavior.FollowChance = 1 })
	w := g.World()
	for _, x := range []float64{300, 330} {
		if _, err := w.SpawnNPC(sim.V(x, 300), color.RGBA{R: 100, A: 255}); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 30; i++ {
		g.simTick()
	}

	var sawTalk, sawHi bool
	for _, e := range g.thoughtLog.Recent() {
		if strings.Contains(e.Message, "→ talking") {
			sawTalk = true
		}
		if e.Message == `says "Hi"` {
			sawHi = true
			if e.Color.R != 100 {
				t.Fatalf("line colour %+v should be the speaker's", e.Color)
			}
		}
	}
	if !sawTalk || !sawHi {
		for _, e := range g.thoughtLog.Recent() {
			t.Logf("%d [%s] %s", e.Tick, e.Label, e.Message)
		}
		t.Fatalf("talk=%v hi=%v", sawTalk, sawHi)
	}
}

func TestInspector_PicksNearestAndClears(t *testing.T) {
	g := newTestGame(t, nil)
	w := g.World()
	a, _ := w.SpawnNPC(sim.V(200, 200), color.RGBA{A: 255})
	b, _ := w.SpawnNPC(sim.V(212, 200), color.RGBA{A: 255})

	if !g.handleInspectorClick(sim.V(209, 200)) || g.inspector.selected != b.ID {
		t.Fatalf("selected %d, want %d", g.inspector.selected, b.ID)
	}
	lines := g.inspectCurated(b)
	if len(lines) == 0 || !strings.Contains(lines[1], "wander") {
		t.Fatalf("curated view = %q", lines)
	}
	if raw := strings.Join(g.inspectRaw(a), "\n"); !strings.Contains(raw, "-- mind --") || strings.Contains(raw, "-- steering --") {
		t.Fatalf("raw NPC view = %q", raw)
	}

	if g.handleInspectorClick(sim.V(600, 600)) || g.inspector.selected != sim.NoEntity {
		t.Fatal("empty click should clear the selection")
	}
}

func TestSimTick_DropsRemovedSelection(t *testing.T) {
	g := newTestGame(t, nil)
	w := g.World()
	n, _ := w.SpawnNPC(sim.V(200, 200), color.RGBA{A: 255})
	g.inspector.selected = n.ID
	w.Remove(n.ID)
	g.simTick()
	if g.inspector.selected != sim.NoEntity {
		t.Fatal("selection should clear once the entity is gone")
	}
}

func TestSpeechAlpha(t *testing.T) {
	if speechAlpha(0) != 0 || speechAlpha(speechFadeTicks) != 1 || speechAlpha(90) != 1 {
		t.Fatal("alpha should be 0 when expired and 1 before the fade")
	}
	if a := speechAlpha(speechFadeTicks / 2); a != 0.5 {
		t.Fatalf("alpha mid-fade = %.2f", a)
	}
}
