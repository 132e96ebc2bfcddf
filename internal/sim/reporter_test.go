package sim

import (
	"strings"
	"testing"
)

func TestReporter_CollectsCrowdState(t *testing.T) {
	ts := mustSim(t,
		WithSeed(4),
		WithConfig(alwaysFollow),
		WithPlayer(1800, 1800),
		WithNPC(500, 500),
		WithNPC(530, 500),
		WithNPC(1200, 300),
	)
	r := NewSimReporter(600, true)
	for i := 0; i < 5; i++ {
		ts.RunTicks(20)
		r.Collect(ts.World)
	}

	latest := r.Latest()
	if latest == nil || latest.Tick != 100 {
		t.Fatalf("latest = %+v", latest)
	}
	if latest.NPCs != 3 || latest.Groups != 1 || latest.Conversations != 1 {
		t.Fatalf("npcs=%d groups=%d convos=%d", latest.NPCs, latest.Groups, latest.Conversations)
	}
	if latest.Behaviors[BehaviorTalking] != 2 {
		t.Fatalf("behaviours = %v", latest.Behaviors)
	}
	if len(latest.NPCDetail) != 3 || latest.NPCDetail[0].Leader != "N3" {
		t.Fatalf("npc detail = %+v", latest.NPCDetail)
	}
	if g := latest.GroupDetail; len(g) != 1 || g[0].Leader != "N3" || !g[0].Talking {
		t.Fatalf("group detail = %+v", g)
	}

	wr := r.WindowSummary()
	if wr.SampleCount != 5 || wr.TotalConversations != 1 || wr.LargestGroup != 1 {
		t.Fatalf("window = %+v", wr)
	}
	out := wr.Format()
	for _, want := range []string{"Crowd Report", "talking", "started=1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("format missing %q:\n%s", want, out)
		}
	}
	t.Log(r.FormatLatest())
}

func TestReporter_EmptyIsSafe(t *testing.T) {
	r := NewSimReporter(0, false)
	if r.Latest() != nil || r.WindowSummary() != nil {
		t.Fatal("empty reporter should have no data")
	}
	var wr *WindowReport
	if wr.Format() == "" || r.FormatLatest() == "" {
		t.Fatal("empty formats should still say something")
	}
}

func TestBehaviorProportions(t *testing.T) {
	ents := []*Entity{
		{Kind: KindPlayer},
		{Kind: KindNPC, Mind: &Mind{State: BehaviorWander}},
		{Kind: KindNPC, Mind: &Mind{State: BehaviorWander}},
		{Kind: KindNPC, Mind: &Mind{State: BehaviorFlee}},
		{Kind: KindNPC, Mind: &Mind{State: BehaviorFollow}},
	}
	p := BehaviorProportions(ents)
	if p[BehaviorWander] != 0.5 || p[BehaviorFlee] != 0.25 || p[BehaviorIdle] != 0 {
		t.Fatalf("proportions = %v", p)
	}
}

func TestSimLog_FiltersAndSummary(t *testing.T) {
	ts := mustSim(t,
		WithConfig(alwaysFollow),
		WithNPC(500, 500),
		WithNPC(530, 500),
		WithVerbose(true),
	)
	ts.RunTicks(35)
	log := ts.SimLog
	if n := log.CountCategory("world", "spawn"); n != 2 {
		t.Fatalf("spawn entries = %d", n)
	}
	if e, ok := log.LastOf("convo", "line"); !ok || e.Tick != 30 || e.Entity != "N2" {
		t.Fatalf("last line = %+v ok=%v", e, ok)
	}
	if got := len(log.FilterEntity("N1")); got == 0 {
		t.Fatal("no entries for N1")
	}
	if got := log.Filter("move", "position"); len(got) != 2*35 {
		t.Fatalf("verbose position entries = %d, want 70", len(got))
	}
	if r := log.FormatRange(30, 30); !strings.Contains(r, `"Hi"`) {
		t.Fatalf("range format = %q", r)
	}
	sum := log.Summary(ts.CurrentTick(), ts.World.Entities(), ts.World.Registry())
	if !strings.Contains(sum, "talking=2") || !strings.Contains(sum, "Group: N2 ← [N1]") {
		t.Fatalf("summary:\n%s", sum)
	}
}
