package sim

import (
	"math/rand"
	"testing"
)

func mustSim(t *testing.T, opts ...SimOption) *TestSim {
	t.Helper()
	ts, err := NewTestSim(opts...)
	if err != nil {
		t.Fatalf("NewTestSim: %v", err)
	}
	return ts
}

// dumpLog prints the full SimLog to t.Log so it appears in `go test -v` output.
func dumpLog(t *testing.T, ts *TestSim) {
	t.Helper()
	entries := ts.SimLog.Entries()
	if len(entries) == 0 {
		t.Log("(no log entries)")
		return
	}
	for _, e := range entries {
		t.Log(e.String())
	}
}

func alwaysFollow(c *Config) { c.Behavior.FollowChance = 1 }

func TestFlee_RunsFromPlayerThenWanders(t *testing.T) {
	ts := mustSim(t,
		WithSeed(3),
		WithConfig(func(c *Config) { c.Behavior.FleeReleaseFactor = 1.25 }),
		WithPlayer(560, 500),
		WithNPC(500, 500),
	)
	npc := ts.NPC(0)
	cfg := ts.World.Config()

	ts.RunTicks(1)
	if npc.Behavior() != BehaviorFlee || npc.Mind.Target != ts.Player().ID {
		t.Fatalf("NPC 60 units from the player should flee, got %s", npc.Behavior())
	}

	release := cfg.NPC.FleeDistance * cfg.Behavior.FleeReleaseFactor
	at := ts.RunUntil(func(ts *TestSim) bool {
		return npc.Behavior() == BehaviorWander
	}, 1000)
	if at < 0 {
		dumpLog(t, ts)
		t.Fatal("NPC never stopped fleeing")
	}
	if d := npc.Pos.Dist(ts.Player().Pos); d <= release {
		t.Fatalf("released at distance %.1f, want > %.1f", d, release)
	}
	if npc.Mind.Target != NoEntity {
		t.Fatalf("target %d should be cleared", npc.Mind.Target)
	}
	if !ts.SimLog.HasEntry("behavior", "change", "wander → flee") ||
		!ts.SimLog.HasEntry("behavior", "change", "flee → wander") {
		dumpLog(t, ts)
		t.Fatal("missing flee transitions in the log")
	}
}

func TestFlee_CoastsToRestInsideReleaseBand(t *testing.T) {
	ts := mustSim(t, WithPlayer(560, 500), WithNPC(500, 500))
	npc := ts.NPC(0)
	cfg := ts.World.Config()
	ts.RunTicks(400)

	d := npc.Pos.Dist(ts.Player().Pos)
	if npc.Behavior() != BehaviorFlee {
		t.Fatalf("NPC at %.1f stopped fleeing", d)
	}
	if d < cfg.NPC.FleeDistance || d > cfg.NPC.FleeDistance*cfg.Behavior.FleeReleaseFactor {
		t.Fatalf("resting distance %.1f outside the release band", d)
	}
	if !npc.Vel.IsZero() {
		t.Fatalf("NPC should be at rest, vel=%+v", npc.Vel)
	}

	ts.World.SetPlayerTarget(V(1500, 1500))
	if ts.RunUntil(func(ts *TestSim) bool { return npc.Behavior() == BehaviorWander }, 600) < 0 {
		t.Fatal("NPC kept fleeing after the player left")
	}
}

func TestFlee_ThreatRemovedRevertsToWander(t *testing.T) {
	ts := mustSim(t, WithPlayer(560, 500), WithNPC(500, 500))
	ts.RunTicks(3)
	npc := ts.NPC(0)
	if npc.Behavior() != BehaviorFlee {
		t.Fatalf("setup: behaviour %s, want flee", npc.Behavior())
	}
	ts.World.Remove(ts.Player().ID)
	ts.RunTicks(1)
	if npc.Behavior() != BehaviorWander || npc.Mind.Target != NoEntity {
		t.Fatalf("after threat removal: %s target=%d", npc.Behavior(), npc.Mind.Target)
	}
}

func TestFollowChainGuard(t *testing.T) {
	br := NewBrain(DefaultConfig().Behavior, rand.New(rand.NewSource(1))) // #nosec G404 -- test
	r := NewRegistry()
	r.AddFollower(1, 2)

	leader := &Entity{ID: 1, Kind: KindNPC}
	follower := &Entity{ID: 2, Kind: KindNPC}
	loner := &Entity{ID: 3, Kind: KindNPC}

	if br.canFollow(leader, r) {
		t.Fatal("a leader with followers must not be followed")
	}
	if br.canFollow(follower, r) {
		t.Fatal("a follower whose leader has followers must not be followed")
	}
	if !br.canFollow(loner, r) {
		t.Fatal("an unattached NPC is a valid leader")
	}
}

func TestFollowChainGuard_NoChainsFormInACrowd(t *testing.T) {
	ts := mustSim(t,
		WithSeed(11),
		WithWorldSize(800, 600),
		WithConfig(alwaysFollow),
		WithRandomNPCs(40),
	)
	reg := ts.World.Registry()
	ts.RunUntil(func(ts *TestSim) bool {
		for _, l := range reg.Leaders() {
			if n := len(reg.Followers(l)); n != 1 {
				t.Fatalf("T=%d: leader N%d has %d followers", ts.CurrentTick(), l, n)
			}
			if _, ok := reg.LeaderOf(l); ok {
				t.Fatalf("T=%d: leader N%d is itself following", ts.CurrentTick(), l)
			}
		}
		return false
	}, 600)
	if ts.World.Stats().FollowsFormed == 0 {
		t.Fatal("expected at least one follow in a dense crowd")
	}
}

func TestConversation_LastsExactly180Ticks(t *testing.T) {
	ts := mustSim(t,
		WithSeed(5),
		WithConfig(alwaysFollow),
		WithNPC(500, 500),
		WithNPC(530, 500),
	)
	a, b := ts.NPC(0), ts.NPC(1)
	reg := ts.World.Registry()

	ts.RunTicks(1)
	if a.Behavior() != BehaviorTalking || b.Behavior() != BehaviorTalking {
		t.Fatalf("after first contact: a=%s b=%s", a.Behavior(), b.Behavior())
	}
	if a.Mind.Partner != b.ID || b.Mind.Partner != a.ID {
		t.Fatal("partners not linked")
	}
	if l, ok := reg.LeaderOf(a.ID); !ok || l != b.ID {
		t.Fatal("a should follow b")
	}

	ts.RunTicks(29)
	if b.Speech.Text != "Hi" {
		t.Fatalf("leader should greet on tick 30, says %q", b.Speech.Text)
	}
	ts.RunTicks(60)
	if a.Speech.Text != "Hello" {
		t.Fatalf("follower should reply on tick 90, says %q", a.Speech.Text)
	}

	ts.RunTicks(89)
	if _, ok := reg.Conversation(b.ID); !ok {
		t.Fatal("conversation ended before tick 180")
	}
	if a.Behavior() != BehaviorTalking || b.Behavior() != BehaviorTalking {
		t.Fatalf("tick 179: a=%s b=%s", a.Behavior(), b.Behavior())
	}

	ts.RunTicks(1)
	if _, ok := reg.Conversation(b.ID); ok {
		t.Fatal("conversation still registered after tick 180")
	}
	if b.Behavior() != BehaviorWander {
		t.Fatalf("leader should wander, got %s", b.Behavior())
	}
	if a.Behavior() != BehaviorFollow || a.Mind.Target != b.ID {
		t.Fatalf("follower should follow its leader, got %s target=%d", a.Behavior(), a.Mind.Target)
	}
	if st := ts.World.Stats(); st.ConvosStarted != 1 || st.ConvosFinished != 1 || st.LinesSpoken != 2 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestConversation_LeaderRemovedMidway(t *testing.T) {
	ts := mustSim(t,
		WithConfig(alwaysFollow),
		WithNPC(500, 500),
		WithNPC(530, 500),
	)
	a, b := ts.NPC(0), ts.NPC(1)
	ts.RunTicks(50)
	if b.Behavior() != BehaviorTalking {
		t.Fatalf("setup: leader %s", b.Behavior())
	}

	ts.World.Remove(b.ID)
	reg := ts.World.Registry()
	if reg.ConversationCount() != 0 || reg.GroupCount() != 0 {
		t.Fatal("registry still references the removed leader")
	}
	ts.RunTicks(1)
	if a.Behavior() != BehaviorWander || a.Mind.Partner != NoEntity || a.Mind.Target != NoEntity {
		t.Fatalf("orphan mind = %+v", *a.Mind)
	}
}

func TestConversation_FollowerRemovedMidway(t *testing.T) {
	ts := mustSim(t,
		WithConfig(alwaysFollow),
		WithNPC(500, 500),
		WithNPC(530, 500),
	)
	a, b := ts.NPC(0), ts.NPC(1)
	ts.RunTicks(100)
	ts.World.Remove(a.ID)
	ts.RunTicks(1)
	if b.Behavior() != BehaviorWander || b.Mind.Partner != NoEntity {
		t.Fatalf("leader mind = %+v", *b.Mind)
	}
	if ts.World.Registry().HasFollowers(b.ID) {
		t.Fatal("group should dissolve with its only follower")
	}
}

func TestTalking_KeepsFollowBand(t *testing.T) {
	ts := mustSim(t,
		WithConfig(alwaysFollow),
		WithNPC(500, 500),
		WithNPC(580, 500),
	)
	a, b := ts.NPC(0), ts.NPC(1)
	ts.RunTicks(170)
	if a.Behavior() != BehaviorTalking {
		t.Fatalf("setup: %s", a.Behavior())
	}
	d := a.Pos.Dist(b.Pos)
	fd := a.Mind.FollowDistance
	if d < fd*0.5 || d > fd*1.5 {
		t.Fatalf("talking pair %.1f apart, follow distance %.1f", d, fd)
	}
}

func TestScanComparisons_GrowQuadratically(t *testing.T) {
	counts := map[int]int{}
	for _, n := range []int{3, 6} {
		opts := []SimOption{WithSeed(9), WithConfig(func(c *Config) {
			c.Behavior.FollowChance = 0
		}), WithPlayer(1900, 1900)}
		for i := 0; i < n; i++ {
			opts = append(opts, WithNPC(100+float64(i)*200, 100))
		}
		ts := mustSim(t, opts...)
		ts.RunTicks(1)
		counts[n] = ts.World.ScanComparisons()
	}
	if counts[3] != 3*3 || counts[6] != 6*6 {
		t.Fatalf("comparisons = %v, want n*(n-1) NPC checks plus one player check each", counts)
	}
}

func TestWander_SuppressedLeaderStaysPut(t *testing.T) {
	ts := mustSim(t,
		WithSeed(21),
		WithConfig(func(c *Config) {
			c.Behavior.WanderSuppressChance = 1
		}),
		WithNPC(500, 500),
		WithNPC(1500, 1500),
	)
	lead, follow := ts.NPC(0), ts.NPC(1)
	reg := ts.World.Registry()
	reg.AddFollower(lead.ID, follow.ID)
	follow.Mind.State = BehaviorFollow
	follow.Mind.Target = lead.ID

	start := lead.Pos
	gap := follow.Pos.Dist(lead.Pos)
	ts.RunTicks(200)
	if lead.Pos != start {
		t.Fatalf("suppressed leader drifted from %+v to %+v", start, lead.Pos)
	}
	if now := follow.Pos.Dist(lead.Pos); now > gap-200 {
		t.Fatalf("follower only closed from %.0f to %.0f", gap, now)
	}
}
