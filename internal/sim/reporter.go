package sim

import (
	"fmt"
	"strings"
)

// reportWindowTicks is the default sliding window for recent-behaviour reports (~10s at 60TPS).
const reportWindowTicks = 600

// GroupReport captures one leader's group at one point in time.
type GroupReport struct {
	Leader    string
	Followers int
	Talking   bool
	Phase     ConvoPhase
	Spread    float64 // mean follower distance to the leader
}

// NPCReport captures a single NPC's state.
type NPCReport struct {
	ID       EntityID
	Label    string
	Behavior Behavior
	Speed    float64
	Leader   string
	Partner  string
}

// CrowdReport is a full snapshot of the crowd at one tick.
type CrowdReport struct {
	Tick int

	Behaviors map[Behavior]int
	NPCs      int

	Groups        int
	Conversations int
	Speaking      int // entities with a visible speech line

	AvgNPCSpeed     float64
	ScanComparisons int

	PlayerMoving   bool
	PlayerToTarget float64 // 0 when the player has no waypoint

	GroupDetail []GroupReport
	NPCDetail   []NPCReport // verbose mode only
}

// SimReporter collects periodic reports from the world and can produce
// summaries over sliding time windows.
type SimReporter struct {
	history     []CrowdReport
	windowTicks int
	verbose     bool
	totals      WorldStats
}

// NewSimReporter creates a reporter with the given window size.
func NewSimReporter(windowTicks int, verbose bool) *SimReporter {
	if windowTicks <= 0 {
		windowTicks = reportWindowTicks
	}
	return &SimReporter{
		windowTicks: windowTicks,
		verbose:     verbose,
	}
}

// Collect gathers a snapshot from the current world state.
// Call this periodically (e.g. every 60 ticks / 1s).
func (r *SimReporter) Collect(w *World) {
	reg := w.Registry()
	report := CrowdReport{
		Tick:            w.CurrentTick(),
		Behaviors:       make(map[Behavior]int),
		Groups:          reg.GroupCount(),
		Conversations:   reg.ConversationCount(),
		ScanComparisons: w.ScanComparisons(),
	}

	labelOf := func(id EntityID) string {
		if e, ok := w.Lookup(id); ok {
			return e.Label
		}
		if id == NoEntity {
			return ""
		}
		return fmt.Sprintf("#%d", id)
	}

	speedSum := 0.0
	for _, e := range w.Entities() {
		if e.Speech.Active() {
			report.Speaking++
		}
		if e.Kind == KindPlayer {
			if t, ok := e.Steering.Target(); ok {
				report.PlayerMoving = true
				report.PlayerToTarget = e.Pos.Dist(t)
			}
			continue
		}
		report.NPCs++
		report.Behaviors[e.Behavior()]++
		speedSum += e.Speed()
		if r.verbose {
			nr := NPCReport{ID: e.ID, Label: e.Label, Behavior: e.Behavior(), Speed: e.Speed()}
			if l, ok := reg.LeaderOf(e.ID); ok {
				nr.Leader = labelOf(l)
			}
			nr.Partner = labelOf(e.Mind.Partner)
			report.NPCDetail = append(report.NPCDetail, nr)
		}
	}
	if report.NPCs > 0 {
		report.AvgNPCSpeed = speedSum / float64(report.NPCs)
	}

	for _, lid := range reg.Leaders() {
		gr := GroupReport{Leader: labelOf(lid)}
		leader, ok := w.Lookup(lid)
		spread := 0.0
		for _, fid := range reg.Followers(lid) {
			gr.Followers++
			if f, fok := w.Lookup(fid); fok && ok {
				spread += f.Pos.Dist(leader.Pos)
			}
		}
		if gr.Followers > 0 {
			gr.Spread = spread / float64(gr.Followers)
		}
		if c, cok := reg.Conversation(lid); cok {
			gr.Talking = true
			gr.Phase = c.Phase
		}
		report.GroupDetail = append(report.GroupDetail, gr)
	}

	r.totals = w.Stats()
	r.history = append(r.history, report)

	// Prune old history beyond 2x window to prevent unbounded growth.
	maxKeep := r.windowTicks / 60 * 2
	if maxKeep < 100 {
		maxKeep = 100
	}
	if len(r.history) > maxKeep {
		r.history = r.history[len(r.history)-maxKeep:]
	}
}

// Latest returns the most recent report, or nil if none collected yet.
func (r *SimReporter) Latest() *CrowdReport {
	if len(r.history) == 0 {
		return nil
	}
	return &r.history[len(r.history)-1]
}

// History returns all retained reports.
func (r *SimReporter) History() []CrowdReport {
	return r.history
}

// Totals returns the world's cumulative counters as of the last Collect.
func (r *SimReporter) Totals() WorldStats {
	return r.totals
}

// WindowSummary returns an aggregated summary over the recent time window.
func (r *SimReporter) WindowSummary() *WindowReport {
	if len(r.history) == 0 {
		return nil
	}

	latestTick := r.history[len(r.history)-1].Tick
	cutoff := latestTick - r.windowTicks
	var window []CrowdReport
	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].Tick < cutoff {
			break
		}
		window = append(window, r.history[i])
	}
	if len(window) == 0 {
		return nil
	}

	n := float64(len(window))
	wr := &WindowReport{
		FromTick:    window[len(window)-1].Tick,
		ToTick:      window[0].Tick,
		SampleCount: len(window),
		BehaviorPct: make(map[Behavior]float64),
	}

	totals := make(map[Behavior]float64)
	var all float64
	for _, rpt := range window {
		for b, c := range rpt.Behaviors {
			totals[b] += float64(c)
			all += float64(c)
		}
		wr.AvgGroups += float64(rpt.Groups)
		wr.AvgConversations += float64(rpt.Conversations)
		wr.AvgSpeaking += float64(rpt.Speaking)
		wr.AvgNPCSpeed += rpt.AvgNPCSpeed
		wr.AvgComparisons += float64(rpt.ScanComparisons)
		if rpt.Groups > wr.PeakGroups {
			wr.PeakGroups = rpt.Groups
		}
		for _, g := range rpt.GroupDetail {
			if g.Followers > wr.LargestGroup {
				wr.LargestGroup = g.Followers
			}
		}
	}
	if all > 0 {
		for b, c := range totals {
			wr.BehaviorPct[b] = c / all * 100
		}
	}
	wr.AvgGroups /= n
	wr.AvgConversations /= n
	wr.AvgSpeaking /= n
	wr.AvgNPCSpeed /= n
	wr.AvgComparisons /= n

	wr.TotalConversations = r.totals.ConvosStarted
	wr.TotalAborts = r.totals.ConvosAborted
	return wr
}

// WindowReport is an aggregated summary over a time window.
type WindowReport struct {
	FromTick, ToTick int
	SampleCount      int

	// Behaviour distribution as percentages (0-100).
	BehaviorPct map[Behavior]float64

	AvgGroups        float64
	AvgConversations float64
	AvgSpeaking      float64
	AvgNPCSpeed      float64
	AvgComparisons   float64
	PeakGroups       int
	LargestGroup     int

	// Cumulative.
	TotalConversations int
	TotalAborts        int
}

// Format returns a human-readable multi-line string of the window summary.
func (wr *WindowReport) Format() string {
	if wr == nil {
		return "No data collected yet.\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Crowd Report (T=%d..%d, %d samples) ===\n",
		wr.FromTick, wr.ToTick, wr.SampleCount)

	sb.WriteString("\n--- Behaviour Distribution ---\n")
	for _, b := range AllBehaviors {
		if pct, ok := wr.BehaviorPct[b]; ok && pct > 0.5 {
			fmt.Fprintf(&sb, "  %-10s %5.1f%%\n", b, pct)
		}
	}

	sb.WriteString("\n--- Groups & Conversations ---\n")
	fmt.Fprintf(&sb, "  groups avg=%.1f peak=%d largest=%d followers\n",
		wr.AvgGroups, wr.PeakGroups, wr.LargestGroup)
	fmt.Fprintf(&sb, "  conversations avg=%.1f speaking=%.1f  started=%d aborted=%d\n",
		wr.AvgConversations, wr.AvgSpeaking, wr.TotalConversations, wr.TotalAborts)

	sb.WriteString("\n--- Motion & Cost ---\n")
	fmt.Fprintf(&sb, "  avg npc speed=%.2f  scan comparisons/tick=%.0f\n",
		wr.AvgNPCSpeed, wr.AvgComparisons)

	return sb.String()
}

// FormatLatest returns a concise snapshot of the most recent collected report.
func (r *SimReporter) FormatLatest() string {
	rpt := r.Latest()
	if rpt == nil {
		return "No data.\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Snapshot T=%d ---\n", rpt.Tick)
	fmt.Fprintf(&sb, "npcs=%d groups=%d convos=%d speaking=%d avg_speed=%.2f scans=%d\n",
		rpt.NPCs, rpt.Groups, rpt.Conversations, rpt.Speaking, rpt.AvgNPCSpeed, rpt.ScanComparisons)
	if rpt.PlayerMoving {
		fmt.Fprintf(&sb, "player: %.1f to target\n", rpt.PlayerToTarget)
	}
	sb.WriteString("behaviours: ")
	for _, b := range AllBehaviors {
		if c := rpt.Behaviors[b]; c > 0 {
			fmt.Fprintf(&sb, "%s=%d ", b, c)
		}
	}
	sb.WriteByte('\n')
	for _, g := range rpt.GroupDetail {
		fmt.Fprintf(&sb, "  group %s: %d followers spread=%.0f", g.Leader, g.Followers, g.Spread)
		if g.Talking {
			fmt.Fprintf(&sb, " talking(%s)", g.Phase)
		}
		sb.WriteByte('\n')
	}
	for _, n := range rpt.NPCDetail {
		fmt.Fprintf(&sb, "  %-4s %-8s v=%.2f", n.Label, n.Behavior, n.Speed)
		if n.Leader != "" {
			fmt.Fprintf(&sb, " leader=%s", n.Leader)
		}
		if n.Partner != "" {
			fmt.Fprintf(&sb, " partner=%s", n.Partner)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// BehaviorProportions computes the share of each behaviour across the NPCs
// at the current moment. Returns a map of Behavior → fraction (0-1).
func BehaviorProportions(entities []*Entity) map[Behavior]float64 {
	counts := make(map[Behavior]int)
	total := 0
	for _, e := range entities {
		if e.Kind != KindNPC {
			continue
		}
		counts[e.Behavior()]++
		total++
	}
	props := make(map[Behavior]float64, len(counts))
	if total > 0 {
		for b, c := range counts {
			props[b] = float64(c) / float64(total)
		}
	}
	return props
}
