package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"

	"github.com/Garsondee/Crowd-Sense/internal/sim"
)

// sampleEvery is how many ticks pass between reporter samples.
const sampleEvery = 60

type runStats struct {
	runIndex int
	seed     int64

	firstFleeTick   int
	firstFollowTick int
	firstConvoTick  int
	firstLineTick   int

	behaviorChanges int
	targetsSet      int
	totals          sim.WorldStats

	windowSummary *sim.WindowReport
	talkers       map[string]struct{}
}

func main() {
	var runs int
	var ticks int
	var npcs int
	var retarget int
	var seedBase int64
	var seedStep int64
	var configPath string
	var verbose bool

	flag.IntVar(&runs, "runs", 5, "number of headless simulation runs")
	flag.IntVar(&ticks, "ticks", 3600, "ticks per run")
	flag.IntVar(&npcs, "npcs", -1, "NPC count (default: from config)")
	flag.IntVar(&retarget, "retarget", 300, "ticks between random player targets (0 = player stands still)")
	flag.Int64Var(&seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&configPath, "config", "", "TOML file overriding the default tuning")
	flag.BoolVar(&verbose, "verbose", false, "print the full event log of each run")
	flag.Parse()

	if runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		return
	}
	if ticks <= 0 {
		fmt.Println("error: -ticks must be > 0")
		return
	}

	cfg := sim.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = sim.LoadConfig(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
	if npcs >= 0 {
		cfg.NPCCount = npcs
	}

	fmt.Printf("=== Headless Crowd Report ===\n")
	fmt.Printf("runs=%d ticks=%d npcs=%d retarget=%d seed_base=%d seed_step=%d\n\n",
		runs, ticks, cfg.NPCCount, retarget, seedBase, seedStep)

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		seed := seedBase + int64(i)*seedStep
		stats, err := runCrowd(i+1, seed, ticks, retarget, cfg, verbose)
		if err != nil {
			fmt.Fprintf(os.Stderr, "run %d: %v\n", i+1, err)
			os.Exit(1)
		}
		all = append(all, stats)
		printRun(stats)
	}

	printAggregate(all)
}

// runCrowd runs one seeded world with the player walking to a fresh random
// point every retarget ticks.
func runCrowd(runIndex int, seed int64, ticks, retarget int, base sim.Config, verbose bool) (runStats, error) {
	ts, err := sim.NewTestSim(
		sim.WithConfig(func(c *sim.Config) { *c = base }),
		sim.WithSeed(seed),
		sim.WithVerbose(verbose),
		sim.WithPlayer(base.WorldWidth/2, base.WorldHeight/2),
		sim.WithRandomNPCs(base.NPCCount),
	)
	if err != nil {
		return runStats{}, err
	}

	walk := rand.New(rand.NewSource(seed ^ 0x5eed)) // #nosec G404 -- simulation only
	reporter := sim.NewSimReporter(0, false)
	for t := 1; t <= ticks; t++ {
		if retarget > 0 && (t-1)%retarget == 0 {
			ts.World.SetPlayerTarget(sim.V(walk.Float64()*base.WorldWidth, walk.Float64()*base.WorldHeight))
		}
		ts.RunTicks(1)
		if t%sampleEvery == 0 {
			reporter.Collect(ts.World)
		}
	}
	if verbose {
		fmt.Print(ts.SimLog.Format())
	}

	entries := ts.SimLog.Entries()
	talkers := map[string]struct{}{}
	for _, e := range entries {
		if e.Category == "convo" && e.Key == "line" {
			talkers[e.Entity] = struct{}{}
		}
	}

	return runStats{
		runIndex:        runIndex,
		seed:            seed,
		firstFleeTick:   firstTick(entries, "behavior", "change", "→ flee"),
		firstFollowTick: firstTick(entries, "behavior", "change", "→ follow"),
		firstConvoTick:  firstTick(entries, "convo", "start", ""),
		firstLineTick:   firstTick(entries, "convo", "line", ""),
		behaviorChanges: ts.SimLog.CountCategory("behavior", "change"),
		targetsSet:      ts.SimLog.CountCategory("steer", "target"),
		totals:          ts.World.Stats(),
		windowSummary:   reporter.WindowSummary(),
		talkers:         talkers,
	}, nil
}

func firstTick(entries []sim.SimLogEntry, category, key, contains string) int {
	for _, e := range entries {
		if e.Category != category || e.Key != key {
			continue
		}
		if contains == "" || strings.Contains(e.Value, contains) {
			return e.Tick
		}
	}
	return -1
}

func printRun(rs runStats) {
	fmt.Printf("--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	fmt.Printf("phase_markers: first_flee=%d first_follow=%d first_convo=%d first_line=%d\n",
		rs.firstFleeTick, rs.firstFollowTick, rs.firstConvoTick, rs.firstLineTick)
	fmt.Printf("event_totals: behavior_change=%d player_targets=%d arrivals=%d\n",
		rs.behaviorChanges, rs.targetsSet, rs.totals.Arrivals)
	fmt.Printf("crowd_events: flees=%d follows=%d convo_started=%d convo_finished=%d convo_aborted=%d lines=%d\n",
		rs.totals.FleesStarted, rs.totals.FollowsFormed, rs.totals.ConvosStarted,
		rs.totals.ConvosFinished, rs.totals.ConvosAborted, rs.totals.LinesSpoken)
	fmt.Printf("talkers: %s\n", joinSet(rs.talkers))
	if rs.windowSummary != nil {
		fmt.Print(rs.windowSummary.Format())
	}
	fmt.Println()
}

func printAggregate(all []runStats) {
	var sum sim.WorldStats
	totalChanges := 0
	fleeTicks := make([]int, 0, len(all))
	followTicks := make([]int, 0, len(all))
	convoTicks := make([]int, 0, len(all))
	talkersGlobal := map[string]struct{}{}
	behaviorPct := map[sim.Behavior]float64{}
	windows := 0

	for _, rs := range all {
		sum.FleesStarted += rs.totals.FleesStarted
		sum.FollowsFormed += rs.totals.FollowsFormed
		sum.ConvosStarted += rs.totals.ConvosStarted
		sum.ConvosFinished += rs.totals.ConvosFinished
		sum.ConvosAborted += rs.totals.ConvosAborted
		sum.LinesSpoken += rs.totals.LinesSpoken
		sum.Arrivals += rs.totals.Arrivals
		totalChanges += rs.behaviorChanges
		if rs.firstFleeTick >= 0 {
			fleeTicks = append(fleeTicks, rs.firstFleeTick)
		}
		if rs.firstFollowTick >= 0 {
			followTicks = append(followTicks, rs.firstFollowTick)
		}
		if rs.firstConvoTick >= 0 {
			convoTicks = append(convoTicks, rs.firstConvoTick)
		}
		for label := range rs.talkers {
			talkersGlobal[label] = struct{}{}
		}
		if ws := rs.windowSummary; ws != nil {
			windows++
			for b, pct := range ws.BehaviorPct {
				behaviorPct[b] += pct
			}
		}
	}

	n := len(all)
	fmt.Println("=== Aggregate ===")
	fmt.Printf("runs=%d\n", n)
	fmt.Printf("avg_events_per_run: behavior_change=%.1f flee=%.1f follow=%.1f arrivals=%.1f\n",
		avg(totalChanges, n), avg(sum.FleesStarted, n), avg(sum.FollowsFormed, n), avg(sum.Arrivals, n))
	fmt.Printf("avg_convos_per_run: started=%.1f finished=%.1f aborted=%.1f lines=%.1f\n",
		avg(sum.ConvosStarted, n), avg(sum.ConvosFinished, n), avg(sum.ConvosAborted, n), avg(sum.LinesSpoken, n))
	fmt.Printf("phase_marker_avg_ticks: first_flee=%s first_follow=%s first_convo=%s\n",
		avgTickString(fleeTicks), avgTickString(followTicks), avgTickString(convoTicks))
	fmt.Printf("unique_talkers=%d\n", len(talkersGlobal))
	if windows > 0 {
		fmt.Printf("last_window_behaviour_avg: %s\n", formatBehaviorPct(behaviorPct, windows))
	}
}

// formatBehaviorPct averages summed percentages over n windows, in
// declaration order.
func formatBehaviorPct(sum map[sim.Behavior]float64, n int) string {
	parts := make([]string, 0, len(sim.AllBehaviors))
	for _, b := range sim.AllBehaviors {
		parts = append(parts, fmt.Sprintf("%s=%.1f%%", b, sum[b]/float64(n)))
	}
	return strings.Join(parts, " ")
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}

func joinSet(s map[string]struct{}) string {
	if len(s) == 0 {
		return "none"
	}
	labels := make([]string, 0, len(s))
	for k := range s {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return strings.Join(labels, ",")
}
