package sim

import (
	"fmt"
	"strings"
)

// SimLogEntry is one recorded event during a simulation run.
type SimLogEntry struct {
	Tick     int
	Entity   string  // label e.g. "P", "N3", or "--" for global events
	Kind     string  // "player", "npc", or "--"
	Category string  // behavior, convo, steer, world, move
	Key      string  // specific event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[T=042] N3   behavior  change           wander → flee
func (e SimLogEntry) String() string {
	return fmt.Sprintf("[T=%03d] %-4s %-9s %-16s %s",
		e.Tick, e.Entity, e.Category, e.Key, e.Value)
}

// SimLog collects structured events. Unlike ThoughtLog (UI ring-buffer),
// SimLog is unbounded and machine-readable.
type SimLog struct {
	entries []SimLogEntry
	verbose bool
}

// NewSimLog creates a SimLog. If verbose is true, per-tick position and speed
// entries are also recorded.
func NewSimLog(verbose bool) *SimLog {
	return &SimLog{verbose: verbose}
}

// Verbose reports whether per-tick entries are recorded.
func (sl *SimLog) Verbose() bool {
	return sl.verbose
}

// Add records a new entry.
func (sl *SimLog) Add(tick int, entity, kind, category, key, value string, numVal float64) {
	sl.entries = append(sl.entries, SimLogEntry{
		Tick:     tick,
		Entity:   entity,
		Kind:     kind,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (sl *SimLog) AddVerbose(tick int, entity, kind, category, key, value string, numVal float64) {
	if !sl.verbose {
		return
	}
	sl.Add(tick, entity, kind, category, key, value, numVal)
}

// Entries returns all recorded entries.
func (sl *SimLog) Entries() []SimLogEntry {
	return sl.entries
}

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (sl *SimLog) Filter(category, key string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterEntity returns entries for a specific entity label.
func (sl *SimLog) FilterEntity(label string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Entity == label {
			out = append(out, e)
		}
	}
	return out
}

// FilterTickRange returns entries within [fromTick, toTick] inclusive.
func (sl *SimLog) FilterTickRange(fromTick, toTick int) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Tick >= fromTick && e.Tick <= toTick {
			out = append(out, e)
		}
	}
	return out
}

// CountCategory returns how many entries match the given category and key.
func (sl *SimLog) CountCategory(category, key string) int {
	return len(sl.Filter(category, key))
}

// LastOf returns the most recent entry matching category+key, or false if none.
func (sl *SimLog) LastOf(category, key string) (SimLogEntry, bool) {
	entries := sl.Filter(category, key)
	if len(entries) == 0 {
		return SimLogEntry{}, false
	}
	return entries[len(entries)-1], true
}

// HasEntry returns true if at least one entry matches category, key, and value substring.
func (sl *SimLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// Format returns the full log as a single string for t.Log output.
func (sl *SimLog) Format() string {
	return formatEntries(sl.entries)
}

// FormatRange returns a log string filtered to a tick range.
func (sl *SimLog) FormatRange(fromTick, toTick int) string {
	return formatEntries(sl.FilterTickRange(fromTick, toTick))
}

func formatEntries(entries []SimLogEntry) string {
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Summary returns a short human-readable summary of the world state.
func (sl *SimLog) Summary(tick int, entities []*Entity, reg *Registry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Summary at T=%03d ---\n", tick)

	counts := map[Behavior]int{}
	for _, e := range entities {
		if e.Kind == KindNPC {
			counts[e.Behavior()]++
		}
	}
	sb.WriteString("NPC behaviours: ")
	for _, b := range AllBehaviors {
		if n := counts[b]; n > 0 {
			fmt.Fprintf(&sb, "%s=%d  ", b, n)
		}
	}
	sb.WriteByte('\n')

	byID := make(map[EntityID]string, len(entities))
	for _, e := range entities {
		byID[e.ID] = e.Label
	}
	label := func(id EntityID) string {
		if l, ok := byID[id]; ok {
			return l
		}
		return fmt.Sprintf("#%d", id)
	}

	leaders := reg.Leaders()
	if len(leaders) == 0 {
		sb.WriteString("Groups: none\n")
	}
	for _, l := range leaders {
		fs := reg.Followers(l)
		names := make([]string, len(fs))
		for i, f := range fs {
			names[i] = label(f)
		}
		fmt.Fprintf(&sb, "Group: %s ← [%s]", label(l), strings.Join(names, ", "))
		if c, ok := reg.Conversation(l); ok {
			fmt.Fprintf(&sb, "  convo=%s/%d with %s", c.Phase, c.Countdown, label(c.Follower))
		}
		sb.WriteByte('\n')
	}

	for _, e := range entities {
		if e.Kind == KindPlayer && e.Steering != nil {
			if t, ok := e.Steering.Target(); ok {
				fmt.Fprintf(&sb, "Player: (%.1f,%.1f) → (%.1f,%.1f) final=%v\n",
					e.Pos.X, e.Pos.Y, t.X, t.Y, e.Steering.FinalApproach)
			} else {
				fmt.Fprintf(&sb, "Player: (%.1f,%.1f) at rest\n", e.Pos.X, e.Pos.Y)
			}
		}
	}
	return sb.String()
}
