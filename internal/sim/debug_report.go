package sim

import (
	"fmt"
	"strings"
)

// maxReportEvents caps the per-entity event list in a debug report.
const maxReportEvents = 24

// DebugReport renders a plain-text report on one entity covering the last
// lastTicks ticks of the world log. The entity's leader or conversation
// partner, when it has one, gets its own section.
func (w *World) DebugReport(id EntityID, lastTicks int) string {
	selected, ok := w.Lookup(id)
	if !ok {
		return ""
	}
	if lastTicks <= 0 {
		lastTicks = 120
	}

	toTick := w.tick
	fromTick := toTick - lastTicks + 1
	if fromTick < 0 {
		fromTick = 0
	}

	var related *Entity
	if selected.Mind != nil {
		if p, ok := w.Lookup(selected.Mind.Partner); ok {
			related = p
		} else if l, ok := w.reg.LeaderOf(selected.ID); ok {
			related, _ = w.Lookup(l)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- CrowdSense debug report ---\n")
	fmt.Fprintf(&b, "seed=%d tick_range=[%d..%d] ticks=%d entities=%d groups=%d convos=%d\n",
		w.cfg.Seed, fromTick, toTick, toTick-fromTick+1,
		len(w.entities), w.reg.GroupCount(), w.reg.ConversationCount())
	fmt.Fprintf(&b, "selected=%s kind=%s related=%s\n\n", selected.Label, selected.Kind, entityName(related))

	writeEntity := func(title string, e *Entity) {
		if e == nil {
			return
		}
		fmt.Fprintf(&b, "== %s (%s) ==\n", title, e.Label)
		fmt.Fprintf(&b, "pos=(%.1f,%.1f) vel=(%.2f,%.2f) speed=%.2f tag=%s\n",
			e.Pos.X, e.Pos.Y, e.Vel.X, e.Vel.Y, e.Speed(), e.Tag())
		if s := e.Steering; s != nil {
			if t, ok := s.Target(); ok {
				fmt.Fprintf(&b, "target=(%.1f,%.1f) dist=%.1f final=%t turn_cooldown=%d momentum=%.2f\n",
					t.X, t.Y, e.Pos.Dist(t), s.FinalApproach, s.TurnCooldown, s.Momentum)
			} else {
				b.WriteString("target=<none>\n")
			}
		}
		if m := e.Mind; m != nil {
			fmt.Fprintf(&b, "behavior=%s target=%s partner=%s wander_timer=%d/%d\n",
				m.State, w.labelOf(m.Target), w.labelOf(m.Partner), m.WanderTimer, m.WanderInterval)
			if fs := w.reg.Followers(e.ID); len(fs) > 0 {
				names := make([]string, len(fs))
				for i, f := range fs {
					names[i] = w.labelOf(f)
				}
				fmt.Fprintf(&b, "followers=[%s]\n", strings.Join(names, ", "))
			}
			if lid, c, ok := w.reg.ConversationOf(e.ID); ok {
				fmt.Fprintf(&b, "conversation leader=%s follower=%s phase=%s countdown=%d\n",
					w.labelOf(lid), w.labelOf(c.Follower), c.Phase, c.Countdown)
			}
		}
		if e.Speech.Active() {
			fmt.Fprintf(&b, "saying=%q for %d ticks\n", e.Speech.Text, e.Speech.Ticks)
		}

		events := w.entityEvents(e.Label, fromTick, toTick)
		if len(events) == 0 {
			b.WriteString("(no events in range)\n\n")
			return
		}
		b.WriteString("events:\n")
		for _, ev := range events {
			b.WriteString("  - ")
			b.WriteString(ev)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	writeEntity("SELECTED", selected)
	if related != nil && related != selected {
		writeEntity("RELATED", related)
	}
	return b.String()
}

// entityEvents lists non-verbose log lines for label within the range.
func (w *World) entityEvents(label string, fromTick, toTick int) []string {
	var out []string
	for _, e := range w.log.FilterTickRange(fromTick, toTick) {
		if e.Entity != label || e.Category == "move" {
			continue
		}
		out = append(out, fmt.Sprintf("T=%d %s %s %s", e.Tick, e.Category, e.Key, e.Value))
	}
	if len(out) > maxReportEvents {
		out = append(out[len(out)-maxReportEvents:], fmt.Sprintf("... (%d earlier events)", len(out)-maxReportEvents))
	}
	return out
}

func (w *World) labelOf(id EntityID) string {
	if id == NoEntity {
		return "<none>"
	}
	if e, ok := w.byID[id]; ok {
		return e.Label
	}
	return fmt.Sprintf("#%d(gone)", id)
}

func entityName(e *Entity) string {
	if e == nil {
		return "<none>"
	}
	return e.Label
}
