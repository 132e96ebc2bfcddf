package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/Garsondee/Crowd-Sense/internal/sim"
)

// statusRows is the number of terminal rows reserved under the map.
const statusRows = 2

// nudgeTicks scales the player's cruise speed into one arrow-key step.
const nudgeTicks = 10

// cellMapper maps world coordinates onto a grid of terminal cells.
type cellMapper struct {
	cols, rows     int
	worldW, worldH float64
}

func newCellMapper(screenW, screenH int, worldW, worldH float64) cellMapper {
	rows := screenH - statusRows
	if rows < 1 {
		rows = 1
	}
	if screenW < 1 {
		screenW = 1
	}
	return cellMapper{cols: screenW, rows: rows, worldW: worldW, worldH: worldH}
}

// cell returns the terminal cell holding p, clamped to the map area.
func (m cellMapper) cell(p sim.Vec2) (int, int) {
	x := int(p.X / m.worldW * float64(m.cols))
	y := int(p.Y / m.worldH * float64(m.rows))
	return clampInt(x, 0, m.cols-1), clampInt(y, 0, m.rows-1)
}

// world returns the world point at the centre of cell (x, y).
func (m cellMapper) world(x, y int) sim.Vec2 {
	return sim.V(
		(float64(x)+0.5)*m.worldW/float64(m.cols),
		(float64(y)+0.5)*m.worldH/float64(m.rows),
	)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// glyph picks the rune drawn for an entity.
func glyph(e sim.EntitySnapshot) rune {
	if e.Kind == sim.KindPlayer {
		return '@'
	}
	switch e.Behavior {
	case sim.BehaviorFollow:
		return 'f'
	case sim.BehaviorFlee:
		return '!'
	case sim.BehaviorTalking:
		return 't'
	case sim.BehaviorIdle:
		return '.'
	default:
		return 'o'
	}
}

func entityStyle(e sim.EntitySnapshot) tcell.Style {
	if e.Kind == sim.KindPlayer {
		return tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	}
	c := tcell.NewRGBColor(int32(e.Color.R), int32(e.Color.G), int32(e.Color.B))
	return tcell.StyleDefault.Foreground(c)
}

// nudge moves the player's goal by one arrow-key step from its current
// target, or from its position when it has none.
func nudge(w *sim.World, dx, dy float64) bool {
	p := w.Player()
	if p == nil {
		return false
	}
	from := p.Pos
	if t, ok := p.Steering.Target(); ok {
		from = t
	}
	step := w.Config().Player.Speed * nudgeTicks
	return w.SetPlayerTarget(from.Add(sim.V(dx*step, dy*step)))
}

// drawWorld paints the map, speech lines and status rows.
func drawWorld(s tcell.Screen, w *sim.World, paused bool) {
	s.Clear()
	sw, sh := s.Size()
	snap := w.Snapshot()
	m := newCellMapper(sw, sh, snap.Width, snap.Height)

	dim := tcell.StyleDefault.Foreground(tcell.ColorGray)
	for _, e := range snap.Entities {
		if e.Kind != sim.KindPlayer || len(e.Waypoints) == 0 {
			continue
		}
		x, y := m.cell(e.Waypoints[0])
		s.SetContent(x, y, 'x', nil, tcell.StyleDefault.Foreground(tcell.ColorRed))
	}
	for _, e := range snap.Entities {
		if !e.Visible {
			continue
		}
		x, y := m.cell(e.Pos)
		s.SetContent(x, y, glyph(e), nil, entityStyle(e))
	}
	for _, e := range snap.Entities {
		if e.Speech == "" {
			continue
		}
		x, y := m.cell(e.Pos)
		if y+1 < m.rows {
			drawText(s, x-len(e.Speech)/2, y+1, sw, e.Speech, entityStyle(e).Reverse(true))
		}
	}

	reg := w.Registry()
	state := "running"
	if paused {
		state = "paused"
	}
	drawText(s, 0, sh-2, sw, fmt.Sprintf("T=%d %s  entities=%d groups=%d convos=%d",
		snap.Tick, state, len(snap.Entities), reg.GroupCount(), reg.ConversationCount()), dim)
	drawText(s, 0, sh-1, sw, "arrows=move target  space=pause  q=quit", dim)
	s.Show()
}

func drawText(s tcell.Screen, x, y, maxW int, text string, style tcell.Style) {
	for _, r := range text {
		if x >= maxW {
			return
		}
		if x >= 0 {
			s.SetContent(x, y, r, nil, style)
		}
		x++
	}
}
