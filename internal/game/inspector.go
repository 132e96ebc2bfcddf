package game

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Crowd-Sense/internal/sim"
)

// Inspector panel, rendered into an offscreen buffer at 1x then blitted at inspScale.
const (
	inspScale = 2   // scale factor for inspector text rendering
	inspBufW  = 200 // buffer width in pixels (~32 chars at debug font)
	inspBufH  = 200 // buffer height in pixels
	inspPad   = 4   // padding in buffer-space pixels
	inspLineH = 13  // line height in buffer-space pixels
)

// inspPickRadius is the extra world distance around a body that still
// counts as a hit.
const inspPickRadius = 6.0

// Inspector holds the selected entity and view toggle state.
type Inspector struct {
	selected sim.EntityID
	rawView  bool // false = curated, true = raw dump
}

// handleInspectorClick selects the entity nearest to the world point, or
// clears the selection when nothing is under it.
func (g *Game) handleInspectorClick(p sim.Vec2) bool {
	best := -1.0
	hit := sim.NoEntity
	for _, e := range g.world.Entities() {
		d := e.Pos.Dist(p)
		if d > e.Radius+inspPickRadius {
			continue
		}
		if best < 0 || d < best {
			best = d
			hit = e.ID
		}
	}
	g.inspector.selected = hit
	return hit != sim.NoEntity
}

// drawInspector renders the inspector panel into an offscreen buffer at 1x,
// then blits it onto the screen at inspScale.
func (g *Game) drawInspector(screen *ebiten.Image) {
	e, ok := g.world.Lookup(g.inspector.selected)
	if !ok {
		return
	}

	g.inspBuf.Clear()

	buf := g.inspBuf
	bw := float32(inspBufW)
	bh := float32(inspBufH)

	panelBorder := color.RGBA{R: 60, G: 75, B: 100, A: 255}
	vector.FillRect(buf, 0, 0, bw, bh, color.RGBA{R: 14, G: 16, B: 20, A: 230}, false)
	vector.StrokeRect(buf, 0, 0, bw, bh, 1.0, panelBorder, false)
	vector.FillRect(buf, 1, 1, 3, bh-2, e.Color, false)

	lx := inspPad + 4
	ly := inspPad

	ebitenutil.DebugPrintAt(buf, fmt.Sprintf("[ %s %s ]", e.Kind, e.Label), lx, ly)
	ly += inspLineH + 2

	viewName := "CURATED"
	if g.inspector.rawView {
		viewName = "RAW"
	}
	ebitenutil.DebugPrintAt(buf, fmt.Sprintf("view: %s  [I] toggle", viewName), lx, ly)
	ly += inspLineH + 4

	vector.StrokeLine(buf, float32(lx), float32(ly), bw-float32(inspPad), float32(ly), 1.0, panelBorder, false)
	ly += 4

	var lines []string
	if g.inspector.rawView {
		lines = g.inspectRaw(e)
	} else {
		lines = g.inspectCurated(e)
	}
	for _, l := range lines {
		if ly+inspLineH > inspBufH {
			break
		}
		ebitenutil.DebugPrintAt(buf, l, lx, ly)
		ly += inspLineH
	}

	// Bottom-right of the viewport.
	px := g.offX + g.viewWidth - inspBufW*inspScale - 8
	py := g.offY + g.viewHeight - inspBufH*inspScale - 8
	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(float64(inspScale), float64(inspScale))
	opts.GeoM.Translate(float64(px), float64(py))
	screen.DrawImage(buf, opts)
}

// inspectCurated lists the human-readable state of e.
func (g *Game) inspectCurated(e *sim.Entity) []string {
	reg := g.world.Registry()
	out := []string{
		fmt.Sprintf("pos (%.0f,%.0f) speed %.2f", e.Pos.X, e.Pos.Y, e.Speed()),
		fmt.Sprintf("state: %s", e.Tag()),
	}

	if s := e.Steering; s != nil {
		if t, ok := s.Target(); ok {
			out = append(out, fmt.Sprintf("target (%.0f,%.0f) %.0f away", t.X, t.Y, e.Pos.Dist(t)))
		} else {
			out = append(out, "target: none")
		}
		if s.FinalApproach {
			out = append(out, "final approach")
		}
	}

	if m := e.Mind; m != nil {
		switch m.State {
		case sim.BehaviorFollow:
			out = append(out, "following "+g.labelOf(m.Target))
		case sim.BehaviorFlee:
			out = append(out, "fleeing "+g.labelOf(m.Target))
		case sim.BehaviorTalking:
			out = append(out, "talking to "+g.labelOf(m.Partner))
		case sim.BehaviorWander:
			out = append(out, fmt.Sprintf("next wander in %d", m.WanderInterval-m.WanderTimer))
		}
		if fs := reg.Followers(e.ID); len(fs) > 0 {
			names := make([]string, len(fs))
			for i, f := range fs {
				names[i] = g.labelOf(f)
			}
			out = append(out, "followers: "+strings.Join(names, ","))
		}
		if _, c, ok := reg.ConversationOf(e.ID); ok {
			out = append(out, fmt.Sprintf("convo: %s (%d)", c.Phase, c.Countdown))
		}
	}
	if e.Speech.Active() {
		out = append(out, fmt.Sprintf("says %q", e.Speech.Text))
	}
	return out
}

// inspectRaw dumps the body, steering and mind fields of e.
func (g *Game) inspectRaw(e *sim.Entity) []string {
	out := []string{
		fmt.Sprintf("id=%d kind=%d act=%v vis=%v", e.ID, e.Kind, e.Active, e.Visible),
		fmt.Sprintf("pos=(%.1f,%.1f)", e.Pos.X, e.Pos.Y),
		fmt.Sprintf("vel=(%.2f,%.2f)", e.Vel.X, e.Vel.Y),
		fmt.Sprintf("r=%.0f acc=%.2f fr=%.2f", e.Radius, e.Accel, e.Friction),
		fmt.Sprintf("maxv=%.2f col=%v", e.MaxVelocity, e.Collidable),
	}
	if s := e.Steering; s != nil {
		out = append(out,
			"-- steering --",
			fmt.Sprintf("path=%d mov=%v fin=%v", len(s.Path), s.Moving, s.FinalApproach),
			fmt.Sprintf("cd=%d mom=%.2f", s.TurnCooldown, s.Momentum),
			fmt.Sprintf("prev=(%.2f,%.2f)", s.PrevDir.X, s.PrevDir.Y),
		)
	}
	if m := e.Mind; m != nil {
		out = append(out,
			"-- mind --",
			fmt.Sprintf("st=%s tgt=%d prt=%d", m.State, m.Target, m.Partner),
			fmt.Sprintf("wt=(%.0f,%.0f) has=%v", m.WanderTarget.X, m.WanderTarget.Y, m.HasWanderTarget),
			fmt.Sprintf("timer=%d/%d", m.WanderTimer, m.WanderInterval),
			fmt.Sprintf("det=%.0f fol=%.0f flee=%.0f", m.DetectionRadius, m.FollowDistance, m.FleeDistance),
		)
	}
	if e.Speech.Active() {
		out = append(out, fmt.Sprintf("say=%q t=%d", e.Speech.Text, e.Speech.Ticks))
	}
	return out
}

func (g *Game) labelOf(id sim.EntityID) string {
	if e, ok := g.world.Lookup(id); ok {
		return e.Label
	}
	return "-"
}
