package game

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Crowd-Sense/internal/sim"
)

var (
	colVelocity  = color.RGBA{R: 40, G: 90, B: 220, A: 220}
	colTarget    = color.RGBA{R: 220, G: 40, B: 40, A: 255}
	colTargetLn  = color.RGBA{R: 220, G: 40, B: 40, A: 110}
	colFinalLn   = color.RGBA{R: 30, G: 170, B: 60, A: 200}
	colSlowdown  = color.RGBA{R: 240, G: 160, B: 40, A: 90}
	colMomentum  = color.RGBA{R: 200, G: 90, B: 200, A: 90}
	colFinalRing = color.RGBA{R: 30, G: 170, B: 60, A: 120}
	colDetection = color.RGBA{R: 90, G: 90, B: 90, A: 40}
	colWander    = color.RGBA{R: 90, G: 90, B: 90, A: 120}
	colLink      = color.RGBA{R: 40, G: 140, B: 160, A: 140}
)

// velocityScale stretches velocity vectors so a few units per tick read on
// screen.
const velocityScale = 10

// drawVelocity draws the scaled velocity vector from the entity centre.
func drawVelocity(dst *ebiten.Image, cam *sim.Camera, e sim.EntitySnapshot) {
	if e.Vel.IsZero() {
		return
	}
	from := cam.WorldToScreen(e.Pos)
	to := cam.WorldToScreen(e.Pos.Add(e.Vel.Scale(velocityScale)))
	vector.StrokeLine(dst, float32(from.X), float32(from.Y), float32(to.X), float32(to.Y), 2, colVelocity, true)
}

// drawPlayerOverlays shows the player's steering state: velocity, target
// marker, the approach rings around the target and a line to it that turns
// green during final approach.
func (g *Game) drawPlayerOverlays(dst *ebiten.Image, snap sim.WorldSnapshot) {
	cam := g.world.Camera
	st := g.world.Config().Steering
	for _, e := range snap.Entities {
		if e.Kind != sim.KindPlayer {
			continue
		}
		drawVelocity(dst, cam, e)
		if len(e.Waypoints) == 0 {
			continue
		}
		t := cam.WorldToScreen(e.Waypoints[0])
		p := cam.WorldToScreen(e.Pos)
		tx, ty := float32(t.X), float32(t.Y)

		vector.StrokeCircle(dst, tx, ty, float32(st.SlowdownDistance), 1, colSlowdown, true)
		vector.StrokeCircle(dst, tx, ty, float32(st.MomentumReductionDistance), 1, colMomentum, true)
		vector.StrokeCircle(dst, tx, ty, float32(st.FinalApproachDistance), 1, colFinalRing, true)

		line := colTargetLn
		if e.FinalApproach {
			line = colFinalLn
		}
		vector.StrokeLine(dst, float32(p.X), float32(p.Y), tx, ty, 1, line, true)
		vector.FillCircle(dst, tx, ty, 5, colTarget, true)
	}
}

// drawNPCOverlays shows detection radii, wander targets, velocity and the
// follow/conversation links between NPCs. Drawn under the bodies.
func (g *Game) drawNPCOverlays(dst *ebiten.Image, snap sim.WorldSnapshot) {
	cam := g.world.Camera
	pos := make(map[sim.EntityID]sim.Vec2, len(snap.Entities))
	for _, e := range snap.Entities {
		pos[e.ID] = e.Pos
	}

	for _, e := range snap.Entities {
		if e.Kind != sim.KindNPC || !cam.IsVisible(e.Pos, e.DetectionRadius) {
			continue
		}
		p := cam.WorldToScreen(e.Pos)
		px, py := float32(p.X), float32(p.Y)

		vector.StrokeCircle(dst, px, py, float32(e.DetectionRadius), 1, colDetection, true)

		if e.HasWanderTarget {
			w := cam.WorldToScreen(e.WanderTarget)
			vector.StrokeLine(dst, px, py, float32(w.X), float32(w.Y), 1, colWander, true)
			vector.StrokeRect(dst, float32(w.X)-3, float32(w.Y)-3, 6, 6, 1, colWander, true)
		}

		if e.Behavior == sim.BehaviorFollow || e.Behavior == sim.BehaviorTalking {
			if lp, ok := pos[e.Target]; ok {
				l := cam.WorldToScreen(lp)
				vector.StrokeLine(dst, px, py, float32(l.X), float32(l.Y), 1.5, colLink, true)
			}
		}
		drawVelocity(dst, cam, e)
	}
}
