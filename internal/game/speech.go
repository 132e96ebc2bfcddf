package game

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/Garsondee/Crowd-Sense/internal/sim"
)

// speechFace renders bubble text. basicfont is a fixed 7x13 bitmap face.
var speechFace = text.NewGoXFace(basicfont.Face7x13)

// speechFadeTicks is how many remaining ticks a line takes to fade out.
const speechFadeTicks = 20

// speechAlpha maps the remaining display ticks of a line to an opacity.
func speechAlpha(remaining int) float32 {
	switch {
	case remaining <= 0:
		return 0
	case remaining >= speechFadeTicks:
		return 1
	default:
		return float32(remaining) / speechFadeTicks
	}
}

// drawSpeechBubbles renders the active line of every visible entity above
// its body. Positions are already in viewport space.
func (g *Game) drawSpeechBubbles(screen *ebiten.Image, snap sim.WorldSnapshot) {
	cam := g.world.Camera
	for _, e := range snap.Entities {
		if e.Speech == "" || !e.Visible || !cam.IsVisible(e.Pos, e.Radius+40) {
			continue
		}
		alpha := speechAlpha(e.SpeechTicks)
		if alpha < 0.05 {
			continue
		}

		const padX = 5
		const padY = 3
		tw, th := text.Measure(e.Speech, speechFace, 0)
		bgW := float32(tw) + padX*2 + 3
		bgH := float32(th) + padY*2

		p := cam.WorldToScreen(e.Pos)
		sx, sy := float32(p.X), float32(p.Y)
		bgX := sx - bgW/2
		bgY := sy - float32(e.Radius) - bgH - 6

		vector.FillRect(screen, bgX, bgY, bgW, bgH, color.RGBA{R: 20, G: 22, B: 26, A: uint8(210 * alpha)}, false)

		// Accent stripe in the speaker's colour.
		accent := e.Color
		accent.A = uint8(220 * alpha)
		vector.FillRect(screen, bgX, bgY, 3, bgH, accent, false)
		vector.StrokeRect(screen, bgX, bgY, bgW, bgH, 0.5,
			color.RGBA{R: 100, G: 100, B: 100, A: uint8(80 * alpha)}, false)

		op := &text.DrawOptions{}
		op.GeoM.Translate(float64(bgX)+padX+3, float64(bgY)+padY)
		op.ColorScale.ScaleAlpha(alpha)
		text.Draw(screen, e.Speech, speechFace, op)

		// Connector down to the speaker.
		vector.StrokeLine(screen, sx, bgY+bgH, sx, sy-float32(e.Radius),
			0.5, color.RGBA{R: 100, G: 100, B: 100, A: uint8(60 * alpha)}, false)
	}
}
