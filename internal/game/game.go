package game

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Crowd-Sense/internal/sim"
)

// borderWidth is the pixel gap between the window edge and the viewport.
const borderWidth = 12

// hudScale is the integer upscale factor applied to all HUD text.
const hudScale = 2

// gridSpacing is the world-space distance between grid lines.
const gridSpacing = 50

// reportEvery is how many ticks pass between reporter samples.
const reportEvery = 60

// simSpeeds are the selectable speed multipliers; 0 is paused.
var simSpeeds = []float64{0, 0.5, 1, 2, 4}

// Game adapts a sim.World to ebiten: input, fixed-step ticking and drawing.
type Game struct {
	world *sim.World

	width      int
	height     int
	viewWidth  int // viewport width (log panel takes the rest)
	viewHeight int
	offX       int // pixel offset from window left to viewport left
	offY       int

	thoughtLog *ThoughtLog
	logCursor  int // next SimLog entry to copy into the thought log
	reporter   *sim.SimReporter
	inspector  Inspector

	showHUD      bool
	showOverlays bool
	status       string // transient HUD line, e.g. clipboard result
	statusTicks  int

	// Offscreen buffer for the viewport; entities are drawn here and
	// clipped by the blit.
	viewBuf *ebiten.Image
	// Offscreen buffer for HUD text, rendered at 1x then blitted at hudScale.
	hudBuf *ebiten.Image
	// Offscreen buffer for the inspector panel.
	inspBuf *ebiten.Image

	// Simulation speed control.
	simSpeed  float64 // multiplier: 0=paused, 0.5, 1, 2, 4
	tickAccum float64 // fractional tick accumulator for sub-1x speeds
}

// New builds a world from cfg with the player in the centre and
// cfg.NPCCount NPCs scattered around it.
func New(cfg sim.Config) (*Game, error) {
	w, err := sim.NewWorld(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := w.AddPlayer(sim.V(cfg.WorldWidth/2, cfg.WorldHeight/2)); err != nil {
		return nil, err
	}
	if _, err := w.SpawnRandomNPCs(cfg.NPCCount); err != nil {
		return nil, fmt.Errorf("spawn npcs: %w", err)
	}

	vw, vh := int(cfg.ViewportWidth), int(cfg.ViewportHeight)
	return &Game{
		world:        w,
		width:        borderWidth + vw + borderWidth + logPanelWidth,
		height:       borderWidth + vh + borderWidth,
		viewWidth:    vw,
		viewHeight:   vh,
		offX:         borderWidth,
		offY:         borderWidth,
		thoughtLog:   NewThoughtLog(),
		reporter:     sim.NewSimReporter(0, false),
		showHUD:      true,
		showOverlays: true,
		simSpeed:     1,
	}, nil
}

// World exposes the simulation being rendered.
func (g *Game) World() *sim.World { return g.world }

func (g *Game) Update() error {
	// Handle input every frame regardless of sim speed.
	if err := g.handleInput(); err != nil {
		return err
	}
	if g.statusTicks > 0 {
		g.statusTicks--
	}

	if g.simSpeed <= 0 {
		return nil
	}

	// For speeds > 1 run multiple sim ticks per frame.
	// For speeds < 1 accumulate fractions.
	g.tickAccum += g.simSpeed
	for g.tickAccum >= 1.0 {
		g.tickAccum -= 1.0
		g.simTick()
	}
	return nil
}

// simTick advances the world once and mirrors new log events into the
// thought log.
func (g *Game) simTick() {
	g.world.Tick()

	entries := g.world.Log().Entries()
	for ; g.logCursor < len(entries); g.logCursor++ {
		e := entries[g.logCursor]
		msg, ok := thoughtFromLog(e)
		if !ok {
			continue
		}
		g.thoughtLog.Add(e.Tick, e.Entity, g.colorOf(e.Entity), msg)
	}

	if g.world.CurrentTick()%reportEvery == 0 {
		g.reporter.Collect(g.world)
	}
	if s := g.inspector.selected; s != sim.NoEntity {
		if _, ok := g.world.Lookup(s); !ok {
			g.inspector.selected = sim.NoEntity
		}
	}
}

// colorOf returns the colour of the entity with the given label, or grey
// when it is gone.
func (g *Game) colorOf(label string) color.RGBA {
	for _, e := range g.world.Entities() {
		if e.Label == label {
			if e.IsPlayer() {
				return color.RGBA{R: 230, G: 230, B: 230, A: 255}
			}
			return e.Color
		}
	}
	return color.RGBA{R: 120, G: 120, B: 120, A: 255}
}

// setStatus shows msg in the HUD for a couple of seconds.
func (g *Game) setStatus(msg string) {
	g.status = msg
	g.statusTicks = 120
}

func (g *Game) handleInput() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	// H: toggle HUD key legend.
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.showHUD = !g.showHUD
	}
	// O: toggle debug overlays.
	if inpututil.IsKeyJustPressed(ebiten.KeyO) {
		g.showOverlays = !g.showOverlays
	}
	// F: freeze or release the camera.
	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		if g.world.Camera.ToggleFixed() {
			g.setStatus("camera fixed")
		} else {
			g.setStatus("camera following")
		}
	}

	// Sim speed controls: P=pause/resume, ,=slower, .=faster.
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		if g.simSpeed > 0 {
			g.simSpeed = 0
		} else {
			g.simSpeed = 1
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyComma) {
		g.simSpeed = slowerSpeed(g.simSpeed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyPeriod) {
		g.simSpeed = fasterSpeed(g.simSpeed)
	}

	// I: toggle inspector raw/curated view.
	if inpututil.IsKeyJustPressed(ebiten.KeyI) {
		g.inspector.rawView = !g.inspector.rawView
	}
	// C: copy a debug report for the selected entity.
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.copyDebugReport()
	}

	// Left click: move the player, or inspect with Shift held.
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		if p, ok := g.viewportPoint(mx, my); ok {
			world := g.world.Camera.ScreenToWorld(p)
			if ebiten.IsKeyPressed(ebiten.KeyShift) {
				g.handleInspectorClick(world)
			} else {
				g.world.SetPlayerTarget(world)
			}
		}
	}
	return nil
}

// viewportPoint converts window pixels to viewport coordinates, reporting
// false when the point lies outside the viewport.
func (g *Game) viewportPoint(mx, my int) (sim.Vec2, bool) {
	x, y := mx-g.offX, my-g.offY
	if x < 0 || y < 0 || x >= g.viewWidth || y >= g.viewHeight {
		return sim.Vec2{}, false
	}
	return sim.V(float64(x), float64(y)), true
}

func slowerSpeed(cur float64) float64 {
	for i, s := range simSpeeds {
		if s >= cur && i > 0 {
			return simSpeeds[i-1]
		}
	}
	return cur
}

func fasterSpeed(cur float64) float64 {
	for _, s := range simSpeeds {
		if s > cur {
			return s
		}
	}
	return cur
}

// ensureBuffers allocates the offscreen images on first draw.
func (g *Game) ensureBuffers() {
	if g.viewBuf == nil {
		g.viewBuf = ebiten.NewImage(g.viewWidth, g.viewHeight)
		g.hudBuf = ebiten.NewImage(g.width/hudScale, g.height/hudScale)
		g.inspBuf = ebiten.NewImage(inspBufW, inspBufH)
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.ensureBuffers()
	screen.Fill(color.RGBA{R: 12, G: 13, B: 16, A: 255})

	snap := g.world.Snapshot()

	g.viewBuf.Fill(color.RGBA{R: 235, G: 235, B: 230, A: 255})
	g.drawWorld(g.viewBuf, snap)

	var blit ebiten.DrawImageOptions
	blit.GeoM.Translate(float64(g.offX), float64(g.offY))
	screen.DrawImage(g.viewBuf, &blit)

	// Viewport frame.
	ox, oy := float32(g.offX), float32(g.offY)
	vw, vh := float32(g.viewWidth), float32(g.viewHeight)
	vector.StrokeRect(screen, ox-1, oy-1, vw+2, vh+2, 2.0, color.RGBA{R: 70, G: 80, B: 100, A: 255}, false)

	logX := g.offX + g.viewWidth + g.offX
	g.thoughtLog.Draw(screen, logX, g.height)

	if g.showHUD {
		g.drawHUD(screen, snap)
	}
	g.drawInspector(screen)
}

// drawWorld renders grid, boundary, entities, overlays and speech into the
// viewport buffer.
func (g *Game) drawWorld(dst *ebiten.Image, snap sim.WorldSnapshot) {
	cam := g.world.Camera

	// Grid aligned to world coordinates.
	gx := -float32(int(cam.Offset.X) % gridSpacing)
	gy := -float32(int(cam.Offset.Y) % gridSpacing)
	drawGridOffset(dst, gx, gy, g.viewWidth+gridSpacing, g.viewHeight+gridSpacing, gridSpacing,
		color.RGBA{R: 200, G: 200, B: 195, A: 255})

	// World boundary.
	origin := cam.WorldToScreen(sim.Vec2{})
	vector.StrokeRect(dst, float32(origin.X), float32(origin.Y), float32(snap.Width), float32(snap.Height),
		3, color.RGBA{R: 60, G: 60, B: 70, A: 255}, false)

	if g.showOverlays {
		g.drawNPCOverlays(dst, snap)
	}

	for _, e := range snap.Entities {
		if !e.Visible || !cam.IsVisible(e.Pos, e.Radius) {
			continue
		}
		p := cam.WorldToScreen(e.Pos)
		vector.FillCircle(dst, float32(p.X), float32(p.Y), float32(e.Radius), e.Color, true)
		if e.ID == g.inspector.selected {
			vector.StrokeCircle(dst, float32(p.X), float32(p.Y), float32(e.Radius)+4, 2,
				color.RGBA{R: 240, G: 180, B: 40, A: 255}, true)
		}
	}

	if g.showOverlays {
		g.drawPlayerOverlays(dst, snap)
	}
	g.drawSpeechBubbles(dst, snap)
}

func (g *Game) drawHUD(screen *ebiten.Image, snap sim.WorldSnapshot) {
	speedStr := "1x"
	switch {
	case g.simSpeed == 0:
		speedStr = "PAUSED"
	case g.simSpeed != 1:
		speedStr = fmt.Sprintf("%gx", g.simSpeed)
	}
	camStr := "follow"
	if g.world.Camera.Fixed {
		camStr = "fixed"
	}

	reg := g.world.Registry()
	lines := []string{
		fmt.Sprintf("T=%d  SIM: %s  P=pause  ,/. speed", snap.Tick, speedStr),
		fmt.Sprintf("NPCs: %d  groups: %d  talking: %d", len(snap.Entities)-1, reg.GroupCount(), reg.ConversationCount()),
		fmt.Sprintf("camera: %s  [F] toggle", camStr),
		"click=move  shift+click=inspect",
		"[O] overlays  [C] copy report",
		"[H] toggle HUD  [Esc] quit",
	}
	if p := g.world.Player(); p != nil {
		lines = append(lines, fmt.Sprintf("player: %s speed=%.2f", p.Tag(), p.Speed()))
	}
	if r := g.reporter.Latest(); r != nil {
		lines = append(lines, fmt.Sprintf("avg npc speed %.2f  scan checks %d", r.AvgNPCSpeed, r.ScanComparisons))
	}
	if g.statusTicks > 0 && g.status != "" {
		lines = append(lines, g.status)
	}

	// Render into hudBuf at 1x, then scale up.
	const lineH = 12 // debug font line height at 1x
	const charW = 6  // debug font char width at 1x
	const padX = 5
	const padY = 4

	maxLen := 0
	for _, l := range lines {
		if len(l) > maxLen {
			maxLen = len(l)
		}
	}
	boxW := float32(maxLen*charW + padX*2)
	boxH := float32(len(lines)*lineH + padY*2)

	bufH := float32(g.height / hudScale)
	bx := float32(g.offX/hudScale + 2)
	by := bufH - boxH - float32(g.offY/hudScale) - 2

	g.hudBuf.Clear()
	vector.FillRect(g.hudBuf, bx, by, boxW, boxH,
		color.RGBA{R: 8, G: 10, B: 14, A: 200}, false)
	vector.StrokeRect(g.hudBuf, bx, by, boxW, boxH,
		1.0, color.RGBA{R: 70, G: 90, B: 120, A: 180}, false)

	for i, line := range lines {
		tx := int(bx) + padX
		ty := int(by) + padY + i*lineH
		ebitenutil.DebugPrintAt(g.hudBuf, line, tx, ty)
	}

	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(float64(hudScale), float64(hudScale))
	screen.DrawImage(g.hudBuf, opts)
}

func drawGridOffset(screen *ebiten.Image, ox, oy float32, w, h, spacing int, c color.Color) {
	if spacing <= 0 {
		return
	}
	for x := 0; x <= w; x += spacing {
		xf := ox + float32(x)
		vector.StrokeLine(screen, xf, oy, xf, oy+float32(h), 1.0, c, false)
	}
	for y := 0; y <= h; y += spacing {
		yf := oy + float32(y)
		vector.StrokeLine(screen, ox, yf, ox+float32(w), yf, 1.0, c, false)
	}
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}

// WindowSize returns the preferred window size in pixels.
func (g *Game) WindowSize() (int, int) {
	return g.width, g.height
}
