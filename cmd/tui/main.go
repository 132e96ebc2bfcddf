package main

import (
	"flag"
	"log"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/Garsondee/Crowd-Sense/internal/sim"
)

const sampleRate = beep.SampleRate(44100)

// viewer drives a world from a tcell event loop.
type viewer struct {
	screen    tcell.Screen
	world     *sim.World
	paused    bool
	audioInit bool
}

func newViewer(cfg sim.Config) (*viewer, error) {
	w, err := sim.NewWorld(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := w.AddPlayer(sim.V(cfg.WorldWidth/2, cfg.WorldHeight/2)); err != nil {
		return nil, err
	}
	if _, err := w.SpawnRandomNPCs(cfg.NPCCount); err != nil {
		return nil, err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	v := &viewer{screen: screen, world: w}
	if err := v.initAudio(); err != nil {
		// Non-fatal, the viewer runs silently.
		log.Printf("Audio initialization failed: %v", err)
	}
	return v, nil
}

func (v *viewer) initAudio() error {
	err := speaker.Init(sampleRate, sampleRate.N(time.Second/10))
	if err == nil {
		v.audioInit = true
	}
	return err
}

// blip plays a short tone; the leader's greeting is pitched above the
// follower's reply.
func (v *viewer) blip(freq int) {
	if !v.audioInit {
		return
	}
	sine, err := generators.SineTone(sampleRate, float64(freq))
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(60*time.Millisecond), sine))
}

// handleInput reports false when the viewer should exit.
func (v *viewer) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyUp:
			nudge(v.world, 0, -1)
		case tcell.KeyDown:
			nudge(v.world, 0, 1)
		case tcell.KeyLeft:
			nudge(v.world, -1, 0)
		case tcell.KeyRight:
			nudge(v.world, 1, 0)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				v.paused = !v.paused
			}
		}
	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 != 0 {
			sw, sh := v.screen.Size()
			snap := v.world.Snapshot()
			m := newCellMapper(sw, sh, snap.Width, snap.Height)
			x, y := ev.Position()
			if y < m.rows {
				v.world.SetPlayerTarget(m.world(x, y))
			}
		}
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

func (v *viewer) step() {
	v.world.Tick()
	for _, ev := range v.world.LastConvoEvents() {
		if ev.Key != "line" {
			continue
		}
		if ev.Speaker == ev.Leader {
			v.blip(880)
		} else {
			v.blip(660)
		}
	}
}

func (v *viewer) run(tps int) {
	ticker := time.NewTicker(time.Second / time.Duration(tps))
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- v.screen.PollEvent()
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if ev == nil || !v.handleInput(ev) {
				return
			}
		case <-ticker.C:
			if !v.paused {
				v.step()
			}
			drawWorld(v.screen, v.world, v.paused)
		}
	}
}

func (v *viewer) cleanup() {
	if v.audioInit {
		speaker.Close()
	}
	v.screen.Fini()
}

func main() {
	configPath := flag.String("config", "", "TOML file overriding the default tuning")
	seed := flag.Int64("seed", 0, "RNG seed (0 keeps the configured seed)")
	npcs := flag.Int("npcs", -1, "NPC count (default: from config)")
	flag.Parse()

	cfg := sim.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = sim.LoadConfig(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *npcs >= 0 {
		cfg.NPCCount = *npcs
	}

	v, err := newViewer(cfg)
	if err != nil {
		log.Fatal(err)
	}
	v.screen.EnableMouse()
	defer v.cleanup()
	v.run(cfg.TargetTPS)
}
