package main

import (
	"flag"
	"log"

	"github.com/Garsondee/Crowd-Sense/internal/game"
	"github.com/Garsondee/Crowd-Sense/internal/sim"
	"github.com/hajimehoshi/ebiten/v2"
)

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

	g, err := game.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	ebiten.SetWindowTitle("Crowd Sense")
	ebiten.SetWindowSize(g.WindowSize())
	ebiten.SetTPS(cfg.TargetTPS)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
