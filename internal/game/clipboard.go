package game

import (
	"github.com/atotto/clipboard"

	"github.com/Garsondee/Crowd-Sense/internal/sim"
)

// reportTicks is how much history a copied debug report covers.
const reportTicks = 600

// copyDebugReport puts a report on the inspected entity (or the player) on
// the system clipboard.
func (g *Game) copyDebugReport() {
	id := g.inspector.selected
	if id == sim.NoEntity {
		if p := g.world.Player(); p != nil {
			id = p.ID
		}
	}
	report := g.world.DebugReport(id, reportTicks)
	if report == "" {
		g.setStatus("nothing to report")
		return
	}
	if err := clipboard.WriteAll(report); err != nil {
		g.setStatus("clipboard: " + err.Error())
		return
	}
	g.setStatus("debug report copied")
}
