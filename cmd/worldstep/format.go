package main

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/talgya/regime-world/internal/engine"
	"github.com/talgya/regime-world/internal/snapshot"
	"github.com/talgya/regime-world/internal/world"
)

func printHeader(path string, h snapshot.Header) {
	size := "?"
	if info, err := os.Stat(path); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	fmt.Printf("Snapshot %s (v%d, %s)\n", path, h.Version, size)
	fmt.Printf("  world:   %s\n", h.WorldID)
	fmt.Printf("  step:    %d\n", h.Step)
	fmt.Printf("  regimes: %d\n", h.Regimes)
	if h.Done {
		fmt.Println("  game over")
	}
}

func printStats(st engine.TurnStats) {
	fmt.Printf("step %4d  regimes %2d  conflicts %2d  trades %3d  volume %7.3f  alliances %2d  migrations %2d",
		st.Step, st.Regimes, st.Conflicts, st.Trades, st.Volume, st.Alliances, st.Migrations)
	if len(st.Fallen) > 0 {
		fmt.Printf("  fallen %s", strings.Join(st.Fallen, ","))
	}
	fmt.Println()
}

func printRegimes(w *world.World) {
	fmt.Printf("  %-12s %-14s %7s %6s %6s %6s\n", "REGIME", "TYPE", "WEALTH", "CI", "PS", "TA")
	for _, r := range w.Regimes {
		mark := ""
		if w.Player != nil && w.Player.ID == r.ID {
			mark = " *"
		}
		fmt.Printf("  %-12s %-14s %7.3f %6.3f %6.3f %6.3f%s\n",
			r.Name, r.Type.Name(), r.Wealth, r.CI, r.Externals.PS, r.Externals.TA, mark)
	}
}

func printWorld(w *world.World) {
	g := w.Globals
	fmt.Printf("\nGlobals: GG %.4f  IR %.4f  RA %.3f  ES %.3f  TS %.3f  CS %.3f\n", g.GG, g.IR, g.RA, g.ES, g.TS, g.CS)
	if g.Difficulty != "" {
		fmt.Printf("Difficulty: %s (%d substeps, %.0f years per turn)\n", g.Difficulty, g.Substeps, g.TurnYears)
	}
	fmt.Println()
	printRegimes(w)

	if len(w.Alliances) > 0 {
		fmt.Printf("\nAlliances (%d):\n", len(w.Alliances))
		for _, p := range w.Alliances {
			fmt.Printf("  %s <-> %s\n", p[0], p[1])
		}
	}

	if len(w.FallReasons) > 0 {
		ids := make([]string, 0, len(w.FallReasons))
		for id := range w.FallReasons {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		fmt.Printf("\nFallen (%d):\n", len(ids))
		for _, id := range ids {
			fr := w.FallReasons[id]
			if fr.By != "" {
				fmt.Printf("  %s: %s (by %s)\n", id, fr.Text, fr.By)
			} else {
				fmt.Printf("  %s: %s\n", id, fr.Text)
			}
		}
	}

	if w.Player != nil {
		fmt.Printf("\nPlayer: %s (%s)", w.Player.Name, w.Player.Rule)
		if w.Done {
			fmt.Printf(" fell at step %d", w.EndedAt)
		}
		m := w.Player.Meters
		fmt.Printf("\n  PC %.2f  HC %.2f  HEAT %.2f\n", m.PC, m.HC, m.HEAT)
	}
}
