package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/talgya/regime-world/internal/engine"
	"github.com/talgya/regime-world/internal/entropy"
	"github.com/talgya/regime-world/internal/rules"
	"github.com/talgya/regime-world/internal/snapshot"
	"github.com/talgya/regime-world/internal/world"
)

func loadRules() (rules.Rules, error) {
	if rulesPath == "" {
		return rules.Default(), nil
	}
	return rules.Load(rulesPath)
}

func source(seed int64) *entropy.Source {
	if seed == 0 {
		return entropy.NewRandom()
	}
	return entropy.New(seed)
}

func runCreate(n int, seed int64, seat, difficulty, out string) error {
	rs, err := loadRules()
	if err != nil {
		return err
	}
	diff, err := rules.LookupDifficulty(difficulty)
	if err != nil {
		return err
	}
	src := source(seed)

	w := engine.CreateWorld(n, rs, src)
	if difficulty != "" {
		world.ApplyDifficulty(w, diff)
	}
	if seat != "" {
		rule, err := world.ParseSeatRule(seat)
		if err != nil {
			return err
		}
		if _, err := world.SeatPlayer(w, rule, src); err != nil {
			return err
		}
	}

	if err := snapshot.WriteFile(out, w); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Printf("created world %s with %d regimes (seed %d) -> %s\n", w.ID, len(w.Regimes), src.Seed(), out)
	printRegimes(w)
	return nil
}

// readActions loads a JSON array of player actions.
func readActions(path string) ([]engine.Action, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var acts []engine.Action
	if err := json.Unmarshal(data, &acts); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return acts, nil
}

func runStep(in, out, actsPath string, turns int, seed int64, minRegimes int) error {
	if turns < 1 {
		return fmt.Errorf("turns must be at least 1, got %d", turns)
	}
	rs, err := loadRules()
	if err != nil {
		return err
	}
	var acts []engine.Action
	if actsPath != "" {
		if acts, err = readActions(actsPath); err != nil {
			return err
		}
	}
	w, err := snapshot.ReadFile(in)
	if err != nil {
		return err
	}
	if w.Done {
		return fmt.Errorf("world %s ended at step %d", w.ID, w.EndedAt)
	}

	src := source(seed)
	sim := engine.New(w, rs, src)
	for i := range turns {
		engine.RegenMeters(w)
		if i == 0 && len(acts) > 0 {
			rep := sim.ApplyActions(acts)
			fmt.Printf("actions: %d of %d applied, %d detected\n", rep.Applied, len(acts), rep.Detected)
		}
		sim.Step(nil)
		printStats(sim.Stats)
		if engine.MarkGameOverIfNeeded(w) {
			reason := "unknown"
			if w.PlayerFall != nil {
				reason = w.PlayerFall.Text
			}
			fmt.Printf("player regime fell at step %d: %s\n", w.EndedAt, reason)
			break
		}
		if minRegimes > 0 {
			if n := world.TopUp(w, minRegimes, rs, src); n > 0 {
				fmt.Printf("  spawned %d regimes\n", n)
			}
		}
	}

	if err := snapshot.WriteFile(out, w); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Printf("world %s at step %d (seed %d) -> %s\n", w.ID, w.Step, src.Seed(), out)
	return nil
}

func runInspect(path string, headerOnly bool) error {
	h, err := snapshot.ReadHeader(path)
	if err != nil {
		return err
	}
	printHeader(path, h)
	if headerOnly {
		return nil
	}

	w, err := snapshot.ReadFile(path)
	if err != nil {
		return err
	}
	printWorld(w)
	return nil
}
