package rules

import (
	"fmt"
	"strings"
)

// Difficulty is a named preset for how fast and how noisy a hosted game runs.
// Points scales the player's score for leaderboard clients.
type Difficulty struct {
	Name      string  `json:"name"`
	ShockMul  float64 `json:"shockMul"`
	VolMul    float64 `json:"volMul"`
	TurnYears float64 `json:"turnYears"`
	Substeps  int     `json:"substeps"`
	Points    float64 `json:"points"`
}

// Stock presets.
var (
	DifficultyMin = Difficulty{Name: "MIN", ShockMul: 1.0, VolMul: 1.0, TurnYears: 1.0, Substeps: 2, Points: 1.0}
	DifficultyMax = Difficulty{Name: "MAX", ShockMul: 1.6, VolMul: 1.4, TurnYears: 3.0, Substeps: 6, Points: 0.6}
)

// LookupDifficulty resolves a preset by name, ignoring case. The empty name selects MIN.
func LookupDifficulty(name string) (Difficulty, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", DifficultyMin.Name:
		return DifficultyMin, nil
	case DifficultyMax.Name:
		return DifficultyMax, nil
	}
	return Difficulty{}, fmt.Errorf("unknown difficulty %q (want min or max)", name)
}
