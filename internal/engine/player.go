package engine

import "github.com/talgya/regime-world/internal/world"

// IsPlayerAlive reports whether the player's regime is still in the world.
// A world without a player seat is always alive.
func IsPlayerAlive(w *world.World) bool {
	if w.Player == nil || w.Player.ID == "" {
		return true
	}
	return w.Regime(w.Player.ID) != nil
}

// MarkGameOverIfNeeded ends the game once the player's regime has fallen,
// recording the turn and the fall reason. It reports whether the game is over.
func MarkGameOverIfNeeded(w *world.World) bool {
	if !w.Done && !IsPlayerAlive(w) {
		w.Done = true
		w.EndedAt = w.Step
		if reason, ok := w.FallReasons[w.Player.ID]; ok {
			w.PlayerFall = &reason
		}
	}
	return w.Done
}
