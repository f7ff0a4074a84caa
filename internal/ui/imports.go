package ui

import "github.com/bamsammich/rpgpack/internal/event"

// Event is the engine's progress event.
type Event = event.Event

// Re-export event types for convenience.
const (
	PlatformStarted  = event.PlatformStarted
	PlatformComplete = event.PlatformComplete
	OpCompleted      = event.OpCompleted
	OpFailed         = event.OpFailed
	HardlinkCreated  = event.HardlinkCreated
	Scrambled        = event.Scrambled
	CacheHit         = event.CacheHit
	Skipped          = event.Skipped
	VerifyFailed     = event.VerifyFailed
)

// isTerminal reports whether t ends an operation successfully.
func isTerminal(t event.Type) bool {
	switch t {
	case OpCompleted, HardlinkCreated, Scrambled, CacheHit, Skipped:
		return true
	default:
		return false
	}
}
