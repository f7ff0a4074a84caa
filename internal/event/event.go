package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	PlatformStarted Type = iota + 1
	PlatformComplete
	OpCompleted
	OpFailed
	HardlinkCreated
	Scrambled
	CacheHit
	Skipped
	VerifyFailed
)

var typeNames = [...]string{
	PlatformStarted:  "PlatformStarted",
	PlatformComplete: "PlatformComplete",
	OpCompleted:      "OpCompleted",
	OpFailed:         "OpFailed",
	HardlinkCreated:  "HardlinkCreated",
	Scrambled:        "Scrambled",
	CacheHit:         "CacheHit",
	Skipped:          "Skipped",
	VerifyFailed:     "VerifyFailed",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from the engine.
type Event struct {
	Type      Type
	Timestamp time.Time
	Platform  string
	Path      string // destination relative to the platform output
	Size      int64  // bytes written, or planned op count for PlatformStarted
	Error     error
}
