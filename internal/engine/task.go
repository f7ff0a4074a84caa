package engine

import "github.com/bamsammich/rpgpack/internal/policy"

// Action is what a worker does with an Operation.
type Action int

const (
	Copy Action = iota + 1
	Scramble
)

func (a Action) String() string {
	switch a {
	case Copy:
		return "copy"
	case Scramble:
		return "scramble"
	default:
		return "unknown"
	}
}

// Operation describes a single planned copy or scramble. Operations are
// never modified after planning.
type Operation struct {
	Src    string
	Dst    string
	Action Action
	Origin policy.Origin // selects which hardlink eligibility applies
}
