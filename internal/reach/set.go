// Package reach computes which project assets are referenced by the game's
// data files.
package reach

import (
	"slices"
	"sort"

	"github.com/bamsammich/rpgpack/internal/rpgmaker"
)

// Kind is a name category in a Set.
type Kind int

const (
	ActorBattlers Kind = iota
	EnemyBattlers
	Characters
	Faces
	BGM
	BGS
	ME
	SE
	Pictures
	Movies
	Titles1
	Titles2
	Tilesets
	Battlebacks1
	Battlebacks2
	Parallaxes
	AnimationNames
	EffectNames
	EffectResources
	PluginAssets

	numKinds
)

var kindNames = [numKinds]string{
	ActorBattlers:   "actor-battlers",
	EnemyBattlers:   "enemy-battlers",
	Characters:      "characters",
	Faces:           "faces",
	BGM:             "bgm",
	BGS:             "bgs",
	ME:              "me",
	SE:              "se",
	Pictures:        "pictures",
	Movies:          "movies",
	Titles1:         "titles1",
	Titles2:         "titles2",
	Tilesets:        "tilesets",
	Battlebacks1:    "battlebacks1",
	Battlebacks2:    "battlebacks2",
	Parallaxes:      "parallaxes",
	AnimationNames:  "animations",
	EffectNames:     "effects",
	EffectResources: "effect-resources",
	PluginAssets:    "plugin-assets",
}

func (k Kind) String() string {
	if k >= 0 && k < numKinds {
		return kindNames[k]
	}
	return "unknown"
}

var categoryKinds = map[rpgmaker.Category]Kind{
	rpgmaker.BGM:                   BGM,
	rpgmaker.BGS:                   BGS,
	rpgmaker.ME:                    ME,
	rpgmaker.SE:                    SE,
	rpgmaker.Movies:                Movies,
	rpgmaker.Pictures:              Pictures,
	rpgmaker.Titles1:               Titles1,
	rpgmaker.Titles2:               Titles2,
	rpgmaker.Characters:            Characters,
	rpgmaker.Faces:                 Faces,
	rpgmaker.ActorBattlers:         ActorBattlers,
	rpgmaker.EnemyBattlers:         EnemyBattlers,
	rpgmaker.SideViewEnemyBattlers: EnemyBattlers,
	rpgmaker.Tilesets:              Tilesets,
	rpgmaker.Battlebacks1:          Battlebacks1,
	rpgmaker.Battlebacks2:          Battlebacks2,
	rpgmaker.Parallaxes:            Parallaxes,
	rpgmaker.Animations:            AnimationNames,
	rpgmaker.Effects:               EffectNames,
}

// KindOf returns the name category that lists the assets of cat. Front and
// side-view enemy battlers share one category.
func KindOf(cat rpgmaker.Category) (Kind, bool) {
	k, ok := categoryKinds[cat]
	return k, ok
}

// Set is the result of reachability analysis. It only grows; names are
// case-sensitive.
type Set struct {
	names        [numKinds]map[string]struct{}
	animationIDs map[uint64]struct{}
}

// NewSet returns an empty set.
func NewSet() *Set {
	s := &Set{animationIDs: make(map[uint64]struct{})}
	for i := range s.names {
		s.names[i] = make(map[string]struct{})
	}
	return s
}

// Add records name under k. Empty names are ignored.
func (s *Set) Add(k Kind, name string) {
	if name == "" || k < 0 || k >= numKinds {
		return
	}
	s.names[k][name] = struct{}{}
}

// Has reports whether name was recorded under k.
func (s *Set) Has(k Kind, name string) bool {
	if k < 0 || k >= numKinds {
		return false
	}
	_, ok := s.names[k][name]
	return ok
}

// Len returns the number of names recorded under k.
func (s *Set) Len(k Kind) int {
	if k < 0 || k >= numKinds {
		return 0
	}
	return len(s.names[k])
}

// Names returns the names recorded under k in sorted order.
func (s *Set) Names(k Kind) []string {
	if k < 0 || k >= numKinds {
		return nil
	}
	out := make([]string, 0, len(s.names[k]))
	for name := range s.names[k] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// AddAnimationID records a referenced animation id.
func (s *Set) AddAnimationID(id uint64) {
	s.animationIDs[id] = struct{}{}
}

// HasAnimationID reports whether id was referenced.
func (s *Set) HasAnimationID(id uint64) bool {
	_, ok := s.animationIDs[id]
	return ok
}

// AnimationIDs returns the referenced animation ids in ascending order.
func (s *Set) AnimationIDs() []uint64 {
	out := make([]uint64, 0, len(s.animationIDs))
	for id := range s.animationIDs {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Total returns the number of names across all categories.
func (s *Set) Total() int {
	n := 0
	for i := range s.names {
		n += len(s.names[i])
	}
	return n
}
