// Package policy holds the per-file packaging decisions: whether a file
// ships to a platform, whether it is scrambled, and whether it is
// unreferenced by the game data.
package policy

import (
	"path"
	"path/filepath"

	"github.com/bamsammich/rpgpack/internal/reach"
	"github.com/bamsammich/rpgpack/internal/rpgmaker"
)

// Origin is the tree a file comes from. Runtime and project trees may live
// on different volumes, so each has its own hardlink eligibility.
type Origin int

const (
	Runtime Origin = iota + 1
	Project
)

func (o Origin) String() string {
	switch o {
	case Runtime:
		return "runtime"
	case Project:
		return "project"
	default:
		return "unknown"
	}
}

var (
	mzWindowsDropped = map[string]bool{
		"chromedriver.exe":     true,
		"nacl_irt_x86_64.nexe": true,
		"nwjc.exe":             true,
		"payload.exe":          true,
	}
	mzOSXDropped = map[string]bool{
		"chromedriver":       true,
		"minidump_stackwalk": true,
		"nwjc":               true,
		"payload":            true,
	}
	projectDroppedExts = map[string]bool{
		rpgmaker.MV.ProjectExtension(): true,
		rpgmaker.MZ.ProjectExtension(): true,
		rpgmaker.MV.SaveExtension():    true,
		rpgmaker.MZ.SaveExtension():    true,
	}
)

// Ship decides whether the file at rel (slash-separated, relative to its
// origin root) is part of the platform bundle. A non-empty rename replaces
// the file's base name in the output.
func Ship(rel string, origin Origin, gen rpgmaker.Generation, platform rpgmaker.Platform) (ship bool, rename string) {
	base := path.Base(rel)
	parent := path.Base(path.Dir(rel))
	ext := path.Ext(rel)

	switch origin {
	case Runtime:
		if gen != rpgmaker.MZ {
			return true, ""
		}
		switch platform {
		case rpgmaker.Windows:
			if parent == "pnacl" {
				return false, ""
			}
			if base == "nw.exe" {
				return true, "Game.exe"
			}
			if mzWindowsDropped[base] {
				return false, ""
			}
		case rpgmaker.OSX:
			if mzOSXDropped[base] {
				return false, ""
			}
			if base == "v8_context_snapshot.bin" && parent != "Resources" {
				return false, ""
			}
			if base == "libffmpeg.dylib" && parent != "80.0.3987.149" {
				return false, ""
			}
		}
		return true, ""

	case Project:
		// Desktop runtimes play ogg, mobile plays m4a, browsers get both.
		if ext == ".ogg" && platform == rpgmaker.Mobile {
			return false, ""
		}
		if ext == ".m4a" && platform != rpgmaker.Mobile && platform != rpgmaker.Browser {
			return false, ""
		}
		if projectDroppedExts[ext] || parent == "save" {
			return false, ""
		}
		return true, ""
	}
	return false, ""
}

// ShouldScramble reports whether a shipped file is written in the scrambled
// container format.
func ShouldScramble(rel string, gen rpgmaker.Generation, audio, images bool) bool {
	ext := path.Ext(rel)
	switch ext {
	case ".ogg", ".m4a":
		return audio
	case ".png":
		if !images {
			return false
		}
	default:
		return false
	}

	base := path.Base(rel)
	dir := path.Dir(rel)
	parent := path.Base(dir)
	grandparent := path.Base(path.Dir(dir))

	switch gen {
	case rpgmaker.MZ:
		if parent == "Texture" && grandparent == "effects" {
			return false
		}
		if parent == "system" && grandparent == "img" {
			return true
		}
	case rpgmaker.MV:
		if parent == "system" && grandparent == "img" && (base == "Loading.png" || base == "Window.png") {
			return false
		}
	}

	// nw.js window icon
	return !(base == "icon.png" && parent == "icon")
}

// IsUnreferenced reports whether the project file can be left out because
// nothing in the game data names it. Files outside every asset category are
// always kept.
func IsUnreferenced(file string, catalog *rpgmaker.Catalog, set *reach.Set) bool {
	if rel, ok := catalog.RelName(file); ok && set.Has(reach.PluginAssets, rel) {
		return false
	}

	cat, name, ok := catalog.CategoryOf(file)
	if !ok {
		return false
	}

	if cat == rpgmaker.Effects {
		if set.Has(reach.EffectNames, name) {
			return false
		}
		abs, err := filepath.Abs(file)
		if err != nil {
			return false
		}
		return !set.Has(reach.EffectResources, abs)
	}

	kind, ok := reach.KindOf(cat)
	if !ok {
		return false
	}
	return !set.Has(kind, name)
}
