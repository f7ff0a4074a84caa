package rpgmaker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Generation identifies the engine project format.
type Generation int

const (
	MV Generation = iota + 1
	MZ
)

// ErrUnknownGeneration is returned when a project folder has no project file.
var ErrUnknownGeneration = errors.New("unable to identify engine generation")

func (g Generation) String() string {
	switch g {
	case MV:
		return "MV"
	case MZ:
		return "MZ"
	default:
		return "unknown"
	}
}

// ProjectExtension returns the extension of the project marker file.
func (g Generation) ProjectExtension() string {
	if g == MZ {
		return ".rmmzproject"
	}
	return ".rpgproject"
}

// SaveExtension returns the extension of save files written by the runtime.
func (g Generation) SaveExtension() string {
	if g == MZ {
		return ".rmmzsave"
	}
	return ".rpgsave"
}

// Detect identifies the generation of the project in dir by looking for its
// project marker file among the top-level entries.
func Detect(dir string) (Generation, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read project dir: %w", err)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		for _, g := range []Generation{MV, MZ} {
			if ext == g.ProjectExtension() {
				return g, nil
			}
		}
	}

	return 0, fmt.Errorf("%s: %w", dir, ErrUnknownGeneration)
}
