package rpgmaker

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Platform is a deployment target.
type Platform int

const (
	Windows Platform = iota + 1
	OSX
	Linux
	Browser
	Mobile
)

// ErrUnsupportedPlatform is returned for unknown platform names and for
// platforms the resolved generation cannot be exported to.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

var platformNames = [...]string{
	Windows: "Windows",
	OSX:     "OSX",
	Linux:   "Linux",
	Browser: "Browser",
	Mobile:  "Mobile",
}

var platformFlags = map[string]Platform{
	"win":     Windows,
	"osx":     OSX,
	"linux":   Linux,
	"browser": Browser,
	"mobile":  Mobile,
}

// String returns the output folder name of the platform.
func (p Platform) String() string {
	if p > 0 && int(p) < len(platformNames) {
		return platformNames[p]
	}
	return "Unknown"
}

// ParsePlatform maps a short platform name (win, osx, linux, browser, mobile)
// to a Platform.
func ParsePlatform(name string) (Platform, error) {
	p, ok := platformFlags[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, name)
	}
	return p, nil
}

// ParsePlatforms parses every name, preserving order.
func ParsePlatforms(names []string) ([]Platform, error) {
	platforms := make([]Platform, 0, len(names))
	for _, name := range names {
		p, err := ParsePlatform(name)
		if err != nil {
			return nil, err
		}
		platforms = append(platforms, p)
	}
	return platforms, nil
}

// ValidatePlatforms rejects empty lists, duplicates, and platforms the
// generation cannot target: MV has no mobile export, MZ has no Linux export.
func ValidatePlatforms(gen Generation, platforms []Platform) error {
	if len(platforms) == 0 {
		return fmt.Errorf("%w: no platforms requested", ErrUnsupportedPlatform)
	}

	seen := make(map[Platform]bool, len(platforms))
	for _, p := range platforms {
		if p < Windows || p > Mobile {
			return fmt.Errorf("%w: %d", ErrUnsupportedPlatform, int(p))
		}
		if seen[p] {
			return fmt.Errorf("%w: %s requested twice", ErrUnsupportedPlatform, p)
		}
		seen[p] = true

		if gen == MV && p == Mobile {
			return fmt.Errorf("%w: %s is not an export target for %s", ErrUnsupportedPlatform, p, gen)
		}
		if gen == MZ && p == Linux {
			return fmt.Errorf("%w: %s is not an export target for %s", ErrUnsupportedPlatform, p, gen)
		}
	}
	return nil
}

// TemplateFolder returns the runtime template directory name inside the
// engine installation, or "" when the platform ships without a runtime.
func TemplateFolder(gen Generation, p Platform) string {
	switch {
	case p == Windows:
		return "nwjs-win"
	case p == OSX && gen == MV:
		return "nwjs-osx-unsigned"
	case p == OSX && gen == MZ:
		return "nwjs-mac"
	case p == Linux && gen == MV:
		return "nwjs-lnx"
	default:
		return ""
	}
}

// ProjectRoot returns where project files land inside a platform's output
// directory.
func ProjectRoot(gen Generation, p Platform, platformOut string) string {
	switch {
	case p == OSX:
		return filepath.Join(platformOut, "Game.app", "Contents", "Resources", "app.nw")
	case gen == MV:
		return filepath.Join(platformOut, "www")
	default:
		return platformOut
	}
}
