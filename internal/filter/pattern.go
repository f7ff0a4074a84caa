package filter

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// compiledPattern is a validated doublestar glob plus the rsync-style anchors
// stripped from it.
type compiledPattern struct {
	glob     string
	original string
	anchored bool // pattern starts with / or contains a /
	dirOnly  bool // pattern ends with /
}

// compilePattern validates an exclude/include glob.
//
// A pattern without a slash matches the base name at any depth; a pattern with
// one is matched against the whole relative path.
func compilePattern(pattern string) (*compiledPattern, error) {
	cp := &compiledPattern{original: pattern}

	if strings.HasSuffix(pattern, "/") {
		cp.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if strings.HasPrefix(pattern, "/") {
		cp.anchored = true
		pattern = strings.TrimPrefix(pattern, "/")
	} else if strings.Contains(pattern, "/") {
		cp.anchored = true
	}

	if pattern == "" || !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q: %w", cp.original, doublestar.ErrBadPattern)
	}
	cp.glob = pattern
	return cp, nil
}

func (p *compiledPattern) match(relPath string, isDir bool) bool {
	if p.dirOnly && !isDir {
		return false
	}
	relPath = strings.TrimPrefix(relPath, "./")

	target := relPath
	if !p.anchored {
		target = path.Base(relPath)
	}
	ok, err := doublestar.Match(p.glob, target)
	return err == nil && ok
}

func (p *compiledPattern) String() string {
	return p.original
}
