package rpgmaker

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Category is an asset directory whose contents are referenced by name from
// the data files.
type Category int

const (
	BGM Category = iota + 1
	BGS
	ME
	SE
	Movies
	Pictures
	Titles1
	Titles2
	Characters
	Faces
	ActorBattlers
	EnemyBattlers
	SideViewEnemyBattlers
	Tilesets
	Battlebacks1
	Battlebacks2
	Parallaxes
	Animations // MV only
	Effects    // MZ only
)

var categoryDirs = map[Category]string{
	BGM:                   "audio/bgm",
	BGS:                   "audio/bgs",
	ME:                    "audio/me",
	SE:                    "audio/se",
	Movies:                "movies",
	Pictures:              "img/pictures",
	Titles1:               "img/titles1",
	Titles2:               "img/titles2",
	Characters:            "img/characters",
	Faces:                 "img/faces",
	ActorBattlers:         "img/sv_actors",
	EnemyBattlers:         "img/enemies",
	SideViewEnemyBattlers: "img/sv_enemies",
	Tilesets:              "img/tilesets",
	Battlebacks1:          "img/battlebacks1",
	Battlebacks2:          "img/battlebacks2",
	Parallaxes:            "img/parallaxes",
	Animations:            "img/animations",
	Effects:               "effects",
}

func (c Category) String() string {
	if dir, ok := categoryDirs[c]; ok {
		return dir
	}
	return "unknown"
}

// Catalog maps asset categories to absolute directories of one project.
type Catalog struct {
	root string
	gen  Generation
	dirs map[Category]string
}

// NewCatalog builds the catalog for the project at root. Directories that do
// not exist are still catalogued; their absence is only logged.
func NewCatalog(root string, gen Generation, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		abs = filepath.Clean(root)
	}

	c := &Catalog{root: abs, gen: gen, dirs: make(map[Category]string, len(categoryDirs))}
	for cat, rel := range categoryDirs {
		if cat == Animations && gen != MV {
			continue
		}
		if cat == Effects && gen != MZ {
			continue
		}
		dir := filepath.Join(abs, filepath.FromSlash(rel))
		c.dirs[cat] = dir
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			logger.Debug("asset folder does not exist", "category", cat.String(), "dir", dir)
		}
	}
	return c
}

// Root returns the absolute project directory.
func (c *Catalog) Root() string { return c.root }

// Generation returns the generation the catalog was built for.
func (c *Catalog) Generation() Generation { return c.gen }

// Dir returns the absolute directory of cat, or "" if the generation has none.
func (c *Catalog) Dir(cat Category) string { return c.dirs[cat] }

// CategoryOf returns the category whose directory encloses path, along with
// the slash-separated, extension-less name of path relative to it. Files
// nested below a category directory keep their sub-directory prefix
// ("foo/abc" for img/characters/foo/abc.png).
func (c *Catalog) CategoryOf(path string) (Category, string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, "", false
	}

	var (
		best    Category
		bestDir string
	)
	for cat, dir := range c.dirs {
		if !isWithin(dir, abs) {
			continue
		}
		if len(dir) > len(bestDir) {
			best, bestDir = cat, dir
		}
	}
	if bestDir == "" {
		return 0, "", false
	}

	rel, err := filepath.Rel(bestDir, abs)
	if err != nil {
		return 0, "", false
	}
	rel = filepath.ToSlash(rel)
	return best, strings.TrimSuffix(rel, filepath.Ext(rel)), true
}

// RelName returns path relative to the project root, slash-separated and
// without extension.
func (c *Catalog) RelName(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil || !isWithin(c.root, abs) {
		return "", false
	}
	rel, err := filepath.Rel(c.root, abs)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, filepath.Ext(rel)), true
}

// isWithin reports whether path lies strictly below dir.
func isWithin(dir, path string) bool {
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}
