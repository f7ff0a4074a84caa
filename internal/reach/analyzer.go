package reach

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/bamsammich/rpgpack/internal/effect"
	"github.com/bamsammich/rpgpack/internal/rpgmaker"
)

const (
	animationsFile = "Animations.json"
	mapFilePattern = "Map[0-9][0-9][0-9].json"
)

// Analyzer computes the Set of a project. It is single-threaded and runs
// once per build.
type Analyzer struct {
	Gen     rpgmaker.Generation
	Catalog *rpgmaker.Catalog
	Logger  *slog.Logger
}

// Analyze parses the plugin list, every data file, Animations.json and, for
// MZ, the effect containers of referenced effects. Any structural problem
// aborts the analysis; there is no partial result.
func (a *Analyzer) Analyze(projectDir string) (*Set, error) {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	catalog := a.Catalog
	if catalog == nil {
		catalog = rpgmaker.NewCatalog(projectDir, a.Gen, logger)
	}
	root := catalog.Root()

	set := NewSet()

	if err := analyzePlugins(set, root, logger); err != nil {
		return nil, fmt.Errorf("plugins: %w", err)
	}

	dataDir := filepath.Join(root, "data")
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("read data folder: %w", err)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()

		parse, ok := dataParsers[name]
		if !ok {
			if matched, _ := doublestar.Match(mapFilePattern, name); !matched {
				continue
			}
			parse = parseMap
		}

		logger.Debug("parsing data file", "file", name)
		if err := parseDataFile(set, filepath.Join(dataDir, name), a.Gen, parse); err != nil {
			return nil, err
		}
	}

	// Animation ids are only complete once every other file has been read.
	logger.Debug("parsing data file", "file", animationsFile, "animation_ids", len(set.animationIDs))
	if err := parseDataFile(set, filepath.Join(dataDir, animationsFile), a.Gen, parseAnimations); err != nil {
		return nil, err
	}

	if a.Gen == rpgmaker.MZ {
		if err := analyzeEffects(set, catalog.Dir(rpgmaker.Effects), logger); err != nil {
			return nil, err
		}
	}

	logger.Info("analysis complete",
		"names", set.Total(),
		"animation_ids", len(set.animationIDs),
		"plugin_assets", set.Len(PluginAssets),
	)
	return set, nil
}

func parseDataFile(set *Set, path string, gen rpgmaker.Generation, parse dataParser) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read data file: %w", err)
	}
	doc, err := parseDocument(filepath.Base(path), data)
	if err != nil {
		return err
	}
	return parse(set, doc, gen)
}

// analyzeEffects decodes effects/<name>.efkefc for every referenced effect
// and records the textures and models it loads.
func analyzeEffects(set *Set, effectsDir string, logger *slog.Logger) error {
	for _, name := range set.Names(EffectNames) {
		path := filepath.Join(effectsDir, filepath.FromSlash(name)+effect.Extension)

		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("referenced effect does not exist", "effect", name, "path", path)
			continue
		}
		if err != nil {
			return fmt.Errorf("stat effect: %w", err)
		}
		if !info.Mode().IsRegular() {
			continue
		}

		c, err := effect.ParseFile(path)
		if err != nil {
			return err
		}
		for _, res := range c.Resources() {
			set.Add(EffectResources, filepath.Join(effectsDir, filepath.FromSlash(res)))
		}
		logger.Debug("parsed effect", "effect", name, "resources", len(c.Resources()))
	}
	return nil
}
