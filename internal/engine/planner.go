package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bamsammich/rpgpack/internal/filter"
	"github.com/bamsammich/rpgpack/internal/platform"
	"github.com/bamsammich/rpgpack/internal/policy"
	"github.com/bamsammich/rpgpack/internal/reach"
	"github.com/bamsammich/rpgpack/internal/rpgmaker"
	"github.com/bamsammich/rpgpack/internal/scramble"
)

var (
	// ErrTemplateMissing is returned when a platform's runtime template
	// directory does not exist.
	ErrTemplateMissing = errors.New("runtime template directory missing")
	// ErrDuplicateDestination is returned when two operations would write
	// the same output path.
	ErrDuplicateDestination = errors.New("two sources map to one destination")
)

// systemConfig is patched in place of being copied when scrambling.
const systemConfig = "data/System.json"

// PlannerConfig controls planning.
type PlannerConfig struct {
	Gen        rpgmaker.Generation
	ProjectDir string
	RuntimeDir string
	OutputDir  string
	Catalog    *rpgmaker.Catalog
	Set        *reach.Set // nil keeps unreferenced assets

	EncryptImages bool
	EncryptAudio  bool
	Key           scramble.Key

	Filter  *filter.Chain
	Tracker platform.TmpTracker
	Logger  *slog.Logger
}

// Planner walks the runtime template and the project tree and turns every
// shipped file into an Operation. Output directories are created during the
// walk, so workers never race on them.
type Planner struct {
	cfg    PlannerConfig
	logger *slog.Logger
}

// NewPlanner creates a planner with the given config.
func NewPlanner(cfg PlannerConfig) *Planner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = rpgmaker.NewCatalog(cfg.ProjectDir, cfg.Gen, logger)
	}
	return &Planner{cfg: cfg, logger: logger}
}

// PlatformDir returns the output directory of platform p.
func (pl *Planner) PlatformDir(p rpgmaker.Platform) string {
	return filepath.Join(pl.cfg.OutputDir, p.String())
}

func (pl *Planner) scrambling() bool {
	return pl.cfg.EncryptImages || pl.cfg.EncryptAudio
}

// plan accumulates operations and enforces unique destinations.
type plan struct {
	ops  []Operation
	dsts map[string]string // dst -> src
}

func (pp *plan) claim(src, dst string) error {
	if prev, ok := pp.dsts[dst]; ok {
		return fmt.Errorf("%w: %s and %s -> %s", ErrDuplicateDestination, prev, src, dst)
	}
	pp.dsts[dst] = src
	return nil
}

func (pp *plan) add(op Operation) error {
	if err := pp.claim(op.Src, op.Dst); err != nil {
		return err
	}
	pp.ops = append(pp.ops, op)
	return nil
}

// Plan produces the operations of platform p: runtime template first, then
// the project. Any filesystem error aborts planning.
func (pl *Planner) Plan(p rpgmaker.Platform) ([]Operation, error) {
	out := pl.PlatformDir(p)
	if err := os.MkdirAll(out, 0o755); err != nil {
		return nil, fmt.Errorf("create platform output: %w", err)
	}

	pp := &plan{dsts: make(map[string]string)}

	if folder := rpgmaker.TemplateFolder(pl.cfg.Gen, p); folder != "" {
		tmpl := filepath.Join(pl.cfg.RuntimeDir, folder)
		info, err := os.Stat(tmpl)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrTemplateMissing, tmpl)
		}
		pl.logger.Debug("planning runtime template", "platform", p, "template", tmpl)
		if err := pl.walk(pp, p, tmpl, out, policy.Runtime); err != nil {
			return nil, err
		}
	}

	projectOut := rpgmaker.ProjectRoot(pl.cfg.Gen, p, out)
	if err := os.MkdirAll(projectOut, 0o755); err != nil {
		return nil, fmt.Errorf("create project output: %w", err)
	}
	if err := pl.walk(pp, p, pl.cfg.ProjectDir, projectOut, policy.Project); err != nil {
		return nil, err
	}

	pl.logger.Debug("plan complete", "platform", p, "operations", len(pp.ops))
	return pp.ops, nil
}

func (pl *Planner) walk(pp *plan, p rpgmaker.Platform, root, dstRoot string, origin policy.Origin) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("rel path for %s: %w", path, err)
		}
		slashRel := filepath.ToSlash(rel)
		dst := filepath.Join(dstRoot, pl.dstRel(rel, origin, p))

		if d.IsDir() {
			if origin == policy.Project && (pl.isOutput(path) || !pl.cfg.Filter.Match(slashRel, true)) {
				return filepath.SkipDir
			}
			if err := os.MkdirAll(dst, 0o755); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}
			return nil
		}
		if !d.Type().IsRegular() {
			pl.logger.Debug("skipping non-regular file", "path", path)
			return nil
		}

		ship, rename := policy.Ship(slashRel, origin, pl.cfg.Gen, p)
		if !ship {
			return nil
		}
		if rename != "" {
			dst = filepath.Join(filepath.Dir(dst), rename)
		}

		if origin == policy.Runtime {
			return pp.add(Operation{Src: path, Dst: dst, Action: Copy, Origin: origin})
		}
		return pl.planProjectFile(pp, path, slashRel, dst)
	})
}

func (pl *Planner) planProjectFile(pp *plan, path, slashRel, dst string) error {
	if !pl.cfg.Filter.Match(slashRel, false) {
		return nil
	}
	if pl.cfg.Set != nil && policy.IsUnreferenced(path, pl.cfg.Catalog, pl.cfg.Set) {
		pl.logger.Debug("excluding unreferenced asset", "path", slashRel)
		return nil
	}

	if !pl.scrambling() {
		return pp.add(Operation{Src: path, Dst: dst, Action: Copy, Origin: policy.Project})
	}

	if slashRel == systemConfig {
		if err := pp.claim(path, dst); err != nil {
			return err
		}
		err := scramble.PatchSystemFile(path, dst, pl.cfg.EncryptImages, pl.cfg.EncryptAudio, pl.cfg.Key, pl.cfg.Tracker)
		if err != nil {
			return fmt.Errorf("patch system config: %w", err)
		}
		return nil
	}

	if policy.ShouldScramble(slashRel, pl.cfg.Gen, pl.cfg.EncryptAudio, pl.cfg.EncryptImages) {
		sdst, err := scramble.ScrambledPath(dst, pl.cfg.Gen)
		if err != nil {
			return err
		}
		return pp.add(Operation{Src: path, Dst: sdst, Action: Scramble, Origin: policy.Project})
	}
	return pp.add(Operation{Src: path, Dst: dst, Action: Copy, Origin: policy.Project})
}

// dstRel maps a source-relative path to its output-relative path. MZ's macOS
// runtime ships nwjs.app under the name Game.app.
func (pl *Planner) dstRel(rel string, origin policy.Origin, p rpgmaker.Platform) string {
	const from, to = "nwjs.app", "Game.app"
	if origin != policy.Runtime || pl.cfg.Gen != rpgmaker.MZ || p != rpgmaker.OSX {
		return rel
	}
	if rel == from || strings.HasPrefix(rel, from+string(filepath.Separator)) {
		return to + rel[len(from):]
	}
	return rel
}

// isOutput reports whether dir is the output root, which may sit inside the
// project folder.
func (pl *Planner) isOutput(dir string) bool {
	if pl.cfg.OutputDir == "" {
		return false
	}
	a, err1 := filepath.Abs(dir)
	b, err2 := filepath.Abs(pl.cfg.OutputDir)
	return err1 == nil && err2 == nil && a == b
}
