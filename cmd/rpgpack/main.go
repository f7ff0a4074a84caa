package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/rpgpack/internal/config"
	"github.com/bamsammich/rpgpack/internal/engine"
	"github.com/bamsammich/rpgpack/internal/event"
	"github.com/bamsammich/rpgpack/internal/filter"
	"github.com/bamsammich/rpgpack/internal/rpgmaker"
	"github.com/bamsammich/rpgpack/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(run())
}

// filterFlag is a custom pflag.Value that preserves CLI ordering of
// --exclude and --include rules by appending to a shared filter.Chain.
type filterFlag struct {
	chain   *filter.Chain
	include bool
}

func (*filterFlag) String() string { return "" }
func (*filterFlag) Type() string   { return "string" }

func (f *filterFlag) Set(val string) error {
	if f.include {
		return f.chain.AddInclude(val)
	}
	return f.chain.AddExclude(val)
}

// buildOptions holds the build flags.
type buildOptions struct {
	input         string
	output        string
	rpgmaker      string
	platforms     []string
	encryptImages bool
	encryptAudio  bool
	passphrase    string
	excludeUnused bool
	hardlinks     bool
	cache         bool
	workers       int
	verify        bool
	verbose       bool
	quiet         bool
	logFile       string
	configFile    string
	showVersion   bool
}

func run() int {
	var opts buildOptions
	chain := filter.NewChain()

	rootCmd := &cobra.Command{
		Use:   "rpgpack [flags]",
		Short: "Package an RPG Maker MV/MZ project into platform bundles",
		Long: `rpgpack merges the engine runtime with a game project for each requested
platform. It can leave out assets no game data refers to, scramble images
and audio the way the engine expects, and hardlink files that several
platforms share.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.showVersion {
				fmt.Fprintf(os.Stdout, "rpgpack %s\n", version)
				return nil
			}
			return runBuild(cmd, &opts, chain)
		},
	}

	f := rootCmd.Flags()
	f.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	f.StringVarP(&opts.input, "input", "i", "", "project folder (contains the .rpgproject or .rmmzproject file)")
	f.StringVarP(&opts.output, "output", "o", "", "output folder; removed and recreated on every build")
	f.StringVar(&opts.rpgmaker, "rpgmaker", "", "engine installation folder holding the nwjs runtime templates")
	f.StringSliceVarP(&opts.platforms, "platforms", "p", nil, "platforms to build: win, osx, linux, browser, mobile")
	f.BoolVar(&opts.encryptImages, "encrypt-images", false, "scramble png images")
	f.BoolVar(&opts.encryptAudio, "encrypt-audio", false, "scramble ogg and m4a audio")
	f.StringVar(&opts.passphrase, "passphrase", "", "passphrase the scramble key is derived from")
	f.BoolVar(&opts.excludeUnused, "exclude-unused", false, "leave out assets no game data refers to")
	f.BoolVar(&opts.hardlinks, "hardlinks", false, "hardlink instead of copying when source and output share a volume")
	f.BoolVar(&opts.cache, "cache", false, "scramble each asset once and hardlink it into later platforms")
	f.IntVarP(&opts.workers, "workers", "n", engine.DefaultWorkers, "number of file workers (1-10)")
	f.BoolVar(&opts.verify, "verify", false, "verify outputs against their sources after each platform (BLAKE3)")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress all output except errors")
	f.StringVar(&opts.logFile, "log", "", "write structured JSON log to FILE")
	f.StringVar(&opts.configFile, "config", "", "read build defaults from FILE (default ./"+config.DefaultFile+")")

	// Filter flags use a custom pflag.Value to preserve CLI ordering.
	f.Var(&filterFlag{chain: chain, include: false}, "exclude", "exclude project files matching PATTERN (repeatable)")
	f.Var(&filterFlag{chain: chain, include: true}, "include", "include project files matching PATTERN (repeatable)")
	f.VisitAll(func(fl *pflag.Flag) {
		if fl.Name == "exclude" || fl.Name == "include" {
			fl.NoOptDefVal = ""
		}
	})

	rootCmd.AddCommand(descrambleCmd)
	rootCmd.AddCommand(docsCmd)

	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

//nolint:gocyclo,revive // cyclomatic,cognitive-complexity: build entry point wires every flag
func runBuild(cmd *cobra.Command, opts *buildOptions, chain *filter.Chain) error {
	cfgPath, explicit := config.Path(opts.configFile)
	cfg, err := config.Load(cfgPath, explicit)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applyConfigDefaults(cmd, cfg.Build, opts, chain); err != nil {
		return err
	}

	logger, closeLog, err := setupLogging(opts.verbose, opts.quiet, opts.logFile)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	if opts.input == "" {
		return errors.New("no project folder given (--input)")
	}
	if opts.output == "" {
		return errors.New("no output folder given (--output)")
	}

	gen, err := rpgmaker.Detect(opts.input)
	if err != nil {
		return err
	}
	platforms, err := rpgmaker.ParsePlatforms(opts.platforms)
	if err != nil {
		return err
	}

	events := make(chan event.Event, 256)
	engineCfg := engine.Config{
		ProjectDir:    opts.input,
		RuntimeDir:    opts.rpgmaker,
		OutputDir:     opts.output,
		Gen:           gen,
		Platforms:     platforms,
		EncryptImages: opts.encryptImages,
		EncryptAudio:  opts.encryptAudio,
		Passphrase:    opts.passphrase,
		ExcludeUnused: opts.excludeUnused,
		Hardlinks:     opts.hardlinks,
		Cache:         opts.cache,
		Workers:       opts.workers,
		Verify:        opts.verify,
		Events:        events,
		Logger:        logger,
	}
	if !chain.Empty() {
		engineCfg.Filter = chain
	}

	if err := engineCfg.Validate(); err != nil {
		return err
	}
	if err := resetOutput(opts.input, opts.output); err != nil {
		return err
	}

	passphrase := "NONE"
	if opts.passphrase != "" {
		passphrase = "REDACTED"
	}
	logger.Debug("starting build",
		"generation", gen,
		"input", opts.input,
		"output", opts.output,
		"rpgmaker", opts.rpgmaker,
		"platforms", opts.platforms,
		"encrypt_images", engineCfg.EncryptImages,
		"encrypt_audio", engineCfg.EncryptAudio,
		"passphrase", passphrase,
		"exclude_unused", engineCfg.ExcludeUnused,
		"hardlinks", engineCfg.Hardlinks,
		"cache", engineCfg.Cache,
		"workers", engineCfg.Workers,
		"verify", engineCfg.Verify,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// When --log is set, tee events through a logging goroutine
	// that writes structured records before forwarding to the presenter.
	presenterEvents := (<-chan event.Event)(events)
	if opts.logFile != "" {
		teed := make(chan event.Event, 256)
		go func() {
			for ev := range events {
				attrs := []slog.Attr{
					slog.String("type", ev.Type.String()),
					slog.String("platform", ev.Platform),
					slog.String("path", ev.Path),
					slog.Int64("size", ev.Size),
				}
				if ev.Error != nil {
					attrs = append(attrs, slog.String("error", ev.Error.Error()))
				}
				slog.LogAttrs(context.Background(), slog.LevelDebug, "rpgpack.event", attrs...)
				teed <- ev
			}
			close(teed)
		}()
		presenterEvents = teed
	}

	isTTY, width := ui.Terminal(os.Stderr)
	presenter := ui.NewPresenter(ui.Config{
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Width:     width,
		IsTTY:     isTTY,
		Quiet:     opts.quiet,
		Verbose:   opts.verbose,
	})

	var presenterErr error
	var presenterWg sync.WaitGroup
	presenterWg.Add(1)
	go func() {
		defer presenterWg.Done()
		presenterErr = presenter.Run(presenterEvents)
	}()

	result := engine.Run(ctx, engineCfg)
	stop()
	close(events)
	presenterWg.Wait()
	if presenterErr != nil {
		fmt.Fprintf(os.Stderr, "presenter: %v\n", presenterErr)
	}

	if !opts.quiet {
		if summary := presenter.Summary(); summary != "" {
			fmt.Fprintln(os.Stderr, summary)
		}
	}

	if result.Err != nil {
		slog.Error("build failed", "error", result.Err)
		if errors.Is(result.Err, engine.ErrBatchFailed) || errors.Is(result.Err, engine.ErrVerifyFailed) {
			return &exitError{code: 1} // some files failed
		}
		return &exitError{code: 2}
	}
	return nil
}

// resetOutput removes and recreates the output folder. It refuses to remove
// the project itself or one of its parents.
func resetOutput(input, output string) error {
	in, err := filepath.Abs(input)
	if err != nil {
		return fmt.Errorf("resolve input: %w", err)
	}
	out, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("resolve output: %w", err)
	}
	if in == out || strings.HasPrefix(in, out+string(filepath.Separator)) || out == string(filepath.Separator) {
		return fmt.Errorf("refusing to clear output %s: it contains the project", out)
	}

	if err := os.RemoveAll(out); err != nil {
		return fmt.Errorf("clear output: %w", err)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	return nil
}

func setupLogging(verbose, quiet bool, logFile string) (*slog.Logger, func(), error) {
	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	} else if !quiet {
		logLevel = slog.LevelInfo
	}
	textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	if logFile == "" {
		return slog.New(textHandler), func() {}, nil
	}

	lf, err := os.Create(logFile)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	return slog.New(ui.NewMultiHandler(textHandler, jsonHandler)), func() { _ = lf.Close() }, nil
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
//
//nolint:gocyclo // one branch per flag
func applyConfigDefaults(cmd *cobra.Command, defaults config.BuildConfig, opts *buildOptions, chain *filter.Chain) error {
	changed := cmd.Flags().Changed

	setString := func(name string, dst *string, v *string) {
		if !changed(name) && v != nil {
			*dst = *v
		}
	}
	setBool := func(name string, dst *bool, v *bool) {
		if !changed(name) && v != nil {
			*dst = *v
		}
	}

	setString("input", &opts.input, defaults.Input)
	setString("output", &opts.output, defaults.Output)
	setString("rpgmaker", &opts.rpgmaker, defaults.RPGMaker)
	setString("passphrase", &opts.passphrase, defaults.Passphrase)
	setBool("encrypt-images", &opts.encryptImages, defaults.EncryptImages)
	setBool("encrypt-audio", &opts.encryptAudio, defaults.EncryptAudio)
	setBool("exclude-unused", &opts.excludeUnused, defaults.ExcludeUnused)
	setBool("hardlinks", &opts.hardlinks, defaults.Hardlinks)
	setBool("cache", &opts.cache, defaults.Cache)
	setBool("verify", &opts.verify, defaults.Verify)

	if !changed("workers") && defaults.Workers != nil {
		opts.workers = *defaults.Workers
	}
	if !changed("platforms") && len(defaults.Platforms) > 0 {
		opts.platforms = defaults.Platforms
	}
	if !changed("exclude") && !changed("include") {
		for _, pattern := range defaults.Exclude {
			if err := chain.AddExclude(pattern); err != nil {
				return fmt.Errorf("config exclude %q: %w", pattern, err)
			}
		}
	}
	return nil
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
