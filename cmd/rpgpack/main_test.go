package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/rpgpack/internal/config"
	"github.com/bamsammich/rpgpack/internal/filter"
	"github.com/bamsammich/rpgpack/internal/scramble"
)

func ptr[T any](v T) *T { return &v }

func newFlagCmd(opts *buildOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "")
	cmd.Flags().StringVar(&opts.rpgmaker, "rpgmaker", "", "")
	cmd.Flags().StringVar(&opts.passphrase, "passphrase", "", "")
	cmd.Flags().StringSliceVarP(&opts.platforms, "platforms", "p", nil, "")
	cmd.Flags().BoolVar(&opts.encryptImages, "encrypt-images", false, "")
	cmd.Flags().BoolVar(&opts.encryptAudio, "encrypt-audio", false, "")
	cmd.Flags().BoolVar(&opts.excludeUnused, "exclude-unused", false, "")
	cmd.Flags().BoolVar(&opts.hardlinks, "hardlinks", false, "")
	cmd.Flags().BoolVar(&opts.cache, "cache", false, "")
	cmd.Flags().BoolVar(&opts.verify, "verify", false, "")
	cmd.Flags().IntVarP(&opts.workers, "workers", "n", 2, "")
	cmd.Flags().String("exclude", "", "")
	cmd.Flags().String("include", "", "")
	return cmd
}

func TestApplyConfigDefaults(t *testing.T) {
	var opts buildOptions
	cmd := newFlagCmd(&opts)
	require.NoError(t, cmd.Flags().Parse([]string{"--workers", "6", "--platforms", "browser"}))

	chain := filter.NewChain()
	err := applyConfigDefaults(cmd, config.BuildConfig{
		Input:        ptr("game"),
		Workers:      ptr(3),
		Platforms:    []string{"win", "osx"},
		EncryptAudio: ptr(true),
		Exclude:      []string{"*.psd"},
	}, &opts, chain)
	require.NoError(t, err)

	assert.Equal(t, "game", opts.input)
	assert.Equal(t, 6, opts.workers, "explicit flags win over the config file")
	assert.Equal(t, []string{"browser"}, opts.platforms)
	assert.True(t, opts.encryptAudio)
	assert.False(t, opts.encryptImages)
	assert.False(t, chain.Match("Sky.psd", false))
}

func TestApplyConfigDefaultsBadExclude(t *testing.T) {
	var opts buildOptions
	cmd := newFlagCmd(&opts)
	require.NoError(t, cmd.Flags().Parse(nil))

	err := applyConfigDefaults(cmd, config.BuildConfig{Exclude: []string{""}}, &opts, filter.NewChain())
	require.Error(t, err)
}

func TestResetOutput(t *testing.T) {
	dir := t.TempDir()
	project := filepath.Join(dir, "game")
	out := filepath.Join(dir, "dist")
	require.NoError(t, os.MkdirAll(filepath.Join(out, "Windows"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "Windows", "stale.txt"), []byte("old"), 0o644))

	require.NoError(t, resetOutput(project, out))
	assert.DirExists(t, out)
	assert.NoFileExists(t, filepath.Join(out, "Windows", "stale.txt"))

	require.Error(t, resetOutput(project, project))
	require.Error(t, resetOutput(project, dir), "a parent of the project is never cleared")
	assert.DirExists(t, dir)
}

func TestDescrambleTree(t *testing.T) {
	key := scramble.KeyFromPassphrase("1337")
	dir := t.TempDir()
	plain := filepath.Join(dir, "src", "Sky.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(plain), 0o755))
	require.NoError(t, os.WriteFile(plain, []byte("pixels of a clear blue sky"), 0o644))

	build := filepath.Join(dir, "build")
	scrambled := filepath.Join(build, "img", "pictures", "Sky.rpgmvp")
	require.NoError(t, os.MkdirAll(filepath.Dir(scrambled), 0o755))
	_, err := scramble.EncryptFile(plain, scrambled, key, nil)
	require.NoError(t, err)

	system, err := scramble.PatchSystemJSON([]byte(`{}`), true, false, key)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(build, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(build, "data", "System.json"), system, 0o644))

	restoredDir := filepath.Join(dir, "restored")
	var out bytes.Buffer
	descrambleCmd.SetOut(&out)
	descrambleCmd.SetArgs(nil)
	require.NoError(t, descrambleCmd.Flags().Set("out", restoredDir))
	t.Cleanup(func() { _ = descrambleCmd.Flags().Set("out", "") })

	require.NoError(t, runDescramble(descrambleCmd, []string{build}))
	assert.Contains(t, out.String(), "restored 1 files")

	got, err := os.ReadFile(filepath.Join(restoredDir, "img", "pictures", "Sky.png"))
	require.NoError(t, err)
	assert.Equal(t, "pixels of a clear blue sky", string(got))
}

func TestResolveKeySingleFileNeedsKey(t *testing.T) {
	_, err := resolveKey("Sky.rpgmvp", false, "", "")
	require.Error(t, err)

	key, err := resolveKey("Sky.rpgmvp", false, "", "1337")
	require.NoError(t, err)
	assert.Equal(t, scramble.KeyFromPassphrase("1337"), key)
}
