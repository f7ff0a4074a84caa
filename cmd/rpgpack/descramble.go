package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bamsammich/rpgpack/internal/scramble"
)

var descrambleCmd = &cobra.Command{
	Use:   "descramble <path>",
	Short: "Restore scrambled images and audio to their original form",
	Long: `descramble reverses the scrambling applied by a build. <path> is a single
scrambled file or a folder that is searched recursively. The key comes from
--key, --passphrase, or the data/System.json of the folder being restored.`,
	Args: cobra.ExactArgs(1),
	RunE: runDescramble,
}

func init() {
	descrambleCmd.Flags().String("passphrase", "", "passphrase the scramble key was derived from")
	descrambleCmd.Flags().String("key", "", "scramble key as 32 hex digits")
	descrambleCmd.Flags().String("out", "", "write restored files under DIR instead of next to their source")
}

func runDescramble(cmd *cobra.Command, args []string) error {
	passphrase, _ := cmd.Flags().GetString("passphrase") //nolint:errcheck // flag name is hardcoded
	hexKey, _ := cmd.Flags().GetString("key")            //nolint:errcheck // flag name is hardcoded
	outDir, _ := cmd.Flags().GetString("out")            //nolint:errcheck // flag name is hardcoded

	root := args[0]
	info, err := os.Stat(root)
	if err != nil {
		return err
	}

	key, err := resolveKey(root, info.IsDir(), hexKey, passphrase)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		dst, err := restoredTarget(filepath.Dir(root), root, outDir)
		if err != nil {
			return err
		}
		if _, err := scramble.DecryptFile(root, dst, key, nil); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), dst)
		return nil
	}

	var restored, failed int
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() || !scramble.IsScrambled(path) {
			return nil
		}
		dst, err := restoredTarget(root, path, outDir)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
		if _, err := scramble.DecryptFile(path, dst, key, nil); err != nil {
			slog.Error("descramble failed", "src", path, "error", err)
			failed++
			return nil
		}
		slog.Debug("restored", "src", path, "dst", dst)
		restored++
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "restored %d files\n", restored)
	if failed > 0 {
		return &exitError{code: 1}
	}
	return nil
}

// resolveKey picks the key from --key, then --passphrase, then the
// System.json found under a folder argument.
func resolveKey(root string, isDir bool, hexKey, passphrase string) (scramble.Key, error) {
	switch {
	case hexKey != "":
		return scramble.ParseKey(hexKey)
	case passphrase != "":
		return scramble.KeyFromPassphrase(passphrase), nil
	case !isDir:
		return scramble.Key{}, errors.New("--key or --passphrase is required for a single file")
	}

	for _, rel := range []string{"data/System.json", "www/data/System.json"} {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return scramble.Key{}, fmt.Errorf("read system config: %w", err)
		}
		key, ok, err := scramble.SystemKey(data)
		if err != nil {
			return scramble.Key{}, fmt.Errorf("%s: %w", rel, err)
		}
		if ok {
			return key, nil
		}
	}
	return scramble.Key{}, errors.New("no key found; pass --key or --passphrase")
}

// restoredTarget maps a scrambled file under root to its restored path,
// relocated under outDir when one is given.
func restoredTarget(root, path, outDir string) (string, error) {
	dst, err := scramble.RestoredPath(path)
	if err != nil {
		return "", err
	}
	if outDir == "" {
		return dst, nil
	}
	rel, err := filepath.Rel(root, dst)
	if err != nil {
		return "", err
	}
	return filepath.Join(outDir, rel), nil
}
