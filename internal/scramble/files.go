package scramble

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bamsammich/rpgpack/internal/platform"
	"github.com/bamsammich/rpgpack/internal/rpgmaker"
)

// ErrUnknownExtension is returned for files that have no scrambled form.
var ErrUnknownExtension = errors.New("no scrambled extension")

const bufferSize = 64 << 10

var scrambledExts = map[rpgmaker.Generation]map[string]string{
	rpgmaker.MV: {".ogg": ".rpgmvo", ".m4a": ".rpgmvm", ".png": ".rpgmvp"},
	rpgmaker.MZ: {".ogg": ".ogg_", ".m4a": ".m4a_", ".png": ".png_"},
}

var restoredExts = map[string]string{
	".rpgmvo": ".ogg",
	".rpgmvm": ".m4a",
	".rpgmvp": ".png",
	".ogg_":   ".ogg",
	".m4a_":   ".m4a",
	".png_":   ".png",
}

// ScrambledPath maps a plain asset path to the path its scrambled form is
// written to.
func ScrambledPath(path string, gen rpgmaker.Generation) (string, error) {
	ext := filepath.Ext(path)
	to, ok := scrambledExts[gen][ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownExtension, path)
	}
	return strings.TrimSuffix(path, ext) + to, nil
}

// RestoredPath maps a scrambled asset path back to its plain extension.
func RestoredPath(path string) (string, error) {
	ext := filepath.Ext(path)
	to, ok := restoredExts[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownExtension, path)
	}
	return strings.TrimSuffix(path, ext) + to, nil
}

// IsScrambled reports whether path carries a scrambled extension.
func IsScrambled(path string) bool {
	_, ok := restoredExts[filepath.Ext(path)]
	return ok
}

// EncryptFile scrambles src into dst through a temporary file. dst is only
// replaced once the whole output is written. tracker may be nil.
func EncryptFile(src, dst string, key Key, tracker platform.TmpTracker) (int64, error) {
	return transform(src, dst, tracker, func(w io.Writer, r io.Reader) (int64, error) {
		return Encode(w, r, key)
	})
}

// DecryptFile restores a scrambled src into dst.
func DecryptFile(src, dst string, key Key, tracker platform.TmpTracker) (int64, error) {
	return transform(src, dst, tracker, func(w io.Writer, r io.Reader) (int64, error) {
		return Decode(w, r, key)
	})
}

func transform(src, dst string, tracker platform.TmpTracker, fn func(io.Writer, io.Reader) (int64, error)) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", src, err)
	}
	if info.Size() < KeySize {
		return 0, fmt.Errorf("%s: %w", src, ErrTooShort)
	}

	n, err := platform.WriteFileAtomic(dst, info.Mode().Perm(), tracker, func(f *os.File) (int64, error) {
		w := bufio.NewWriterSize(f, bufferSize)
		n, err := fn(w, bufio.NewReaderSize(in, bufferSize))
		if err != nil {
			return n, err
		}
		return n, w.Flush()
	})
	if err != nil {
		return n, fmt.Errorf("%s: %w", src, err)
	}
	return n, nil
}
