package platform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// TmpSuffix marks in-progress writes in the output tree.
const TmpSuffix = ".rpgpack-tmp"

// TmpTracker is told about temporary files while they exist so that an
// interrupted build can remove them.
type TmpTracker interface {
	Register(path string)
	Deregister(path string)
}

// TmpPath returns a hidden, unique sibling path for dst.
func TmpPath(dst string) string {
	name := fmt.Sprintf(".%s.%s%s", filepath.Base(dst), uuid.New().String()[:8], TmpSuffix)
	return filepath.Join(filepath.Dir(dst), name)
}

// WriteFileAtomic hands write a fresh temporary sibling of dst and renames it
// over dst once write and close succeed. On failure dst is untouched and the
// temporary file is removed. tracker may be nil.
func WriteFileAtomic(dst string, perm os.FileMode, tracker TmpTracker, write func(*os.File) (int64, error)) (int64, error) {
	tmpPath := TmpPath(dst)

	if tracker != nil {
		tracker.Register(tmpPath)
		defer tracker.Deregister(tmpPath)
	}
	defer func() {
		_ = os.Remove(tmpPath) // no-op if rename succeeded
	}()

	fd, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return 0, fmt.Errorf("create tmp %s: %w", tmpPath, err)
	}

	n, err := write(fd)
	if err != nil {
		fd.Close()
		return n, err
	}
	if err := fd.Close(); err != nil {
		return n, fmt.Errorf("close tmp %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		return n, fmt.Errorf("rename %s -> %s: %w", tmpPath, dst, err)
	}
	return n, nil
}
