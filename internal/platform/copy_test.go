package platform

import (
	"bytes"
	"crypto/rand"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func copyInto(t *testing.T, src, dst string, size int64) CopyResult {
	t.Helper()
	dstFd, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	require.NoError(t, err)
	defer dstFd.Close()

	result, err := CopyFile(src, dstFd, size)
	require.NoError(t, err)
	return result
}

func TestCopyFileBasic(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.ogg")
	dst := filepath.Join(dir, "dst.ogg")

	data := []byte("OggS fake audio payload")
	require.NoError(t, os.WriteFile(src, data, 0644))

	result := copyInto(t, src, dst, int64(len(data)))
	assert.Equal(t, int64(len(data)), result.BytesWritten)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestCopyFileLarge(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")

	// larger than the 1 MiB buffer.
	size := 4 * 1024 * 1024
	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(src, data, 0644))

	result := copyInto(t, src, dst, int64(size))
	assert.Equal(t, int64(size), result.BytesWritten)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestCopyFileEmpty(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, nil, 0644))

	result := copyInto(t, src, filepath.Join(dir, "dst"), 0)
	assert.Equal(t, int64(0), result.BytesWritten)
}

func TestReadWrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	data := bytes.Repeat([]byte("read-write fallback "), 100_000) // spans several buffers
	require.NoError(t, os.WriteFile(src, data, 0644))

	in, err := os.Open(src)
	require.NoError(t, err)
	defer in.Close()
	out, err := os.Create(filepath.Join(dir, "dst"))
	require.NoError(t, err)
	defer out.Close()

	n, err := readWrite(out, in, int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)

	got, err := os.ReadFile(out.Name())
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestReadWriteShortSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, []byte("short"), 0644))

	in, err := os.Open(src)
	require.NoError(t, err)
	defer in.Close()
	out, err := os.Create(filepath.Join(dir, "dst"))
	require.NoError(t, err)
	defer out.Close()

	n, err := readWrite(out, in, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestCopyFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	out, err := os.Create(filepath.Join(dir, "dst"))
	require.NoError(t, err)
	defer out.Close()

	_, err = CopyFile(filepath.Join(dir, "missing"), out, 10)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCopyMethodString(t *testing.T) {
	assert.Equal(t, "read_write", ReadWrite.String())
	assert.Equal(t, "copy_file_range", CopyFileRange.String())
	assert.Equal(t, "sendfile", Sendfile.String())
	assert.Equal(t, "unknown", CopyMethod(99).String())
}

type recordingTracker struct {
	mu         sync.Mutex
	registered []string
	live       map[string]bool
}

func (r *recordingTracker) Register(p string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.live == nil {
		r.live = make(map[string]bool)
	}
	r.registered = append(r.registered, p)
	r.live[p] = true
}

func (r *recordingTracker) Deregister(p string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.live, p)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "System.json")
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0644))

	tracker := &recordingTracker{}
	n, err := WriteFileAtomic(dst, 0644, tracker, func(f *os.File) (int64, error) {
		w, err := f.WriteString("new")
		return int64(w), err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	require.Len(t, tracker.registered, 1)
	assert.True(t, strings.HasSuffix(tracker.registered[0], TmpSuffix))
	assert.Empty(t, tracker.live)
	assertNoTmp(t, dir)
}

func TestWriteFileAtomicFailureLeavesDestination(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "Actor1.png")
	require.NoError(t, os.WriteFile(dst, []byte("original"), 0644))

	boom := errors.New("boom")
	_, err := WriteFileAtomic(dst, 0644, nil, func(f *os.File) (int64, error) {
		_, _ = f.WriteString("partial")
		return 7, boom
	})
	require.ErrorIs(t, err, boom)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))
	assertNoTmp(t, dir)
}

func TestTmpPathUnique(t *testing.T) {
	dst := filepath.Join("out", "www", "img", "a.png")
	a, b := TmpPath(dst), TmpPath(dst)
	assert.NotEqual(t, a, b)
	assert.Equal(t, filepath.Dir(dst), filepath.Dir(a))
	assert.True(t, strings.HasPrefix(filepath.Base(a), ".a.png."))
}

func assertNoTmp(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), TmpSuffix)
	}
}
