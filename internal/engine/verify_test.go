package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/rpgpack/internal/event"
	"github.com/bamsammich/rpgpack/internal/policy"
	"github.com/bamsammich/rpgpack/internal/rpgmaker"
)

func buildForVerify(t *testing.T) (string, []Operation) {
	t.Helper()
	src := createTree(t, map[string]string{
		"index.html": "<html></html>",
		"Sky.png":    "pixels of a clear blue sky",
	})
	out := t.TempDir()
	ops := []Operation{
		{Src: filepath.Join(src, "index.html"), Dst: filepath.Join(out, "index.html"), Action: Copy, Origin: policy.Project},
		{Src: filepath.Join(src, "Sky.png"), Dst: filepath.Join(out, "Sky.rpgmvp"), Action: Scramble, Origin: policy.Project},
	}

	wp, _ := newTestWorkerPool(t)
	res := wp.RunBatch(context.Background(), rpgmaker.Browser, out, ops)
	require.NoError(t, res.Err)
	return out, ops
}

func TestVerifyAllMatch(t *testing.T) {
	out, ops := buildForVerify(t)

	result := Verify(context.Background(), VerifyConfig{Ops: ops, Key: testKey, Workers: 2, OutRoot: out})
	assert.Equal(t, int64(2), result.Verified)
	assert.Equal(t, int64(0), result.Failed)
	assert.Empty(t, result.Errors)
}

func TestVerifyDetectsTampering(t *testing.T) {
	out, ops := buildForVerify(t)
	require.NoError(t, os.WriteFile(ops[0].Dst, []byte("<html>changed</html>"), 0o644))

	events := make(chan event.Event, 8)
	result := Verify(context.Background(), VerifyConfig{
		Ops:      ops,
		Key:      testKey,
		Workers:  2,
		Platform: "Browser",
		OutRoot:  out,
		Events:   events,
	})

	assert.Equal(t, int64(1), result.Verified)
	assert.Equal(t, int64(1), result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "index.html", result.Errors[0].Path)
	assert.NotEqual(t, result.Errors[0].SrcHash, result.Errors[0].DstHash)

	evs := drain(events)
	require.Len(t, evs, 1)
	assert.Equal(t, event.VerifyFailed, evs[0].Type)
	assert.Equal(t, "Browser", evs[0].Platform)
}

func TestVerifyWrongKey(t *testing.T) {
	out, ops := buildForVerify(t)

	wrong := testKey
	wrong[0] ^= 0xff
	result := Verify(context.Background(), VerifyConfig{Ops: ops, Key: wrong, OutRoot: out})
	assert.Equal(t, int64(1), result.Verified)
	assert.Equal(t, int64(1), result.Failed)
	assert.Equal(t, "Sky.rpgmvp", result.Errors[0].Path)
}

func TestVerifyMissingOutput(t *testing.T) {
	out, ops := buildForVerify(t)
	require.NoError(t, os.Remove(ops[1].Dst))

	result := Verify(context.Background(), VerifyConfig{Ops: ops, Key: testKey, OutRoot: out})
	assert.Equal(t, int64(1), result.Failed)
	assert.Equal(t, "error", result.Errors[0].DstHash)
}
