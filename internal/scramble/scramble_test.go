package scramble

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/bamsammich/rpgpack/internal/rpgmaker"
)

var key1337 = Key{228, 142, 19, 32, 115, 65, 182, 191, 251, 127, 177, 98, 34, 130, 36, 123}

func TestKeyFromPassphrase(t *testing.T) {
	k := KeyFromPassphrase("1337")
	assert.Equal(t, key1337, k)
	assert.Equal(t, "e48e13207341b6bffb7fb1622282247b", k.String())

	parsed, err := ParseKey(k.String())
	require.NoError(t, err)
	assert.Equal(t, k, parsed)

	_, err = ParseKey("abcd")
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = ParseKey("zz")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestEncodeKnownVector(t *testing.T) {
	src := make([]byte, 20)

	var out bytes.Buffer
	n, err := Encode(&out, bytes.NewReader(src), KeyFromPassphrase("1337"))
	require.NoError(t, err)
	assert.Equal(t, int64(36), n)

	got := out.Bytes()
	require.Len(t, got, 36)
	assert.Equal(t, Header[:], got[:16])
	assert.Equal(t, key1337[:], got[16:32])
	assert.Equal(t, []byte{0, 0, 0, 0}, got[32:])
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	key := KeyFromPassphrase("correct horse")
	for _, size := range []int{16, 17, 31, 32, 4096, 100_003} {
		src := make([]byte, size)
		_, err := rand.Read(src)
		require.NoError(t, err)

		var enc bytes.Buffer
		_, err = Encode(&enc, bytes.NewReader(src), key)
		require.NoError(t, err)
		assert.Equal(t, size+KeySize, enc.Len())
		assert.Equal(t, src[KeySize:], enc.Bytes()[2*KeySize:], "remainder must be verbatim")

		var dec bytes.Buffer
		n, err := Decode(&dec, bytes.NewReader(enc.Bytes()), key)
		require.NoError(t, err)
		assert.Equal(t, int64(size), n)
		assert.Equal(t, src, dec.Bytes())
	}
}

func TestEncodeTooShort(t *testing.T) {
	var out bytes.Buffer
	_, err := Encode(&out, bytes.NewReader(make([]byte, 15)), key1337)
	assert.ErrorIs(t, err, ErrTooShort)
	assert.Zero(t, out.Len())

	_, err = Encode(&out, bytes.NewReader(nil), key1337)
	assert.ErrorIs(t, err, ErrTooShort)
	assert.Zero(t, out.Len())
}

func TestDecodeErrors(t *testing.T) {
	var out bytes.Buffer
	_, err := Decode(&out, bytes.NewReader(make([]byte, 40)), key1337)
	assert.ErrorIs(t, err, ErrBadHeader)

	_, err = Decode(&out, bytes.NewReader(append(Header[:], 1, 2, 3)), key1337)
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestEncryptFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Actor1.png")
	data := []byte("\x89PNG\r\n\x1a\n fake png data for the test")
	require.NoError(t, os.WriteFile(src, data, 0644))

	dst, err := ScrambledPath(filepath.Join(dir, "out", "Actor1.png"), rpgmaker.MV)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0755))

	n, err := EncryptFile(src, dst, key1337, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)+KeySize), n)
	assert.Equal(t, ".rpgmvp", filepath.Ext(dst))

	restored := filepath.Join(dir, "restored.png")
	_, err = DecryptFile(dst, restored, key1337, nil)
	require.NoError(t, err)
	got, err := os.ReadFile(restored)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestEncryptFileTooShortWritesNothing(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "tiny.ogg")
	require.NoError(t, os.WriteFile(src, []byte("OggS"), 0644))

	dst := filepath.Join(dir, "tiny.rpgmvo")
	_, err := EncryptFile(src, dst, key1337, nil)
	require.ErrorIs(t, err, ErrTooShort)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "only the source may remain")
	assert.Equal(t, "tiny.ogg", entries[0].Name())
}

func TestScrambledPath(t *testing.T) {
	tests := []struct {
		in   string
		gen  rpgmaker.Generation
		want string
	}{
		{"audio/bgm/Theme.ogg", rpgmaker.MV, "audio/bgm/Theme.rpgmvo"},
		{"audio/bgm/Theme.m4a", rpgmaker.MV, "audio/bgm/Theme.rpgmvm"},
		{"img/faces/Actor1.png", rpgmaker.MV, "img/faces/Actor1.rpgmvp"},
		{"audio/bgm/Theme.ogg", rpgmaker.MZ, "audio/bgm/Theme.ogg_"},
		{"audio/bgm/Theme.m4a", rpgmaker.MZ, "audio/bgm/Theme.m4a_"},
		{"img/faces/Actor1.png", rpgmaker.MZ, "img/faces/Actor1.png_"},
	}
	for _, tt := range tests {
		got, err := ScrambledPath(tt.in, tt.gen)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.True(t, IsScrambled(got))

		back, err := RestoredPath(got)
		require.NoError(t, err)
		assert.Equal(t, tt.in, back)
	}

	_, err := ScrambledPath("movies/Intro.webm", rpgmaker.MZ)
	assert.ErrorIs(t, err, ErrUnknownExtension)
	_, err = RestoredPath("img/faces/Actor1.png")
	assert.ErrorIs(t, err, ErrUnknownExtension)
	assert.False(t, IsScrambled("data/System.json"))
}

func TestPatchSystemJSON(t *testing.T) {
	out, err := PatchSystemJSON([]byte(`{"gameTitle":"Demo"}`), true, false, key1337)
	require.NoError(t, err)
	assert.Equal(t,
		`{"gameTitle":"Demo","hasEncryptedImages":true,"hasEncryptedAudio":false,"encryptionKey":"e48e13207341b6bffb7fb1622282247b"}`,
		string(out))

	// patching twice overwrites rather than duplicating fields.
	again, err := PatchSystemJSON(out, false, true, key1337)
	require.NoError(t, err)
	assert.False(t, gjson.GetBytes(again, "hasEncryptedImages").Bool())
	assert.True(t, gjson.GetBytes(again, "hasEncryptedAudio").Bool())
	assert.Equal(t, "Demo", gjson.GetBytes(again, "gameTitle").Str)

	k, ok, err := SystemKey(again)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, key1337, k)

	_, err = PatchSystemJSON([]byte(`[1,2]`), true, true, key1337)
	assert.ErrorIs(t, err, ErrNotObject)
	_, err = PatchSystemJSON([]byte(`{"a":`), true, true, key1337)
	assert.ErrorIs(t, err, ErrNotObject)
}

func TestPatchSystemFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "System.json")
	require.NoError(t, os.WriteFile(src, []byte(`{
  "gameTitle": "Demo",
  "locale": "en_US"
}`), 0644))

	dst := filepath.Join(dir, "out.json")
	require.NoError(t, PatchSystemFile(src, dst, true, true, key1337, nil))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.True(t, gjson.ValidBytes(data))
	assert.Equal(t, "en_US", gjson.GetBytes(data, "locale").Str)
	assert.True(t, gjson.GetBytes(data, "hasEncryptedImages").Bool())
	assert.Equal(t, key1337.String(), gjson.GetBytes(data, "encryptionKey").Str)

	_, ok, err := SystemKey([]byte(`{"gameTitle":"x"}`))
	require.NoError(t, err)
	assert.False(t, ok)
}
