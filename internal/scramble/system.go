package scramble

import (
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/bamsammich/rpgpack/internal/platform"
)

// ErrNotObject is returned when System.json is not a JSON object.
var ErrNotObject = errors.New("system config is not a JSON object")

// Fields the runtime reads to decide whether to descramble assets.
const (
	fieldImages = "hasEncryptedImages"
	fieldAudio  = "hasEncryptedAudio"
	fieldKey    = "encryptionKey"
)

// PatchSystemJSON sets the encryption flags and the hex key on a System.json
// document. Existing values are overwritten; new fields are appended.
func PatchSystemJSON(data []byte, images, audio bool, key Key) ([]byte, error) {
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, ErrNotObject
	}

	out, err := sjson.SetBytes(data, fieldImages, images)
	if err != nil {
		return nil, fmt.Errorf("set %s: %w", fieldImages, err)
	}
	if out, err = sjson.SetBytes(out, fieldAudio, audio); err != nil {
		return nil, fmt.Errorf("set %s: %w", fieldAudio, err)
	}
	if out, err = sjson.SetBytes(out, fieldKey, key.String()); err != nil {
		return nil, fmt.Errorf("set %s: %w", fieldKey, err)
	}
	return out, nil
}

// PatchSystemFile reads System.json from src and writes the patched document
// to dst atomically.
func PatchSystemFile(src, dst string, images, audio bool, key Key, tracker platform.TmpTracker) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read system config: %w", err)
	}
	patched, err := PatchSystemJSON(data, images, audio, key)
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}

	_, err = platform.WriteFileAtomic(dst, 0o644, tracker, func(f *os.File) (int64, error) {
		n, err := f.Write(patched)
		return int64(n), err
	})
	return err
}

// SystemKey returns the key recorded in a patched System.json, if any.
func SystemKey(data []byte) (Key, bool, error) {
	v := gjson.GetBytes(data, fieldKey)
	if !v.Exists() || v.Str == "" {
		return Key{}, false, nil
	}
	k, err := ParseKey(v.Str)
	if err != nil {
		return Key{}, false, err
	}
	return k, true, nil
}
