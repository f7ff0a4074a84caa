package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultFile is looked up in the working directory when no --config is given.
const DefaultFile = "rpgpack.toml"

// Config represents the optional rpgpack configuration file.
type Config struct {
	Build BuildConfig `toml:"build"`
}

// BuildConfig holds build flag defaults. A nil field means "not set".
type BuildConfig struct {
	Input         *string  `toml:"input"`
	Output        *string  `toml:"output"`
	RPGMaker      *string  `toml:"rpgmaker"`
	Platforms     []string `toml:"platforms"`
	EncryptImages *bool    `toml:"encrypt_images"`
	EncryptAudio  *bool    `toml:"encrypt_audio"`
	Passphrase    *string  `toml:"passphrase"`
	ExcludeUnused *bool    `toml:"exclude_unused"`
	Hardlinks     *bool    `toml:"hardlinks"`
	Cache         *bool    `toml:"cache"`
	Workers       *int     `toml:"workers"`
	Verify        *bool    `toml:"verify"`
	Exclude       []string `toml:"exclude"`
}

// Path resolves the config file to read. flagValue is the --config flag;
// explicit reports whether the user named the file.
func Path(flagValue string) (path string, explicit bool) {
	if flagValue != "" {
		return flagValue, true
	}
	return DefaultFile, false
}

// Load reads the config file at path. A missing file yields a zero Config
// unless explicit is set. Unknown keys are rejected so typos do not pass
// silently.
func Load(path string, explicit bool) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return Config{}, nil
		}
		return Config{}, err
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}
