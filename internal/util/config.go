package util

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const ConfigFileName = "helter.toml"

// DefaultMaxDepth bounds evaluation nesting. Go cannot recover from a blown
// goroutine stack, so the interpreter trips its own guard well before that.
const DefaultMaxDepth = 100000

type Configuration struct {
	Version    string `toml:"-"`
	BuildDate  string `toml:"-"`
	Commit     string `toml:"-"`
	HelterHome string `toml:"-"`
	// ConfigFile is the file the settings were read from, empty for defaults.
	ConfigFile string `toml:"-"`

	RootPolicy string `toml:"root-policy"`
	MaxDepth   int    `toml:"max-depth"`
	DebugAST   string `toml:"debug-ast"`
	Journal    string `toml:"journal"`
	History    string `toml:"history"`
	LogLevel   string `toml:"log-level"`
	LogFile    string `toml:"log-file"`
}

func DefaultConfiguration() Configuration {
	return Configuration{
		RootPolicy: "symbols",
		MaxDepth:   DefaultMaxDepth,
		LogLevel:   "none",
	}
}

// LoadConfig reads settings over the defaults. An explicit path must exist;
// otherwise ./helter.toml and then $HELTER_HOME/helter.toml are tried, and
// finding neither is not an error.
func LoadConfig(path, home string) (Configuration, error) {
	cfg := DefaultConfiguration()
	cfg.HelterHome = home

	if path != "" {
		return cfg, decodeConfig(path, &cfg)
	}

	candidates := []string{ConfigFileName}
	if home != "" {
		candidates = append(candidates, filepath.Join(home, ConfigFileName))
	}
	for _, candidate := range candidates {
		err := decodeConfig(candidate, &cfg)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	return cfg, nil
}

func decodeConfig(path string, cfg *Configuration) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown setting %q in %s", undecoded[0].String(), path)
	}
	cfg.ConfigFile = path
	return nil
}
