// Package config reads tapec configuration files.
//
// A configuration file is a YAML document like:
//
//	opt-level: 3
//	emit: [c, rust]
//	tape:
//	  initial-cells: 30000
//	  max-cells: 16777216
//	  emit-cells: 65536
//	cache: /path/to/cache.db
//
// All fields are optional. Command-line flags override the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
	"src.tapec.sh/pkg/logutil"
)

var logger = logutil.GetLogger("[config] ")

// FileName is the name of the configuration file looked up next to a
// program.
const FileName = "tapec.yaml"

// Config is the content of a configuration file.
type Config struct {
	// Nil if not set.
	OptLevel *int     `yaml:"opt-level"`
	Emit     []string `yaml:"emit"`
	Tape     Tape     `yaml:"tape"`
	// Resolved relative to the directory of the file by Load.
	Cache string `yaml:"cache"`
}

// Tape configures tape sizes. Zero values mean the defaults.
type Tape struct {
	InitialCells int `yaml:"initial-cells"`
	MaxCells     int `yaml:"max-cells"`
	EmitCells    int `yaml:"emit-cells"`
}

// Parse parses the content of a configuration file. Unknown fields are
// errors.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.OptLevel != nil && (*cfg.OptLevel < 0 || *cfg.OptLevel > 3) {
		return fmt.Errorf("opt-level must be 0 to 3, got %d", *cfg.OptLevel)
	}
	for _, f := range []struct {
		name  string
		value int
	}{
		{"tape.initial-cells", cfg.Tape.InitialCells},
		{"tape.max-cells", cfg.Tape.MaxCells},
		{"tape.emit-cells", cfg.Tape.EmitCells},
	} {
		if f.value < 0 {
			return fmt.Errorf("%s must not be negative, got %d", f.name, f.value)
		}
	}
	if cfg.Tape.MaxCells > 0 && cfg.Tape.InitialCells > cfg.Tape.MaxCells {
		return fmt.Errorf("tape.initial-cells (%d) exceeds tape.max-cells (%d)",
			cfg.Tape.InitialCells, cfg.Tape.MaxCells)
	}
	return nil
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Cache != "" && !filepath.IsAbs(cfg.Cache) {
		cfg.Cache = filepath.Join(filepath.Dir(path), cfg.Cache)
	}
	logger.Printf("loaded %s", path)
	return cfg, nil
}

// Find returns the path of the configuration file next to the given program
// file, or "" if there is none.
func Find(program string) (string, error) {
	path := filepath.Join(filepath.Dir(program), FileName)
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return path, nil
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	default:
		return "", err
	}
}
