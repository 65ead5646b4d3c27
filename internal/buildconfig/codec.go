package buildconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/temple/internal/fsutil"
	"gopkg.in/yaml.v3"
)

// Format selects the serialisation of a configuration file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks JSON for .json files and YAML otherwise.
func FormatFromPath(path string) Format {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Load reads a configuration file over the defaults for the file's directory.
// Relative paths in the file resolve against its context, which itself
// defaults to the file's directory.
func Load(path string) (Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to resolve config path: %w", err)
	}

	f, err := os.Open(abs)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	dir := filepath.Dir(abs)
	cfg, err := Decode(f, Default(dir))
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	switch {
	case cfg.Context == "":
		cfg.Context = dir
	case !filepath.IsAbs(cfg.Context):
		cfg.Context = filepath.Join(dir, cfg.Context)
	}

	log.Debug().Str("path", abs).Str("context", cfg.Context).Msg("Loaded build config")

	return cfg.Resolved(), nil
}

// Decode reads a YAML or JSON document over base. JSON goes through the YAML
// decoder as well (JSON is a YAML subset) so both formats replace lists and
// keep unspecified fields the same way. Unknown keys are rejected.
func Decode(r io.Reader, base Config) (Config, error) {
	cfg := base
	// clear the context so a value in the document is distinguishable from the default
	cfg.Context = ""

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			cfg.Context = base.Context
			return cfg, nil
		}
		return Config{}, err
	}

	return cfg, nil
}

// Encode writes cfg in the given format.
func Encode(w io.Writer, format Format, cfg Config) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported config format %q", format)
	}
}

// Save writes cfg to path atomically, in the format implied by its extension.
func Save(path string, cfg Config) error {
	buf := new(bytes.Buffer)
	if err := Encode(buf, FormatFromPath(path), cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return fsutil.WriteFile(path, buf.Bytes(), 0644)
}
