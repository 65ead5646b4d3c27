package buildconfig

import (
	"fmt"

	"dario.cat/mergo"
)

// Overrides are command line values layered over a loaded config. Zero values
// leave the config untouched.
type Overrides struct {
	Entry          string
	OutputPath     string
	OutputFilename string
	StaticDir      string
	Host           string
	Port           int
	NoCompress     bool
}

// WithOverrides returns a copy of c with the non-zero overrides applied.
func (c Config) WithOverrides(o Overrides) (Config, error) {
	patch := Config{
		Entry: o.Entry,
		Output: Output{
			Filename: o.OutputFilename,
			Path:     o.OutputPath,
		},
		DevServer: DevServer{
			Static: Static{Directory: o.StaticDir},
			Host:   o.Host,
			Port:   o.Port,
		},
	}

	out := c
	if err := mergo.Merge(&out, patch, mergo.WithOverride); err != nil {
		return Config{}, fmt.Errorf("failed to apply overrides: %w", err)
	}

	if o.NoCompress {
		out.DevServer.Compress = false
	}

	return out, nil
}
