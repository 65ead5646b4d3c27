package buildconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Validate checks the record against what the bundler and dev server need and
// returns every problem found, joined. Each problem wraps ErrInvalidConfig and
// a more specific sentinel.
//
// The output directory is created when missing so its writability can be probed.
func (c Config) Validate() error {
	var errs []error
	add := func(sentinel error, format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		if sentinel == ErrInvalidConfig {
			errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, msg))
			return
		}
		errs = append(errs, fmt.Errorf("%w: %w: %s", ErrInvalidConfig, sentinel, msg))
	}

	if c.Context != "" && !filepath.IsAbs(c.Context) {
		add(ErrOutputPath, "context %q must be absolute", c.Context)
	}

	if c.Entry == "" {
		add(ErrEntryNotFound, "entry is required")
	} else if info, err := os.Stat(c.Abs(c.Entry)); err != nil {
		add(ErrEntryNotFound, "%s: %v", c.Entry, err)
	} else if !info.Mode().IsRegular() {
		add(ErrEntryNotFound, "%s is not a regular file", c.Entry)
	}

	if c.Output.Filename == "" || c.Output.Filename != filepath.Base(c.Output.Filename) {
		add(ErrOutputPath, "output filename %q must be a bare file name", c.Output.Filename)
	}
	if !filepath.IsAbs(c.Output.Path) {
		add(ErrOutputPath, "output path %q must be absolute", c.Output.Path)
	} else if err := probeWritable(c.Output.Path); err != nil {
		add(ErrOutputPath, "%s: %v", c.Output.Path, err)
	}

	for _, ext := range c.Resolve.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			add(ErrInvalidConfig, "resolve extension %q must start with a dot", ext)
		}
	}

	for i, rule := range c.Module.Rules {
		if rule.Test == "" {
			add(ErrInvalidPattern, "rule %d: test is required", i)
		} else if _, err := rule.Test.Compile(); err != nil {
			add(ErrInvalidPattern, "rule %d test: %v", i, err)
		}
		if _, err := rule.Exclude.Compile(); err != nil {
			add(ErrInvalidPattern, "rule %d exclude: %v", i, err)
		}
		if len(rule.Use) == 0 {
			add(ErrUnknownHandler, "rule %d: use requires at least one handler", i)
		}
		for _, h := range rule.Use {
			if !slices.Contains(knownHandlers, h) {
				add(ErrUnknownHandler, "rule %d: %q (known: %s)", i, h, strings.Join(knownHandlers, ", "))
			}
		}
	}

	for i, p := range c.Plugins {
		if !slices.Contains(knownPlugins, p.Name) {
			add(ErrUnknownPlugin, "plugin %d: %q (known: %s)", i, p.Name, strings.Join(knownPlugins, ", "))
			continue
		}
		if err := c.validateHTMLPlugin(p); err != nil {
			errs = append(errs, err)
		}
	}

	if c.DevServer.Port < 1 || c.DevServer.Port > 65535 {
		add(ErrInvalidPort, "devServer port %d must be between 1 and 65535", c.DevServer.Port)
	}
	if c.DevServer.Static.Directory == "" {
		add(ErrInvalidConfig, "devServer static directory is required")
	}

	return errors.Join(errs...)
}

func (c Config) validateHTMLPlugin(p Plugin) error {
	opts, err := p.HTMLOptions()
	if err != nil {
		return err
	}
	if opts.Filename != filepath.Base(opts.Filename) {
		return fmt.Errorf("%w: %s filename %q must be a bare file name", ErrInvalidConfig, p.Name, opts.Filename)
	}
	if opts.Template == "" {
		return nil
	}
	if _, err := os.Stat(c.Abs(opts.Template)); err != nil {
		return fmt.Errorf("%w: %s template: %w", ErrInvalidConfig, p.Name, err)
	}
	return nil
}

// probeWritable creates dir if needed and verifies a file can be created in it.
func probeWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".temple-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		return err
	}
	return os.Remove(name)
}
