package bundler

import (
	"errors"
	"time"
)

var (
	// ErrBuildFailed indicates esbuild reported errors; the messages are logged.
	ErrBuildFailed = errors.New("esbuild failed with errors")
	// ErrNotBuilt is returned when metadata is requested before a successful build.
	ErrNotBuilt = errors.New("assets not built yet, call Build() first")
	// ErrEntryNotInMetadata means the metafile has no output for the configured entry.
	ErrEntryNotInMetadata = errors.New("entrypoint not found in metadata")
)

// BuildMetadata is the subset of esbuild's metafile the pipeline reads.
type BuildMetadata struct {
	Inputs  map[string]InputInfo  `json:"inputs"`
	Outputs map[string]OutputInfo `json:"outputs"`
}

type InputInfo struct {
	Bytes int `json:"bytes"`
}

type OutputInfo struct {
	Bytes      int          `json:"bytes"`
	EntryPoint string       `json:"entryPoint"`
	CSSBundle  string       `json:"cssBundle"`
	Imports    []ImportInfo `json:"imports"`
}

type ImportInfo struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// Result describes one successful build.
type Result struct {
	// Files are the absolute paths esbuild wrote.
	Files []string
	// Scripts and Styles are paths relative to the output directory, in load order.
	Scripts []string
	Styles  []string
	// Pages are the absolute paths of generated html pages.
	Pages []string
	// Bytes is the total size of the files esbuild wrote.
	Bytes int64
	// Fingerprint is a checksum of every output and page; it changes only
	// when what the browser would load changes.
	Fingerprint string
	Warnings    int
	Duration    time.Duration
}
