package buildconfig

import "errors"

var (
	// ErrInvalidConfig wraps every validation problem so callers can test for any of them.
	ErrInvalidConfig = errors.New("invalid build configuration")
	// ErrEntryNotFound indicates the entry point does not resolve to a regular file
	ErrEntryNotFound = errors.New("entry point not found")
	// ErrOutputPath indicates the output directory is relative, not a directory, or not writable
	ErrOutputPath = errors.New("invalid output path")
	// ErrInvalidPattern indicates a rule test or exclude pattern does not compile
	ErrInvalidPattern = errors.New("invalid pattern")
	// ErrUnknownHandler indicates a rule references a handler the bundler does not provide
	ErrUnknownHandler = errors.New("unknown handler")
	// ErrUnknownPlugin indicates a plugin name the bundler does not provide
	ErrUnknownPlugin = errors.New("unknown plugin")
	// ErrInvalidPort indicates the dev server port is outside 1-65535
	ErrInvalidPort = errors.New("invalid port")
	// ErrPortInUse indicates the dev server port is already bound
	ErrPortInUse = errors.New("port already in use")
)
