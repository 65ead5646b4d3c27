package scaffold

import "errors"

var (
	// ErrInvalidName indicates the project name cannot be used as a directory and npm package name
	ErrInvalidName = errors.New("invalid project name")
	// ErrNotDirectory indicates the project path exists but is not a directory
	ErrNotDirectory = errors.New("project path is not a directory")
	// ErrPackageJSON indicates package.json could not be read or updated
	ErrPackageJSON = errors.New("invalid package.json")
)
