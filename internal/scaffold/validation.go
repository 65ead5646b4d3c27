package scaffold

import (
	"fmt"
	"regexp"
)

// maxNameLength is npm's limit on package names.
const maxNameLength = 214

// namePattern allows alphanumeric chars, dot, underscore and dash, starting
// with an alphanumeric so the name is never read as a flag or hidden file
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ValidateName checks that name is usable as both the project directory and
// its npm package name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}

	if len(name) > maxNameLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidName, maxNameLength)
	}

	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: must start with a letter or digit and contain only alphanumeric, dot, underscore or dash", ErrInvalidName)
	}

	return nil
}
