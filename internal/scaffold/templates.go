package scaffold

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed templates/*
var templates embed.FS

const namePlaceholder = "{{project_name}}"

// render reads an embedded template and substitutes the project name.
func render(name, projectName string) ([]byte, error) {
	data, err := templates.ReadFile("templates/" + name)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}
	return []byte(strings.ReplaceAll(string(data), namePlaceholder, projectName)), nil
}
