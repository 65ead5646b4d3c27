package scaffold

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "simple", input: "demo"},
		{name: "with dash and dot", input: "my-app.v2"},
		{name: "leading digit", input: "2048"},
		{name: "max length", input: strings.Repeat("a", 214)},
		{name: "empty", input: "", wantErr: true},
		{name: "too long", input: strings.Repeat("a", 215), wantErr: true},
		{name: "leading dash", input: "-rf", wantErr: true},
		{name: "hidden", input: ".app", wantErr: true},
		{name: "path separator", input: "a/b", wantErr: true},
		{name: "traversal", input: "..", wantErr: true},
		{name: "space", input: "my app", wantErr: true},
		{name: "shell metacharacter", input: "app;rm", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidName)
				return
			}
			require.NoError(t, err)
		})
	}
}
