package buildconfig

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParsePattern(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Pattern
		wantErr bool
	}{
		{name: "go syntax", input: `\.ts$`, want: `\.ts$`},
		{name: "js literal", input: `/\.ts$/`, want: `\.ts$`},
		{name: "js literal with flags", input: `/\.CSS$/i`, want: `(?i)\.CSS$`},
		{name: "ignored flags", input: `/node_modules/g`, want: `node_modules`},
		{name: "escaped slash", input: `/src\/vendor/`, want: `src\/vendor`},
		{name: "single slash", input: `/`, want: `/`},
		{name: "unsupported flag", input: `/x/q`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePattern(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPattern)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestPattern_Compile(t *testing.T) {
	re, err := Pattern(`\.ts$`).Compile()
	require.NoError(t, err)
	require.True(t, re.MatchString("/work/src/main.ts"))
	require.False(t, re.MatchString("/work/src/main.tsx"))

	re, err = Pattern("").Compile()
	require.NoError(t, err)
	require.Nil(t, re)

	_, err = Pattern(`(unclosed`).Compile()
	require.ErrorIs(t, err, ErrInvalidPattern)
}

func TestPattern_JS(t *testing.T) {
	tests := []struct {
		pattern Pattern
		want    string
	}{
		{pattern: `\.ts$`, want: `/\.ts$/`},
		{pattern: `(?i)\.css$`, want: `/\.css$/i`},
		{pattern: `src/vendor`, want: `/src\/vendor/`},
		{pattern: `src\/vendor`, want: `/src\/vendor/`},
		{pattern: `a\\/b`, want: `/a\\\/b/`},
	}

	for _, tt := range tests {
		t.Run(string(tt.pattern), func(t *testing.T) {
			require.Equal(t, tt.want, tt.pattern.JS())
		})
	}
}

func TestPattern_marshalLeadingSlash(t *testing.T) {
	for _, p := range []Pattern{`/node_modules/`, `/src/.*\.css$`, `/`, `\.ts$`, `(?i)\.css$`} {
		t.Run(string(p), func(t *testing.T) {
			out, err := yaml.Marshal(p)
			require.NoError(t, err)
			var fromYAML Pattern
			require.NoError(t, yaml.Unmarshal(out, &fromYAML))
			require.Equal(t, p, fromYAML)

			raw, err := json.Marshal(p)
			require.NoError(t, err)
			var s string
			require.NoError(t, json.Unmarshal(raw, &s))
			parsed, err := ParsePattern(s)
			require.NoError(t, err)
			require.Equal(t, p, parsed)
		})
	}
}

func TestHTMLOptions(t *testing.T) {
	tests := []struct {
		name    string
		options map[string]any
		want    HTMLOptions
		wantErr bool
	}{
		{
			name:    "defaults",
			options: nil,
			want:    HTMLOptions{Filename: "index.html", Inject: InjectBody},
		},
		{
			name:    "template and head",
			options: map[string]any{"template": "index.html", "inject": "head", "title": "Demo"},
			want:    HTMLOptions{Template: "index.html", Filename: "index.html", Inject: InjectHead, Title: "Demo"},
		},
		{
			name:    "inject true",
			options: map[string]any{"inject": true},
			want:    HTMLOptions{Filename: "index.html", Inject: InjectBody},
		},
		{
			name:    "inject false",
			options: map[string]any{"inject": false, "filename": "app.html"},
			want:    HTMLOptions{Filename: "app.html", Inject: InjectNone},
		},
		{
			name:    "bad inject",
			options: map[string]any{"inject": "footer"},
			wantErr: true,
		},
		{
			name:    "unknown option",
			options: map[string]any{"minify": true},
			wantErr: true,
		},
		{
			name:    "wrong type",
			options: map[string]any{"template": 3},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Plugin{Name: PluginHTML, Options: tt.options}.HTMLOptions()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestKnownListsAreCopies(t *testing.T) {
	handlers := KnownHandlers()
	handlers[0] = "mutated"
	require.Equal(t, HandlerTS, KnownHandlers()[0])
	require.Equal(t, []string{PluginHTML}, KnownPlugins())
}
