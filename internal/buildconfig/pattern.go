package buildconfig

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pattern is the source of a regular expression matched against file paths.
// Input may use the JavaScript literal form (/\.ts$/i); it is stored in Go
// regexp syntax with flags folded into a (?flags) prefix.
type Pattern string

// ParsePattern normalises a pattern written either as Go regexp source or as a
// JavaScript regex literal.
func ParsePattern(s string) (Pattern, error) {
	if len(s) < 2 || s[0] != '/' {
		return Pattern(s), nil
	}

	last := strings.LastIndex(s, "/")
	if last == 0 {
		return Pattern(s), nil
	}

	body, flags := s[1:last], s[last+1:]
	var goFlags strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			goFlags.WriteRune(f)
		case 'g', 'u', 'y':
			// no meaning when matching a single path
		default:
			return "", fmt.Errorf("%w: unsupported flag %q in %s", ErrInvalidPattern, f, s)
		}
	}

	if goFlags.Len() > 0 {
		body = "(?" + goFlags.String() + ")" + body
	}

	return Pattern(body), nil
}

// Compile compiles the pattern. An empty pattern compiles to nil.
func (p Pattern) Compile() (*regexp.Regexp, error) {
	if p == "" {
		return nil, nil
	}
	re, err := regexp.Compile(string(p))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPattern, p, err)
	}
	return re, nil
}

var flagPrefix = regexp.MustCompile(`^\(\?([ims]+)\)`)

// JS renders the pattern as a JavaScript regex literal.
func (p Pattern) JS() string {
	body, flags := string(p), ""
	if m := flagPrefix.FindStringSubmatch(body); m != nil {
		flags = m[1]
		body = body[len(m[0]):]
	}

	var b strings.Builder
	b.WriteByte('/')
	escaped := false
	for _, r := range body {
		if r == '/' && !escaped {
			b.WriteByte('\\')
		}
		escaped = r == '\\' && !escaped
		b.WriteRune(r)
	}
	b.WriteByte('/')
	b.WriteString(flags)
	return b.String()
}

// literal is the serialised form. Sources starting with a slash are wrapped as
// a flagless JS literal so ParsePattern reads them back unchanged.
func (p Pattern) literal() string {
	if strings.HasPrefix(string(p), "/") {
		return "/" + string(p) + "/"
	}
	return string(p)
}

func (p Pattern) MarshalYAML() (any, error) {
	return p.literal(), nil
}

func (p Pattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.literal())
}

func (p *Pattern) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParsePattern(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Handlers is an ordered handler chain. A single handler serialises as a scalar,
// matching the `use: 'ts-loader'` shorthand.
type Handlers []string

func (h *Handlers) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*h = Handlers{value.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*h = list
		return nil
	default:
		return fmt.Errorf("line %d: use must be a handler name or a list of handler names", value.Line)
	}
}

func (h Handlers) MarshalYAML() (any, error) {
	if len(h) == 1 {
		return h[0], nil
	}
	return []string(h), nil
}

func (h Handlers) MarshalJSON() ([]byte, error) {
	if len(h) == 1 {
		return json.Marshal(h[0])
	}
	return json.Marshal([]string(h))
}
