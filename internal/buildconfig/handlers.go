package buildconfig

import (
	"fmt"
	"slices"
)

// Handler names recognised in rule `use` chains.
const (
	HandlerTS    = "ts-loader"
	HandlerCSS   = "css-loader"
	HandlerStyle = "style-loader"
	HandlerRaw   = "raw-loader"
	HandlerJSON  = "json-loader"
)

// PluginHTML generates an HTML page referencing the built bundles.
const PluginHTML = "html-webpack-plugin"

// Inject positions accepted by the html plugin.
const (
	InjectBody = "body"
	InjectHead = "head"
	InjectNone = "false"
)

var (
	knownHandlers = []string{HandlerTS, HandlerCSS, HandlerStyle, HandlerRaw, HandlerJSON}
	knownPlugins  = []string{PluginHTML}
)

// KnownHandlers lists the handler names the bundler implements.
func KnownHandlers() []string {
	return slices.Clone(knownHandlers)
}

// KnownPlugins lists the plugin names the bundler implements.
func KnownPlugins() []string {
	return slices.Clone(knownPlugins)
}

// HTMLOptions is the typed view of the html plugin's option bag.
type HTMLOptions struct {
	Template string
	Filename string
	Inject   string
	Title    string
}

// HTMLOptions decodes the option bag of an html plugin. Inject accepts
// "body", "head", true (body) or false.
func (p Plugin) HTMLOptions() (HTMLOptions, error) {
	opts := HTMLOptions{
		Filename: "index.html",
		Inject:   InjectBody,
	}

	for key, value := range p.Options {
		switch key {
		case "template", "filename", "title":
			s, ok := value.(string)
			if !ok {
				return opts, fmt.Errorf("%w: %s option %q must be a string", ErrInvalidConfig, p.Name, key)
			}
			switch key {
			case "template":
				opts.Template = s
			case "filename":
				if s != "" {
					opts.Filename = s
				}
			case "title":
				opts.Title = s
			}
		case "inject":
			switch v := value.(type) {
			case bool:
				opts.Inject = InjectBody
				if !v {
					opts.Inject = InjectNone
				}
			case string:
				if v != InjectBody && v != InjectHead {
					return opts, fmt.Errorf("%w: %s inject must be body, head, true or false, got %q", ErrInvalidConfig, p.Name, v)
				}
				opts.Inject = v
			default:
				return opts, fmt.Errorf("%w: %s inject must be body, head, true or false", ErrInvalidConfig, p.Name)
			}
		default:
			return opts, fmt.Errorf("%w: %s does not support option %q", ErrInvalidConfig, p.Name, key)
		}
	}

	return opts, nil
}
