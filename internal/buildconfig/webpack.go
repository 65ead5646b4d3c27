package buildconfig

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/template"
)

// WebpackFileName is the node tooling counterpart of temple.yaml.
const WebpackFileName = "webpack.config.js"

var webpackTemplate = template.Must(template.New(WebpackFileName).
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(`const path = require('path');
{{range .Requires}}{{.}}
{{end}}
module.exports = {
    entry: {{.Entry}},
    output: {
        filename: {{.Filename}},
        path: {{.OutputPath}}
    },
    resolve: {
        extensions: {{.Extensions}}
    },
    module: {
        rules: [
{{join .Rules ",\n"}}
        ]
    },
    plugins: [
{{join .Plugins ",\n"}}
    ],
    devServer: {
        static: {
            directory: {{.StaticDir}},
        },
{{- if .Host}}
        host: {{.Host}},
{{- end}}
        compress: {{.Compress}},
        port: {{.Port}}
    }
};
`))

type webpackView struct {
	Requires   []string
	Entry      string
	Filename   string
	OutputPath string
	Extensions string
	Rules      []string
	Plugins    []string
	StaticDir  string
	Host       string
	Compress   bool
	Port       int
}

// RenderWebpack writes a webpack.config.js equivalent to cfg. Paths inside the
// context are expressed relative to __dirname so the file stays portable.
func RenderWebpack(w io.Writer, cfg Config) error {
	view := webpackView{
		Entry:      jsString(dotRelative(cfg.Context, cfg.Abs(cfg.Entry))),
		Filename:   jsString(cfg.Output.Filename),
		OutputPath: jsPath(cfg, cfg.Output.Path, "resolve"),
		Extensions: jsStringList(cfg.Resolve.Extensions),
		StaticDir:  jsPath(cfg, cfg.DevServer.Static.Directory, "join"),
		Compress:   cfg.DevServer.Compress,
		Port:       cfg.DevServer.Port,
	}
	if cfg.DevServer.Host != "" {
		view.Host = jsString(cfg.DevServer.Host)
	}

	for _, rule := range cfg.Module.Rules {
		view.Rules = append(view.Rules, renderRule(rule))
	}

	for _, p := range cfg.Plugins {
		switch p.Name {
		case PluginHTML:
			opts, err := p.HTMLOptions()
			if err != nil {
				return err
			}
			view.Requires = append(view.Requires, "const HtmlWebpackPlugin = require('html-webpack-plugin');")
			view.Plugins = append(view.Plugins, renderHTMLPlugin(opts))
		default:
			return fmt.Errorf("%w: %q cannot be rendered", ErrUnknownPlugin, p.Name)
		}
	}

	return webpackTemplate.Execute(w, view)
}

func renderRule(rule Rule) string {
	use := jsStringList(rule.Use)
	if len(rule.Use) == 1 {
		use = jsString(rule.Use[0])
	}

	lines := []string{
		"test: " + rule.Test.JS(),
		"use: " + use,
	}
	if rule.Exclude != "" {
		lines = append(lines, "exclude: "+rule.Exclude.JS())
	}

	return "            {\n                " +
		strings.Join(lines, ",\n                ") +
		"\n            }"
}

// renderHTMLPlugin emits only the options that differ from the plugin's defaults,
// in a stable order.
func renderHTMLPlugin(opts HTMLOptions) string {
	var lines []string
	if opts.Template != "" {
		lines = append(lines, "template: "+jsString(opts.Template))
	}
	if opts.Filename != "index.html" {
		lines = append(lines, "filename: "+jsString(opts.Filename))
	}
	if opts.Title != "" {
		lines = append(lines, "title: "+jsString(opts.Title))
	}
	switch opts.Inject {
	case InjectNone:
		lines = append(lines, "inject: false")
	default:
		lines = append(lines, "inject: "+jsString(opts.Inject))
	}

	return "        new HtmlWebpackPlugin({\n            " +
		strings.Join(lines, ",\n            ") +
		"\n        })"
}

// jsPath renders p relative to __dirname with path.resolve or path.join when it
// lies inside the context, and as a string literal otherwise. The config file
// is written at the context root, so context-relative means __dirname-relative.
func jsPath(cfg Config, p, fn string) string {
	rel := p
	if filepath.IsAbs(p) {
		rel = cfg.rel(p)
	}
	if filepath.IsAbs(rel) {
		return jsString(filepath.ToSlash(rel))
	}
	rel = filepath.ToSlash(filepath.Clean(rel))
	if rel == "." {
		return "__dirname"
	}
	return fmt.Sprintf("path.%s(__dirname, %s)", fn, jsString(rel))
}

func jsString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`)
	return "'" + r.Replace(s) + "'"
}

func jsStringList(list []string) string {
	quoted := make([]string, len(list))
	for i, s := range list {
		quoted[i] = jsString(s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
