package bundler

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/temple/internal/buildconfig"
)

var errStyleNeedsCSS = errors.New("style-loader expects CSS input, place css-loader after it in the chain")

// source is the value threaded through a handler chain.
type source struct {
	path     string
	contents string
	loader   api.Loader
}

type handlerFunc func(src source, opts options) (source, error)

// handlers implements every name in buildconfig.KnownHandlers.
var handlers = map[string]handlerFunc{
	buildconfig.HandlerTS: func(src source, _ options) (source, error) {
		src.loader = api.LoaderTS
		return src, nil
	},
	buildconfig.HandlerCSS: func(src source, _ options) (source, error) {
		src.loader = api.LoaderCSS
		return src, nil
	},
	buildconfig.HandlerStyle: styleHandler,
	buildconfig.HandlerRaw: func(src source, _ options) (source, error) {
		src.loader = api.LoaderText
		return src, nil
	},
	buildconfig.HandlerJSON: func(src source, _ options) (source, error) {
		src.loader = api.LoaderJSON
		return src, nil
	},
}

// styleHandler turns CSS into a JS module that appends a <style> element when
// the bundle runs, so styles ship inside bundle.js.
func styleHandler(src source, opts options) (source, error) {
	if src.loader != api.LoaderCSS {
		return src, errStyleNeedsCSS
	}

	result := api.Transform(src.contents, api.TransformOptions{
		Loader:           api.LoaderCSS,
		Sourcefile:       src.path,
		MinifyWhitespace: opts.minify,
		MinifySyntax:     opts.minify,
	})
	if len(result.Errors) > 0 {
		return src, fmt.Errorf("%s: %s", src.path, result.Errors[0].Text)
	}

	css, err := json.Marshal(string(result.Code))
	if err != nil {
		return src, err
	}

	src.contents = fmt.Sprintf(`(() => {
  const style = document.createElement("style");
  style.setAttribute("data-source", %q);
  style.textContent = %s;
  document.head.appendChild(style);
})();
`, filepath.Base(src.path), css)
	src.loader = api.LoaderJS
	return src, nil
}

// compiledRule is a buildconfig.Rule with its patterns compiled and handlers
// looked up.
type compiledRule struct {
	index   int
	test    buildconfig.Pattern
	exclude *regexp.Regexp
	chain   []handlerFunc
	names   []string
}

func compileRules(rules []buildconfig.Rule) ([]compiledRule, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for i, rule := range rules {
		if _, err := rule.Test.Compile(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		exclude, err := rule.Exclude.Compile()
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}

		cr := compiledRule{index: i, test: rule.Test, exclude: exclude, names: rule.Use}
		for _, name := range rule.Use {
			h, ok := handlers[name]
			if !ok {
				return nil, fmt.Errorf("rule %d: %w: %s", i, buildconfig.ErrUnknownHandler, name)
			}
			cr.chain = append(cr.chain, h)
		}
		compiled = append(compiled, cr)
	}
	return compiled, nil
}

// apply runs the chain right to left: the last handler sees the file first.
func (r compiledRule) apply(path string, opts options) (source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return source{}, err
	}

	src := source{path: path, contents: string(data)}
	for i := len(r.chain) - 1; i >= 0; i-- {
		if src, err = r.chain[i](src, opts); err != nil {
			return src, fmt.Errorf("%s: %w", r.names[i], err)
		}
	}
	return src, nil
}

// rulesPlugin registers one OnLoad callback per rule, in rule order. The first
// rule whose test matches and whose exclude does not handles the file; files
// no rule claims fall through to esbuild's loaders for their extension.
func rulesPlugin(rules []compiledRule, opts options) api.Plugin {
	return api.Plugin{
		Name: "temple-rules",
		Setup: func(build api.PluginBuild) {
			for _, rule := range rules {
				build.OnLoad(api.OnLoadOptions{Filter: string(rule.test), Namespace: "file"},
					func(args api.OnLoadArgs) (api.OnLoadResult, error) {
						if rule.exclude != nil && rule.exclude.MatchString(args.Path) {
							return api.OnLoadResult{}, nil
						}

						src, err := rule.apply(args.Path, opts)
						if err != nil {
							return api.OnLoadResult{}, err
						}

						log.Debug().Str("path", args.Path).Int("rule", rule.index).Strs("use", rule.names).Msg("Applied rule")

						resolveDir := filepath.Dir(args.Path)
						return api.OnLoadResult{
							Contents:   &src.contents,
							ResolveDir: resolveDir,
							Loader:     src.loader,
						}, nil
					})
			}
		},
	}
}
