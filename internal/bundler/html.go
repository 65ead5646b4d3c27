package bundler

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/temple/internal/buildconfig"
	"github.com/wolfeidau/temple/internal/fsutil"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const defaultTitle = "temple app"

const defaultPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title></title>
</head>
<body>
</body>
</html>
`

// page is the input for one html plugin run.
type page struct {
	options buildconfig.HTMLOptions
	scripts []string
	styles  []string
	inline  string
}

// renderPage parses the template (or the built-in page), injects tags for the
// built assets and returns the rendered document.
func renderPage(cfg buildconfig.Config, p page) ([]byte, error) {
	tmpl := []byte(defaultPage)
	if p.options.Template != "" {
		data, err := os.ReadFile(cfg.Abs(p.options.Template))
		if err != nil {
			return nil, fmt.Errorf("failed to read html template: %w", err)
		}
		tmpl = data
	}

	doc, err := html.Parse(bytes.NewReader(tmpl))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html template: %w", err)
	}

	head := findElement(doc, atom.Head)
	body := findElement(doc, atom.Body)
	if head == nil || body == nil {
		// html.Parse always synthesises both
		return nil, fmt.Errorf("html template has no head or body")
	}

	title := p.options.Title
	if title == "" && p.options.Template == "" {
		title = defaultTitle
	}
	if title != "" {
		setTitle(head, title)
	}

	if p.options.Inject != buildconfig.InjectNone {
		for _, href := range p.styles {
			head.AppendChild(element(atom.Link, html.Attribute{Key: "href", Val: href}, html.Attribute{Key: "rel", Val: "stylesheet"}))
		}

		target := body
		if p.options.Inject == buildconfig.InjectHead {
			target = head
		}
		for _, src := range p.scripts {
			script := element(atom.Script)
			if target == head {
				script.Attr = append(script.Attr, html.Attribute{Key: "defer"})
			}
			script.Attr = append(script.Attr, html.Attribute{Key: "src", Val: src})
			target.AppendChild(script)
		}
	}

	if p.inline != "" {
		script := element(atom.Script)
		script.AppendChild(&html.Node{Type: html.TextNode, Data: p.inline})
		body.AppendChild(script)
	}

	buf := new(bytes.Buffer)
	if err := html.Render(buf, doc); err != nil {
		return nil, fmt.Errorf("failed to render html: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// writtenPage is a generated page and its rendered contents.
type writtenPage struct {
	path string
	data []byte
}

// writePages runs every html plugin in cfg and returns the pages written.
func writePages(cfg buildconfig.Config, scripts, styles []string, inline string) ([]writtenPage, error) {
	var pages []writtenPage
	for _, plugin := range cfg.Plugins {
		if plugin.Name != buildconfig.PluginHTML {
			continue
		}

		opts, err := plugin.HTMLOptions()
		if err != nil {
			return nil, err
		}

		data, err := renderPage(cfg, page{options: opts, scripts: scripts, styles: styles, inline: inline})
		if err != nil {
			return nil, err
		}

		path := filepath.Join(cfg.Abs(cfg.Output.Path), opts.Filename)
		if err := fsutil.WriteFile(path, data, 0644); err != nil {
			return nil, err
		}

		log.Info().Str("file", path).Str("inject", opts.Inject).Msg("Generated html page")
		pages = append(pages, writtenPage{path: path, data: data})
	}
	return pages, nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func setTitle(head *html.Node, title string) {
	node := findElement(head, atom.Title)
	if node == nil {
		node = element(atom.Title)
		head.AppendChild(node)
	}
	for c := node.FirstChild; c != nil; {
		next := c.NextSibling
		node.RemoveChild(c)
		c = next
	}
	node.AppendChild(&html.Node{Type: html.TextNode, Data: strings.TrimSpace(title)})
}
