// Package view renders the site's Django-syntax templates with pongo2. The
// same engine serves Fiber page rendering and the mail bodies sent by the
// request service.
package view

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/gofiber/fiber/v3"
)

//go:embed templates
var embedded embed.FS

var ErrTemplateNotFound = errors.New("template not found")

// Renderer renders a named template to a string.
type Renderer interface {
	Render(name string, ctx map[string]any) (string, error)
}

type Config struct {
	// OverrideDir is searched before the built-in templates.
	OverrideDir string
	// Debug recompiles templates on every render.
	Debug bool
	// Globals are visible to every template.
	Globals map[string]any
}

type Engine struct {
	set *pongo2.TemplateSet
}

var (
	_ Renderer    = (*Engine)(nil)
	_ fiber.Views = fiberViews{}
)

func New(cfg Config) (*Engine, error) {
	builtin, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, err
	}

	var loaders []pongo2.TemplateLoader
	if cfg.OverrideDir != "" {
		if _, err := os.Stat(cfg.OverrideDir); err != nil {
			return nil, fmt.Errorf("template override dir: %w", err)
		}
		loaders = append(loaders, rootLoader{os.DirFS(cfg.OverrideDir)})
	}
	loaders = append(loaders, rootLoader{builtin})

	set := pongo2.NewSet("galaxy", loaders...)
	set.Debug = cfg.Debug
	for k, v := range cfg.Globals {
		set.Globals[k] = v
	}

	return &Engine{set: set}, nil
}

// Load compiles every built-in template so syntax errors surface at
// start-up rather than on first request.
func (e *Engine) Load() error {
	builtin, _ := fs.Sub(embedded, "templates")
	return fs.WalkDir(builtin, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || (path.Ext(p) != ".html" && path.Ext(p) != ".txt") {
			return err
		}
		if _, err := e.set.FromCache(p); err != nil {
			return fmt.Errorf("compile %s: %w", p, err)
		}
		return nil
	})
}

func (e *Engine) Render(name string, ctx map[string]any) (string, error) {
	tpl, err := e.template(name)
	if err != nil {
		return "", err
	}
	out, err := tpl.Execute(pongo2.Context(ctx))
	if err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return out, nil
}

// RenderPair renders name.txt and name.html with the same context.
func (e *Engine) RenderPair(name string, ctx map[string]any) (text, html string, err error) {
	if text, err = e.Render(name+".txt", ctx); err != nil {
		return "", "", err
	}
	if html, err = e.Render(name+".html", ctx); err != nil {
		return "", "", err
	}
	return text, html, nil
}

// Views adapts the engine for fiber.Config.Views.
func (e *Engine) Views() fiber.Views { return fiberViews{e} }

type fiberViews struct{ e *Engine }

func (v fiberViews) Load() error { return v.e.Load() }

// Render ignores layouts; templates use {% extends %} instead.
func (v fiberViews) Render(out io.Writer, name string, binding any, _ ...string) error {
	tpl, err := v.e.template(name)
	if err != nil {
		return err
	}
	return tpl.ExecuteWriter(toContext(binding), out)
}

func (e *Engine) template(name string) (*pongo2.Template, error) {
	if path.Ext(name) == "" {
		name += ".html"
	}
	tpl, err := e.set.FromCache(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, name, err)
	}
	return tpl, nil
}

func toContext(binding any) pongo2.Context {
	switch b := binding.(type) {
	case nil:
		return pongo2.Context{}
	case pongo2.Context:
		return b
	case fiber.Map:
		return pongo2.Context(b)
	case map[string]any:
		return pongo2.Context(b)
	default:
		return pongo2.Context{"data": b}
	}
}

// rootLoader resolves every template name from the root of fsys, the way
// Django template directories behave, instead of relative to the including
// template.
type rootLoader struct {
	fsys fs.FS
}

func (l rootLoader) Abs(_, name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

func (l rootLoader) Get(name string) (io.Reader, error) {
	return l.fsys.Open(name)
}
