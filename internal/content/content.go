// Package content serves the site's markdown pages and home-page notices
// from disk. Each file carries YAML frontmatter listing its images in upload
// order; placeholders in the body are resolved against that list.
package content

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/usegalaxy-au/galaxy_web/config"
	"github.com/usegalaxy-au/galaxy_web/pkg/markdown"
)

//go:embed defaults
var defaults embed.FS

var (
	ErrNotFound    = errors.New("content not found")
	ErrInvalidSlug = errors.New("invalid content slug")
)

var slugPattern = regexp.MustCompile(`^[\w-]+$`)

// Meta is the frontmatter block of a page or notice.
type Meta struct {
	Title  string   `yaml:"title"`
	Images []string `yaml:"images"`
	// Enabled defaults to true when absent.
	Enabled   *bool `yaml:"enabled"`
	Order     int   `yaml:"order"`
	KeepStyle bool  `yaml:"keep_style"`
}

type Image struct {
	Key string
	URI string
}

func (i Image) ImageURI() string { return i.URI }

type Page struct {
	Slug   string
	Title  string
	Meta   Meta
	Body   string
	Images []Image
	HTML   string
	// Blurb is the first paragraph rendered to HTML.
	Blurb string
}

type Notice struct {
	Page
	ID      string
	Enabled bool
	Order   int
}

// ImageResolver turns an image key from frontmatter into a URL.
type ImageResolver interface {
	ResolveImage(ctx context.Context, key string) (string, error)
}

// StaticResolver prefixes keys with BaseURL. Absolute URLs pass through.
type StaticResolver struct {
	BaseURL string
}

func (r StaticResolver) ResolveImage(_ context.Context, key string) (string, error) {
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key, nil
	}
	if r.BaseURL == "" {
		return "/" + strings.TrimPrefix(key, "/"), nil
	}
	return strings.TrimSuffix(r.BaseURL, "/") + "/" + strings.TrimPrefix(key, "/"), nil
}

type Store struct {
	pages    fs.FS
	notices  fs.FS
	images   ImageResolver
	renderer *markdown.Renderer
	log      *slog.Logger
}

func NewStore(pages, notices fs.FS, images ImageResolver, log *slog.Logger) *Store {
	if images == nil {
		images = StaticResolver{}
	}
	return &Store{
		pages:    pages,
		notices:  notices,
		images:   images,
		renderer: markdown.NewRenderer(),
		log:      log,
	}
}

// FromConfig opens the configured directories, falling back to the built-in
// content for any directory that does not exist.
func FromConfig(cfg config.ContentConfig, images ImageResolver, log *slog.Logger) *Store {
	return NewStore(
		dirOrDefault(cfg.PagesDir, "defaults/pages", log),
		dirOrDefault(cfg.NoticesDir, "defaults/notices", log),
		images,
		log,
	)
}

func dirOrDefault(dir, builtin string, log *slog.Logger) fs.FS {
	if dir != "" {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			return os.DirFS(dir)
		}
		log.Warn("content directory not found, using built-in content", "dir", dir)
	}
	sub, _ := fs.Sub(defaults, builtin)
	return sub
}

// Page loads pages/<slug>.md.
func (s *Store) Page(ctx context.Context, slug string) (*Page, error) {
	if !slugPattern.MatchString(slug) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	return s.load(ctx, s.pages, slug+".md", slug)
}

// Landing loads the landing page for a Galaxy subdomain.
func (s *Store) Landing(ctx context.Context, subdomain string) (*Page, error) {
	if !slugPattern.MatchString(subdomain) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSlug, subdomain)
	}
	return s.load(ctx, s.pages, path.Join("landing", subdomain+".md"), subdomain)
}

func (s *Store) Notice(ctx context.Context, id string) (*Notice, error) {
	if !slugPattern.MatchString(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSlug, id)
	}
	p, err := s.load(ctx, s.notices, id+".md", id)
	if err != nil {
		return nil, err
	}
	n := toNotice(p)
	if !n.Enabled {
		return nil, fmt.Errorf("%w: notice %s", ErrNotFound, id)
	}
	return n, nil
}

// Notices returns enabled notices by ascending order, then id. Files that
// fail to load are logged and skipped.
func (s *Store) Notices(ctx context.Context) ([]Notice, error) {
	entries, err := fs.ReadDir(s.notices, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list notices: %w", err)
	}

	var out []Notice
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".md" {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".md")
		if !slugPattern.MatchString(id) {
			continue
		}
		p, err := s.load(ctx, s.notices, e.Name(), id)
		if err != nil {
			s.log.WarnContext(ctx, "skipping notice", "id", id, "error", err)
			continue
		}
		if n := toNotice(p); n.Enabled {
			out = append(out, *n)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func toNotice(p *Page) *Notice {
	return &Notice{
		Page:    *p,
		ID:      p.Slug,
		Enabled: p.Meta.Enabled == nil || *p.Meta.Enabled,
		Order:   p.Meta.Order,
	}
}

func (s *Store) load(ctx context.Context, fsys fs.FS, name, slug string) (*Page, error) {
	f, err := fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}
	defer f.Close()

	var meta Meta
	body, err := frontmatter.Parse(f, &meta)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	images, err := s.resolveImages(ctx, meta.Images)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	mdImages := make([]markdown.Image, len(images))
	for i := range images {
		mdImages[i] = images[i]
	}

	text := string(body)
	html, err := s.renderer.Render(text, mdImages)
	if err != nil {
		return nil, err
	}
	blurb, err := s.renderer.Render(markdown.BlurbFromMarkdown(text, meta.KeepStyle), mdImages)
	if err != nil {
		return nil, err
	}

	return &Page{
		Slug:   slug,
		Title:  meta.Title,
		Meta:   meta,
		Body:   text,
		Images: images,
		HTML:   html,
		Blurb:  blurb,
	}, nil
}

func (s *Store) resolveImages(ctx context.Context, keys []string) ([]Image, error) {
	out := make([]Image, 0, len(keys))
	for _, k := range keys {
		uri, err := s.images.ResolveImage(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("resolve image %s: %w", k, err)
		}
		out = append(out, Image{Key: k, URI: uri})
	}
	return out, nil
}
