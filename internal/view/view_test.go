package view

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
)

func newEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	if cfg.Globals == nil {
		cfg.Globals = map[string]any{"site_name": "Galaxy Australia"}
	}
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestLoadCompilesBuiltinTemplates(t *testing.T) {
	e := newEngine(t, Config{})
	if err := e.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestRenderMailPair(t *testing.T) {
	e := newEngine(t, Config{})

	text, html, err := e.RenderPair("requests/mail/access-request", map[string]any{
		"resource_name": "AlphaFold",
		"data": []map[string]any{
			{"Label": "Name", "Value": "Jane & Co"},
			{"Label": "Email", "Value": "jane@uq.edu.au"},
		},
	})
	if err != nil {
		t.Fatalf("RenderPair: %v", err)
	}

	if !strings.Contains(text, "Name: Jane & Co") {
		t.Errorf("text body should not be escaped:\n%s", text)
	}
	if !strings.Contains(html, "Jane &amp; Co") {
		t.Errorf("html body should be escaped:\n%s", html)
	}
	if !strings.Contains(html, "AlphaFold") {
		t.Errorf("html body missing resource name:\n%s", html)
	}
}

func TestRenderWarningLink(t *testing.T) {
	e := newEngine(t, Config{})

	html, err := e.Render("requests/mail/invalid-institutional-email.html", map[string]any{
		"email":         "jane@gmail.com",
		"resource_name": "Fgenesh++",
		"hostname":      "site.usegalaxy.org.au",
		"scheme":        "https",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(html, `href="https://site.usegalaxy.org.au/institutions"`) {
		t.Errorf("missing institutions link:\n%s", html)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	e := newEngine(t, Config{})
	_, err := e.Render("does/not/exist.html", nil)
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("got %v, want ErrTemplateNotFound", err)
	}
}

func TestOverrideDirTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "home"), 0o755); err != nil {
		t.Fatal(err)
	}
	body := `{% extends "base.html" %}{% block content %}custom {{ site_name }}{% endblock %}`
	if err := os.WriteFile(filepath.Join(dir, "home", "index.html"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	e := newEngine(t, Config{OverrideDir: dir})
	out, err := e.Render("home/index", nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "custom Galaxy Australia") {
		t.Errorf("override not used:\n%s", out)
	}
	if !strings.Contains(out, "<nav") {
		t.Errorf("built-in base.html not extended:\n%s", out)
	}
}

func TestMissingOverrideDir(t *testing.T) {
	if _, err := New(Config{OverrideDir: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Fatal("expected error for missing override dir")
	}
}

func TestFiberViews(t *testing.T) {
	v := newEngine(t, Config{}).Views()

	var buf bytes.Buffer
	err := v.Render(&buf, "home/error", fiber.Map{"status": 404, "message": "No such page"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), "Page not found") {
		t.Errorf("unexpected body:\n%s", buf.String())
	}
}
