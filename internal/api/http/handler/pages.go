package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"

	"github.com/usegalaxy-au/galaxy_web/internal/content"
	"github.com/usegalaxy-au/galaxy_web/pkg/institution"
)

// sessionDismissed holds the comma-separated ids of dismissed notices.
const sessionDismissed = "dismissed_notices"

type PageHandler struct {
	store   *content.Store
	matcher *institution.Matcher
	log     *slog.Logger
}

func NewPageHandler(store *content.Store, matcher *institution.Matcher, log *slog.Logger) *PageHandler {
	return &PageHandler{store: store, matcher: matcher, log: log}
}

// Home lists notices the visitor has not dismissed.
func (h *PageHandler) Home(c fiber.Ctx) error {
	notices, err := h.store.Notices(c.Context())
	if err != nil {
		return err
	}

	dismissed := dismissedNotices(c)
	visible := notices[:0]
	for _, n := range notices {
		if !slices.Contains(dismissed, n.ID) {
			visible = append(visible, n)
		}
	}

	return render(c, fiber.StatusOK, "home/index", fiber.Map{"notices": visible})
}

func (h *PageHandler) About(c fiber.Ctx) error {
	return h.page(c, "about", "home/about")
}

// Page serves /<slug>.html and /<slug>.md.
func (h *PageHandler) Page(c fiber.Ctx) error {
	return h.page(c, c.Params("page"), "home/page")
}

func (h *PageHandler) page(c fiber.Ctx, slug, tpl string) error {
	p, err := h.store.Page(c.Context(), slug)
	if err != nil {
		return h.contentError(c, err)
	}
	return render(c, fiber.StatusOK, tpl, fiber.Map{"page": p})
}

func (h *PageHandler) Notice(c fiber.Ctx) error {
	n, err := h.store.Notice(c.Context(), c.Params("id"))
	if err != nil {
		return h.contentError(c, err)
	}
	return render(c, fiber.StatusOK, "home/notice", fiber.Map{"notice": n})
}

// Landing falls back to a generic page when the subdomain has no content.
func (h *PageHandler) Landing(c fiber.Ctx) error {
	sub := c.Params("subdomain")
	p, err := h.store.Landing(c.Context(), sub)
	switch {
	case errors.Is(err, content.ErrNotFound):
		p = nil
	case err != nil:
		return h.contentError(c, err)
	}
	bind := fiber.Map{"subdomain": sub}
	if p != nil {
		bind["page"] = p
	}
	return render(c, fiber.StatusOK, "home/landing", bind)
}

func (h *PageHandler) AAF(c fiber.Ctx) error {
	return render(c, fiber.StatusOK, "home/aaf", nil)
}

func (h *PageHandler) Institutions(c fiber.Ctx) error {
	return render(c, fiber.StatusOK, "home/institutions", fiber.Map{
		"institutions": h.matcher.Institutions(),
	})
}

type dismissNoticeRequest struct {
	ID string `json:"id"`
}

// DismissNotice hides a notice for the rest of the visitor's session.
func (h *PageHandler) DismissNotice(c fiber.Ctx) error {
	var req dismissNoticeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" || strings.Contains(req.ID, ",") {
		return badRequest(c, "id is required")
	}

	sess := session.FromContext(c)
	if sess == nil {
		return fiber.ErrInternalServerError
	}
	dismissed := dismissedNotices(c)
	if !slices.Contains(dismissed, req.ID) {
		dismissed = append(dismissed, req.ID)
		sess.Set(sessionDismissed, strings.Join(dismissed, ","))
	}
	return ok(c, fiber.Map{"dismissed": dismissed})
}

func dismissedNotices(c fiber.Ctx) []string {
	sess := session.FromContext(c)
	if sess == nil {
		return nil
	}
	raw, _ := sess.Get(sessionDismissed).(string)
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func (h *PageHandler) contentError(c fiber.Ctx, err error) error {
	if errors.Is(err, content.ErrNotFound) || errors.Is(err, content.ErrInvalidSlug) {
		return notFound(c)
	}
	return fmt.Errorf("load content: %w", err)
}
