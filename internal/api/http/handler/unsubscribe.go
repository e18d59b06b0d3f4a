package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/usegalaxy-au/galaxy_web/internal/service/subscription"
)

type UnsubscribeHandler struct {
	svc subscription.Service
	log *slog.Logger
}

func NewUnsubscribeHandler(svc subscription.Service, log *slog.Logger) *UnsubscribeHandler {
	return &UnsubscribeHandler{svc: svc, log: log}
}

// Unsubscribe handles the signed link sent in news mail.
func (h *UnsubscribeHandler) Unsubscribe(c fiber.Ctx) error {
	addr := c.Query("email")
	err := h.svc.Unsubscribe(c.Context(), addr, c.Query("token"))

	switch {
	case err == nil:
		return render(c, fiber.StatusOK, "home/unsubscribe", fiber.Map{"ok": true, "email": addr})
	case errors.Is(err, subscription.ErrInvalidLink), errors.Is(err, subscription.ErrNoEmail):
		h.log.InfoContext(c.Context(), "invalid unsubscribe link", "email", addr)
		return render(c, fiber.StatusBadRequest, "home/unsubscribe", fiber.Map{"ok": false})
	default:
		return err
	}
}
