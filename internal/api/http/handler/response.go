package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"
)

func ok(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"data": data})
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func invalid(c fiber.Ctx, errs map[string][]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": errs})
}

// wantsJSON is true when the client prefers JSON over HTML.
func wantsJSON(c fiber.Ctx) bool {
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}

func render(c fiber.Ctx, status int, name string, bind fiber.Map) error {
	if bind == nil {
		bind = fiber.Map{}
	}
	return c.Status(status).Render(name, bind)
}

func notFound(c fiber.Ctx) error {
	return fiber.ErrNotFound
}

// ErrorHandler renders errors as the HTML error page, or as JSON for JSON
// clients. Unexpected errors are logged and reported as 500.
func ErrorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "Sorry, something went wrong on our end. Please try again later."

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			msg = fe.Message
		} else {
			log.ErrorContext(c.Context(), "unhandled request error",
				"method", c.Method(),
				"path", c.Path(),
				"error", err,
			)
		}
		if code == fiber.StatusNotFound {
			msg = "The page you requested does not exist."
		}

		if wantsJSON(c) {
			return c.Status(code).JSON(fiber.Map{"error": msg})
		}
		if rerr := render(c, code, "home/error", fiber.Map{"status": code, "message": msg}); rerr != nil {
			log.ErrorContext(c.Context(), "render error page", "error", rerr)
			return c.Status(code).SendString(msg)
		}
		return nil
	}
}
