package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/usegalaxy-au/galaxy_web/internal/form"
	"github.com/usegalaxy-au/galaxy_web/internal/service/request"
	"github.com/usegalaxy-au/galaxy_web/pkg/captcha"
)

const msgReceived = "Your request has been received. The Galaxy Australia team will be in touch by email."

type RequestHandler struct {
	svc     request.Service
	captcha bool
	log     *slog.Logger
}

func NewRequestHandler(svc request.Service, captchaEnabled bool, log *slog.Logger) *RequestHandler {
	return &RequestHandler{svc: svc, captcha: captchaEnabled, log: log}
}

// formPage describes how one form is shown.
type formPage struct {
	template string
	title    string
	action   string
	schema   *form.Schema
	captcha  bool
	extra    fiber.Map
}

func (h *RequestHandler) Index(c fiber.Ctx) error {
	return render(c, fiber.StatusOK, "requests/index", fiber.Map{
		"access_forms": request.AccessFormList(),
	})
}

func (h *RequestHandler) resourcePage() formPage {
	return formPage{
		template: "requests/tool",
		title:    "Request a tool or dataset",
		action:   "/request/tool",
		schema:   request.ResourceForm,
		captcha:  h.captcha,
	}
}

func (h *RequestHandler) quotaPage() formPage {
	return formPage{
		template: "requests/quota",
		title:    "Request a data quota increase",
		action:   "/request/quota",
		schema:   request.QuotaForm,
		captcha:  h.captcha,
	}
}

func (h *RequestHandler) supportPage() formPage {
	return formPage{
		template: "requests/support",
		title:    "Request support",
		action:   "/request/support",
		schema:   request.SupportForm,
	}
}

func (h *RequestHandler) ResourceForm(c fiber.Ctx) error {
	return h.show(c, h.resourcePage(), queryValues(c, request.ResourceForm), nil, fiber.StatusOK)
}

func (h *RequestHandler) SubmitResource(c fiber.Ctx) error {
	return h.submit(c, h.resourcePage(), func(ctx context.Context, sub request.Submission) (string, error) {
		return "", h.svc.SubmitResource(ctx, sub)
	})
}

func (h *RequestHandler) QuotaForm(c fiber.Ctx) error {
	return h.show(c, h.quotaPage(), nil, nil, fiber.StatusOK)
}

func (h *RequestHandler) SubmitQuota(c fiber.Ctx) error {
	return h.submit(c, h.quotaPage(), func(ctx context.Context, sub request.Submission) (string, error) {
		return "", h.svc.SubmitQuota(ctx, sub)
	})
}

func (h *RequestHandler) SupportForm(c fiber.Ctx) error {
	return h.show(c, h.supportPage(), queryValues(c, request.SupportForm), nil, fiber.StatusOK)
}

func (h *RequestHandler) SubmitSupport(c fiber.Ctx) error {
	return h.submit(c, h.supportPage(), func(ctx context.Context, sub request.Submission) (string, error) {
		return "", h.svc.SubmitSupport(ctx, sub, "")
	})
}

func (h *RequestHandler) accessPage(c fiber.Ctx) (formPage, string, error) {
	key := c.Params("resource")
	af, found := request.LookupAccessForm(key)
	if !found {
		return formPage{}, "", notFound(c)
	}
	return formPage{
		template: "requests/access",
		title:    fmt.Sprintf("Request access to %s", af.Name),
		action:   "/request/access/" + af.Key,
		schema:   af.Schema,
		extra:    fiber.Map{"resource_name": af.Name},
	}, key, nil
}

func (h *RequestHandler) AccessForm(c fiber.Ctx) error {
	page, _, err := h.accessPage(c)
	if err != nil {
		return err
	}
	return h.show(c, page, nil, nil, fiber.StatusOK)
}

func (h *RequestHandler) SubmitAccess(c fiber.Ctx) error {
	page, key, err := h.accessPage(c)
	if err != nil {
		return err
	}
	return h.submit(c, page, func(ctx context.Context, sub request.Submission) (string, error) {
		warned, err := h.svc.SubmitAccess(ctx, key, sub)
		if warned {
			return "Your email address is not a recognised Australian institution address. " +
				"We have sent you an email explaining how to get access.", err
		}
		return "", err
	})
}

// submit binds the posted form, calls fn and renders the outcome. fn returns
// an optional warning shown on the success page.
func (h *RequestHandler) submit(c fiber.Ctx, page formPage, fn func(context.Context, request.Submission) (string, error)) error {
	values := postedValues(c, page.schema)
	sub := request.Submission{
		Values:       values,
		CaptchaToken: c.FormValue(captcha.FormField),
		RemoteIP:     c.IP(),
		Scheme:       c.Scheme(),
	}

	warning, err := fn(c.Context(), sub)
	if err != nil {
		errs, isForm := form.AsErrors(err)
		if !isForm {
			return err
		}
		h.log.InfoContext(c.Context(), "form rejected",
			"form", page.schema.Name(),
			"fields", len(errs),
		)
		if wantsJSON(c) {
			return invalid(c, errs)
		}
		return h.show(c, page, values, errs, fiber.StatusBadRequest)
	}

	if wantsJSON(c) {
		return ok(c, fiber.Map{"message": msgReceived, "warning": warning})
	}
	return render(c, fiber.StatusOK, "requests/success", fiber.Map{
		"title":   page.title,
		"message": msgReceived,
		"warning": warning,
	})
}

func (h *RequestHandler) show(c fiber.Ctx, page formPage, values form.Values, errs form.Errors, status int) error {
	if values == nil {
		values = form.Values{}
	}
	if errs == nil {
		errs = form.Errors{}
	}

	bind := fiber.Map{
		"title":          page.title,
		"action":         page.action,
		"fields":         page.schema.Bind(values, errs),
		"form_errors":    errs[""],
		"captcha":        page.captcha,
		"captcha_errors": errs[request.CaptchaField],
	}
	for k, v := range page.extra {
		bind[k] = v
	}
	return render(c, status, page.template, bind)
}

func postedValues(c fiber.Ctx, schema *form.Schema) form.Values {
	values := make(form.Values, len(schema.Fields()))
	for _, f := range schema.Fields() {
		if v := c.FormValue(f.Name); v != "" {
			values[f.Name] = v
		}
	}
	return values
}

// queryValues prefills a form from the query string, such as the links in
// help pages that open the support form with a message.
func queryValues(c fiber.Ctx, schema *form.Schema) form.Values {
	values := form.Values{}
	for _, f := range schema.Fields() {
		if v := c.Query(f.Name); v != "" {
			values[f.Name] = v
		}
	}
	return values
}
