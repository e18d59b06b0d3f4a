// Package request validates the site's request forms and mails each accepted
// submission to the support inbox.
package request

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/usegalaxy-au/galaxy_web/internal/form"
	"github.com/usegalaxy-au/galaxy_web/internal/view"
	"github.com/usegalaxy-au/galaxy_web/pkg/captcha"
	"github.com/usegalaxy-au/galaxy_web/pkg/email"
	"github.com/usegalaxy-au/galaxy_web/pkg/institution"
)

const (
	// CaptchaField is the error key for a failed captcha check.
	CaptchaField = "captcha"

	DefaultSupportSubject = "Galaxy Australia Support request"

	msgCaptcha = "Captcha verification failed. Please try again."

	mailDir = "requests/mail/"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Submission is one posted form.
type Submission struct {
	Values       form.Values
	CaptchaToken string
	RemoteIP     string
	// Scheme is the request scheme, used for links in warning mail.
	Scheme string
}

type Config struct {
	// Hostname is the public host linked from outgoing mail.
	Hostname string
	// AdvisoryResources are access-form keys that accept non-institutional
	// addresses and warn the user instead of rejecting the form.
	AdvisoryResources []string
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

// Service returns form.Errors when a submission does not validate. A nil
// error means the mail was handed to the mailer; delivery failures are
// logged by the mailer and never reach the caller.
type Service interface {
	SubmitResource(ctx context.Context, sub Submission) error
	SubmitQuota(ctx context.Context, sub Submission) error
	SubmitSupport(ctx context.Context, sub Submission, subject string) error
	// SubmitAccess reports warned when an advisory resource accepted a
	// non-institutional address and the user was sent a warning.
	SubmitAccess(ctx context.Context, key string, sub Submission) (warned bool, err error)
	DispatchWarning(ctx context.Context, key, addr, scheme string) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type requestService struct {
	cfg      Config
	mailer   email.Mailer
	views    view.Renderer
	captcha  captcha.Verifier
	matcher  *institution.Matcher
	log      *slog.Logger
	blocking map[string]*form.Schema
}

func New(
	cfg Config,
	mailer email.Mailer,
	views view.Renderer,
	verifier captcha.Verifier,
	matcher *institution.Matcher,
	log *slog.Logger,
) Service {
	if verifier == nil {
		verifier = captcha.Nop{}
	}
	s := &requestService{
		cfg:      cfg,
		mailer:   mailer,
		views:    views,
		captcha:  verifier,
		matcher:  matcher,
		log:      log,
		blocking: make(map[string]*form.Schema, len(AccessForms)),
	}
	for key, af := range AccessForms {
		if !s.advisory(key) {
			s.blocking[key] = af.Schema.With("email", institution.Validator(matcher))
		}
	}
	return s
}

func (s *requestService) advisory(key string) bool {
	return slices.Contains(s.cfg.AdvisoryResources, key)
}

func (s *requestService) SubmitResource(ctx context.Context, sub Submission) error {
	data, err := s.clean(ctx, ResourceForm, sub, true)
	if err != nil {
		return err
	}

	kind := data.String("resource_type")
	if kind != ResourceTool && kind != ResourceDataset {
		return fmt.Errorf("%w: %q", ErrUnknownType, kind)
	}

	text, html, err := s.render(mailDir+kind, map[string]any{
		"data":    data,
		"summary": ResourceForm.Summary(data),
	})
	if err != nil {
		return err
	}

	s.mailer.Dispatch(ctx, email.Mail{
		ReplyTo: data.String("email"),
		Subject: fmt.Sprintf("New %s request on Galaxy Australia", kind),
		Text:    text,
		HTML:    html,
	})
	return nil
}

func (s *requestService) SubmitQuota(ctx context.Context, sub Submission) error {
	data, err := s.clean(ctx, QuotaForm, sub, true)
	if err != nil {
		return err
	}

	text, html, err := s.render(mailDir+"quota", map[string]any{
		"data":    data,
		"summary": QuotaForm.Summary(data),
	})
	if err != nil {
		return err
	}

	s.mailer.Dispatch(ctx, email.Mail{
		ReplyTo: data.String("email"),
		Subject: "New Quota request on Galaxy Australia",
		Text:    text,
		HTML:    html,
	})
	return nil
}

func (s *requestService) SubmitSupport(ctx context.Context, sub Submission, subject string) error {
	data, err := s.clean(ctx, SupportForm, sub, false)
	if err != nil {
		return err
	}

	if subject == "" {
		subject = DefaultSupportSubject
	}

	s.mailer.Dispatch(ctx, email.Mail{
		ReplyTo: data.String("email"),
		Subject: subject,
		Text: fmt.Sprintf("Name: %s\nEmail: %s\n\n%s",
			data.String("name"), data.String("email"), data.String("message")),
	})
	return nil
}

func (s *requestService) SubmitAccess(ctx context.Context, key string, sub Submission) (bool, error) {
	af, ok := LookupAccessForm(key)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownResource, key)
	}

	schema, blocking := s.blocking[key]
	if !blocking {
		schema = af.Schema
	}

	data, err := s.clean(ctx, schema, sub, false)
	if err != nil {
		return false, err
	}

	addr := data.String("email")
	warn := !blocking && !s.matcher.IsInstitutionEmail(addr)

	text, html, err := s.render(mailDir+"access-request", map[string]any{
		"data":          af.Schema.Summary(data),
		"resource_name": af.Name,
		"email":         addr,
		"advisory":      warn,
	})
	if err != nil {
		return false, err
	}

	s.mailer.Dispatch(ctx, email.Mail{
		ReplyTo: addr,
		Subject: fmt.Sprintf("New %s request on Galaxy Australia", af.Name),
		Text:    text,
		HTML:    html,
	})

	if warn {
		s.log.InfoContext(ctx, "non-institutional access request accepted",
			"resource", key,
			"email", addr,
		)
		if err := s.dispatchWarning(ctx, af, data.String("name"), addr, sub.Scheme); err != nil {
			return false, err
		}
	}
	return warn, nil
}

// DispatchWarning tells addr that access to the resource could not be
// granted because the address is not institutional.
func (s *requestService) DispatchWarning(ctx context.Context, key, addr, scheme string) error {
	af, ok := LookupAccessForm(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownResource, key)
	}
	return s.dispatchWarning(ctx, af, "", addr, scheme)
}

func (s *requestService) dispatchWarning(ctx context.Context, af AccessForm, name, addr, scheme string) error {
	if scheme == "" {
		scheme = "https"
	}

	text, html, err := s.render(mailDir+"invalid-institutional-email", map[string]any{
		"name":          name,
		"email":         addr,
		"resource_name": af.Name,
		"hostname":      s.cfg.Hostname,
		"scheme":        scheme,
	})
	if err != nil {
		return err
	}

	s.mailer.Dispatch(ctx, email.Mail{
		To:      []string{addr},
		Subject: fmt.Sprintf("Access to %s could not be granted", af.Name),
		Text:    text,
		HTML:    html,
	})
	return nil
}

// clean validates the submission and, when withCaptcha is set, the captcha
// token. Both sets of errors are reported together.
func (s *requestService) clean(ctx context.Context, schema *form.Schema, sub Submission, withCaptcha bool) (form.Data, error) {
	data, err := schema.Clean(sub.Values)

	errs, invalid := form.AsErrors(err)
	if err != nil && !invalid {
		return nil, err
	}
	if errs == nil {
		errs = form.Errors{}
	}

	if withCaptcha {
		if cerr := s.captcha.Verify(ctx, sub.CaptchaToken, sub.RemoteIP); cerr != nil {
			switch {
			case errors.Is(cerr, captcha.ErrMissingToken):
				errs.Add(CaptchaField, form.MsgRequired)
			case errors.Is(cerr, captcha.ErrRejected):
				errs.Add(CaptchaField, msgCaptcha)
			default:
				s.log.WarnContext(ctx, "captcha verification error", "error", cerr)
				errs.Add(CaptchaField, msgCaptcha)
			}
		}
	}

	if len(errs) > 0 {
		return data, errs
	}
	return data, nil
}

func (s *requestService) render(name string, ctx map[string]any) (text, html string, err error) {
	if text, err = s.views.Render(name+".txt", ctx); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	if html, err = s.views.Render(name+".html", ctx); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	return text, html, nil
}
