package request

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/usegalaxy-au/galaxy_web/internal/form"
	"github.com/usegalaxy-au/galaxy_web/internal/view"
	"github.com/usegalaxy-au/galaxy_web/pkg/captcha"
	"github.com/usegalaxy-au/galaxy_web/pkg/email"
	"github.com/usegalaxy-au/galaxy_web/pkg/institution"
	"github.com/usegalaxy-au/galaxy_web/pkg/logs"
	"github.com/usegalaxy-au/galaxy_web/pkg/reqctx"
)

type recordingMailer struct {
	sent []email.Mail
}

func (m *recordingMailer) Dispatch(_ context.Context, mail email.Mail) {
	m.sent = append(m.sent, mail)
}

type stubCaptcha struct{ err error }

func (c stubCaptcha) Verify(context.Context, string, string) error { return c.err }

func newService(t *testing.T, cfg Config, verifier captcha.Verifier) (Service, *recordingMailer) {
	t.Helper()
	engine, err := view.New(view.Config{Globals: map[string]any{"site_name": "Galaxy Australia"}})
	if err != nil {
		t.Fatalf("view.New: %v", err)
	}
	if cfg.Hostname == "" {
		cfg.Hostname = "site.usegalaxy.org.au"
	}
	m := &recordingMailer{}
	return New(cfg, m, engine, verifier, institution.Default(), logs.Discard()), m
}

func fieldErrors(t *testing.T, err error) form.Errors {
	t.Helper()
	errs, ok := form.AsErrors(err)
	if !ok {
		t.Fatalf("expected form.Errors, got %v", err)
	}
	return errs
}

func TestSubmitResource(t *testing.T) {
	svc, m := newService(t, Config{}, nil)

	err := svc.SubmitResource(context.Background(), Submission{Values: form.Values{
		"name":                  "Jane",
		"email":                 "jane@example.org",
		"resource_type":         "tool",
		"resource_name_version": "fastp 0.23",
		"tool_test_data":        "on",
	}})
	if err != nil {
		t.Fatalf("SubmitResource: %v", err)
	}

	if len(m.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(m.sent))
	}
	got := m.sent[0]
	if got.Subject != "New tool request on Galaxy Australia" {
		t.Errorf("Subject = %q", got.Subject)
	}
	if got.ReplyTo != "jane@example.org" {
		t.Errorf("ReplyTo = %q", got.ReplyTo)
	}
	if len(got.To) != 0 {
		t.Errorf("To = %v, want support inbox default", got.To)
	}
	if !strings.Contains(got.Text, "fastp 0.23") || got.HTML == "" {
		t.Errorf("unexpected bodies:\n%s\n%s", got.Text, got.HTML)
	}
}

func TestSubmitResourceCaptcha(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"missing", captcha.ErrMissingToken, form.MsgRequired},
		{"rejected", captcha.ErrRejected, msgCaptcha},
		{"transport", errors.New("dial tcp: timeout"), msgCaptcha},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, m := newService(t, Config{}, stubCaptcha{err: tc.err})

			err := svc.SubmitResource(context.Background(), Submission{Values: form.Values{
				"name": "Jane", "email": "not-an-email", "resource_type": "dataset",
				"resource_name_version": "hg38",
			}})
			errs := fieldErrors(t, err)
			if diff := cmp.Diff([]string{tc.want}, errs[CaptchaField]); diff != "" {
				t.Errorf("captcha errors (-want +got):\n%s", diff)
			}
			if !errs.Has("email") {
				t.Error("field errors should be reported alongside captcha")
			}
			if len(m.sent) != 0 {
				t.Errorf("sent %d mails, want 0", len(m.sent))
			}
		})
	}
}

func TestSubmitQuotaOtherDisk(t *testing.T) {
	base := form.Values{
		"name": "Jane", "email": "jane@example.org", "start_date": "2026-11-01",
		"duration_months": "6", "description": "Assembly", "accepted_terms": "on",
	}

	t.Run("other value used", func(t *testing.T) {
		svc, m := newService(t, Config{}, nil)
		v := form.Values{"disk_tb": "0", "disk_tb_other": "12"}
		for k, val := range base {
			v[k] = val
		}
		if err := svc.SubmitQuota(context.Background(), Submission{Values: v}); err != nil {
			t.Fatalf("SubmitQuota: %v", err)
		}
		if len(m.sent) != 1 {
			t.Fatalf("sent %d mails, want 1", len(m.sent))
		}
		if m.sent[0].Subject != "New Quota request on Galaxy Australia" {
			t.Errorf("Subject = %q", m.sent[0].Subject)
		}
		if !strings.Contains(m.sent[0].Text, "Disk space (TB): 12") {
			t.Errorf("resolved disk size missing:\n%s", m.sent[0].Text)
		}
		if strings.Contains(m.sent[0].Text, "Other disk space") {
			t.Errorf("companion field leaked into mail:\n%s", m.sent[0].Text)
		}
	})

	t.Run("other missing", func(t *testing.T) {
		svc, m := newService(t, Config{}, nil)
		v := form.Values{"disk_tb": "0"}
		for k, val := range base {
			v[k] = val
		}
		errs := fieldErrors(t, svc.SubmitQuota(context.Background(), Submission{Values: v}))
		if diff := cmp.Diff([]string{form.MsgOtherRequired}, errs["disk_tb"]); diff != "" {
			t.Errorf("disk_tb errors (-want +got):\n%s", diff)
		}
		if len(m.sent) != 0 {
			t.Errorf("sent %d mails, want 0", len(m.sent))
		}
	})
}

func TestSubmitSupport(t *testing.T) {
	tests := []struct {
		name        string
		subject     string
		wantSubject string
	}{
		{"default subject", "", DefaultSupportSubject},
		{"custom subject", "Feedback on genome.usegalaxy.org.au", "Feedback on genome.usegalaxy.org.au"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, m := newService(t, Config{}, stubCaptcha{err: captcha.ErrRejected})

			err := svc.SubmitSupport(context.Background(), Submission{Values: form.Values{
				"name": "Jane", "email": "jane@example.org", "message": "My job failed.",
			}}, tc.subject)
			if err != nil {
				t.Fatalf("SubmitSupport: %v", err)
			}

			want := email.Mail{
				ReplyTo: "jane@example.org",
				Subject: tc.wantSubject,
				Text:    "Name: Jane\nEmail: jane@example.org\n\nMy job failed.",
			}
			if diff := cmp.Diff([]email.Mail{want}, m.sent); diff != "" {
				t.Errorf("mail mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSubmitAccessBlocking(t *testing.T) {
	svc, m := newService(t, Config{}, nil)

	values := form.Values{
		"name": "Jane", "email": "jane@gmail.com", "institution": "Home",
	}
	_, err := svc.SubmitAccess(context.Background(), "alphafold", Submission{Values: values})
	errs := fieldErrors(t, err)
	if diff := cmp.Diff([]string{institution.RejectionMessage}, errs["email"]); diff != "" {
		t.Errorf("email errors (-want +got):\n%s", diff)
	}
	if len(m.sent) != 0 {
		t.Fatalf("sent %d mails, want 0", len(m.sent))
	}

	values["email"] = "jane@student.uq.edu.au"
	values["size_aa"] = "350"
	warned, err := svc.SubmitAccess(context.Background(), "alphafold", Submission{Values: values})
	if err != nil {
		t.Fatalf("SubmitAccess: %v", err)
	}
	if warned {
		t.Error("institutional address should not be warned")
	}
	if len(m.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(m.sent))
	}
	if m.sent[0].Subject != "New AlphaFold request on Galaxy Australia" {
		t.Errorf("Subject = %q", m.sent[0].Subject)
	}
	if !strings.Contains(m.sent[0].Text, "Size (AA): 350") {
		t.Errorf("labelled value missing:\n%s", m.sent[0].Text)
	}
}

func TestSubmitAccessFgeneshOtherSpecies(t *testing.T) {
	svc, m := newService(t, Config{}, nil)

	_, err := svc.SubmitAccess(context.Background(), "fgenesh", Submission{Values: form.Values{
		"name": "Jane", "email": "jane@unimelb.edu.au", "institution": "UoM",
		"agree_terms": "on", "agree_acknowledge": "on",
		"species": "0", "species_other": "Danio rerio",
	}})
	if err != nil {
		t.Fatalf("SubmitAccess: %v", err)
	}
	if len(m.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(m.sent))
	}
	if !strings.Contains(m.sent[0].Text, "Species: Other - Danio rerio") {
		t.Errorf("species not resolved:\n%s", m.sent[0].Text)
	}
	if strings.Contains(m.sent[0].Text, "Other species") {
		t.Errorf("companion field leaked into mail:\n%s", m.sent[0].Text)
	}
}

func TestSubmitAccessAdvisory(t *testing.T) {
	svc, m := newService(t, Config{AdvisoryResources: []string{"alphafold"}}, nil)

	warned, err := svc.SubmitAccess(context.Background(), "alphafold", Submission{
		Values: form.Values{"name": "Jane", "email": "jane@gmail.com", "institution": "Home"},
		Scheme: "http",
	})
	if err != nil {
		t.Fatalf("SubmitAccess: %v", err)
	}
	if !warned {
		t.Error("expected warned")
	}
	if len(m.sent) != 2 {
		t.Fatalf("sent %d mails, want request and warning", len(m.sent))
	}

	warning := m.sent[1]
	if diff := cmp.Diff([]string{"jane@gmail.com"}, warning.To); diff != "" {
		t.Errorf("warning To (-want +got):\n%s", diff)
	}
	if warning.Subject != "Access to AlphaFold could not be granted" {
		t.Errorf("warning Subject = %q", warning.Subject)
	}
	if !strings.Contains(warning.HTML, "http://site.usegalaxy.org.au/institutions") {
		t.Errorf("warning link should use request scheme:\n%s", warning.HTML)
	}
}

func TestSubmitAccessUnknown(t *testing.T) {
	svc, _ := newService(t, Config{}, nil)

	if _, err := svc.SubmitAccess(context.Background(), "nope", Submission{}); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("SubmitAccess: got %v, want ErrUnknownResource", err)
	}
	if err := svc.DispatchWarning(context.Background(), "nope", "a@b.c", "https"); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("DispatchWarning: got %v, want ErrUnknownResource", err)
	}
}

func TestAccessFormList(t *testing.T) {
	var names []string
	for _, f := range AccessFormList() {
		names = append(names, f.Name)
	}
	if diff := cmp.Diff([]string{"AlphaFold", "Fgenesh++"}, names); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
}

// idRecorder keeps the request id seen by each log record.
type idRecorder struct {
	mu  sync.Mutex
	ids map[string]string
}

func (h *idRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (h *idRecorder) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ids[r.Message] = reqctx.RequestIDFromContext(ctx)
	return nil
}

func (h *idRecorder) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *idRecorder) WithGroup(string) slog.Handler      { return h }

func TestLogsCarryRequestID(t *testing.T) {
	engine, err := view.New(view.Config{})
	if err != nil {
		t.Fatal(err)
	}
	rec := &idRecorder{ids: map[string]string{}}
	svc := New(Config{Hostname: "site.usegalaxy.org.au", AdvisoryResources: []string{"alphafold"}},
		&recordingMailer{}, engine, stubCaptcha{err: errors.New("dial tcp: timeout")},
		institution.Default(), slog.New(rec))

	ctx := reqctx.WithRequestMeta(context.Background(), &reqctx.RequestMeta{RequestID: "req-42"})

	if _, err := svc.SubmitAccess(ctx, "alphafold", Submission{Values: form.Values{
		"name": "Jane", "email": "jane@gmail.com", "institution": "Home",
	}}); err != nil {
		t.Fatalf("SubmitAccess: %v", err)
	}
	_ = svc.SubmitQuota(ctx, Submission{Values: form.Values{}})

	for _, msg := range []string{"non-institutional access request accepted", "captcha verification error"} {
		if got := rec.ids[msg]; got != "req-42" {
			t.Errorf("%q logged with request id %q, want req-42", msg, got)
		}
	}
}
