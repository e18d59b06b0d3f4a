package http

import (
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/gofiber/fiber/v3"

	"github.com/usegalaxy-au/galaxy_web/config"
	"github.com/usegalaxy-au/galaxy_web/internal/api/http/router"
	"github.com/usegalaxy-au/galaxy_web/internal/content"
	"github.com/usegalaxy-au/galaxy_web/internal/service/request"
	"github.com/usegalaxy-au/galaxy_web/internal/service/subscription"
	"github.com/usegalaxy-au/galaxy_web/internal/view"
	"github.com/usegalaxy-au/galaxy_web/pkg/captcha"
	"github.com/usegalaxy-au/galaxy_web/pkg/crypto"
	"github.com/usegalaxy-au/galaxy_web/pkg/email"
	"github.com/usegalaxy-au/galaxy_web/pkg/institution"
	"github.com/usegalaxy-au/galaxy_web/pkg/logs"
)

type recordingMailer struct {
	sent []email.Mail
}

func (m *recordingMailer) Dispatch(_ context.Context, mail email.Mail) {
	m.sent = append(m.sent, mail)
}

type testEnv struct {
	app    *fiber.App
	mailer *recordingMailer
	signer *crypto.Signer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.Hostname = "site.usegalaxy.org.au"
	log := logs.Discard()

	engine, err := view.New(view.Config{Globals: map[string]any{"site_name": "Galaxy Australia"}})
	if err != nil {
		t.Fatalf("view.New: %v", err)
	}

	store := content.NewStore(
		fstest.MapFS{
			"about.md":     {Data: []byte("---\ntitle: About us\n---\nWe run Galaxy.\n")},
			"tutorials.md": {Data: []byte("---\ntitle: Tutorials\n---\nLearn Galaxy.\n")},
		},
		fstest.MapFS{
			"outage.md": {Data: []byte("---\ntitle: Planned outage\n---\nDown on Sunday.\n")},
		},
		nil, log,
	)

	mailer := &recordingMailer{}
	reqSvc := request.New(request.Config{Hostname: cfg.Server.Hostname},
		mailer, engine, captcha.Nop{}, institution.Default(), log)

	signer, err := crypto.NewSigner("test-secret")
	if err != nil {
		t.Fatal(err)
	}
	subSvc := subscription.New(subscription.NewMemorySet(), signer, log)

	app := New(cfg, log, engine, nil, false)
	mount(app, router.NewRouter(router.Params{
		Cfg:             cfg,
		Log:             log,
		Content:         store,
		Institutions:    institution.Default(),
		RequestSvc:      reqSvc,
		SubscriptionSvc: subSvc,
	}))

	return &testEnv{app: app, mailer: mailer, signer: signer}
}

func (e *testEnv) do(t *testing.T, req *nethttp.Request) (*nethttp.Response, string) {
	t.Helper()
	resp, err := e.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	return resp, string(body)
}

func postForm(path string, v url.Values) *nethttp.Request {
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(v.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	req.Header.Set(fiber.HeaderAccept, fiber.MIMETextHTML)
	return req
}

func TestPages(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		path   string
		status int
		want   string
	}{
		{"/", fiber.StatusOK, "Planned outage"},
		{"/about", fiber.StatusOK, "About us"},
		{"/tutorials.html", fiber.StatusOK, "Learn Galaxy."},
		{"/tutorials.md", fiber.StatusOK, "Tutorials"},
		{"/notice/outage", fiber.StatusOK, "Down on Sunday."},
		{"/landing/genome", fiber.StatusOK, "Genome Galaxy"},
		{"/institutions", fiber.StatusOK, "uq.edu.au"},
		{"/request", fiber.StatusOK, "Request access to Fgenesh++"},
		{"/request/access/alphafold", fiber.StatusOK, "Domain of study"},
		{"/request/support?message=Hello+there", fiber.StatusOK, "Hello there"},
		{"/missing.html", fiber.StatusNotFound, "Page not found"},
		{"/request/access/unknown", fiber.StatusNotFound, "Page not found"},
		{"/no/such/route", fiber.StatusNotFound, "Page not found"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, tc.path, nil)
			req.Header.Set(fiber.HeaderAccept, fiber.MIMETextHTML)
			resp, body := env.do(t, req)
			if resp.StatusCode != tc.status {
				t.Fatalf("status = %d, want %d\n%s", resp.StatusCode, tc.status, body)
			}
			if !strings.Contains(body, tc.want) {
				t.Errorf("body missing %q:\n%s", tc.want, body)
			}
		})
	}
}

func TestRedirects(t *testing.T) {
	env := newTestEnv(t)

	tests := map[string]string{
		"/galaxy":            "/",
		"/help":              "/request/support",
		"/request/alphafold": "/request/access/alphafold",
	}
	for from, to := range tests {
		t.Run(from, func(t *testing.T) {
			resp, _ := env.do(t, httptest.NewRequest(fiber.MethodGet, from, nil))
			if resp.StatusCode != fiber.StatusMovedPermanently {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			if got := resp.Header.Get(fiber.HeaderLocation); got != to {
				t.Errorf("Location = %q, want %q", got, to)
			}
		})
	}
}

func TestDismissNotice(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(fiber.MethodPost, "/notice/dismiss", strings.NewReader(`{"id":"outage"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, body := env.do(t, req)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("dismiss status = %d\n%s", resp.StatusCode, body)
	}

	home := httptest.NewRequest(fiber.MethodGet, "/", nil)
	for _, c := range resp.Cookies() {
		home.AddCookie(c)
	}
	_, body = env.do(t, home)
	if strings.Contains(body, "Planned outage") {
		t.Error("dismissed notice still shown")
	}

	_, body = env.do(t, httptest.NewRequest(fiber.MethodGet, "/", nil))
	if !strings.Contains(body, "Planned outage") {
		t.Error("notice hidden for a new session")
	}
}

func TestDismissNoticeBadBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(fiber.MethodPost, "/notice/dismiss", strings.NewReader(`{"id":""}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, _ := env.do(t, req)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSubmitSupport(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, postForm("/request/support", url.Values{
		"name":    {"Jane"},
		"email":   {"jane@example.org"},
		"message": {"Tool is broken"},
	}))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d\n%s", resp.StatusCode, body)
	}
	if !strings.Contains(body, "Thank you") {
		t.Errorf("success page not shown:\n%s", body)
	}
	if len(env.mailer.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(env.mailer.sent))
	}
	if env.mailer.sent[0].Subject != request.DefaultSupportSubject {
		t.Errorf("Subject = %q", env.mailer.sent[0].Subject)
	}
}

func TestSubmitInvalidForm(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, postForm("/request/support", url.Values{
		"name":  {"Jane"},
		"email": {"jane@example.org"},
	}))
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if !strings.Contains(body, "This field is required.") {
		t.Errorf("field error not rendered:\n%s", body)
	}
	if !strings.Contains(body, `value="Jane"`) {
		t.Errorf("submitted value not kept:\n%s", body)
	}
	if len(env.mailer.sent) != 0 {
		t.Errorf("sent %d mails, want 0", len(env.mailer.sent))
	}
}

func TestSubmitAccessJSON(t *testing.T) {
	env := newTestEnv(t)

	req := postForm("/request/access/alphafold", url.Values{
		"name":        {"Jane"},
		"email":       {"jane@gmail.com"},
		"institution": {"Home"},
	})
	req.Header.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	resp, body := env.do(t, req)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400\n%s", resp.StatusCode, body)
	}

	var out struct {
		Errors map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	if len(out.Errors["email"]) != 1 || out.Errors["email"][0] != institution.RejectionMessage {
		t.Errorf("email errors = %v", out.Errors["email"])
	}
}

func TestUnsubscribe(t *testing.T) {
	env := newTestEnv(t)

	q := url.Values{"email": {"jane@uq.edu.au"}, "token": {env.signer.Sign("jane@uq.edu.au")}}
	resp, body := env.do(t, httptest.NewRequest(fiber.MethodGet, "/unsubscribe?"+q.Encode(), nil))
	if resp.StatusCode != fiber.StatusOK || !strings.Contains(body, "You have been unsubscribed") {
		t.Fatalf("status = %d\n%s", resp.StatusCode, body)
	}

	q.Set("token", "forged")
	resp, body = env.do(t, httptest.NewRequest(fiber.MethodGet, "/unsubscribe?"+q.Encode(), nil))
	if resp.StatusCode != fiber.StatusBadRequest || !strings.Contains(body, "Invalid unsubscribe link") {
		t.Fatalf("status = %d\n%s", resp.StatusCode, body)
	}
}

func TestHealthcheck(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.do(t, httptest.NewRequest(fiber.MethodGet, "/livez", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(fiber.MethodGet, "/livez", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	resp, _ := env.do(t, req)
	if got := resp.Header.Get("X-Request-Id"); got != "abc-123" {
		t.Errorf("X-Request-Id = %q", got)
	}
}
