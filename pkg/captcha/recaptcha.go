// Package captcha verifies Google reCAPTCHA responses submitted with forms.
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/usegalaxy-au/galaxy_web/config"
)

// FormField is the form key reCAPTCHA widgets post their token under.
const FormField = "g-recaptcha-response"

const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

var (
	ErrMissingToken = errors.New("captcha response is missing")
	ErrRejected     = errors.New("captcha verification failed")
)

type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

type Config struct {
	Enabled   bool
	SiteKey   string
	SecretKey string
	VerifyURL string
	Timeout   time.Duration
}

func FromCentralConfig(c config.CaptchaConfig) Config {
	return Config{
		Enabled:   c.Enabled,
		SiteKey:   c.SiteKey,
		SecretKey: c.SecretKey,
		VerifyURL: c.VerifyURL,
		Timeout:   10 * time.Second,
	}
}

// New returns a reCAPTCHA verifier, or Nop when captcha is disabled.
func New(cfg Config) Verifier {
	if !cfg.Enabled {
		return Nop{}
	}
	return NewRecaptcha(cfg)
}

type Recaptcha struct {
	secret    string
	verifyURL string
	hc        *http.Client
}

func NewRecaptcha(cfg Config) *Recaptcha {
	u := cfg.VerifyURL
	if u == "" {
		u = DefaultVerifyURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Recaptcha{
		secret:    cfg.SecretKey,
		verifyURL: u,
		hc:        &http.Client{Timeout: timeout},
	}
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

func (r *Recaptcha) Verify(ctx context.Context, token, remoteIP string) error {
	if strings.TrimSpace(token) == "" {
		return ErrMissingToken
	}

	form := url.Values{}
	form.Set("secret", r.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.hc.Do(req)
	if err != nil {
		return fmt.Errorf("captcha siteverify: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("captcha siteverify: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("captcha siteverify: http status %d", resp.StatusCode)
	}

	var out siteverifyResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("captcha siteverify: decode: %w", err)
	}
	if !out.Success {
		return fmt.Errorf("%w: %s", ErrRejected, strings.Join(out.ErrorCodes, ","))
	}
	return nil
}

// Nop accepts every response.
type Nop struct{}

func (Nop) Verify(context.Context, string, string) error { return nil }
