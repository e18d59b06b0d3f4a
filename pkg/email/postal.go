package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const postalRawPath = "/api/v1/send/raw"

// PostalTransport submits raw MIME to a Postal mail server over its HTTP API.
type PostalTransport struct {
	baseURL string
	apiKey  string
	hc      *http.Client
}

func NewPostalTransport(cfg Config) *PostalTransport {
	return &PostalTransport{
		baseURL: strings.TrimRight(cfg.PostalURL(), "/"),
		apiKey:  cfg.PostalAPIKey,
		hc:      &http.Client{Timeout: cfg.PostalTimeout()},
	}
}

func (t *PostalTransport) Name() string { return TransportPostal }

type postalRawRequest struct {
	MailFrom string   `json:"mail_from"`
	RcptTo   []string `json:"rcpt_to"`
	Data     string   `json:"data"`
	Bounce   bool     `json:"bounce"`
}

type postalResponse struct {
	Status string `json:"status"`
	Data   struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		MessageID string `json:"message_id"`
	} `json:"data"`
}

func (t *PostalTransport) Send(ctx context.Context, m Message) error {
	raw, err := rawMIME(m)
	if err != nil {
		return err
	}

	rcpt := cleanAddrs(m.To)
	rcpt = append(rcpt, cleanAddrs(m.CC)...)
	rcpt = append(rcpt, cleanAddrs(m.BCC)...)

	var resp postalResponse
	if err := t.post(ctx, postalRawRequest{
		MailFrom: strings.TrimSpace(m.From),
		RcptTo:   rcpt,
		Data:     base64.StdEncoding.EncodeToString(raw),
	}, &resp); err != nil {
		return ErrSend{Provider: "postal", Err: err}
	}

	if resp.Status != "success" {
		msg := resp.Data.Message
		if msg == "" {
			msg = "status " + resp.Status
		}
		return ErrSend{Provider: "postal", Err: fmt.Errorf("%s: %s", resp.Data.Code, msg)}
	}
	return nil
}

func (t *PostalTransport) post(ctx context.Context, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+postalRawPath, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Server-API-Key", t.apiKey)

	resp, err := t.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return errors.Join(errors.New("decode postal response"), err)
	}
	return nil
}
