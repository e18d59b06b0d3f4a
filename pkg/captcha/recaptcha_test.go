package captcha

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecaptchaVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if r.PostForm.Get("secret") != "s3cret" {
			t.Errorf("secret = %q", r.PostForm.Get("secret"))
		}
		switch r.PostForm.Get("response") {
		case "good":
			if r.PostForm.Get("remoteip") != "10.0.0.1" {
				t.Errorf("remoteip = %q", r.PostForm.Get("remoteip"))
			}
			_, _ = w.Write([]byte(`{"success":true,"hostname":"site.usegalaxy.org.au"}`))
		case "broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
		}
	}))
	defer srv.Close()

	v := New(Config{Enabled: true, SecretKey: "s3cret", VerifyURL: srv.URL})

	tests := []struct {
		name    string
		token   string
		wantErr error
		anyErr  bool
	}{
		{"accepted", "good", nil, false},
		{"rejected", "bad", ErrRejected, true},
		{"missing", " ", ErrMissingToken, true},
		{"upstream error", "broken", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Verify(context.Background(), tt.token, "10.0.0.1")
			if !tt.anyErr {
				if err != nil {
					t.Fatalf("Verify() = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Verify() = nil, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewDisabledIsNop(t *testing.T) {
	v := New(Config{Enabled: false})
	if _, ok := v.(Nop); !ok {
		t.Fatalf("New(disabled) = %T, want Nop", v)
	}
	if err := v.Verify(context.Background(), "", ""); err != nil {
		t.Errorf("Nop.Verify() = %v", err)
	}
}
