package logs

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/usegalaxy-au/galaxy_web/pkg/reqctx"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{Level: "info", Environment: "production", Stdout: true}

	slog.New(newHandler(cfg, &buf)).Info("hello", "k", "v")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("production output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "hello" || rec["k"] != "v" {
		t.Errorf("unexpected record: %v", rec)
	}

	buf.Reset()
	cfg.Environment = "development"
	slog.New(newHandler(cfg, &buf)).Debug("hidden")
	slog.New(newHandler(cfg, &buf)).Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record written at info level: %q", out)
	}
	if !strings.Contains(out, "msg=shown") {
		t.Errorf("development output should be text, got %q", out)
	}
}

func TestLokiWriter(t *testing.T) {
	var (
		mu   sync.Mutex
		push lokiPush
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loki/api/v1/push" {
			t.Errorf("path = %q", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		defer mu.Unlock()
		if err := json.Unmarshal(body, &push); err != nil {
			t.Errorf("payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := Config{Service: "galaxy-web", Environment: "test"}
	cfg.Loki.Enabled = true
	cfg.Loki.Endpoint = srv.URL + "/"

	h := newLokiHandler(cfg, slog.LevelInfo)
	if err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "pushed", 0)); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(push.Streams) != 1 {
		t.Fatalf("streams = %d, want 1", len(push.Streams))
	}
	s := push.Streams[0]
	if s.Stream["service"] != "galaxy-web" || s.Stream["env"] != "test" {
		t.Errorf("labels = %v", s.Stream)
	}
	if len(s.Values) != 1 || !strings.Contains(s.Values[0][1], `"msg":"pushed"`) {
		t.Errorf("values = %v", s.Values)
	}
}

func TestContextHandlerAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(contextHandler{slog.NewJSONHandler(&buf, nil)})

	ctx := reqctx.WithRequestMeta(context.Background(), &reqctx.RequestMeta{RequestID: "abc-123"})
	log.InfoContext(ctx, "with id")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["request_id"] != "abc-123" {
		t.Errorf("request_id = %v", rec["request_id"])
	}
}
