package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"ghproxy-hq/ghproxy/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid JSON config",
			config: Config{Level: "info", Format: "json"},
		},
		{
			name:   "valid text config",
			config: Config{Level: "debug", Format: "text"},
		},
		{
			name:   "empty values use defaults",
			config: Config{},
		},
		{
			name:    "invalid log level",
			config:  Config{Level: "invalid", Format: "json"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			config:  Config{Level: "info", Format: "console"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.config.Writer = buf

			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "warn", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("info record written at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("warn record missing")
	}
}

func TestTextFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "text", Writer: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("started", "address", "127.0.0.1:4000")

	if out := buf.String(); !strings.Contains(out, "msg=started") || !strings.Contains(out, "address=127.0.0.1:4000") {
		t.Errorf("unexpected text output: %s", out)
	}
}

func TestContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithProvider(ctx, "github")
	ctx = WithRule(ctx, "github.blob")
	logger.InfoContext(ctx, "relayed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	want := map[string]string{"request_id": "req-123", "provider": "github", "rule": "github.blob"}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %q", k, entry[k], v)
		}
	}
}

func TestRedactClientAddresses(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "json", RedactClientAddresses: true, Writer: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.With("remote_addr", "192.168.1.100:54321").Info("request", "client", "10.1.2.3", "path", "/10.1.2.3")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["remote_addr"] != "192.*.*.*" {
		t.Errorf("remote_addr = %v, want 192.*.*.*", entry["remote_addr"])
	}
	if entry["client"] != "10.*.*.*" {
		t.Errorf("client = %v, want 10.*.*.*", entry["client"])
	}
	if entry["path"] != "/10.1.2.3" {
		t.Errorf("path = %v, want it untouched", entry["path"])
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Telemetry.Logging.RedactClientAddresses = true

	got := FromConfig(&cfg.Telemetry.Logging)
	if got.Level != "info" || got.Format != "json" || !got.RedactClientAddresses {
		t.Errorf("FromConfig() = %+v", got)
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"debug", "info", "warn", "warning", "error", "ERROR", ""} {
		if _, err := ParseLevel(s); err != nil {
			t.Errorf("ParseLevel(%q) error = %v", s, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("ParseLevel(verbose) error = nil")
	}
}
