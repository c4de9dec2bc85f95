package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "info", Format: "json", Out: &buf})
	log.Debug().Msg("hidden")
	log.Info().Int("seat", 3).Msg("seat assigned")

	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "hidden") {
		t.Fatalf("debug line written at info level: %s", line)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("not json: %v: %s", err, line)
	}
	if rec["message"] != "seat assigned" || rec["seat"] != float64(3) {
		t.Errorf("record = %v", rec)
	}
	if _, ok := rec["time"]; !ok {
		t.Error("record has no timestamp")
	}
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "debug", Out: &buf})
	log.Debug().Str("command", "Available()").Msg("command executed")
	out := buf.String()
	if !strings.Contains(out, "command executed") || !strings.Contains(out, "Available()") {
		t.Errorf("console output = %q", out)
	}
}
