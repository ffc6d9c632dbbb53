package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LoggerConfig{Level: InfoLevel, Stderr: &buf})
	logger.colors = false

	logger.Debug("hidden")
	logger.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message logged at info level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("info message missing from output: %q", out)
	}

	buf.Reset()
	logger.SetLevel(DebugLevel)
	logger.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("debug message missing after SetLevel: %q", buf.String())
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LoggerConfig{Level: InfoLevel, Stderr: &buf})
	logger.SetJSONOutput(true)

	logger.Info("analysis converged", "nodes", 4)

	line := strings.TrimSpace(buf.String())
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not valid JSON: %v (%q)", err, line)
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", entry["level"])
	}
	msg, _ := entry["message"].(string)
	if !strings.Contains(msg, "analysis converged") || !strings.Contains(msg, "nodes=4") {
		t.Errorf("message = %q, want text and key-value pair", msg)
	}
}

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		args []interface{}
		want string
	}{
		{"no args", "plain", nil, "plain"},
		{"key-value pairs", "built", []interface{}{"nodes", 3, "edges", 5}, "built nodes=3 edges=5"},
		{"odd arg count", "oops", []interface{}{"stray", "k", "v"}, "oops stray k=v"},
		{"non-string key skipped", "msg", []interface{}{1, 2}, "msg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatMessage(tt.msg, tt.args...)
			if got != tt.want {
				t.Errorf("formatMessage = %q, want %q", got, tt.want)
			}
		})
	}
}
