package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ziadkadry99/chatbridge/internal/config"
)

func TestJSONOutput(t *testing.T) {
	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json", Level: "info"}, false, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	log.With("component", "bots").Info("event handled", "kind", "echo")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &entry); err != nil {
		t.Fatalf("unmarshal log entry: %v", err)
	}
	if entry["msg"] != "event handled" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["component"] != "bots" || entry["kind"] != "echo" {
		t.Errorf("missing attrs: %v", entry)
	}
}

func TestLevelFiltering(t *testing.T) {
	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json", Level: "error"}, false, &out)
	if err != nil {
		t.Fatal(err)
	}
	log.Info("dropped")
	log.Error("kept")

	if strings.Contains(out.String(), "dropped") {
		t.Error("info line should be filtered at error level")
	}
	if !strings.Contains(out.String(), "kept") {
		t.Error("error line missing")
	}
}

func TestVerboseForcesDebug(t *testing.T) {
	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json", Level: "error"}, true, &out)
	if err != nil {
		t.Fatal(err)
	}
	log.Debug("visible")
	if !strings.Contains(out.String(), "visible") {
		t.Error("verbose should enable debug output")
	}
}

func TestTextFormat(t *testing.T) {
	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "text"}, false, &out)
	if err != nil {
		t.Fatal(err)
	}
	log.Info("hello", "status", 200)
	if !strings.Contains(out.String(), "hello") || !strings.Contains(out.String(), "status=200") {
		t.Errorf("unexpected text output: %q", out.String())
	}
}

func TestInvalidSettings(t *testing.T) {
	if _, err := newWithWriter(config.LoggingConfig{Format: "xml"}, false, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unsupported format")
	}
	if _, err := newWithWriter(config.LoggingConfig{Level: "loud"}, false, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unsupported level")
	}
}
