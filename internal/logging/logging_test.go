package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewWithWriter_Levels(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{name: "info", verbose: false, wantDebug: false},
		{name: "verbose", verbose: true, wantDebug: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(&buf, tt.verbose)
			logger.Debug("debug line")
			logger.Info("info line")

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
			if !strings.Contains(out, "info line") {
				t.Error("info line missing")
			}
		})
	}
}

func TestComponentField(t *testing.T) {
	var buf bytes.Buffer
	Component(NewWithWriter(&buf, false), "dispatcher").Info("chunk done", zap.Int("index", 2))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["component"] != "dispatcher" {
		t.Errorf("component = %v, want dispatcher", entry["component"])
	}
	if entry["message"] != "chunk done" || entry["level"] != "info" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNew_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "blockify.log")
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	logger, closeLog, err := New(Options{File: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("to file")
	zap.L().Info("through global")
	if err := closeLog(); err != nil {
		t.Fatalf("close error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"to file", "through global"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log file missing %q", want)
		}
	}
}
