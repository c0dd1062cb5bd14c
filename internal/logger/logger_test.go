package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	log := New(Options{LogFile: path})
	log.Info("import finished", zap.Int64("nodes", 12))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, data)
	}
	if entry["msg"] != "import finished" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["nodes"] != float64(12) {
		t.Errorf("nodes = %v", entry["nodes"])
	}
}

func TestDebugLevel(t *testing.T) {
	if New(Options{}).Core().Enabled(zap.DebugLevel) {
		t.Error("debug enabled without Debug option")
	}
	if !New(Options{Debug: true}).Core().Enabled(zap.DebugLevel) {
		t.Error("debug disabled with Debug option")
	}
}

func TestGetReturnsLogger(t *testing.T) {
	if Get() == nil {
		t.Fatal("Get() returned nil")
	}
}
