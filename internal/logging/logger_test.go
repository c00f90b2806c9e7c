package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitUsesConfiguredDirectory(t *testing.T) {
	root := t.TempDir()

	log, err := Init(root, Settings{
		Directory:  "audit-logs",
		MaxSizeMB:  1,
		MaxBackups: 1,
		MaxAgeDays: 1,
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	log.Info("configured directory in use")
	log.Sync()

	dir := filepath.Join(root, "audit-logs")
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("configured log directory not created: %v", err)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*-info.log"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Errorf("info log file not written in configured directory: %v", matches)
	}
}

func TestSettingsZeroValuesFallBack(t *testing.T) {
	s := Settings{}.withDefaults()
	if s != (Settings{Directory: "logs", MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 7}) {
		t.Errorf("unexpected fallback settings: %+v", s)
	}
}

func TestBootstrapLogs(t *testing.T) {
	log := Bootstrap()
	if log == nil {
		t.Fatal("bootstrap logger is nil")
	}
	log.Debug("bootstrap logger alive")
}
