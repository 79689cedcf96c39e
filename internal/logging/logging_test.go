package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/skobkin/msgsync/internal/config"
)

func TestFanoutWriter_ContinuesWhenOneDestinationFails(t *testing.T) {
	var dst bytes.Buffer
	w := newFanoutWriter(errorWriter{err: errors.New("broken console")}, &dst)

	n, err := w.Write([]byte("test"))
	if err != nil {
		t.Fatalf("write returned error: %v", err)
	}
	if n != len("test") {
		t.Fatalf("unexpected bytes written: got %d, want %d", n, len("test"))
	}
	if got := dst.String(); got != "test" {
		t.Fatalf("unexpected destination contents: got %q", got)
	}
}

func TestFanoutWriter_FailsWhenEveryDestinationFails(t *testing.T) {
	broken := errors.New("broken")
	w := newFanoutWriter(errorWriter{err: broken}, errorWriter{err: errors.New("other")})

	if _, err := w.Write([]byte("test")); !errors.Is(err, broken) {
		t.Fatalf("expected first error %v, got %v", broken, err)
	}
}

func TestManagerConfigure_LogFileStillReceivesLogsWhenConsoleFails(t *testing.T) {
	origDefault := slog.Default()
	t.Cleanup(func() { slog.SetDefault(origDefault) })

	logPath := filepath.Join(t.TempDir(), "logs", "msgsync.log")
	m := NewManager(errorWriter{err: errors.New("broken console")})
	t.Cleanup(func() { _ = m.Close() })

	if err := m.Configure(config.LoggingConfig{Level: "debug", LogToFile: true}, logPath); err != nil {
		t.Fatalf("configure manager: %v", err)
	}

	slog.Info("file must receive this message")

	if err := m.Close(); err != nil {
		t.Fatalf("close manager: %v", err)
	}

	cleanLogPath := filepath.Clean(logPath)
	// #nosec G304 -- logPath is created from t.TempDir() in this test.
	raw, err := os.ReadFile(cleanLogPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !bytes.Contains(raw, []byte("file must receive this message")) {
		t.Fatalf("log file does not contain test message, contents: %q", string(raw))
	}
}

func TestManagerConfigure_JSONFormat(t *testing.T) {
	origDefault := slog.Default()
	t.Cleanup(func() { slog.SetDefault(origDefault) })

	var console bytes.Buffer
	m := NewManager(&console)
	if err := m.Configure(config.LoggingConfig{Level: "info", Format: "json"}, ""); err != nil {
		t.Fatalf("configure manager: %v", err)
	}

	m.Logger("controller").Info("state changed", "state", "local_data_fetched")
	m.Logger("controller").Debug("must be filtered")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(console.Bytes()), &entry); err != nil {
		t.Fatalf("expected one json line, got %q: %v", console.String(), err)
	}
	if entry["component"] != "controller" || entry["state"] != "local_data_fetched" {
		t.Fatalf("unexpected log entry: %v", entry)
	}
}

func TestManagerConfigure_RejectsUnknownLevel(t *testing.T) {
	m := NewManager(&bytes.Buffer{})
	if err := m.Configure(config.LoggingConfig{Level: "verbose"}, ""); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

type errorWriter struct {
	err error
}

func (w errorWriter) Write(_ []byte) (int, error) {
	return 0, w.err
}
