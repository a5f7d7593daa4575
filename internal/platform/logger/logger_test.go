package logger_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pdfmerge/internal/platform/logger"
)

func TestZapLoggerWritesJSONLinesToFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "logs", "pdfmerge.log")
	l, err := logger.New(logger.Options{FilePath: path, Level: "debug"})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	l.Info("assembler", "entry added", map[string]any{"id": "doc-1"})
	l.Error("assembler", "combine failed", map[string]any{"error": errors.New("boom")})
	if err := l.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(raw)
	for _, want := range []string{`"message":"entry added"`, `"module":"assembler"`, `"level":"ERROR"`, `boom`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %s: %s", want, out)
		}
	}
}

func TestZapLoggerRejectsUnknownLevel(t *testing.T) {
	t.Parallel()
	if _, err := logger.New(logger.Options{Level: "chatty"}); err == nil {
		t.Fatalf("unknown level should fail")
	}
}
