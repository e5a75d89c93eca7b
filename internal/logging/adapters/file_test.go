package adapters

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"careerarc/internal/logging/types"
)

func entry(msg string) *types.LogEntry {
	return &types.LogEntry{Level: types.InfoLevel, Message: msg, Timestamp: time.Now()}
}

func TestFileAdapterWritesLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")
	a, err := NewFileAdapter("file", FileConfig{FilePath: path, Format: "text", CreateDirs: true})
	if err != nil {
		t.Fatal(err)
	}

	if err := a.Write(entry("first")); err != nil {
		t.Fatal(err)
	}
	if err := a.Write(entry("second")); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 || !strings.HasSuffix(lines[1], "second") {
		t.Errorf("lines = %q", lines)
	}
}

func TestFileAdapterRotatesAndPrunes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	a, err := NewFileAdapter("file", FileConfig{FilePath: path, MaxSize: 1, MaxBackups: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	for i := 0; i < 4; i++ {
		if err := a.Write(entry("line")); err != nil {
			t.Fatal(err)
		}
		// backup names have millisecond resolution
		time.Sleep(2 * time.Millisecond)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	backups := 0
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "app.log.") {
			backups++
		}
	}
	if backups != 1 {
		t.Errorf("backups = %d, want 1", backups)
	}
}

func TestFileAdapterRequiresPath(t *testing.T) {
	if _, err := NewFileAdapter("file", FileConfig{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestWriteAfterCloseFails(t *testing.T) {
	a, err := NewFileAdapter("file", FileConfig{FilePath: filepath.Join(t.TempDir(), "x.log")})
	if err != nil {
		t.Fatal(err)
	}
	_ = a.Close()
	if err := a.Write(entry("late")); err == nil {
		t.Fatal("expected error writing to closed adapter")
	}
	if err := a.Health(); err == nil {
		t.Fatal("closed adapter reported healthy")
	}
}
