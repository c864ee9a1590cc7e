package app

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voiceclip/internal/config"
	"voiceclip/internal/trigger"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestCleanupOldTempFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"upload_abc.ogg", "convert_def.wav", "audio.wav"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cleanupOldTempFiles(dir, discardLogger())

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "audio.wav" {
		t.Fatalf("remaining = %v", entries)
	}
}

func TestTempPath(t *testing.T) {
	p := tempPath("/tmp", "upload_", "ogg")
	name := filepath.Base(p)
	if !strings.HasPrefix(name, "upload_") || !strings.HasSuffix(name, ".ogg") || len(name) != len("upload_")+16+len(".ogg") {
		t.Fatalf("tempPath = %q", p)
	}
}

func TestNewSource(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Trigger = config.TriggerConsole
	if src, _ := newSource(cfg, strings.NewReader(""), discardLogger()); src == nil {
		t.Fatal("nil console source")
	} else if _, ok := src.(*trigger.Console); !ok {
		t.Fatalf("got %T, want *trigger.Console", src)
	}

	cfg.Trigger = config.TriggerHotkey
	cfg.CancelKey = "ctrl+alt+x"
	src, hint := newSource(cfg, nil, discardLogger())
	if _, ok := src.(*trigger.Hotkey); !ok {
		t.Fatalf("got %T, want *trigger.Hotkey", src)
	}
	if !strings.Contains(hint, "ctrl+alt+x") {
		t.Fatalf("hint = %q", hint)
	}
}

func TestRunFileModeHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":"from the server"}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	in := filepath.Join(dir, "clip.wav")
	if err := os.WriteFile(in, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "clip.txt")

	cfg := config.DefaultConfig()
	cfg.Backend = config.BackendHTTP
	cfg.APIEndpoint = srv.URL
	cfg.EnableHTTP2 = false
	if err := RunFileMode(context.Background(), cfg, in, out, discardLogger()); err != nil {
		t.Fatalf("RunFileMode: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "from the server\n" {
		t.Fatalf("output = %q", b)
	}
}

func TestRunFileModeMissingInput(t *testing.T) {
	cfg := config.DefaultConfig()
	if err := RunFileMode(context.Background(), cfg, filepath.Join(t.TempDir(), "nope.wav"), "", discardLogger()); err == nil {
		t.Fatal("expected error for missing input")
	}
}
