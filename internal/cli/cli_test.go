package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voiceclip/internal/config"
)

func newTestDeps() (*Dependencies, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &Dependencies{Stdin: strings.NewReader(""), Stdout: out, Stderr: out}, out
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	deps, out := newTestDeps()
	cmd := NewRootCmd(deps)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(out, "voiceclip dev") {
		t.Fatalf("version output = %q", out)
	}
}

func TestRunCreatesDefaultConfigAndExits(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := execute(t)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "Created default config.json") {
		t.Fatalf("output = %q", out)
	}
	cfg, err := config.Load(defaultConfigPath)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.Backend != config.BackendWhisper {
		t.Fatalf("backend = %q", cfg.Backend)
	}
}

func TestInitWritesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voiceclip.yaml")
	if _, err := execute(t, "init", path); err != nil {
		t.Fatalf("init: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Hotkey != "ctrl+alt+space" {
		t.Fatalf("hotkey = %q", cfg.Hotkey)
	}
	if _, err := execute(t, "init", path); err == nil {
		t.Fatal("init must refuse to overwrite without --force")
	}
	if _, err := execute(t, "init", "--force", path); err != nil {
		t.Fatalf("init --force: %v", err)
	}
}

func TestModelsListsPresets(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.MkdirAll("models", 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join("models", "ggml-tiny.en.bin"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "models")
	if err != nil {
		t.Fatalf("models: %v", err)
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		t.Fatal("models must not create a config file")
	}
	var tinyLine string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "ggml-tiny.en.bin") {
			tinyLine = line
		}
	}
	if !strings.HasSuffix(tinyLine, "ok") {
		t.Fatalf("tiny.en line = %q\n%s", tinyLine, out)
	}
	if !strings.Contains(out, "* medium.en") {
		t.Fatalf("default preset not marked:\n%s", out)
	}
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	if err := os.WriteFile("config.json", []byte(`{"MODEL":"small.en","LOG_LEVEL":"warn"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	deps, _ := newTestDeps()
	cmd := NewRootCmd(deps)
	if err := cmd.PersistentFlags().Parse([]string{"--model", "base"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err := loadConfig(deps, true)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Model != "base" || cfg.LogLevel != "warn" {
		t.Fatalf("model=%q log=%q", cfg.Model, cfg.LogLevel)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	t.Chdir(t.TempDir())
	if err := os.WriteFile("config.json", []byte(`{"BACKEND":"carrier-pigeon"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "models"); err == nil {
		t.Fatal("expected validation error")
	}
}
