package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(&cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.SampleRate != 44100 || cfg.OutputPath() != filepath.Join("output", "audio.wav") {
		t.Fatalf("unexpected defaults: rate=%d path=%s", cfg.SampleRate, cfg.OutputPath())
	}
}

func TestLoadFormats(t *testing.T) {
	cases := map[string]string{
		"config.json": `{"MODEL": "base.en", "CHANNELS": 2, "KEEP_CACHE": true}`,
		"config.yaml": "MODEL: base.en\nCHANNELS: 2\nKEEP_CACHE: true\n",
		"config.toml": "MODEL = \"base.en\"\nCHANNELS = 2\nKEEP_CACHE = true\n",
	}
	for name, body := range cases {
		cfg, err := Load(writeFile(t, name, body))
		if err != nil {
			t.Fatalf("%s: load failed: %v", name, err)
		}
		if cfg.Model != "base.en" || cfg.Channels != 2 || !cfg.KeepCache {
			t.Fatalf("%s: unexpected config %+v", name, cfg)
		}
		if cfg.SampleRate != 44100 {
			t.Fatalf("%s: defaults not preserved, SAMPLE_RATE=%d", name, cfg.SampleRate)
		}
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	if _, err := Load(writeFile(t, "config.json", "{")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSaveDefaultRoundTrips(t *testing.T) {
	for _, name := range []string{"c.json", "c.yaml", "c.toml"} {
		path := filepath.Join(t.TempDir(), name)
		if err := SaveDefault(path); err != nil {
			t.Fatalf("%s: save failed: %v", name, err)
		}
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("%s: load failed: %v", name, err)
		}
		if cfg != DefaultConfig() {
			t.Fatalf("%s: saved defaults differ: %+v", name, cfg)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"backend", func(c *Config) { c.Backend = "nope" }, "BACKEND"},
		{"model", func(c *Config) { c.Model = "huge" }, "MODEL"},
		{"channels", func(c *Config) { c.Channels = 0 }, "CHANNELS"},
		{"http endpoint", func(c *Config) { c.Backend = BackendHTTP }, "API_ENDPOINT"},
		{"container", func(c *Config) {
			c.Backend = BackendHTTP
			c.APIEndpoint = "http://x"
			c.Container = "avi"
		}, "CONTAINER"},
		{"trigger", func(c *Config) { c.Trigger = "mouse" }, "TRIGGER"},
		{"output", func(c *Config) { c.OutputFile = "audio.mp3" }, "OUTPUT_FILE"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "LOG_LEVEL"},
	}
	for _, c := range cases {
		cfg := DefaultConfig()
		c.mutate(&cfg)
		err := Validate(&cfg)
		if err == nil || !strings.Contains(err.Error(), c.want) {
			t.Fatalf("%s: expected error mentioning %s, got %v", c.name, c.want, err)
		}
	}
}

func TestModelPathSkipsPresetCheck(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model = "custom"
	cfg.ModelPath = "/models/custom.bin"
	if err := Validate(&cfg); err != nil {
		t.Fatalf("expected MODEL_PATH to bypass preset validation: %v", err)
	}
	path, err := ResolveModelPath(&cfg)
	if err != nil || path != "/models/custom.bin" {
		t.Fatalf("unexpected path %q err=%v", path, err)
	}
}

func TestResolveModelPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model = "large"
	path, err := ResolveModelPath(&cfg)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if path != filepath.Join("models", "ggml-large-v3.bin") {
		t.Fatalf("unexpected path %s", path)
	}
}

func TestFlagsOverrideOnlyWhenSet(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fv := BindFlags(fs)
	if err := fs.Parse([]string{"--channels", "2", "--keep-cache", "--notification=no", "--model", "tiny"}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !fv.AnySet() {
		t.Fatalf("expected AnySet")
	}

	cfg := DefaultConfig()
	cfg.Notification = true
	cfg.Language = "de"
	fv.ApplyFlags(&cfg)

	if cfg.Channels != 2 || !cfg.KeepCache || cfg.Notification || cfg.Model != "tiny" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.Language != "de" || cfg.SampleRate != 44100 {
		t.Fatalf("unset flags overwrote config: %+v", cfg)
	}
}

func TestNoFlagsSet(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fv := BindFlags(fs)
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if fv.AnySet() {
		t.Fatalf("expected no flags set")
	}
}

func TestParseBoolExt(t *testing.T) {
	for _, v := range []string{"yes", "Y", "1", "true"} {
		if b, err := parseBoolExt(v); err != nil || !b {
			t.Fatalf("%q should parse true", v)
		}
	}
	if _, err := parseBoolExt("maybe"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestInitCacheDirCreates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheDir = filepath.Join(t.TempDir(), "cache")
	if err := InitCacheDir(&cfg); err != nil {
		t.Fatalf("InitCacheDir failed: %v", err)
	}
	if info, err := os.Stat(cfg.CacheDir); err != nil || !info.IsDir() {
		t.Fatalf("cache dir not created: %v", err)
	}
}

func TestInitCacheDirRejectsFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheDir = writeFile(t, "file", "x")
	if err := InitCacheDir(&cfg); err == nil {
		t.Fatalf("expected error")
	}
	if cfg.CacheDir != "" {
		t.Fatalf("expected CacheDir cleared")
	}
}
