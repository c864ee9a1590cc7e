package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds configurable parameters. The same UPPERCASE keys are used for
// JSON, YAML and TOML files.
type Config struct {
	Backend   string `json:"BACKEND" yaml:"BACKEND" toml:"BACKEND"`
	Model     string `json:"MODEL" yaml:"MODEL" toml:"MODEL"`
	ModelDir  string `json:"MODEL_DIR" yaml:"MODEL_DIR" toml:"MODEL_DIR"`
	ModelPath string `json:"MODEL_PATH" yaml:"MODEL_PATH" toml:"MODEL_PATH"`
	Language  string `json:"LANGUAGE" yaml:"LANGUAGE" toml:"LANGUAGE"`
	Prompt    string `json:"PROMPT" yaml:"PROMPT" toml:"PROMPT"`
	Threads   int    `json:"THREADS" yaml:"THREADS" toml:"THREADS"`

	APIEndpoint    string  `json:"API_ENDPOINT" yaml:"API_ENDPOINT" toml:"API_ENDPOINT"`
	Token          string  `json:"TOKEN" yaml:"TOKEN" toml:"TOKEN"`
	OpenAIModel    string  `json:"OPENAI_MODEL" yaml:"OPENAI_MODEL" toml:"OPENAI_MODEL"`
	TextPath       string  `json:"TEXT_PATH" yaml:"TEXT_PATH" toml:"TEXT_PATH"`
	ExtraConfig    string  `json:"EXTRA_CONFIG" yaml:"EXTRA_CONFIG" toml:"EXTRA_CONFIG"`
	RequestTimeout int     `json:"REQUEST_TIMEOUT" yaml:"REQUEST_TIMEOUT" toml:"REQUEST_TIMEOUT"`
	MaxRetry       int     `json:"MAX_RETRY" yaml:"MAX_RETRY" toml:"MAX_RETRY"`
	RetryBaseDelay float64 `json:"RETRY_BASE_DELAY" yaml:"RETRY_BASE_DELAY" toml:"RETRY_BASE_DELAY"`
	EnableHTTP2    bool    `json:"ENABLE_HTTP2" yaml:"ENABLE_HTTP2" toml:"ENABLE_HTTP2"`
	VerifySSL      bool    `json:"VERIFY_SSL" yaml:"VERIFY_SSL" toml:"VERIFY_SSL"`
	Codec          string  `json:"CODEC" yaml:"CODEC" toml:"CODEC"`
	Container      string  `json:"CONTAINER" yaml:"CONTAINER" toml:"CONTAINER"`
	BitRate        int     `json:"BIT_RATE" yaml:"BIT_RATE" toml:"BIT_RATE"`

	Trigger    string `json:"TRIGGER" yaml:"TRIGGER" toml:"TRIGGER"`
	Hotkey     string `json:"HOTKEY" yaml:"HOTKEY" toml:"HOTKEY"`
	CancelKey  string `json:"CANCEL_KEY" yaml:"CANCEL_KEY" toml:"CANCEL_KEY"`
	HotKeyHook bool   `json:"HOTKEY_HOOK" yaml:"HOTKEY_HOOK" toml:"HOTKEY_HOOK"`

	Device           string `json:"DEVICE" yaml:"DEVICE" toml:"DEVICE"`
	SampleRate       int    `json:"SAMPLE_RATE" yaml:"SAMPLE_RATE" toml:"SAMPLE_RATE"`
	Channels         int    `json:"CHANNELS" yaml:"CHANNELS" toml:"CHANNELS"`
	FramesPerBuffer  int    `json:"FRAMES_PER_BUFFER" yaml:"FRAMES_PER_BUFFER" toml:"FRAMES_PER_BUFFER"`
	MaxRecordSeconds int    `json:"MAX_RECORD_SECONDS" yaml:"MAX_RECORD_SECONDS" toml:"MAX_RECORD_SECONDS"`

	OutputDir  string `json:"OUTPUT_DIR" yaml:"OUTPUT_DIR" toml:"OUTPUT_DIR"`
	OutputFile string `json:"OUTPUT_FILE" yaml:"OUTPUT_FILE" toml:"OUTPUT_FILE"`
	CacheDir   string `json:"CACHE_DIR" yaml:"CACHE_DIR" toml:"CACHE_DIR"`
	KeepCache  bool   `json:"KEEP_CACHE" yaml:"KEEP_CACHE" toml:"KEEP_CACHE"`

	BackgroundProcessing bool   `json:"BACKGROUND_PROCESSING" yaml:"BACKGROUND_PROCESSING" toml:"BACKGROUND_PROCESSING"`
	AutoPaste            bool   `json:"AUTO_PASTE" yaml:"AUTO_PASTE" toml:"AUTO_PASTE"`
	Notification         bool   `json:"NOTIFICATION" yaml:"NOTIFICATION" toml:"NOTIFICATION"`
	Sounds               bool   `json:"SOUNDS" yaml:"SOUNDS" toml:"SOUNDS"`
	StartSound           string `json:"START_SOUND" yaml:"START_SOUND" toml:"START_SOUND"`
	DoneSound            string `json:"DONE_SOUND" yaml:"DONE_SOUND" toml:"DONE_SOUND"`

	MetricsAddr string `json:"METRICS_ADDR" yaml:"METRICS_ADDR" toml:"METRICS_ADDR"`
	LogLevel    string `json:"LOG_LEVEL" yaml:"LOG_LEVEL" toml:"LOG_LEVEL"`
	LogFormat   string `json:"LOG_FORMAT" yaml:"LOG_FORMAT" toml:"LOG_FORMAT"`
}

// Backends.
const (
	BackendWhisper = "whisper"
	BackendOpenAI  = "openai"
	BackendHTTP    = "http"
)

// Trigger sources.
const (
	TriggerHotkey  = "hotkey"
	TriggerConsole = "console"
)

// Global hotkeys are only implemented on Windows; elsewhere stdin drives the
// toggle.
func defaultTrigger() string {
	if runtime.GOOS == "windows" {
		return TriggerHotkey
	}
	return TriggerConsole
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Backend:  BackendWhisper,
		Model:    string(DefaultModel),
		ModelDir: "models",
		Language: "en",
		TextPath: "text",

		OpenAIModel:    "whisper-1",
		RequestTimeout: 60,
		MaxRetry:       3,
		RetryBaseDelay: 0.5,
		EnableHTTP2:    true,
		VerifySSL:      true,
		Codec:          "pcm_s16le",
		Container:      "wav",
		BitRate:        128,

		Trigger: defaultTrigger(),
		Hotkey:  "ctrl+alt+space",

		SampleRate:      44100,
		Channels:        1,
		FramesPerBuffer: 1024,

		OutputDir:  "output",
		OutputFile: "audio.wav",

		Sounds:     true,
		StartSound: filepath.Join("assets", "recording.wav"),
		DoneSound:  filepath.Join("assets", "clipboard.wav"),

		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads a config file, picking the decoder from its extension. An empty
// path returns the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		if err := json.NewDecoder(f).Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// ApplyEnv overrides secrets and endpoints from the environment.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("VOICECLIP_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("VOICECLIP_API_ENDPOINT"); v != "" {
		cfg.APIEndpoint = v
	}
	if cfg.Token == "" && cfg.Backend == BackendOpenAI {
		cfg.Token = os.Getenv("OPENAI_API_KEY")
	}
}

// SaveDefault writes a default config to path in the format implied by its
// extension.
func SaveDefault(path string) error {
	cfg := DefaultConfig()
	var (
		b   []byte
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		b, err = yaml.Marshal(cfg)
	case ".toml":
		var sb strings.Builder
		err = toml.NewEncoder(&sb).Encode(cfg)
		b = []byte(sb.String())
	default:
		b, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Validate verifies config fields and returns an error if any value is invalid.
func Validate(cfg *Config) error {
	switch cfg.Backend {
	case BackendWhisper:
		if cfg.ModelPath == "" {
			if _, err := ParseModel(cfg.Model); err != nil {
				return err
			}
		}
	case BackendOpenAI:
		if cfg.OpenAIModel == "" {
			return fmt.Errorf("OPENAI_MODEL must be set for the openai backend")
		}
	case BackendHTTP:
		if cfg.APIEndpoint == "" {
			return fmt.Errorf("API_ENDPOINT must be set for the http backend")
		}
		if !allowedContainers[strings.ToLower(cfg.Container)] {
			return fmt.Errorf("invalid CONTAINER: %s (allowed: %s)", cfg.Container, keys(allowedContainers))
		}
		if _, ok := ffmpegCodecs[strings.ToLower(cfg.Codec)]; !ok {
			return fmt.Errorf("invalid CODEC: %s (allowed: %s)", cfg.Codec, keys(ffmpegCodecs))
		}
		if cfg.BitRate <= 0 {
			return fmt.Errorf("invalid BIT_RATE: %d (must be > 0)", cfg.BitRate)
		}
	default:
		return fmt.Errorf("invalid BACKEND: %q (allowed: whisper, openai, http)", cfg.Backend)
	}

	if cfg.Backend != BackendWhisper {
		if cfg.RequestTimeout <= 0 {
			return fmt.Errorf("invalid REQUEST_TIMEOUT: %d (must be > 0)", cfg.RequestTimeout)
		}
		if cfg.MaxRetry < 1 {
			return fmt.Errorf("invalid MAX_RETRY: %d (must be >= 1)", cfg.MaxRetry)
		}
		if cfg.RetryBaseDelay < 0 {
			return fmt.Errorf("invalid RETRY_BASE_DELAY: %v (must be >= 0)", cfg.RetryBaseDelay)
		}
	}
	if cfg.Threads < 0 {
		return fmt.Errorf("invalid THREADS: %d", cfg.Threads)
	}

	switch cfg.Trigger {
	case TriggerHotkey:
		if cfg.Hotkey == "" {
			return fmt.Errorf("HOTKEY must be set for the hotkey trigger")
		}
	case TriggerConsole:
	default:
		return fmt.Errorf("invalid TRIGGER: %q (allowed: hotkey, console)", cfg.Trigger)
	}

	if cfg.Channels < 1 || cfg.Channels > 8 {
		return fmt.Errorf("invalid CHANNELS: %d (allowed 1..8)", cfg.Channels)
	}
	if cfg.SampleRate <= 0 {
		return fmt.Errorf("invalid SAMPLE_RATE: %d (must be > 0)", cfg.SampleRate)
	}
	if cfg.FramesPerBuffer <= 0 {
		return fmt.Errorf("invalid FRAMES_PER_BUFFER: %d (must be > 0)", cfg.FramesPerBuffer)
	}
	if cfg.MaxRecordSeconds < 0 {
		return fmt.Errorf("invalid MAX_RECORD_SECONDS: %d (must be >= 0)", cfg.MaxRecordSeconds)
	}
	if cfg.OutputDir == "" || cfg.OutputFile == "" {
		return fmt.Errorf("OUTPUT_DIR and OUTPUT_FILE must not be empty")
	}
	if strings.ToLower(filepath.Ext(cfg.OutputFile)) != ".wav" {
		return fmt.Errorf("invalid OUTPUT_FILE: %s (must end in .wav)", cfg.OutputFile)
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL: %q (allowed: debug, info, warn, error)", cfg.LogLevel)
	}
	switch strings.ToLower(cfg.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid LOG_FORMAT: %q (allowed: text, json)", cfg.LogFormat)
	}
	return nil
}

// MaxSamples converts MaxRecordSeconds into an accumulator cap.
func (c *Config) MaxSamples() int {
	return c.MaxRecordSeconds * c.SampleRate * c.Channels
}

// OutputPath is the fixed location the artifact of each session is written to.
func (c *Config) OutputPath() string {
	return filepath.Join(c.OutputDir, c.OutputFile)
}

// InitCacheDir validates/creates the configured cache directory.
// It mutates cfg.CacheDir to an absolute path or clears it on failure.
func InitCacheDir(cfg *Config) error {
	if cfg.CacheDir == "" {
		return nil
	}
	abs, err := filepath.Abs(cfg.CacheDir)
	if err != nil {
		cfg.CacheDir = ""
		return fmt.Errorf("cache dir path invalid: %w", err)
	}
	info, err := os.Stat(abs)
	switch {
	case err == nil && !info.IsDir():
		cfg.CacheDir = ""
		return fmt.Errorf("cache dir %s exists but is not a directory", abs)
	case os.IsNotExist(err):
		if err := os.MkdirAll(abs, 0o755); err != nil {
			cfg.CacheDir = ""
			return fmt.Errorf("cannot create cache dir %s: %w", abs, err)
		}
	case err != nil:
		cfg.CacheDir = ""
		return fmt.Errorf("cannot access cache dir %s: %w", abs, err)
	}
	cfg.CacheDir = abs
	return nil
}
