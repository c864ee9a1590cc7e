package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// FlagValues holds flag targets and remembers which config field each flag
// overrides, so only flags the user actually set replace file values.
type FlagValues struct {
	fs       *pflag.FlagSet
	values   Config
	bindings []binding
}

type binding struct {
	name string
	copy func(dst, src *Config)
}

// boolFlag accepts yes/no/y/n/1/0 in addition to true/false.
type boolFlag struct {
	target *bool
}

func (b *boolFlag) String() string {
	if b == nil || b.target == nil {
		return ""
	}
	return strconv.FormatBool(*b.target)
}

func (b *boolFlag) Type() string { return "bool" }

func (b *boolFlag) Set(v string) error {
	n, err := parseBoolExt(v)
	if err != nil {
		return err
	}
	*b.target = n
	return nil
}

func parseBoolExt(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y":
		return true, nil
	case "0", "false", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean: %s", v)
}

func (fv *FlagValues) str(name, usage string, field func(*Config) *string) {
	fv.fs.StringVar(field(&fv.values), name, "", usage)
	fv.bindings = append(fv.bindings, binding{name, func(dst, src *Config) { *field(dst) = *field(src) }})
}

func (fv *FlagValues) integer(name, usage string, field func(*Config) *int) {
	fv.fs.IntVar(field(&fv.values), name, 0, usage)
	fv.bindings = append(fv.bindings, binding{name, func(dst, src *Config) { *field(dst) = *field(src) }})
}

func (fv *FlagValues) float(name, usage string, field func(*Config) *float64) {
	fv.fs.Float64Var(field(&fv.values), name, 0, usage)
	fv.bindings = append(fv.bindings, binding{name, func(dst, src *Config) { *field(dst) = *field(src) }})
}

func (fv *FlagValues) boolean(name, usage string, field func(*Config) *bool) {
	f := fv.fs.VarPF(&boolFlag{target: field(&fv.values)}, name, "", usage)
	f.NoOptDefVal = "true"
	fv.bindings = append(fv.bindings, binding{name, func(dst, src *Config) { *field(dst) = *field(src) }})
}

// BindFlags registers one flag per config field on fs.
func BindFlags(fs *pflag.FlagSet) *FlagValues {
	fv := &FlagValues{fs: fs}

	fv.str("backend", "transcription backend: whisper, openai, http", func(c *Config) *string { return &c.Backend })
	fv.str("model", "whisper model preset, see the models command", func(c *Config) *string { return &c.Model })
	fv.str("model-dir", "directory holding ggml model files", func(c *Config) *string { return &c.ModelDir })
	fv.str("model-path", "explicit ggml model file, overrides --model", func(c *Config) *string { return &c.ModelPath })
	fv.str("language", "spoken language (e.g. en)", func(c *Config) *string { return &c.Language })
	fv.str("prompt", "initial prompt passed to the model", func(c *Config) *string { return &c.Prompt })
	fv.integer("threads", "whisper inference threads, 0 for default", func(c *Config) *int { return &c.Threads })

	fv.str("api-endpoint", "ASR endpoint URL (http backend) or OpenAI base URL", func(c *Config) *string { return &c.APIEndpoint })
	fv.str("token", "authorization token (Bearer)", func(c *Config) *string { return &c.Token })
	fv.str("openai-model", "OpenAI transcription model", func(c *Config) *string { return &c.OpenAIModel })
	fv.str("text-path", "JSON path to extract text from the ASR response", func(c *Config) *string { return &c.TextPath })
	fv.str("extra-config", "extra JSON object merged into the upload form", func(c *Config) *string { return &c.ExtraConfig })
	fv.integer("request-timeout", "request timeout seconds", func(c *Config) *int { return &c.RequestTimeout })
	fv.integer("max-retry", "max upload attempts", func(c *Config) *int { return &c.MaxRetry })
	fv.float("retry-base-delay", "retry base delay seconds", func(c *Config) *float64 { return &c.RetryBaseDelay })
	fv.boolean("enable-http2", "enable HTTP/2", func(c *Config) *bool { return &c.EnableHTTP2 })
	fv.boolean("verify-ssl", "verify TLS certificates", func(c *Config) *bool { return &c.VerifySSL })
	fv.str("codec", "upload codec for the http backend (e.g. opus, flac)", func(c *Config) *string { return &c.Codec })
	fv.str("container", "upload container for the http backend (e.g. wav, ogg)", func(c *Config) *string { return &c.Container })
	fv.integer("bit-rate", "upload bit rate (kbps)", func(c *Config) *int { return &c.BitRate })

	fv.str("trigger", "trigger source: hotkey, console", func(c *Config) *string { return &c.Trigger })
	fv.str("hotkey", "start/stop hotkey", func(c *Config) *string { return &c.Hotkey })
	fv.str("cancel-key", "hotkey that discards the current recording", func(c *Config) *string { return &c.CancelKey })
	fv.boolean("hotkeyhook", "use a low-level keyboard hook", func(c *Config) *bool { return &c.HotKeyHook })

	fv.str("device", "input device name (substring match)", func(c *Config) *string { return &c.Device })
	fv.integer("sample-rate", "capture sample rate (Hz)", func(c *Config) *int { return &c.SampleRate })
	fv.integer("channels", "capture channels", func(c *Config) *int { return &c.Channels })
	fv.integer("frames-per-buffer", "capture callback buffer length", func(c *Config) *int { return &c.FramesPerBuffer })
	fv.integer("max-record-seconds", "recording length cap, 0 for none", func(c *Config) *int { return &c.MaxRecordSeconds })

	fv.str("output-dir", "directory for the recorded wav", func(c *Config) *string { return &c.OutputDir })
	fv.str("output-file", "file name of the recorded wav", func(c *Config) *string { return &c.OutputFile })
	fv.str("cache-dir", "cache directory", func(c *Config) *string { return &c.CacheDir })
	fv.boolean("keep-cache", "keep recordings and transcripts in --cache-dir", func(c *Config) *bool { return &c.KeepCache })

	fv.boolean("background", "transcribe in the background after stopping", func(c *Config) *bool { return &c.BackgroundProcessing })
	fv.boolean("auto-paste", "paste the transcript into the focused window", func(c *Config) *bool { return &c.AutoPaste })
	fv.boolean("notification", "enable desktop notifications", func(c *Config) *bool { return &c.Notification })
	fv.boolean("sounds", "play start and done cues", func(c *Config) *bool { return &c.Sounds })
	fv.str("start-sound", "wav played when recording starts", func(c *Config) *string { return &c.StartSound })
	fv.str("done-sound", "wav played when the transcript is copied", func(c *Config) *string { return &c.DoneSound })

	fv.str("metrics-addr", "serve prometheus metrics on this address", func(c *Config) *string { return &c.MetricsAddr })
	fv.str("log-level", "debug, info, warn, error", func(c *Config) *string { return &c.LogLevel })
	fv.str("log-format", "text or json", func(c *Config) *string { return &c.LogFormat })

	return fv
}

// ApplyFlags copies every explicitly set flag into cfg.
func (fv *FlagValues) ApplyFlags(cfg *Config) {
	for _, b := range fv.bindings {
		if fv.fs.Changed(b.name) {
			b.copy(cfg, &fv.values)
		}
	}
}

// AnySet reports whether any config flag was explicitly set by the user.
func (fv *FlagValues) AnySet() bool {
	for _, b := range fv.bindings {
		if fv.fs.Changed(b.name) {
			return true
		}
	}
	return false
}
