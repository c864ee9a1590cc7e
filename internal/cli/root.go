package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"voiceclip/internal/config"
	"voiceclip/internal/version"
)

const defaultConfigPath = "config.json"

// errDefaultWritten stops a command after a fresh default config was created.
var errDefaultWritten = errors.New("default config written")

type Dependencies struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	configPath string
	flags      *config.FlagValues
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "voiceclip",
		Short: "Record speech with a hotkey and copy the transcript to the clipboard",
		Long: "voiceclip records from the microphone between two presses of a global hotkey, " +
			"transcribes the recording with whisper.cpp, OpenAI or any HTTP ASR endpoint, " +
			"and places the text on the clipboard.",
		SilenceUsage: true,
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")
	rootCmd.SetIn(deps.Stdin)
	rootCmd.SetOut(deps.Stdout)
	rootCmd.SetErr(deps.Stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&deps.configPath, "config", "", "config file (.json, .yaml or .toml); defaults to ./config.json")
	deps.flags = config.BindFlags(pf)

	runCmd := NewRunCmd(deps)
	rootCmd.RunE = runCmd.RunE

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(NewFileCmd(deps))
	rootCmd.AddCommand(NewDevicesCmd(deps))
	rootCmd.AddCommand(NewModelsCmd(deps))
	rootCmd.AddCommand(NewInitCmd(deps))

	return rootCmd
}

// loadConfig resolves the config: --config, then ./config.json, then the
// defaults. With createDefault and neither file nor flags present, a default
// config.json is written and errDefaultWritten returned so the user can edit
// it first.
func loadConfig(deps *Dependencies, createDefault bool) (config.Config, error) {
	path := deps.configPath
	if path == "" {
		switch _, err := os.Stat(defaultConfigPath); {
		case err == nil:
			path = defaultConfigPath
		case !os.IsNotExist(err):
			return config.Config{}, fmt.Errorf("stat %s: %w", defaultConfigPath, err)
		case createDefault && !deps.flags.AnySet():
			if err := config.SaveDefault(defaultConfigPath); err != nil {
				return config.Config{}, fmt.Errorf("create default config: %w", err)
			}
			fmt.Fprintf(deps.Stdout, "Created default %s; edit it and run again.\n", defaultConfigPath)
			return config.Config{}, errDefaultWritten
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	deps.flags.ApplyFlags(&cfg)
	config.ApplyEnv(&cfg)
	if err := config.Validate(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.LogFormat) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
