// Package asr turns a recorded WAV file into text. Three backends are
// available: a local whisper.cpp model, the OpenAI transcription API, and a
// generic multipart HTTP endpoint.
package asr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"voiceclip/internal/config"
)

// Result is the outcome of one transcription.
type Result struct {
	Text string
	// Raw is the backend's raw response, when it has one.
	Raw []byte
	// Elapsed is the wall-clock time spent in the backend.
	Elapsed time.Duration
}

// Transcriber converts the WAV file at path into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (Result, error)
}

// Closer is implemented by backends holding native resources.
type Closer interface {
	Close() error
}

// New builds the backend selected by cfg.Backend. Loading a local model can
// take several seconds and fails fast when the model file is missing.
func New(cfg config.Config, logger *slog.Logger) (Transcriber, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "asr", "backend", cfg.Backend)

	switch cfg.Backend {
	case config.BackendWhisper:
		path, err := config.ResolveModelPath(&cfg)
		if err != nil {
			return nil, err
		}
		return NewWhisper(path,
			WithLanguage(cfg.Language),
			WithPrompt(cfg.Prompt),
			WithThreads(cfg.Threads),
			WithLogger(logger),
		)
	case config.BackendOpenAI:
		return NewOpenAI(cfg.Token, cfg.OpenAIModel,
			WithBaseURL(cfg.APIEndpoint),
			WithOpenAILanguage(cfg.Language),
			WithOpenAIPrompt(cfg.Prompt),
			WithTimeout(time.Duration(cfg.RequestTimeout)*time.Second),
		)
	case config.BackendHTTP:
		return NewHTTP(cfg, NewHTTPClient(cfg), logger)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
