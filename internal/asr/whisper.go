package asr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"voiceclip/internal/audio"
)

// Whisper transcribes with a whisper.cpp model loaded once at construction.
type Whisper struct {
	model    whisperlib.Model
	language string
	prompt   string
	threads  int
	logger   *slog.Logger

	// whisper.cpp saturates the CPU on its own; one inference at a time.
	mu sync.Mutex
}

// WhisperOption configures a Whisper backend.
type WhisperOption func(*Whisper)

// WithLanguage sets the spoken language, or "auto" to detect it.
func WithLanguage(lang string) WhisperOption {
	return func(w *Whisper) {
		if lang != "" {
			w.language = lang
		}
	}
}

// WithPrompt sets the initial prompt used to bias decoding.
func WithPrompt(prompt string) WhisperOption {
	return func(w *Whisper) { w.prompt = prompt }
}

// WithThreads sets the inference thread count. Zero keeps the library default.
func WithThreads(n int) WhisperOption {
	return func(w *Whisper) { w.threads = n }
}

func WithLogger(logger *slog.Logger) WhisperOption {
	return func(w *Whisper) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWhisper loads the model at modelPath. Call Close when done.
func NewWhisper(modelPath string, opts ...WhisperOption) (*Whisper, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: model path must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}
	w := &Whisper{model: model, language: "en", logger: slog.Default()}
	for _, o := range opts {
		o(w)
	}
	return w, nil
}

// Close releases the model.
func (w *Whisper) Close() error {
	if w.model != nil {
		return w.model.Close()
	}
	return nil
}

// Transcribe decodes the WAV at path, converts it to 16 kHz mono and runs a
// full inference over it.
func (w *Whisper) Transcribe(ctx context.Context, path string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	art, err := audio.ReadWAV(path)
	if err != nil {
		return Result{}, err
	}
	samples := audio.Resample(audio.MonoFloat32(art.Samples, art.Channels), art.SampleRate, audio.WhisperSampleRate)
	if len(samples) == 0 {
		return Result{}, errors.New("whisper: no samples to transcribe")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	text, err := w.infer(samples)
	if err != nil {
		return Result{}, err
	}
	elapsed := time.Since(start)
	w.logger.Debug("inference done", "samples", len(samples), "elapsed", elapsed)
	return Result{Text: text, Elapsed: elapsed}, nil
}

func (w *Whisper) infer(samples []float32) (string, error) {
	wctx, err := w.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper: create context: %w", err)
	}
	if err := wctx.SetLanguage(w.language); err != nil {
		w.logger.Warn("failed to set language, using default", "language", w.language, "error", err)
	}
	if w.threads > 0 {
		wctx.SetThreads(uint(w.threads))
	}
	if w.prompt != "" {
		wctx.SetInitialPrompt(w.prompt)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper: read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

var _ Transcriber = (*Whisper)(nil)
