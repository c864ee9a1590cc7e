package asr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI transcribes through the OpenAI audio transcription API, or any
// server exposing the same route.
type OpenAI struct {
	client   oai.Client
	model    string
	language string
	prompt   string
}

type openAIConfig struct {
	baseURL  string
	timeout  time.Duration
	language string
	prompt   string
}

// OpenAIOption configures an OpenAI backend.
type OpenAIOption func(*openAIConfig)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) OpenAIOption {
	return func(c *openAIConfig) { c.baseURL = url }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) OpenAIOption {
	return func(c *openAIConfig) { c.timeout = d }
}

func WithOpenAILanguage(lang string) OpenAIOption {
	return func(c *openAIConfig) { c.language = lang }
}

func WithOpenAIPrompt(prompt string) OpenAIOption {
	return func(c *openAIConfig) { c.prompt = prompt }
}

// NewOpenAI constructs an OpenAI transcription backend.
func NewOpenAI(apiKey, model string, opts ...OpenAIOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key must not be empty")
	}
	if model == "" {
		return nil, errors.New("openai: model must not be empty")
	}
	cfg := &openAIConfig{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}

	lang := cfg.language
	if lang == "auto" {
		lang = ""
	}
	return &OpenAI{
		client:   oai.NewClient(reqOpts...),
		model:    model,
		language: lang,
		prompt:   cfg.prompt,
	}, nil
}

// Transcribe uploads the file at path and returns the transcript text.
func (o *OpenAI) Transcribe(ctx context.Context, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("openai: open audio: %w", err)
	}
	defer f.Close()

	params := oai.AudioTranscriptionNewParams{
		File:  f,
		Model: oai.AudioModel(o.model),
	}
	if o.language != "" {
		params.Language = oai.String(o.language)
	}
	if o.prompt != "" {
		params.Prompt = oai.String(o.prompt)
	}

	start := time.Now()
	resp, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return Result{}, fmt.Errorf("openai: transcribe: %w", err)
	}
	return Result{
		Text:    strings.TrimSpace(resp.Text),
		Raw:     []byte(resp.RawJSON()),
		Elapsed: time.Since(start),
	}, nil
}

var _ Transcriber = (*OpenAI)(nil)
