package asr

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/net/http2"

	"voiceclip/internal/audio/ffmpeg"
	"voiceclip/internal/config"
	"voiceclip/internal/jsonpath"
)

// RetryExhaustedError is returned when every upload attempt failed.
type RetryExhaustedError struct {
	Attempts int
	MaxRetry int
	// LastResponse is the body (or error text) of the final attempt.
	LastResponse []byte
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("exceeded max retries (%d/%d): %s", e.Attempts, e.MaxRetry, formatResponse(e.LastResponse))
}

// HTTPClient uploads audio as multipart form data to a generic ASR endpoint
// and extracts the transcript from the JSON response.
type HTTPClient struct {
	cfg         config.Config
	httpClient  *http.Client
	extraFields map[string]any
	logger      *slog.Logger
}

// NewHTTPClient builds the shared transport used for uploads.
func NewHTTPClient(cfg config.Config) *http.Client {
	tr := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if !cfg.VerifySSL {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if cfg.EnableHTTP2 {
		_ = http2.ConfigureTransport(tr)
	}
	return &http.Client{
		Transport: tr,
		Timeout:   time.Duration(cfg.RequestTimeout) * time.Second,
	}
}

// NewHTTP creates a new HTTP ASR client and parses ExtraConfig.
func NewHTTP(cfg config.Config, httpClient *http.Client, logger *slog.Logger) (*HTTPClient, error) {
	if cfg.APIEndpoint == "" {
		return nil, fmt.Errorf("API endpoint is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &HTTPClient{cfg: cfg, httpClient: httpClient, logger: logger}
	if cfg.ExtraConfig != "" {
		if err := json.Unmarshal([]byte(cfg.ExtraConfig), &c.extraFields); err != nil {
			return nil, fmt.Errorf("invalid extra-config JSON: %w", err)
		}
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: time.Duration(cfg.RequestTimeout) * time.Second}
	}
	return c, nil
}

// Transcribe uploads the audio with exponential backoff and returns the text
// found at TEXT_PATH. Non-WAV containers are produced with ffmpeg first.
func (c *HTTPClient) Transcribe(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	upload := path
	if ext := config.ContainerExt(c.cfg.Container); ext != "wav" {
		upload = filepath.Join(filepath.Dir(path), "upload_"+strings.ReplaceAll(uuid.NewString(), "-", "")[:16]+"."+ext)
		if err := ffmpeg.Convert(ctx, c.cfg, path, upload); err != nil {
			_ = os.Remove(upload)
			return Result{}, err
		}
		defer os.Remove(upload)
	}

	delay := time.Duration(c.cfg.RetryBaseDelay * float64(time.Second))
	var last []byte
	for attempt := 1; ; attempt++ {
		ok, body := c.doUpload(ctx, upload)
		last = body
		if ok {
			text, err := jsonpath.Extract(body, c.cfg.TextPath)
			if err != nil {
				return Result{Raw: body}, err
			}
			return Result{Text: text, Raw: body, Elapsed: time.Since(start)}, nil
		}
		c.logger.Debug("upload attempt failed", "attempt", attempt, "response", formatResponse(body))
		if attempt >= c.cfg.MaxRetry {
			return Result{Raw: last}, &RetryExhaustedError{Attempts: attempt, MaxRetry: c.cfg.MaxRetry, LastResponse: last}
		}
		select {
		case <-ctx.Done():
			return Result{Raw: last}, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func (c *HTTPClient) doUpload(ctx context.Context, filePath string) (bool, []byte) {
	c.logger.Debug("uploading", "file", filePath, "endpoint", c.cfg.APIEndpoint)
	f, err := os.Open(filePath)
	if err != nil {
		return false, []byte(fmt.Sprintf("open file error: %v", err))
	}
	defer f.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return false, []byte(fmt.Sprintf("create form file error: %v", err))
	}
	if _, err := io.Copy(part, f); err != nil {
		return false, []byte(fmt.Sprintf("copy file error: %v", err))
	}

	fields := make(map[string]any)
	if c.cfg.Language != "" && c.cfg.Language != "auto" {
		fields["language"] = c.cfg.Language
	}
	if c.cfg.Prompt != "" {
		fields["prompt"] = c.cfg.Prompt
	}
	for k, v := range c.extraFields {
		fields[k] = v
	}
	for k, v := range fields {
		switch val := v.(type) {
		case string:
			_ = writer.WriteField(k, val)
		case bool, float64:
			_ = writer.WriteField(k, fmt.Sprint(val))
		default:
			if b, err := json.Marshal(val); err == nil {
				_ = writer.WriteField(k, string(b))
			} else {
				_ = writer.WriteField(k, fmt.Sprint(val))
			}
		}
	}
	_ = writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIEndpoint, body)
	if err != nil {
		return false, []byte(fmt.Sprintf("new request error: %v", err))
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	req.Header.Set("User-Agent", "voiceclip/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.logger.Debug("request finished", "duration", time.Since(start))
	if err != nil {
		return false, []byte(fmt.Sprintf("request error: %v", err))
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	return resp.StatusCode == http.StatusOK, respBody
}

func formatResponse(b []byte) string {
	if len(b) == 0 {
		return "<empty>"
	}
	const maxText = 1000
	const maxBin = 256

	if utf8.Valid(b) {
		if len(b) > maxText {
			return fmt.Sprintf("%s... (truncated, total %d bytes)", b[:maxText], len(b))
		}
		return string(b)
	}
	if len(b) > maxBin {
		return fmt.Sprintf("<binary %d bytes, prefix hex: %s...>", len(b), hex.EncodeToString(b[:maxBin]))
	}
	return fmt.Sprintf("<binary %d bytes, hex: %s>", len(b), hex.EncodeToString(b))
}
