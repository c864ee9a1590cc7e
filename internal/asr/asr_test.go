package asr

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"voiceclip/internal/config"
)

func writeTempAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(path, []byte("RIFF....WAVE"), 0o644); err != nil {
		t.Fatalf("write temp audio: %v", err)
	}
	return path
}

func httpConfig(endpoint string) config.Config {
	cfg := config.DefaultConfig()
	cfg.Backend = config.BackendHTTP
	cfg.APIEndpoint = endpoint
	cfg.MaxRetry = 3
	cfg.RetryBaseDelay = 0
	cfg.RequestTimeout = 5
	return cfg
}

func TestHTTPRetryExhaustion(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	cli, err := NewHTTP(httpConfig(srv.URL), srv.Client(), nil)
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}
	_, err = cli.Transcribe(context.Background(), writeTempAudio(t))
	var re *RetryExhaustedError
	if !errors.As(err, &re) {
		t.Fatalf("expected RetryExhaustedError, got %v", err)
	}
	if re.Attempts != 3 || re.MaxRetry != 3 {
		t.Fatalf("unexpected attempts: %+v", re)
	}
	if string(re.LastResponse) != "boom" {
		t.Fatalf("last response = %q", re.LastResponse)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("server saw %d calls, want 3", got)
	}
}

func TestHTTPSuccessAfterRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("temperature"); got != "0" {
			t.Errorf("temperature = %q, want 0", got)
		}
		if got := r.FormValue("language"); got != "en" {
			t.Errorf("language = %q, want en", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization = %q", got)
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			b, _ := io.ReadAll(f)
			if string(b) != "RIFF....WAVE" {
				t.Errorf("uploaded body = %q", b)
			}
		}
		_, _ = w.Write([]byte(`{"result":{"text":"hello world"}}`))
	}))
	defer srv.Close()

	cfg := httpConfig(srv.URL)
	cfg.Token = "secret"
	cfg.TextPath = "result.text"
	cfg.ExtraConfig = `{"temperature":0}`
	cli, err := NewHTTP(cfg, srv.Client(), nil)
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}
	res, err := cli.Transcribe(context.Background(), writeTempAudio(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Text != "hello world" {
		t.Fatalf("text = %q", res.Text)
	}
}

func TestHTTPRejectsBadExtraConfig(t *testing.T) {
	cfg := httpConfig("http://127.0.0.1:1")
	cfg.ExtraConfig = "{"
	if _, err := NewHTTP(cfg, nil, nil); err == nil {
		t.Fatal("expected error for invalid extra config")
	}
}

func TestHTTPContextCancelStopsRetrying(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := httpConfig(srv.URL)
	cfg.RetryBaseDelay = 10
	cli, err := NewHTTP(cfg, srv.Client(), nil)
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := cli.Transcribe(ctx, writeTempAudio(t)); err == nil {
		t.Fatal("expected error with cancelled context")
	}
}

func TestFormatResponse(t *testing.T) {
	if got := formatResponse(nil); got != "<empty>" {
		t.Fatalf("empty = %q", got)
	}
	if got := formatResponse([]byte{0xff, 0xfe}); got != "<binary 2 bytes, hex: fffe>" {
		t.Fatalf("binary = %q", got)
	}
}

func TestOpenAITranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":" hi there "}`))
	}))
	defer srv.Close()

	o, err := NewOpenAI("sk-test", "whisper-1", WithBaseURL(srv.URL+"/"), WithOpenAILanguage("en"))
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	res, err := o.Transcribe(context.Background(), writeTempAudio(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Text != "hi there" {
		t.Fatalf("text = %q", res.Text)
	}
}

func TestOpenAIRequiresKey(t *testing.T) {
	if _, err := NewOpenAI("", "whisper-1"); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, err := NewOpenAI("k", ""); err == nil {
		t.Fatal("expected error for empty model")
	}
}

func TestWhisperMissingModel(t *testing.T) {
	if _, err := NewWhisper(""); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := NewWhisper(filepath.Join(t.TempDir(), "missing.bin")); err == nil {
		t.Fatal("expected error for missing model")
	}
}

func TestNewSelectsBackend(t *testing.T) {
	cfg := httpConfig("http://127.0.0.1:1")
	tr, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := tr.(*HTTPClient); !ok {
		t.Fatalf("got %T, want *HTTPClient", tr)
	}

	cfg.Backend = "bogus"
	if _, err := New(cfg, nil); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
