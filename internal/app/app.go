// Package app wires configuration into the running program: the trigger loop
// for record mode and the one-shot file mode.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"voiceclip/internal/asr"
	"voiceclip/internal/audio/ffmpeg"
	"voiceclip/internal/clipboard"
	"voiceclip/internal/config"
	"voiceclip/internal/metrics"
	"voiceclip/internal/notify"
	"voiceclip/internal/record"
	"voiceclip/internal/session"
	"voiceclip/internal/trigger"
)

// Temp files written next to the output WAV by earlier runs.
var tempPrefixes = []string{"upload_", "convert_"}

// RunRecordMode loads the backend, then toggles recordings from the
// configured trigger until ctx is cancelled.
func RunRecordMode(ctx context.Context, cfg config.Config, stdin io.Reader, logger *slog.Logger) error {
	cleanupOldTempFiles(cfg.OutputDir, logger)

	tr, err := asr.New(cfg, logger)
	if err != nil {
		return err
	}
	if c, ok := tr.(asr.Closer); ok {
		defer c.Close()
	}

	m := metrics.New()
	capture := record.New(&record.PortAudioSource{DeviceName: cfg.Device}, record.Options{
		SampleRate:      cfg.SampleRate,
		Channels:        cfg.Channels,
		FramesPerBuffer: cfg.FramesPerBuffer,
		MaxSamples:      cfg.MaxSamples(),
	}, logger)
	notifier := notify.New(notify.Options{
		Sounds:     cfg.Sounds,
		StartSound: cfg.StartSound,
		DoneSound:  cfg.DoneSound,
		Desktop:    cfg.Notification,
	}, nil, logger)
	ctrl := session.New(capture, tr, &clipboard.System{}, notifier, m, session.Options{
		OutputPath: cfg.OutputPath(),
		CacheDir:   cfg.CacheDir,
		KeepCache:  cfg.KeepCache,
		Background: cfg.BackgroundProcessing,
		AutoPaste:  cfg.AutoPaste,
	}, logger)

	src, hint := newSource(cfg, stdin, logger)

	g, gctx := errgroup.WithContext(ctx)
	var inflight sync.WaitGroup
	g.Go(func() error {
		logger.Info("ready", "backend", cfg.Backend, "trigger", cfg.Trigger, "hint", hint)
		err := src.Run(gctx, func(ev trigger.Event) {
			// The hotkey thread must keep pumping messages, so events never
			// run on the caller.
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				handleEvent(ctx, ctrl, ev, logger)
			}()
		})
		if errors.Is(err, io.EOF) {
			logger.Info("input closed, exiting")
			return errStopped
		}
		return err
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return m.Serve(gctx, cfg.MetricsAddr, logger)
		})
	}

	err = g.Wait()
	inflight.Wait()
	if ctrl.State() == session.Recording {
		_ = ctrl.Cancel()
	}
	ctrl.Wait()
	notifier.Wait()
	if errors.Is(err, errStopped) {
		return nil
	}
	return err
}

var errStopped = errors.New("trigger source stopped")

func newSource(cfg config.Config, stdin io.Reader, logger *slog.Logger) (trigger.Source, string) {
	if cfg.Trigger == config.TriggerConsole {
		return &trigger.Console{In: stdin}, "press Enter to start/stop recording, c+Enter to cancel"
	}
	hint := "press " + cfg.Hotkey + " to start/stop recording"
	if cfg.CancelKey != "" {
		hint += ", " + cfg.CancelKey + " to cancel"
	}
	return &trigger.Hotkey{
		Toggle: cfg.Hotkey,
		Cancel: cfg.CancelKey,
		Hook:   cfg.HotKeyHook,
		Logger: logger,
	}, hint
}

// handleEvent reports the outcome of one trigger. Nothing here is fatal.
func handleEvent(ctx context.Context, ctrl *session.Controller, ev trigger.Event, logger *slog.Logger) {
	var err error
	switch ev {
	case trigger.Toggle:
		err = ctrl.Toggle(ctx)
	case trigger.Cancel:
		err = ctrl.Cancel()
	}
	switch {
	case err == nil:
	case errors.Is(err, session.ErrBusy):
		logger.Debug("event ignored while busy", "event", ev)
	case errors.Is(err, record.ErrDeviceUnavailable):
		logger.Error("cannot open microphone; will retry on next trigger", "error", err)
	case errors.Is(err, record.ErrNoAudioCaptured):
		logger.Warn("nothing recorded", "error", err)
	case errors.Is(err, session.ErrClipboardUnavailable):
		logger.Error("transcript not copied", "error", err)
	default:
		logger.Error("session failed", "event", ev, "error", err)
	}
}

// RunFileMode transcribes an existing audio file and writes the text to
// outputPath, or next to the working directory as <name>.txt.
func RunFileMode(ctx context.Context, cfg config.Config, inputPath, outputPath string, logger *slog.Logger) error {
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("file '%s' stat failed: %w", inputPath, err)
	}

	tr, err := asr.New(cfg, logger)
	if err != nil {
		return err
	}
	if c, ok := tr.(asr.Closer); ok {
		defer c.Close()
	}

	src := inputPath
	if cfg.Backend == config.BackendWhisper && !strings.EqualFold(filepath.Ext(inputPath), ".wav") {
		wavCfg := cfg
		wavCfg.Codec = "pcm_s16le"
		tmp := tempPath(os.TempDir(), "convert_", "wav")
		if err := ffmpeg.Convert(ctx, wavCfg, inputPath, tmp); err != nil {
			_ = os.Remove(tmp)
			return err
		}
		defer os.Remove(tmp)
		src = tmp
	}

	res, err := tr.Transcribe(ctx, src)
	if err != nil {
		return err
	}

	outPath := outputPath
	if outPath == "" {
		base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		outPath = filepath.Join(".", base+".txt")
	}
	if err := os.WriteFile(outPath, []byte(strings.TrimSpace(res.Text)+"\n"), 0o644); err != nil {
		return err
	}
	logger.Info("transcript written", "path", outPath, "elapsed", res.Elapsed)

	if cfg.KeepCache && cfg.CacheDir != "" && len(res.Raw) > 0 {
		base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		jsonPath := filepath.Join(cfg.CacheDir, base+".json")
		if err := os.WriteFile(jsonPath, res.Raw, 0o644); err != nil {
			logger.Warn("failed to cache response", "path", jsonPath, "error", err)
		}
	}
	return nil
}

func cleanupOldTempFiles(dir string, logger *slog.Logger) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Debug("temp cleanup skipped", "dir", dir, "error", err)
		}
		return
	}
	for _, e := range entries {
		name := e.Name()
		for _, p := range tempPrefixes {
			if !strings.HasPrefix(name, p) {
				continue
			}
			path := filepath.Join(dir, name)
			if err := os.Remove(path); err != nil {
				logger.Warn("failed to remove temp file", "path", path, "error", err)
			} else {
				logger.Debug("removed temp file", "path", path)
			}
		}
	}
}

func tempPath(dir, prefix, ext string) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	return filepath.Join(dir, prefix+id+"."+ext)
}
