// Package session implements the toggle state machine that drives one
// recording at a time through capture, persistence, transcription and the
// clipboard.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"voiceclip/internal/asr"
	"voiceclip/internal/audio"
	"voiceclip/internal/metrics"
	"voiceclip/internal/notify"
	"voiceclip/internal/record"
)

var (
	// ErrBusy is returned for a toggle that arrives while another toggle or
	// a background pipeline is still running.
	ErrBusy = errors.New("session busy")
	// ErrTranscriptionFailed wraps backend errors and empty transcripts.
	ErrTranscriptionFailed = errors.New("transcription failed")
	// ErrClipboardUnavailable wraps clipboard write errors.
	ErrClipboardUnavailable = errors.New("clipboard unavailable")
)

// State is the controller's position in the toggle cycle.
type State int

const (
	Idle State = iota
	Recording
	Processing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Capture records audio between Start and Stop. Start calls ready once the
// input device is open and before any audio is captured.
type Capture interface {
	Start(ctx context.Context, ready func()) error
	Stop() (*audio.Artifact, error)
	Cancel() error
	Dropped() int
}

// Clipboard receives finished transcripts.
type Clipboard interface {
	Copy(text string) error
	Paste() error
}

// Options configures a Controller.
type Options struct {
	// OutputPath is where every session's WAV is written, replacing the last.
	OutputPath string
	// CacheDir receives timestamped copies of each WAV and transcript when
	// KeepCache is set.
	CacheDir  string
	KeepCache bool
	// Background returns from the stopping toggle once the WAV is written and
	// finishes transcription on its own goroutine.
	Background bool
	AutoPaste  bool
}

// Controller owns the session state. All methods are safe for concurrent use.
type Controller struct {
	capture  Capture
	tr       asr.Transcriber
	clip     Clipboard
	notifier notify.Notifier
	metrics  *metrics.Metrics
	opts     Options
	logger   *slog.Logger
	now      func() time.Time

	// sem admits one transition at a time; holders of sem may change state.
	sem *semaphore.Weighted
	wg  sync.WaitGroup

	mu        sync.Mutex
	state     State
	id        string
	startedAt time.Time
}

// New wires a controller. A nil notifier or metrics disables them.
func New(capture Capture, tr asr.Transcriber, clip Clipboard, n notify.Notifier, m *metrics.Metrics, opts Options, logger *slog.Logger) *Controller {
	if n == nil {
		n = notify.Nop{}
	}
	if m == nil {
		m = metrics.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		capture:  capture,
		tr:       tr,
		clip:     clip,
		notifier: n,
		metrics:  m,
		opts:     opts,
		logger:   logger.With("component", "session"),
		now:      time.Now,
		sem:      semaphore.NewWeighted(1),
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()
	c.logger.Debug("state change", "from", prev, "to", s, "session", c.sessionID())
}

func (c *Controller) sessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Toggle starts a recording when idle and finishes it when recording. In
// blocking mode the stopping toggle returns after the transcript reaches the
// clipboard; ctx bounds transcription in either mode.
func (c *Controller) Toggle(ctx context.Context) error {
	if !c.sem.TryAcquire(1) {
		c.metrics.TogglesRejected.Inc()
		c.logger.Info("toggle ignored, previous session still running", "state", c.State())
		return ErrBusy
	}
	held := true
	defer func() {
		if held {
			c.sem.Release(1)
		}
	}()

	switch c.State() {
	case Idle:
		return c.start(ctx)
	case Recording:
		path, err := c.stop()
		if err != nil {
			return err
		}
		if !c.opts.Background {
			return c.process(ctx, path)
		}
		held = false
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			defer c.sem.Release(1)
			if err := c.process(ctx, path); err != nil {
				c.logger.Error("background processing failed", "error", err)
			}
		}()
		return nil
	default:
		return ErrBusy
	}
}

// Cancel discards an in-flight recording without transcribing it. It is a
// no-op when idle.
func (c *Controller) Cancel() error {
	if !c.sem.TryAcquire(1) {
		return ErrBusy
	}
	defer c.sem.Release(1)

	if c.State() != Recording {
		return nil
	}
	err := c.capture.Cancel()
	c.setState(Idle)
	c.metrics.SessionsCancelled.Inc()
	c.logger.Info("recording cancelled", "session", c.sessionID())
	return err
}

// Wait blocks until a background pipeline, if any, has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) start(ctx context.Context) error {
	c.mu.Lock()
	c.id = uuid.NewString()
	c.startedAt = c.now()
	c.mu.Unlock()
	c.setState(Recording)

	// The start cue finishes before the stream runs so it is not recorded.
	if err := c.capture.Start(ctx, c.notifier.RecordingStarted); err != nil {
		c.setState(Idle)
		c.metrics.Failure(metrics.KindDevice)
		c.notifier.Failed(err.Error())
		return err
	}
	c.metrics.SessionsStarted.Inc()
	c.logger.Info("recording started", "session", c.sessionID())
	return nil
}

// stop finishes capture and persists the artifact. On error the controller
// is back in Idle.
func (c *Controller) stop() (string, error) {
	c.setState(Processing)

	art, err := c.capture.Stop()
	if dropped := c.capture.Dropped(); dropped > 0 {
		c.metrics.FramesDropped.Add(float64(dropped))
		c.logger.Warn("frames dropped past recording cap", "dropped", dropped)
	}
	if err != nil {
		c.setState(Idle)
		if errors.Is(err, record.ErrNoAudioCaptured) {
			c.metrics.Failure(metrics.KindNoAudio)
		}
		c.notifier.Failed(err.Error())
		return "", err
	}
	c.metrics.RecordingDuration.Observe(art.Duration().Seconds())

	if err := audio.WriteWAV(c.opts.OutputPath, art); err != nil {
		c.setState(Idle)
		c.metrics.Failure(metrics.KindPersist)
		c.notifier.Failed(err.Error())
		return "", fmt.Errorf("persist recording: %w", err)
	}
	c.logger.Info("recording saved",
		"session", c.sessionID(),
		"path", c.opts.OutputPath,
		"duration", art.Duration().Round(time.Millisecond),
		"samples", len(art.Samples))
	return c.opts.OutputPath, nil
}

// process transcribes the WAV at path and copies the text. The controller
// returns to Idle when it finishes, whatever the outcome.
func (c *Controller) process(ctx context.Context, path string) error {
	defer c.setState(Idle)
	id := c.sessionID()

	start := time.Now()
	res, err := c.tr.Transcribe(ctx, path)
	c.metrics.TranscriptionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.Failure(metrics.KindTranscription)
		c.notifier.Failed(err.Error())
		return fmt.Errorf("%w: %w", ErrTranscriptionFailed, err)
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		c.metrics.Failure(metrics.KindEmptyText)
		c.notifier.Failed("no speech recognised")
		return fmt.Errorf("%w: empty transcript", ErrTranscriptionFailed)
	}
	c.logger.Info("transcribed", "session", id, "elapsed", time.Since(start).Round(time.Millisecond), "text", text)

	if c.opts.KeepCache && c.opts.CacheDir != "" {
		if err := keepCopy(c.opts.CacheDir, c.now(), path, text, res.Raw); err != nil {
			c.logger.Warn("cache copy failed", "session", id, "error", err)
		}
	}

	if err := c.clip.Copy(text); err != nil {
		c.metrics.Failure(metrics.KindClipboard)
		c.notifier.Failed(err.Error())
		return fmt.Errorf("%w: %w", ErrClipboardUnavailable, err)
	}
	c.notifier.Copied(text)
	if c.opts.AutoPaste {
		if err := c.clip.Paste(); err != nil {
			c.logger.Warn("auto paste failed", "session", id, "error", err)
		}
	}
	c.metrics.SessionsCompleted.Inc()
	c.logger.Info("copied to clipboard", "session", id, "chars", len([]rune(text)))
	return nil
}
