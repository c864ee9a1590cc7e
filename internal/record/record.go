// Package record owns the lifetime of one microphone recording: it opens the
// input stream, forwards every callback buffer into an audio.Accumulator, and
// turns the collected frames into an audio.Artifact when stopped.
package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"voiceclip/internal/audio"
)

const (
	// DefaultFramesPerBuffer is the per-callback buffer length requested from
	// the backend.
	DefaultFramesPerBuffer = 1024
	// DefaultPollInterval is how often the holding goroutine wakes while the
	// stream is open.
	DefaultPollInterval = 50 * time.Millisecond
)

var (
	// ErrDeviceUnavailable is returned by Start when no input stream could be
	// opened or started.
	ErrDeviceUnavailable = errors.New("audio input device unavailable")
	// ErrNoAudioCaptured is returned by Stop when the session produced no frames.
	ErrNoAudioCaptured = errors.New("no audio captured, check the input device")
	// ErrNotRecording is returned by Stop and Cancel when no session is active.
	ErrNotRecording = errors.New("recorder not running")
	// ErrAlreadyRecording is returned by Start while a session is active.
	ErrAlreadyRecording = errors.New("recorder not idle")
)

// StreamConfig describes the input stream a Source must open.
type StreamConfig struct {
	SampleRate      int
	Channels        int
	FramesPerBuffer int
}

// Stream is an opened input stream.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// Source opens input streams. onFrame is invoked from the backend's own thread
// with a buffer that is only valid for the duration of the call.
type Source interface {
	Open(cfg StreamConfig, onFrame func(in []float32)) (Stream, error)
}

// Options configures a Session.
type Options struct {
	SampleRate      int
	Channels        int
	FramesPerBuffer int
	PollInterval    time.Duration
	// MaxSamples caps buffered samples per session. Zero means unbounded.
	MaxSamples int
}

func (o *Options) withDefaults() {
	if o.SampleRate <= 0 {
		o.SampleRate = audio.DefaultSampleRate
	}
	if o.Channels <= 0 {
		o.Channels = 1
	}
	if o.FramesPerBuffer <= 0 {
		o.FramesPerBuffer = DefaultFramesPerBuffer
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
}

// Session records from a Source into an Accumulator. Only one recording can
// be active at a time.
type Session struct {
	mu        sync.Mutex
	src       Source
	opts      Options
	acc       *audio.Accumulator
	logger    *slog.Logger
	active    bool
	startedAt time.Time
	dropped   int
	cancel    context.CancelFunc
	done      chan error
}

// New creates a capture session reading from src.
func New(src Source, opts Options, logger *slog.Logger) *Session {
	opts.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		src:    src,
		opts:   opts,
		acc:    audio.NewAccumulator(opts.MaxSamples),
		logger: logger.With("component", "record"),
	}
}

// Start opens the input stream and begins accumulating frames. ready, when
// non-nil, runs after the device has been opened and before the stream
// delivers any audio; it is not called when the device cannot be opened.
func (s *Session) Start(ctx context.Context, ready func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return ErrAlreadyRecording
	}

	channels := s.opts.Channels
	stream, err := s.src.Open(StreamConfig{
		SampleRate:      s.opts.SampleRate,
		Channels:        channels,
		FramesPerBuffer: s.opts.FramesPerBuffer,
	}, func(in []float32) {
		s.acc.Append(audio.NewFrame(in, channels))
	})
	if err != nil {
		return fmt.Errorf("%w: open stream: %v", ErrDeviceUnavailable, err)
	}
	if ready != nil {
		ready()
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("%w: start stream: %v", ErrDeviceUnavailable, err)
	}

	holdCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan error, 1)
	s.active = true
	s.startedAt = time.Now()
	s.logger.Debug("stream started",
		"sample_rate", s.opts.SampleRate,
		"channels", channels,
		"frames_per_buffer", s.opts.FramesPerBuffer)

	go s.hold(holdCtx, stream, s.done)
	return nil
}

// hold keeps the stream open until ctx is cancelled, then tears it down.
// Closing the stream guarantees no further callbacks, so everything appended
// before done is signalled belongs to this session.
func (s *Session) hold(ctx context.Context, stream Stream, done chan<- error) {
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	warned := false
	for {
		select {
		case <-ctx.Done():
			done <- errors.Join(stream.Stop(), stream.Close())
			return
		case <-ticker.C:
			if !warned && s.acc.Dropped() > 0 {
				warned = true
				s.logger.Warn("recording cap reached, dropping audio", "max_samples", s.opts.MaxSamples)
			}
		}
	}
}

// Stop ends the recording, waits for the stream to close and returns the
// finalised artifact.
func (s *Session) Stop() (*audio.Artifact, error) {
	frames, err := s.finish()
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, ErrNoAudioCaptured
	}
	a := audio.Finalize(frames, s.opts.SampleRate, s.opts.Channels)
	s.logger.Debug("recording finalised", "frames", len(frames), "samples", len(a.Samples), "duration", a.Duration())
	return a, nil
}

// Cancel ends the recording and discards everything captured.
func (s *Session) Cancel() error {
	frames, err := s.finish()
	if err != nil {
		return err
	}
	s.logger.Debug("recording discarded", "frames", len(frames))
	return nil
}

func (s *Session) finish() ([]audio.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return nil, ErrNotRecording
	}
	s.cancel()
	if err := <-s.done; err != nil {
		s.logger.Warn("stream teardown failed", "error", err)
	}
	s.active = false
	s.cancel = nil
	s.done = nil
	s.dropped = s.acc.Dropped()
	return s.acc.DrainAll(), nil
}

// Active reports whether a recording is in progress.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// StartedAt returns when the current recording started.
func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

// Buffered returns the number of samples collected so far.
func (s *Session) Buffered() int {
	return s.acc.Samples()
}

// Dropped returns how many frames the cap rejected in the last finished
// session.
func (s *Session) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}
