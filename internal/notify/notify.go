// Package notify gives audible and visual feedback for session events.
// Feedback is cosmetic: failures are logged and never returned.
package notify

import (
	"log/slog"
	"sync"

	"github.com/gen2brain/beeep"
)

const appName = "voiceclip"

// Notifier receives session events.
type Notifier interface {
	RecordingStarted()
	Copied(text string)
	Failed(msg string)
}

// Player plays a WAV file to completion.
type Player interface {
	Play(path string) error
}

// Options selects which kinds of feedback are given.
type Options struct {
	Sounds     bool
	StartSound string
	DoneSound  string
	// Desktop enables desktop notifications.
	Desktop bool
}

// Desktop plays cues and shows desktop notifications.
type Desktop struct {
	opts   Options
	player Player
	logger *slog.Logger

	// Cues are played one at a time; a new cue waits for the previous one.
	mu sync.Mutex
	wg sync.WaitGroup
}

// New returns a Desktop notifier. A nil player uses the portaudio player.
func New(opts Options, player Player, logger *slog.Logger) *Desktop {
	if player == nil {
		player = PortAudioPlayer{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Desktop{opts: opts, player: player, logger: logger.With("component", "notify")}
}

// RecordingStarted plays the start cue and returns once it has finished, so
// the cue is never picked up by a microphone opened afterwards.
func (d *Desktop) RecordingStarted() {
	if d.opts.Sounds {
		d.play(d.opts.StartSound)
	}
}

func (d *Desktop) Copied(text string) {
	d.cue(d.opts.DoneSound)
	if d.opts.Desktop {
		d.show("Copied to clipboard", preview(text, 120))
	}
}

func (d *Desktop) Failed(msg string) {
	if d.opts.Desktop {
		d.show("Transcription failed", msg)
	}
}

// Wait blocks until queued cues have finished playing.
func (d *Desktop) Wait() {
	d.wg.Wait()
}

func (d *Desktop) cue(path string) {
	if !d.opts.Sounds {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.play(path)
	}()
}

func (d *Desktop) play(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if path != "" {
		err := d.player.Play(path)
		if err == nil {
			return
		}
		d.logger.Debug("cue playback failed, beeping instead", "path", path, "error", err)
	}
	if err := beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration); err != nil {
		d.logger.Debug("beep failed", "error", err)
	}
}

func (d *Desktop) show(title, msg string) {
	if err := beeep.Notify(appName+": "+title, msg, ""); err != nil {
		d.logger.Debug("desktop notification failed", "error", err)
	}
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

// Nop ignores every event.
type Nop struct{}

func (Nop) RecordingStarted() {}
func (Nop) Copied(string)     {}
func (Nop) Failed(string)     {}

var (
	_ Notifier = (*Desktop)(nil)
	_ Notifier = Nop{}
)
