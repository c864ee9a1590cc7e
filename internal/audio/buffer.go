// Package audio holds the in-memory representation of a recording: the
// frames delivered by a capture backend, the accumulator that collects them,
// and the finalised 16-bit PCM artifact written to disk.
package audio

import (
	"sync"
	"time"
)

// Frame is one chunk of interleaved float samples in [-1.0, 1.0] as delivered
// by a single capture callback. A Frame is never mutated after construction.
type Frame struct {
	Samples  []float32
	Channels int
	At       time.Time
}

// NewFrame copies buf into a new Frame. Capture backends reuse their callback
// buffers, so the copy must happen before the callback returns.
func NewFrame(buf []float32, channels int) Frame {
	s := make([]float32, len(buf))
	copy(s, buf)
	return Frame{Samples: s, Channels: channels, At: time.Now()}
}

// Accumulator collects frames in arrival order. Append may be called from a
// backend thread while the owner drains from another goroutine.
type Accumulator struct {
	mu         sync.Mutex
	frames     []Frame
	samples    int
	dropped    int
	maxSamples int
}

// NewAccumulator returns an empty accumulator. maxSamples caps the total
// number of buffered samples; frames that would exceed it are dropped and
// counted. Zero means unbounded.
func NewAccumulator(maxSamples int) *Accumulator {
	return &Accumulator{maxSamples: maxSamples}
}

// Append adds f to the end of the sequence.
func (a *Accumulator) Append(f Frame) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.maxSamples > 0 && a.samples+len(f.Samples) > a.maxSamples {
		a.dropped++
		return
	}
	a.frames = append(a.frames, f)
	a.samples += len(f.Samples)
}

// DrainAll removes and returns every stored frame, leaving the accumulator
// empty. The dropped-frame counter is reset as well.
func (a *Accumulator) DrainAll() []Frame {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.frames
	a.frames = nil
	a.samples = 0
	a.dropped = 0
	return out
}

// Len returns the number of buffered frames.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.frames)
}

// Samples returns the number of buffered samples across all frames.
func (a *Accumulator) Samples() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.samples
}

// Dropped returns how many frames were rejected by the cap since the last drain.
func (a *Accumulator) Dropped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}
