package audio

import (
	"math"
	"time"
)

const (
	// DefaultSampleRate is the capture and artifact sample rate in Hz.
	DefaultSampleRate = 44100
	// BitDepth is the artifact sample width.
	BitDepth = 16
	// PCMScale maps a float amplitude of 1.0 to the int16 range. -1.0 maps to
	// -32767, never -32768.
	PCMScale = 32767
)

// Artifact is the finalised recording of one session.
type Artifact struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Duration returns the playback length of the artifact.
func (a *Artifact) Duration() time.Duration {
	if a == nil || a.SampleRate <= 0 || a.Channels <= 0 {
		return 0
	}
	perChannel := len(a.Samples) / a.Channels
	return time.Duration(perChannel) * time.Second / time.Duration(a.SampleRate)
}

// Finalize concatenates frames in the given order and rescales every sample
// with round(s * PCMScale). No reordering, padding or gap detection happens.
// Samples outside [-1, 1] are clamped first.
func Finalize(frames []Frame, sampleRate, channels int) *Artifact {
	total := 0
	for _, f := range frames {
		total += len(f.Samples)
	}
	out := make([]int16, 0, total)
	for _, f := range frames {
		for _, s := range f.Samples {
			out = append(out, ToPCM16(s))
		}
	}
	return &Artifact{Samples: out, SampleRate: sampleRate, Channels: channels}
}

// ToPCM16 converts one float amplitude to a signed 16-bit sample.
func ToPCM16(s float32) int16 {
	v := float64(s)
	if math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(math.Round(v * PCMScale))
}
