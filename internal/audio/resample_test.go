package audio

import "testing"

func TestResampleLength(t *testing.T) {
	in := make([]float32, DefaultSampleRate)
	out := Resample(in, DefaultSampleRate, WhisperSampleRate)
	if len(out) != WhisperSampleRate {
		t.Fatalf("expected %d samples, got %d", WhisperSampleRate, len(out))
	}
}

func TestResampleSameRate(t *testing.T) {
	in := []float32{0.1, 0.2}
	if out := Resample(in, 16000, 16000); &out[0] != &in[0] {
		t.Fatalf("expected input returned unchanged")
	}
}

func TestResampleInterpolates(t *testing.T) {
	in := []float32{0, 1, 0, 1}
	out := Resample(in, 2, 4)
	if len(out) != 8 {
		t.Fatalf("expected 8 samples, got %d", len(out))
	}
	if out[1] != 0.5 {
		t.Fatalf("expected midpoint 0.5, got %v", out[1])
	}
}

func TestMonoFloat32Downmix(t *testing.T) {
	out := MonoFloat32([]int16{16384, -16384, 16384, 16384}, 2)
	if len(out) != 2 {
		t.Fatalf("expected 2 mono samples, got %d", len(out))
	}
	if out[0] != 0 || out[1] != 0.5 {
		t.Fatalf("unexpected downmix %v", out)
	}
}
