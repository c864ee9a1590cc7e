package notify

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"voiceclip/internal/audio"
)

const playbackFrames = 512

// PortAudioPlayer plays 16-bit WAV files on the default output device.
type PortAudioPlayer struct{}

func (PortAudioPlayer) Play(path string) error {
	art, err := audio.ReadWAV(path)
	if err != nil {
		return err
	}
	if len(art.Samples) == 0 {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init: %w", err)
	}
	defer portaudio.Terminate()

	out := make([]int16, playbackFrames*art.Channels)
	stream, err := portaudio.OpenDefaultStream(0, art.Channels, float64(art.SampleRate), playbackFrames, &out)
	if err != nil {
		return fmt.Errorf("open output stream: %w", err)
	}
	defer stream.Close()
	if err := stream.Start(); err != nil {
		return fmt.Errorf("start output stream: %w", err)
	}
	for off := 0; off < len(art.Samples); off += len(out) {
		n := copy(out, art.Samples[off:])
		clear(out[n:])
		if err := stream.Write(); err != nil {
			return fmt.Errorf("write output stream: %w", err)
		}
	}
	return stream.Stop()
}
