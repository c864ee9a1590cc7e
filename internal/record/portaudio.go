package record

import (
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// Device describes an audio input device.
type Device struct {
	Index      int
	Name       string
	HostAPI    string
	Channels   int
	SampleRate float64
	Default    bool
}

// PortAudioSource opens microphone streams through PortAudio. An empty
// DeviceName selects the system default input.
type PortAudioSource struct {
	DeviceName string
}

// Open initialises PortAudio and opens a callback-driven float32 input stream.
// PortAudio is terminated again when the returned stream is closed.
func (p *PortAudioSource) Open(cfg StreamConfig, onFrame func(in []float32)) (Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init failed: %w", err)
	}
	dev, err := p.inputDevice()
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}
	if dev.MaxInputChannels < cfg.Channels {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("device %q supports %d input channels, need %d", dev.Name, dev.MaxInputChannels, cfg.Channels)
	}

	params := portaudio.HighLatencyParameters(dev, nil)
	params.Input.Channels = cfg.Channels
	params.Output.Channels = 0
	params.SampleRate = float64(cfg.SampleRate)
	params.FramesPerBuffer = cfg.FramesPerBuffer

	stream, err := portaudio.OpenStream(params, onFrame)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("open stream failed: %w", err)
	}
	return &paStream{stream: stream}, nil
}

func (p *PortAudioSource) inputDevice() (*portaudio.DeviceInfo, error) {
	if p.DeviceName == "" {
		dev, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("no default input device: %w", err)
		}
		return dev, nil
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices failed: %w", err)
	}
	want := strings.ToLower(p.DeviceName)
	for _, d := range devices {
		if d.MaxInputChannels > 0 && strings.Contains(strings.ToLower(d.Name), want) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("no input device matching %q", p.DeviceName)
}

type paStream struct {
	stream *portaudio.Stream
}

func (s *paStream) Start() error { return s.stream.Start() }
func (s *paStream) Stop() error  { return s.stream.Stop() }

func (s *paStream) Close() error {
	err := s.stream.Close()
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return err
}

// ListDevices returns every device with at least one input channel.
func ListDevices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init failed: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	var def string
	if d, err := portaudio.DefaultInputDevice(); err == nil {
		def = d.Name
	}
	var out []Device
	for i, d := range devices {
		if d.MaxInputChannels <= 0 {
			continue
		}
		host := ""
		if d.HostApi != nil {
			host = d.HostApi.Name
		}
		out = append(out, Device{
			Index:      i,
			Name:       d.Name,
			HostAPI:    host,
			Channels:   d.MaxInputChannels,
			SampleRate: d.DefaultSampleRate,
			Default:    d.Name == def,
		})
	}
	return out, nil
}
