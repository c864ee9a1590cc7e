// Package ffmpeg transcodes recorded WAV files for backends that want a
// compressed upload.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"voiceclip/internal/config"
)

// ErrNotFound is returned when no ffmpeg binary is on PATH.
var ErrNotFound = errors.New("ffmpeg not found in PATH")

// Args builds the ffmpeg command line converting inPath to outPath using the
// configured codec, bit rate, channel count and sample rate.
func Args(cfg config.Config, inPath, outPath string) ([]string, error) {
	ffCodec, hasBitrate := config.FFmpegCodec(cfg.Codec)
	if ffCodec == "" {
		return nil, fmt.Errorf("unsupported codec: %s", cfg.Codec)
	}
	channels := cfg.Channels
	if channels <= 0 {
		channels = 1
	}
	args := []string{"-y", "-loglevel", "error", "-i", inPath, "-ac", strconv.Itoa(channels)}
	if cfg.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(cfg.SampleRate))
	}
	args = append(args, "-c:a", ffCodec)
	if hasBitrate {
		bitrate := cfg.BitRate
		if bitrate <= 0 {
			bitrate = 128
		}
		args = append(args, "-b:a", fmt.Sprintf("%dk", bitrate))
	}
	return append(args, outPath), nil
}

// Convert runs ffmpeg and waits for it. Cancelling ctx kills the process.
func Convert(ctx context.Context, cfg config.Config, inPath, outPath string) error {
	args, err := Args(cfg, inPath, outPath)
	if err != nil {
		return err
	}
	bin, err := exec.LookPath("ffmpeg")
	if err != nil {
		return ErrNotFound
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
