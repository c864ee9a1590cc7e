package config

import (
	"sort"
	"strings"
)

type codec struct {
	name       string
	hasBitrate bool
}

// ffmpegCodecs maps CODEC values to ffmpeg encoder names.
var ffmpegCodecs = map[string]codec{
	"opus":      {"libopus", true},
	"libopus":   {"libopus", true},
	"aac":       {"aac", true},
	"mp3":       {"libmp3lame", true},
	"flac":      {"flac", false},
	"vorbis":    {"libvorbis", true},
	"libvorbis": {"libvorbis", true},
	"pcm":       {"pcm_s16le", false},
	"pcm_s16le": {"pcm_s16le", false},
	"pcm_s16be": {"pcm_s16be", false},
	"pcm_f32le": {"pcm_f32le", false},
}

// allowedContainers lists CONTAINER values the http backend can upload.
var allowedContainers = map[string]bool{
	"wav":  true,
	"ogg":  true,
	"oga":  true,
	"opus": true,
	"mp3":  true,
	"flac": true,
	"m4a":  true,
	"aac":  true,
	"webm": true,
}

// FFmpegCodec returns the ffmpeg encoder for a CODEC value and whether it
// takes a bit rate.
func FFmpegCodec(key string) (string, bool) {
	c, ok := ffmpegCodecs[strings.ToLower(key)]
	if !ok {
		return "", false
	}
	return c.name, c.hasBitrate
}

// ContainerExt maps container names to file extensions (lowercase).
func ContainerExt(container string) string {
	c := strings.ToLower(container)
	if c == "" {
		return "wav"
	}
	return c
}

func keys[V any](m map[string]V) string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}
