package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Clip summarizes the container attributes the pipeline cares about when it
// validates a generated or stitched video.
type Clip struct {
	FormatName      string
	DurationSeconds float64
	SizeBytes       int64
	VideoStreams    int
	AudioStreams    int
	Width           int
	Height          int
	VideoCodec      string
}

type probePayload struct {
	Streams []struct {
		CodecName string `json:"codec_name"`
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		Size       string `json:"size"`
	} `json:"format"`
}

// Inspect runs ffprobe against path and decodes the JSON report.
func Inspect(ctx context.Context, binary string, path string) (Clip, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Clip{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Clip{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var payload probePayload
	if err := json.Unmarshal(output, &payload); err != nil {
		return Clip{}, fmt.Errorf("ffprobe parse: %w", err)
	}

	clip := Clip{
		FormatName:      payload.Format.FormatName,
		DurationSeconds: parseFloat(payload.Format.Duration),
		SizeBytes:       int64(parseFloat(payload.Format.Size)),
	}
	for _, stream := range payload.Streams {
		switch strings.ToLower(stream.CodecType) {
		case "video":
			clip.VideoStreams++
			if clip.VideoCodec == "" {
				clip.VideoCodec = stream.CodecName
				clip.Width = stream.Width
				clip.Height = stream.Height
			}
		case "audio":
			clip.AudioStreams++
		}
	}
	return clip, nil
}

// Playable reports whether the clip looks like a usable video artifact:
// at least one video stream and a positive duration.
func (c Clip) Playable() bool {
	return c.VideoStreams > 0 && c.DurationSeconds > 0
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return parsed
}
