package mediaconcat

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"roastreel/internal/logging"
	"roastreel/internal/media/ffprobe"
	"roastreel/internal/mediastore"
	"roastreel/internal/services"
)

// Concatenator joins stored clips into a single video using stream copy, so
// no re-encoding ever happens.
type Concatenator struct {
	store         mediastore.Store
	ffmpegBinary  string
	ffprobeBinary string
	logger        *slog.Logger
}

// New constructs a concatenator over the supplied store and tool binaries.
func New(store mediastore.Store, ffmpegBinary, ffprobeBinary string, logger *slog.Logger) *Concatenator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = "ffprobe"
	}
	return &Concatenator{
		store:         store,
		ffmpegBinary:  ffmpegBinary,
		ffprobeBinary: ffprobeBinary,
		logger:        logger,
	}
}

// Concat joins the clips identified by ids, in order, and returns the id of
// the combined video. A single-element input is returned unchanged without
// spawning any subprocess.
func (c *Concatenator) Concat(ctx context.Context, ids []string) (string, error) {
	if len(ids) == 0 {
		return "", services.Wrap(services.ErrValidation, "concatenator", "concat", "no clips to join", nil)
	}

	paths := make([]string, 0, len(ids))
	for _, id := range ids {
		path, err := c.store.PathFor(id)
		if err != nil {
			return "", err
		}
		paths = append(paths, path)
	}

	if len(ids) == 1 {
		return ids[0], nil
	}

	log := logging.WithContext(ctx, c.logger)
	log.Info("joining clips", logging.Int("clips", len(ids)))

	manifest, err := c.writeManifest(paths)
	if err != nil {
		return "", err
	}
	defer os.Remove(manifest)

	output := c.store.ScratchPath(".mp4")
	defer os.Remove(output)

	cmd := exec.CommandContext(ctx, c.ffmpegBinary,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", manifest,
		"-c", "copy",
		output,
	)
	combined, err := cmd.CombinedOutput()
	if err != nil {
		return "", services.Wrap(services.ErrConcatenationFailed, "concatenator", "ffmpeg",
			fmt.Sprintf("stream copy failed: %s", summarizeToolOutput(combined)), err)
	}

	clip, err := ffprobe.Inspect(ctx, c.ffprobeBinary, output)
	if err != nil {
		return "", services.Wrap(services.ErrConcatenationFailed, "concatenator", "verify", "could not inspect joined video", err)
	}
	if !clip.Playable() {
		return "", services.Wrap(services.ErrConcatenationFailed, "concatenator", "verify",
			fmt.Sprintf("joined video is not playable (video_streams=%d duration=%.2fs)", clip.VideoStreams, clip.DurationSeconds), nil)
	}

	id, err := c.store.PutFile(ctx, output)
	if err != nil {
		return "", services.Wrap(services.ErrConcatenationFailed, "concatenator", "store", "could not persist joined video", err)
	}
	log.Info("clips joined",
		logging.String("media_id", id),
		logging.Any("duration_seconds", clip.DurationSeconds))
	return id, nil
}

// writeManifest produces the ffmpeg concat demuxer list file. Single quotes in
// paths are escaped per the demuxer's quoting rules.
func (c *Concatenator) writeManifest(paths []string) (string, error) {
	var builder strings.Builder
	for _, path := range paths {
		escaped := strings.ReplaceAll(path, "'", `'\''`)
		fmt.Fprintf(&builder, "file '%s'\n", escaped)
	}

	file, err := os.CreateTemp("", "roastreel-concat-*.txt")
	if err != nil {
		return "", services.Wrap(services.ErrConcatenationFailed, "concatenator", "manifest", "could not create manifest", err)
	}
	if _, err := file.WriteString(builder.String()); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", services.Wrap(services.ErrConcatenationFailed, "concatenator", "manifest", "could not write manifest", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", services.Wrap(services.ErrConcatenationFailed, "concatenator", "manifest", "could not close manifest", err)
	}
	return file.Name(), nil
}

func summarizeToolOutput(output []byte) string {
	text := strings.TrimSpace(string(output))
	if text == "" {
		return "<no output>"
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, " | ")
}
