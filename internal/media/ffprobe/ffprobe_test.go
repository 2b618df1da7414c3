package ffprobe

import (
	"context"
	"runtime"
	"testing"

	"roastreel/internal/testsupport"
)

func writeStubProbe(t *testing.T, report string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub scripts require a POSIX shell")
	}
	return testsupport.WriteStubBinary(t, t.TempDir(), "ffprobe", "cat <<'EOF'\n"+report+"\nEOF\n")
}

func TestInspectParsesReport(t *testing.T) {
	stub := writeStubProbe(t, `{
  "streams": [
    {"codec_name": "h264", "codec_type": "video", "width": 1280, "height": 720},
    {"codec_name": "aac", "codec_type": "audio"}
  ],
  "format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "8.350000", "size": "1048576"}
}`)

	clip, err := Inspect(context.Background(), stub, "/tmp/clip.mp4")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if clip.VideoStreams != 1 || clip.AudioStreams != 1 {
		t.Fatalf("unexpected stream counts: %+v", clip)
	}
	if clip.Width != 1280 || clip.Height != 720 || clip.VideoCodec != "h264" {
		t.Fatalf("unexpected video attributes: %+v", clip)
	}
	if clip.DurationSeconds != 8.35 {
		t.Fatalf("unexpected duration %v", clip.DurationSeconds)
	}
	if !clip.Playable() {
		t.Fatal("expected clip to be playable")
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestPlayableRequiresVideoStream(t *testing.T) {
	stub := writeStubProbe(t, `{
  "streams": [{"codec_name": "aac", "codec_type": "audio"}],
  "format": {"format_name": "mp4", "duration": "3.0", "size": "100"}
}`)

	clip, err := Inspect(context.Background(), stub, "/tmp/audio-only.mp4")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if clip.Playable() {
		t.Fatal("audio-only container must not be playable")
	}
}
