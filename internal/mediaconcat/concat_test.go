package mediaconcat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"roastreel/internal/mediastore"
	"roastreel/internal/services"
	"roastreel/internal/testsupport"
)

func writeStub(t *testing.T, dir, name, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub scripts require a POSIX shell")
	}
	return testsupport.WriteStubBinary(t, dir, name, script)
}

const playableReport = `cat <<'EOF'
{"streams":[{"codec_name":"h264","codec_type":"video","width":1280,"height":720}],"format":{"format_name":"mp4","duration":"16.7","size":"2048"}}
EOF
`

func newStoreWithClips(t *testing.T, count int) (*mediastore.DiskStore, []string) {
	t.Helper()
	store, err := mediastore.NewDiskStore(filepath.Join(t.TempDir(), "media"))
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		id, err := store.Put(context.Background(), strings.NewReader("clip"))
		if err != nil {
			t.Fatalf("seed clip: %v", err)
		}
		ids = append(ids, id)
	}
	return store, ids
}

func TestConcatJoinsClips(t *testing.T) {
	store, ids := newStoreWithClips(t, 2)
	bin := t.TempDir()
	// The output path is the final argument; the manifest follows -i.
	writeStub(t, bin, "ffmpeg", `for last; do :; done
echo joined > "$last"
`)
	ffprobe := writeStub(t, bin, "ffprobe", playableReport)

	concat := New(store, filepath.Join(bin, "ffmpeg"), ffprobe, nil)
	id, err := concat.Concat(context.Background(), ids)
	if err != nil {
		t.Fatalf("Concat failed: %v", err)
	}
	if id == ids[0] || id == ids[1] {
		t.Fatal("joined video must get a fresh identifier")
	}
	if !store.Exists(id) {
		t.Fatal("joined video missing from store")
	}
}

func TestConcatSingleClipIsIdentity(t *testing.T) {
	store, ids := newStoreWithClips(t, 1)
	bin := t.TempDir()
	writeStub(t, bin, "ffmpeg", "echo 'must not run' >&2\nexit 1\n")
	ffprobe := writeStub(t, bin, "ffprobe", "echo 'must not run' >&2\nexit 1\n")

	concat := New(store, filepath.Join(bin, "ffmpeg"), ffprobe, nil)
	id, err := concat.Concat(context.Background(), ids)
	if err != nil {
		t.Fatalf("Concat failed: %v", err)
	}
	if id != ids[0] {
		t.Fatalf("expected identity result %q, got %q", ids[0], id)
	}
}

func TestConcatEmptyInput(t *testing.T) {
	store, _ := newStoreWithClips(t, 0)
	concat := New(store, "ffmpeg", "ffprobe", nil)

	_, err := concat.Concat(context.Background(), nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestConcatUnknownClip(t *testing.T) {
	store, ids := newStoreWithClips(t, 1)
	concat := New(store, "ffmpeg", "ffprobe", nil)

	_, err := concat.Concat(context.Background(), append(ids, "11111111-2222-4333-8444-555555555555"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcatToolFailureCleansUp(t *testing.T) {
	store, ids := newStoreWithClips(t, 2)
	bin := t.TempDir()
	ffmpeg := writeStub(t, bin, "ffmpeg", "echo 'moov atom not found' >&2\nexit 1\n")
	ffprobe := writeStub(t, bin, "ffprobe", playableReport)

	concat := New(store, ffmpeg, ffprobe, nil)
	_, err := concat.Concat(context.Background(), ids)
	if !errors.Is(err, services.ErrConcatenationFailed) {
		t.Fatalf("expected ErrConcatenationFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "moov atom not found") {
		t.Fatalf("expected tool stderr in error, got %v", err)
	}

	entries, readErr := os.ReadDir(store.Dir())
	if readErr != nil {
		t.Fatalf("read store dir: %v", readErr)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "scratch-") {
			t.Fatalf("scratch artifact %q left behind", entry.Name())
		}
	}
}

func TestConcatRejectsUnplayableOutput(t *testing.T) {
	store, ids := newStoreWithClips(t, 2)
	bin := t.TempDir()
	writeStub(t, bin, "ffmpeg", `for last; do :; done
echo joined > "$last"
`)
	ffprobe := writeStub(t, bin, "ffprobe", `cat <<'EOF'
{"streams":[],"format":{"format_name":"mp4","duration":"0","size":"0"}}
EOF
`)

	concat := New(store, filepath.Join(bin, "ffmpeg"), ffprobe, nil)
	_, err := concat.Concat(context.Background(), ids)
	if !errors.Is(err, services.ErrConcatenationFailed) {
		t.Fatalf("expected ErrConcatenationFailed for unplayable output, got %v", err)
	}
}
