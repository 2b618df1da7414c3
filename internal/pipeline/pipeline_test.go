package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"roastreel/internal/history"
	"roastreel/internal/mediastore"
	"roastreel/internal/roast"
	"roastreel/internal/services"
	"roastreel/internal/session"
	"roastreel/internal/videogen"
)

type fakeSynthesizer struct {
	profile *roast.Profile
	err     error
}

func (f *fakeSynthesizer) Synthesize(context.Context, []byte) (*roast.Profile, error) {
	return f.profile, f.err
}

type fakeRunner struct {
	mu      sync.Mutex
	counter int
	// failPrompt marks a prompt whose generation should fail.
	failPrompt string
	failErr    error
	store      mediastore.Store
}

func (f *fakeRunner) Generate(ctx context.Context, prompt string) (videogen.Result, error) {
	if err := ctx.Err(); err != nil {
		return videogen.Result{}, err
	}
	if f.failPrompt != "" && prompt == f.failPrompt {
		return videogen.Result{}, f.failErr
	}
	f.mu.Lock()
	f.counter++
	n := f.counter
	f.mu.Unlock()
	id, err := f.store.Put(ctx, strings.NewReader(fmt.Sprintf("clip-%d", n)))
	if err != nil {
		return videogen.Result{}, err
	}
	return videogen.Result{MediaID: id, Operation: fmt.Sprintf("op-%d", n)}, nil
}

type fakeConcatenator struct {
	store  mediastore.Store
	err    error
	inputs []string
}

func (f *fakeConcatenator) Concat(ctx context.Context, ids []string) (string, error) {
	f.inputs = ids
	if f.err != nil {
		return "", f.err
	}
	if len(ids) == 1 {
		return ids[0], nil
	}
	return f.store.Put(ctx, strings.NewReader("stitched"))
}

func testProfile() *roast.Profile {
	return &roast.Profile{
		Name:        "Ada Lovelace",
		Industry:    "Software",
		Superpowers: []string{"algorithms"},
		Scenes: []roast.Scene{
			{Persona: "Tech billionaire", Dialogue: "line one", Prompt: "prompt-0"},
			{Persona: "Zen founder", Dialogue: "line two", Prompt: "prompt-1"},
		},
	}
}

func newTestOrchestrator(t *testing.T, synth Synthesizer, mutate func(*fakeRunner, *fakeConcatenator)) (*Orchestrator, *fakeConcatenator, *mediastore.DiskStore) {
	t.Helper()
	store, err := mediastore.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	runner := &fakeRunner{store: store}
	concat := &fakeConcatenator{store: store}
	if mutate != nil {
		mutate(runner, concat)
	}
	orch, err := New(Options{
		Synthesizer:       synth,
		Runner:            runner,
		Concatenator:      concat,
		Store:             store,
		VideoStageTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return orch, concat, store
}

func advanceToVideosReady(t *testing.T, orch *Orchestrator) *session.Session {
	t.Helper()
	ctx := context.Background()
	sess := orch.CreateSession(ctx)
	if _, err := orch.SubmitDocument(ctx, sess.ID, []byte("%PDF-resume")); err != nil {
		t.Fatalf("SubmitDocument: %v", err)
	}
	ready, err := orch.StartVideoGeneration(ctx, sess.ID)
	if err != nil {
		t.Fatalf("StartVideoGeneration: %v", err)
	}
	return ready
}

func TestFullRunExportsSelectedClipsInSceneOrder(t *testing.T) {
	orch, concat, store := newTestOrchestrator(t, &fakeSynthesizer{profile: testProfile()}, nil)
	ready := advanceToVideosReady(t, orch)

	if ready.Stage != session.StageVideosReady {
		t.Fatalf("unexpected stage %s", ready.Stage)
	}
	if len(ready.Videos) != 2 {
		t.Fatalf("expected 2 clips, got %d", len(ready.Videos))
	}
	for _, video := range ready.Videos {
		if !video.Selected {
			t.Fatalf("clip for scene %d should be selected by default", video.SceneIndex)
		}
	}

	done, err := orch.Export(context.Background(), ready.ID)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if done.Stage != session.StageDone || done.FinalID == "" {
		t.Fatalf("unexpected final state %+v", done)
	}
	if !store.Exists(done.FinalID) {
		t.Fatal("final video missing from store")
	}

	want := []string{}
	for _, video := range ready.Videos {
		want = append(want, video.MediaID)
	}
	if len(concat.inputs) != 2 || concat.inputs[0] != want[0] || concat.inputs[1] != want[1] {
		t.Fatalf("clips stitched out of scene order: %v vs %v", concat.inputs, want)
	}
}

func TestVideoFailureIsAllOrNothing(t *testing.T) {
	orch, _, store := newTestOrchestrator(t, &fakeSynthesizer{profile: testProfile()}, func(r *fakeRunner, _ *fakeConcatenator) {
		r.failPrompt = "prompt-1"
		r.failErr = services.Wrap(services.ErrJobExecutionFailed, "video runner", "poll", "video job failed: quota exceeded", nil)
	})
	ctx := context.Background()
	sess := orch.CreateSession(ctx)
	if _, err := orch.SubmitDocument(ctx, sess.ID, []byte("%PDF-resume")); err != nil {
		t.Fatalf("SubmitDocument: %v", err)
	}

	_, err := orch.StartVideoGeneration(ctx, sess.ID)
	if !errors.Is(err, services.ErrJobExecutionFailed) {
		t.Fatalf("expected ErrJobExecutionFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected the real failure to surface, got %v", err)
	}

	failed, lookupErr := orch.Session(sess.ID)
	if lookupErr != nil {
		t.Fatalf("Session: %v", lookupErr)
	}
	if failed.Stage != session.StageFailed {
		t.Fatalf("expected failed stage, got %s", failed.Stage)
	}
	if len(failed.Videos) != 0 {
		t.Fatal("a failed run must expose no clips")
	}
	entries, readErr := os.ReadDir(store.Dir())
	if readErr != nil {
		t.Fatalf("read store dir: %v", readErr)
	}
	if len(entries) != 0 {
		t.Fatalf("partial clips must be discarded on failure, found %d files", len(entries))
	}
}

func TestDeselectedClipIsExcludedAndSingleSelectionIsIdentity(t *testing.T) {
	orch, concat, _ := newTestOrchestrator(t, &fakeSynthesizer{profile: testProfile()}, nil)
	ready := advanceToVideosReady(t, orch)
	ctx := context.Background()

	toggled, err := orch.ToggleSelection(ctx, ready.ID, 0)
	if err != nil {
		t.Fatalf("ToggleSelection: %v", err)
	}
	if video, _ := toggled.Video(0); video.Selected {
		t.Fatal("scene 0 should be deselected")
	}

	done, err := orch.Export(ctx, ready.ID)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	remaining, _ := ready.Video(1)
	if len(concat.inputs) != 1 || concat.inputs[0] != remaining.MediaID {
		t.Fatalf("expected single-clip input, got %v", concat.inputs)
	}
	if done.FinalID != remaining.MediaID {
		t.Fatalf("single selection should export the clip itself, got %q", done.FinalID)
	}
}

func TestExportWithNothingSelected(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, &fakeSynthesizer{profile: testProfile()}, nil)
	ready := advanceToVideosReady(t, orch)
	ctx := context.Background()

	if _, err := orch.ToggleSelection(ctx, ready.ID, 0); err != nil {
		t.Fatalf("ToggleSelection: %v", err)
	}
	if _, err := orch.ToggleSelection(ctx, ready.ID, 1); err != nil {
		t.Fatalf("ToggleSelection: %v", err)
	}

	_, err := orch.Export(ctx, ready.ID)
	if !errors.Is(err, services.ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	sess, _ := orch.Session(ready.ID)
	if sess.Stage != session.StageVideosReady {
		t.Fatalf("session must stay editable, got %s", sess.Stage)
	}
}

func TestExportFailureReturnsToVideosReady(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, &fakeSynthesizer{profile: testProfile()}, func(_ *fakeRunner, c *fakeConcatenator) {
		c.err = services.Wrap(services.ErrConcatenationFailed, "concatenator", "ffmpeg", "stream copy failed", nil)
	})
	ready := advanceToVideosReady(t, orch)

	_, err := orch.Export(context.Background(), ready.ID)
	if !errors.Is(err, services.ErrConcatenationFailed) {
		t.Fatalf("expected ErrConcatenationFailed, got %v", err)
	}
	sess, _ := orch.Session(ready.ID)
	if sess.Stage != session.StageVideosReady {
		t.Fatalf("expected videos_ready after failed export, got %s", sess.Stage)
	}
	if sess.LastError == "" {
		t.Fatal("expected last error to be recorded")
	}
	if len(sess.Videos) != 2 {
		t.Fatal("clips must survive a failed export")
	}
}

func TestSynthesisFailureMarksSessionFailed(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, &fakeSynthesizer{
		err: services.Wrap(services.ErrSynthesisFailed, "script synthesizer", "generate", "model unavailable", nil),
	}, nil)
	ctx := context.Background()
	sess := orch.CreateSession(ctx)

	_, err := orch.SubmitDocument(ctx, sess.ID, []byte("%PDF-resume"))
	if !errors.Is(err, services.ErrSynthesisFailed) {
		t.Fatalf("expected ErrSynthesisFailed, got %v", err)
	}
	failed, _ := orch.Session(sess.ID)
	if failed.Stage != session.StageFailed {
		t.Fatalf("expected failed stage, got %s", failed.Stage)
	}
}

func TestResetDiscardsStateFromAnyStage(t *testing.T) {
	orch, _, store := newTestOrchestrator(t, &fakeSynthesizer{profile: testProfile()}, nil)
	ready := advanceToVideosReady(t, orch)
	ctx := context.Background()

	done, err := orch.Export(ctx, ready.ID)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	reset, err := orch.Reset(ctx, ready.ID)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if reset.Stage != session.StageIdle || reset.Profile != nil || len(reset.Videos) != 0 || reset.FinalID != "" {
		t.Fatalf("reset left state behind: %+v", reset)
	}
	if store.Exists(done.FinalID) {
		t.Fatal("reset must discard the final video")
	}

	// The session is reusable after reset.
	if _, err := orch.SubmitDocument(ctx, ready.ID, []byte("%PDF-resume")); err != nil {
		t.Fatalf("SubmitDocument after reset: %v", err)
	}
}

func TestTransitionGuards(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, &fakeSynthesizer{profile: testProfile()}, nil)
	ctx := context.Background()
	sess := orch.CreateSession(ctx)

	if _, err := orch.StartVideoGeneration(ctx, sess.ID); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("videos before script must be rejected, got %v", err)
	}
	if _, err := orch.Export(ctx, sess.ID); !errors.Is(err, services.ErrNoSelection) && !errors.Is(err, services.ErrValidation) {
		t.Fatalf("export before videos must be rejected, got %v", err)
	}
	if _, err := orch.SubmitDocument(ctx, "missing", []byte("%PDF-x")); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("unknown session must be ErrNotFound, got %v", err)
	}
}

func TestGenerationTimeoutSurfacesAsTimeout(t *testing.T) {
	store, err := mediastore.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	slowRunner := runnerFunc(func(ctx context.Context, _ string) (videogen.Result, error) {
		<-ctx.Done()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return videogen.Result{}, services.Wrap(services.ErrGenerationTimeout, "video runner", "poll", "gave up waiting", ctx.Err())
		}
		return videogen.Result{}, ctx.Err()
	})
	orch, err := New(Options{
		Synthesizer:       &fakeSynthesizer{profile: testProfile()},
		Runner:            slowRunner,
		Concatenator:      &fakeConcatenator{store: store},
		Store:             store,
		VideoStageTimeout: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	sess := orch.CreateSession(ctx)
	if _, err := orch.SubmitDocument(ctx, sess.ID, []byte("%PDF-resume")); err != nil {
		t.Fatalf("SubmitDocument: %v", err)
	}
	if _, err := orch.StartVideoGeneration(ctx, sess.ID); !errors.Is(err, services.ErrGenerationTimeout) {
		t.Fatalf("expected ErrGenerationTimeout, got %v", err)
	}
}

type runnerFunc func(ctx context.Context, prompt string) (videogen.Result, error)

func (f runnerFunc) Generate(ctx context.Context, prompt string) (videogen.Result, error) {
	return f(ctx, prompt)
}

type concatFunc func(ctx context.Context, ids []string) (string, error)

func (f concatFunc) Concat(ctx context.Context, ids []string) (string, error) {
	return f(ctx, ids)
}

func TestExportSelectionIsFrozenAtStart(t *testing.T) {
	store, err := mediastore.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	var orch *Orchestrator
	var sessionID string
	var gotInputs []string
	var toggleErr error
	concat := concatFunc(func(ctx context.Context, ids []string) (string, error) {
		gotInputs = ids
		_, toggleErr = orch.ToggleSelection(ctx, sessionID, 0)
		return store.Put(ctx, strings.NewReader("stitched"))
	})

	orch, err = New(Options{
		Synthesizer:       &fakeSynthesizer{profile: testProfile()},
		Runner:            &fakeRunner{store: store},
		Concatenator:      concat,
		Store:             store,
		VideoStageTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ready := advanceToVideosReady(t, orch)
	sessionID = ready.ID

	done, err := orch.Export(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if done.Stage != session.StageDone {
		t.Fatalf("unexpected final stage %s", done.Stage)
	}
	if !errors.Is(toggleErr, services.ErrValidation) {
		t.Fatalf("selection edits during export must be rejected, got %v", toggleErr)
	}
	if len(gotInputs) != 2 {
		t.Fatalf("export must stitch the selection as it stood when it started, got %v", gotInputs)
	}
}

type captureLedger struct {
	mu     sync.Mutex
	events []string
}

func (c *captureLedger) RecordSession(context.Context, history.Record) error { return nil }

func (c *captureLedger) RecordEvent(_ context.Context, event history.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event.Detail)
	return nil
}

func TestLifecycleEventsAreRecordedInOrder(t *testing.T) {
	store, err := mediastore.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	ledger := &captureLedger{}
	orch, err := New(Options{
		Synthesizer:       &fakeSynthesizer{profile: testProfile()},
		Runner:            &fakeRunner{store: store},
		Concatenator:      &fakeConcatenator{store: store},
		Store:             store,
		Ledger:            ledger,
		VideoStageTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ready := advanceToVideosReady(t, orch)
	if _, err := orch.Export(context.Background(), ready.ID); err != nil {
		t.Fatalf("Export: %v", err)
	}

	want := []string{
		"session created",
		"resume uploaded",
		"script ready",
		"video generation started",
		"videos ready",
		"export started",
		"export complete",
	}
	ledger.mu.Lock()
	got := append([]string(nil), ledger.events...)
	ledger.mu.Unlock()
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d out of order: got %q, want %q (all: %v)", i, got[i], want[i], got)
		}
	}
}
