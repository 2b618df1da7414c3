package videogen

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"roastreel/internal/services"
	"roastreel/internal/services/gemini"
)

type fakeJobClient struct {
	submitErr   error
	statuses    []gemini.VideoJobStatus
	pollErr     error
	downloadErr error
	polls       int
	downloaded  string
}

func (f *fakeJobClient) StartVideoJob(context.Context, string) (string, error) {
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return "models/veo/operations/op-1", nil
}

func (f *fakeJobClient) PollVideoJob(context.Context, string) (gemini.VideoJobStatus, error) {
	if f.pollErr != nil {
		return gemini.VideoJobStatus{}, f.pollErr
	}
	status := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	f.polls++
	return status, nil
}

func (f *fakeJobClient) Download(_ context.Context, uri string) (io.ReadCloser, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	f.downloaded = uri
	return io.NopCloser(strings.NewReader("clip-bytes")), nil
}

type fakeSink struct {
	payload string
	err     error
}

func (f *fakeSink) Put(_ context.Context, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	data, _ := io.ReadAll(r)
	f.payload = string(data)
	return "media-1", nil
}

func instantWaiter(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func TestGeneratePollsUntilDone(t *testing.T) {
	client := &fakeJobClient{statuses: []gemini.VideoJobStatus{
		{},
		{},
		{Done: true, VideoURI: "https://example.com/clip.mp4"},
	}}
	sink := &fakeSink{}
	runner := NewRunner(client, sink, nil, WithWaiter(instantWaiter))

	result, err := runner.Generate(context.Background(), "a dramatic office confession")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.MediaID != "media-1" {
		t.Fatalf("unexpected media id %q", result.MediaID)
	}
	if client.polls != 3 {
		t.Fatalf("expected 3 polls, got %d", client.polls)
	}
	if client.downloaded != "https://example.com/clip.mp4" {
		t.Fatalf("unexpected download uri %q", client.downloaded)
	}
	if sink.payload != "clip-bytes" {
		t.Fatalf("unexpected stored payload %q", sink.payload)
	}
}

func TestGenerateSubmitFailure(t *testing.T) {
	client := &fakeJobClient{submitErr: errors.New("http 403")}
	runner := NewRunner(client, &fakeSink{}, nil, WithWaiter(instantWaiter))

	_, err := runner.Generate(context.Background(), "prompt")
	if !errors.Is(err, services.ErrJobSubmissionFailed) {
		t.Fatalf("expected ErrJobSubmissionFailed, got %v", err)
	}
}

func TestGenerateJobFailure(t *testing.T) {
	client := &fakeJobClient{statuses: []gemini.VideoJobStatus{
		{Done: true, Failure: "quota exceeded"},
	}}
	runner := NewRunner(client, &fakeSink{}, nil, WithWaiter(instantWaiter))

	_, err := runner.Generate(context.Background(), "prompt")
	if !errors.Is(err, services.ErrJobExecutionFailed) {
		t.Fatalf("expected ErrJobExecutionFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected failure detail in error, got %v", err)
	}
}

func TestGenerateDoneWithoutMediaReference(t *testing.T) {
	client := &fakeJobClient{statuses: []gemini.VideoJobStatus{
		{Done: true},
	}}
	runner := NewRunner(client, &fakeSink{}, nil, WithWaiter(instantWaiter))

	_, err := runner.Generate(context.Background(), "prompt")
	if !errors.Is(err, services.ErrDownloadFailed) {
		t.Fatalf("expected ErrDownloadFailed, got %v", err)
	}
	if errors.Is(err, services.ErrJobExecutionFailed) {
		t.Fatal("a finished job with no media reference is not an execution failure")
	}
}

func TestGenerateDeadlineBecomesTimeout(t *testing.T) {
	client := &fakeJobClient{statuses: []gemini.VideoJobStatus{{}}}
	runner := NewRunner(client, &fakeSink{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := runner.Generate(ctx, "prompt")
	if !errors.Is(err, services.ErrGenerationTimeout) {
		t.Fatalf("expected ErrGenerationTimeout, got %v", err)
	}
}

func TestGenerateCancellationPassesThrough(t *testing.T) {
	client := &fakeJobClient{statuses: []gemini.VideoJobStatus{{}}}
	ctx, cancel := context.WithCancel(context.Background())
	runner := NewRunner(client, &fakeSink{}, nil, WithWaiter(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	_, err := runner.Generate(ctx, "prompt")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, services.ErrGenerationTimeout) {
		t.Fatal("cancellation must not be reported as a timeout")
	}
}

func TestGenerateDownloadFailure(t *testing.T) {
	client := &fakeJobClient{
		statuses:    []gemini.VideoJobStatus{{Done: true, VideoURI: "https://example.com/clip.mp4"}},
		downloadErr: errors.New("http 404"),
	}
	runner := NewRunner(client, &fakeSink{}, nil, WithWaiter(instantWaiter))

	_, err := runner.Generate(context.Background(), "prompt")
	if !errors.Is(err, services.ErrDownloadFailed) {
		t.Fatalf("expected ErrDownloadFailed, got %v", err)
	}
}
