package videogen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"roastreel/internal/logging"
	"roastreel/internal/services"
	"roastreel/internal/services/gemini"
)

const defaultPollInterval = 15 * time.Second

// JobClient is the slice of the Gemini client the runner needs.
type JobClient interface {
	StartVideoJob(ctx context.Context, prompt string) (string, error)
	PollVideoJob(ctx context.Context, operation string) (gemini.VideoJobStatus, error)
	Download(ctx context.Context, uri string) (io.ReadCloser, error)
}

// Sink receives the downloaded video bytes and assigns a media identifier.
type Sink interface {
	Put(ctx context.Context, r io.Reader) (string, error)
}

// Result describes a completed generation.
type Result struct {
	MediaID   string
	Operation string
}

// Runner drives a single prompt through submission, polling and download.
type Runner struct {
	client       JobClient
	sink         Sink
	pollInterval time.Duration
	logger       *slog.Logger

	// waiter replaces the poll timer in tests.
	waiter func(ctx context.Context, d time.Duration) error
}

// Option customizes the runner.
type Option func(*Runner)

// WithPollInterval overrides the default wait between status checks.
func WithPollInterval(interval time.Duration) Option {
	return func(r *Runner) {
		if interval > 0 {
			r.pollInterval = interval
		}
	}
}

// WithWaiter overrides how the runner waits between polls (useful for tests).
func WithWaiter(waiter func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Runner) {
		if waiter != nil {
			r.waiter = waiter
		}
	}
}

// NewRunner constructs a runner writing completed videos into sink.
func NewRunner(client JobClient, sink Sink, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	runner := &Runner{
		client:       client,
		sink:         sink,
		pollInterval: defaultPollInterval,
		logger:       logger,
	}
	runner.waiter = runner.sleep
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Generate submits the prompt and blocks until the job finishes, the context
// is cancelled, or the context deadline elapses. A deadline expiry surfaces as
// services.ErrGenerationTimeout so callers can distinguish it from a job that
// the service itself rejected.
func (r *Runner) Generate(ctx context.Context, prompt string) (Result, error) {
	log := logging.WithContext(ctx, r.logger)

	operation, err := r.client.StartVideoJob(ctx, prompt)
	if err != nil {
		return Result{}, services.Wrap(services.ErrJobSubmissionFailed, "video runner", "submit", "could not start video job", err)
	}
	log.Info("video job submitted", logging.String("operation", operation))

	polls := 0
	for {
		status, err := r.client.PollVideoJob(ctx, operation)
		if err != nil {
			if deadlineErr := r.deadlineError(ctx, err, operation); deadlineErr != nil {
				return Result{}, deadlineErr
			}
			return Result{}, services.Wrap(services.ErrJobExecutionFailed, "video runner", "poll", "could not check video job status", err)
		}
		polls++

		if status.Failure != "" {
			return Result{}, services.Wrap(services.ErrJobExecutionFailed, "video runner", "poll",
				fmt.Sprintf("video job failed: %s", status.Failure), nil)
		}
		if status.Done {
			if status.VideoURI == "" {
				return Result{}, services.Wrap(services.ErrDownloadFailed, "video runner", "download",
					fmt.Sprintf("operation %s finished without a media reference", operation), nil)
			}
			log.Info("video job finished",
				logging.String("operation", operation),
				logging.Int("polls", polls))
			return r.download(ctx, operation, status.VideoURI)
		}

		if err := r.waiter(ctx, r.pollInterval); err != nil {
			if deadlineErr := r.deadlineError(ctx, err, operation); deadlineErr != nil {
				return Result{}, deadlineErr
			}
			return Result{}, err
		}
	}
}

func (r *Runner) download(ctx context.Context, operation, uri string) (Result, error) {
	body, err := r.client.Download(ctx, uri)
	if err != nil {
		return Result{}, services.Wrap(services.ErrDownloadFailed, "video runner", "download", "could not fetch generated video", err)
	}
	defer body.Close()

	mediaID, err := r.sink.Put(ctx, body)
	if err != nil {
		return Result{}, services.Wrap(services.ErrDownloadFailed, "video runner", "store", "could not persist generated video", err)
	}
	return Result{MediaID: mediaID, Operation: operation}, nil
}

// deadlineError converts deadline expiry into the timeout marker; other
// context errors (cancellation) pass through untouched.
func (r *Runner) deadlineError(ctx context.Context, err error, operation string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrGenerationTimeout, "video runner", "poll",
			fmt.Sprintf("gave up waiting for operation %s", operation), err)
	}
	return nil
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
