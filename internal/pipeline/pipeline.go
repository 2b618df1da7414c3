package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"roastreel/internal/history"
	"roastreel/internal/logging"
	"roastreel/internal/mediastore"
	"roastreel/internal/notifications"
	"roastreel/internal/roast"
	"roastreel/internal/services"
	"roastreel/internal/session"
	"roastreel/internal/videogen"
)

// Synthesizer produces a roast profile from an uploaded resume.
type Synthesizer interface {
	Synthesize(ctx context.Context, document []byte) (*roast.Profile, error)
}

// VideoRunner generates one clip for one scene prompt.
type VideoRunner interface {
	Generate(ctx context.Context, prompt string) (videogen.Result, error)
}

// Concatenator joins stored clips into one video.
type Concatenator interface {
	Concat(ctx context.Context, ids []string) (string, error)
}

// Ledger records session lifecycle for later inspection. The pipeline only
// ever writes to it.
type Ledger interface {
	RecordSession(ctx context.Context, record history.Record) error
	RecordEvent(ctx context.Context, event history.Event) error
}

type noopLedger struct{}

func (noopLedger) RecordSession(context.Context, history.Record) error { return nil }
func (noopLedger) RecordEvent(context.Context, history.Event) error    { return nil }

// Orchestrator owns the session registry and drives each session through the
// upload-to-export lifecycle.
type Orchestrator struct {
	synthesizer  Synthesizer
	runner       VideoRunner
	concatenator Concatenator
	store        mediastore.Store
	ledger       Ledger
	notifier     notifications.Service
	logger       *slog.Logger

	videoStageTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*session.Session
}

// Options carries the orchestrator's collaborators. Ledger and Notifier may
// be nil; video stage timeout defaults to ten minutes.
type Options struct {
	Synthesizer       Synthesizer
	Runner            VideoRunner
	Concatenator      Concatenator
	Store             mediastore.Store
	Ledger            Ledger
	Notifier          notifications.Service
	Logger            *slog.Logger
	VideoStageTimeout time.Duration
}

// New wires an orchestrator from its collaborators.
func New(opts Options) (*Orchestrator, error) {
	if opts.Synthesizer == nil {
		return nil, fmt.Errorf("pipeline: synthesizer required")
	}
	if opts.Runner == nil {
		return nil, fmt.Errorf("pipeline: video runner required")
	}
	if opts.Concatenator == nil {
		return nil, fmt.Errorf("pipeline: concatenator required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("pipeline: media store required")
	}
	if opts.Ledger == nil {
		opts.Ledger = noopLedger{}
	}
	if opts.Notifier == nil {
		opts.Notifier = notifications.NewNop()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.VideoStageTimeout <= 0 {
		opts.VideoStageTimeout = 10 * time.Minute
	}
	return &Orchestrator{
		synthesizer:       opts.Synthesizer,
		runner:            opts.Runner,
		concatenator:      opts.Concatenator,
		store:             opts.Store,
		ledger:            opts.Ledger,
		notifier:          opts.Notifier,
		logger:            opts.Logger,
		videoStageTimeout: opts.VideoStageTimeout,
		sessions:          make(map[string]*session.Session),
	}, nil
}

// CreateSession registers a fresh idle session and returns it.
func (o *Orchestrator) CreateSession(ctx context.Context) *session.Session {
	now := time.Now().UTC()
	sess := &session.Session{
		ID:        uuid.NewString(),
		Stage:     session.StageIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}

	o.mu.Lock()
	o.sessions[sess.ID] = sess
	o.mu.Unlock()

	o.record(ctx, sess.Clone(), "session created")
	logging.WithContext(ctx, o.logger).Info("session created", logging.String(logging.FieldSessionID, sess.ID))
	return sess.Clone()
}

// Session returns a snapshot of the identified session.
func (o *Orchestrator) Session(id string) (*session.Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, ok := o.sessions[id]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "pipeline", "lookup", fmt.Sprintf("no session %q", id), nil)
	}
	return sess.Clone(), nil
}

// Sessions returns snapshots of every registered session, newest first.
func (o *Orchestrator) Sessions() []*session.Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	snapshots := make([]*session.Session, 0, len(o.sessions))
	for _, sess := range o.sessions {
		snapshots = append(snapshots, sess.Clone())
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.After(snapshots[j].CreatedAt)
	})
	return snapshots
}

// SubmitDocument runs script synthesis for the uploaded resume. The call
// blocks until the script model answers.
func (o *Orchestrator) SubmitDocument(ctx context.Context, sessionID string, document []byte) (*session.Session, error) {
	if err := o.transition(ctx, sessionID, session.StageIdle, session.StageScriptPending, "resume uploaded"); err != nil {
		return nil, err
	}
	ctx = services.WithSessionID(ctx, sessionID)
	ctx = services.WithStage(ctx, string(session.StageScriptPending))

	profile, err := o.synthesizer.Synthesize(ctx, document)
	if err != nil {
		return nil, o.fail(ctx, sessionID, "script synthesis", err)
	}

	sess, applyErr := o.apply(sessionID, session.StageScriptReady, func(s *session.Session) {
		s.Profile = profile
		s.Videos = nil
		s.FinalID = ""
		s.LastError = ""
	})
	if applyErr != nil {
		return nil, applyErr
	}

	o.record(ctx, sess, "script ready")
	if err := o.notifier.NotifyScriptReady(ctx, profile.Name, profile.Industry, len(profile.Scenes)); err != nil {
		logging.WithContext(ctx, o.logger).Warn("notification failed", logging.Error(err))
	}
	return sess, nil
}

// StartVideoGeneration fans one generation job out per scene and blocks until
// every job finishes or the first one fails. Results only become visible when
// all scenes succeed; a failed run exposes none of them.
func (o *Orchestrator) StartVideoGeneration(ctx context.Context, sessionID string) (*session.Session, error) {
	if err := o.transition(ctx, sessionID, session.StageScriptReady, session.StageVideosPending, "video generation started"); err != nil {
		return nil, err
	}
	current, err := o.Session(sessionID)
	if err != nil {
		return nil, err
	}
	ctx = services.WithSessionID(ctx, sessionID)
	ctx = services.WithStage(ctx, string(session.StageVideosPending))

	stageCtx, cancel := context.WithTimeout(ctx, o.videoStageTimeout)
	defer cancel()

	scenes := current.Profile.Scenes
	results := make([]session.VideoResult, len(scenes))
	errs := make([]error, len(scenes))

	var wg sync.WaitGroup
	for index, scene := range scenes {
		wg.Add(1)
		go func(index int, scene roast.Scene) {
			defer wg.Done()
			sceneCtx := services.WithSceneIndex(stageCtx, index)
			result, err := o.runner.Generate(sceneCtx, scene.Prompt)
			if err != nil {
				errs[index] = err
				cancel()
				return
			}
			results[index] = session.VideoResult{
				SceneIndex: index,
				MediaID:    result.MediaID,
				Selected:   true,
				CreatedAt:  time.Now().UTC(),
			}
		}(index, scene)
	}
	wg.Wait()

	if firstErr := firstError(errs); firstErr != nil {
		for _, result := range results {
			if result.MediaID != "" {
				_ = o.store.Remove(result.MediaID)
			}
		}
		return nil, o.fail(ctx, sessionID, "video generation", firstErr)
	}

	sess, applyErr := o.apply(sessionID, session.StageVideosReady, func(s *session.Session) {
		s.Videos = results
		s.LastError = ""
	})
	if applyErr != nil {
		return nil, applyErr
	}

	o.record(ctx, sess, "videos ready")
	if err := o.notifier.NotifyVideosReady(ctx, sess.Profile.Name, len(results)); err != nil {
		logging.WithContext(ctx, o.logger).Warn("notification failed", logging.Error(err))
	}
	return sess, nil
}

// ToggleSelection flips whether a scene's clip is part of the final cut.
func (o *Orchestrator) ToggleSelection(ctx context.Context, sessionID string, sceneIndex int) (*session.Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	sess, ok := o.sessions[sessionID]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "pipeline", "toggle selection", fmt.Sprintf("no session %q", sessionID), nil)
	}
	if sess.Stage != session.StageVideosReady {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "toggle selection",
			fmt.Sprintf("selection is only editable in %s, session is %s", session.StageVideosReady, sess.Stage), nil)
	}
	for i := range sess.Videos {
		if sess.Videos[i].SceneIndex == sceneIndex {
			sess.Videos[i].Selected = !sess.Videos[i].Selected
			sess.UpdatedAt = time.Now().UTC()
			return sess.Clone(), nil
		}
	}
	return nil, services.Wrap(services.ErrNotFound, "pipeline", "toggle selection",
		fmt.Sprintf("no clip for scene %d", sceneIndex), nil)
}

// Export stitches the selected clips, in ascending scene order, into the final
// video. A concatenation failure returns the session to videos_ready so the
// user can adjust the selection and try again.
func (o *Orchestrator) Export(ctx context.Context, sessionID string) (*session.Session, error) {
	selected, err := o.beginExport(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ctx = services.WithSessionID(ctx, sessionID)
	ctx = services.WithStage(ctx, string(session.StageConcatenating))

	finalID, err := o.concatenator.Concat(ctx, selected)
	if err != nil {
		sess, applyErr := o.apply(sessionID, session.StageVideosReady, func(s *session.Session) {
			s.LastError = services.Message(err)
		})
		if applyErr != nil {
			return nil, applyErr
		}
		o.record(ctx, sess, "export failed")
		if notifyErr := o.notifier.NotifyError(ctx, err, "export"); notifyErr != nil {
			logging.WithContext(ctx, o.logger).Warn("notification failed", logging.Error(notifyErr))
		}
		return sess, err
	}

	sess, applyErr := o.apply(sessionID, session.StageDone, func(s *session.Session) {
		s.FinalID = finalID
		s.LastError = ""
	})
	if applyErr != nil {
		return nil, applyErr
	}

	o.record(ctx, sess, "export complete")
	if err := o.notifier.NotifyExportComplete(ctx, sess.Profile.Name, finalID); err != nil {
		logging.WithContext(ctx, o.logger).Warn("notification failed", logging.Error(err))
	}
	return sess, nil
}

// beginExport freezes the clip selection and enters concatenating in one
// critical section, so a concurrent ToggleSelection cannot slip between the
// selection read and the stage change.
func (o *Orchestrator) beginExport(ctx context.Context, sessionID string) ([]string, error) {
	o.mu.Lock()
	sess, ok := o.sessions[sessionID]
	if !ok {
		o.mu.Unlock()
		return nil, services.Wrap(services.ErrNotFound, "pipeline", "export", fmt.Sprintf("no session %q", sessionID), nil)
	}
	if sess.Stage != session.StageVideosReady || !session.CanTransition(sess.Stage, session.StageConcatenating) {
		o.mu.Unlock()
		return nil, services.Wrap(services.ErrValidation, "pipeline", "export",
			fmt.Sprintf("cannot move session from %s to %s", sess.Stage, session.StageConcatenating), nil)
	}
	selected := sess.SelectedIDs()
	if len(selected) == 0 {
		o.mu.Unlock()
		return nil, services.Wrap(services.ErrNoSelection, "pipeline", "export", "no clips selected", nil)
	}
	sess.Stage = session.StageConcatenating
	sess.UpdatedAt = time.Now().UTC()
	snapshot := sess.Clone()
	o.mu.Unlock()

	o.record(ctx, snapshot, "export started")
	return selected, nil
}

// Reset returns the session to idle and discards its generated media.
func (o *Orchestrator) Reset(ctx context.Context, sessionID string) (*session.Session, error) {
	o.mu.Lock()
	sess, ok := o.sessions[sessionID]
	if !ok {
		o.mu.Unlock()
		return nil, services.Wrap(services.ErrNotFound, "pipeline", "reset", fmt.Sprintf("no session %q", sessionID), nil)
	}
	discard := make([]string, 0, len(sess.Videos)+1)
	for _, video := range sess.Videos {
		discard = append(discard, video.MediaID)
	}
	if sess.FinalID != "" {
		discard = append(discard, sess.FinalID)
	}
	sess.Stage = session.StageIdle
	sess.Profile = nil
	sess.Videos = nil
	sess.FinalID = ""
	sess.LastError = ""
	sess.UpdatedAt = time.Now().UTC()
	snapshot := sess.Clone()
	o.mu.Unlock()

	for _, id := range discard {
		_ = o.store.Remove(id)
	}
	o.record(ctx, snapshot, "session reset")
	return snapshot, nil
}

// transition atomically moves the session between stages, enforcing the
// lifecycle guard table. The ledger write happens after the lock is released
// so recorded events keep the order the stages were entered in.
func (o *Orchestrator) transition(ctx context.Context, sessionID string, from, to session.Stage, detail string) error {
	o.mu.Lock()
	sess, ok := o.sessions[sessionID]
	if !ok {
		o.mu.Unlock()
		return services.Wrap(services.ErrNotFound, "pipeline", "transition", fmt.Sprintf("no session %q", sessionID), nil)
	}
	if sess.Stage != from || !session.CanTransition(from, to) {
		o.mu.Unlock()
		return services.Wrap(services.ErrValidation, "pipeline", "transition",
			fmt.Sprintf("cannot move session from %s to %s", sess.Stage, to), nil)
	}
	sess.Stage = to
	sess.UpdatedAt = time.Now().UTC()
	snapshot := sess.Clone()
	o.mu.Unlock()

	o.record(ctx, snapshot, detail)
	return nil
}

// apply mutates the session under lock and moves it to the target stage.
func (o *Orchestrator) apply(sessionID string, to session.Stage, mutate func(*session.Session)) (*session.Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	sess, ok := o.sessions[sessionID]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "pipeline", "update", fmt.Sprintf("no session %q", sessionID), nil)
	}
	if !session.CanTransition(sess.Stage, to) {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "update",
			fmt.Sprintf("cannot move session from %s to %s", sess.Stage, to), nil)
	}
	mutate(sess)
	sess.Stage = to
	sess.UpdatedAt = time.Now().UTC()
	return sess.Clone(), nil
}

// fail marks the session failed, records the cause, and returns err unchanged.
func (o *Orchestrator) fail(ctx context.Context, sessionID string, label string, err error) error {
	sess, applyErr := o.apply(sessionID, session.StageFailed, func(s *session.Session) {
		s.LastError = services.Message(err)
	})
	if applyErr != nil {
		return err
	}
	o.record(ctx, sess, label+" failed")
	if notifyErr := o.notifier.NotifyError(ctx, err, label); notifyErr != nil {
		logging.WithContext(ctx, o.logger).Warn("notification failed", logging.Error(notifyErr))
	}
	logging.WithContext(ctx, o.logger).Error(label+" failed",
		logging.String(logging.FieldSessionID, sessionID),
		logging.Error(err))
	return err
}

func (o *Orchestrator) record(ctx context.Context, sess *session.Session, detail string) {
	record := history.Record{
		ID:           sess.ID,
		Stage:        string(sess.Stage),
		FinalMediaID: sess.FinalID,
		LastError:    sess.LastError,
		CreatedAt:    sess.CreatedAt,
	}
	if sess.Profile != nil {
		record.Candidate = sess.Profile.Name
		record.Industry = sess.Profile.Industry
	}
	if err := o.ledger.RecordSession(ctx, record); err != nil {
		o.logger.Warn("history record failed", logging.Error(err))
	}
	if err := o.ledger.RecordEvent(ctx, history.Event{
		SessionID: sess.ID,
		Stage:     string(sess.Stage),
		Detail:    detail,
	}); err != nil {
		o.logger.Warn("history event failed", logging.Error(err))
	}
}

// firstError picks the error to surface for a failed fan-out. Sibling jobs
// cancelled in reaction to the real failure are skipped unless nothing else
// remains.
func firstError(errs []error) error {
	var fallback error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) {
			if fallback == nil {
				fallback = err
			}
			continue
		}
		return err
	}
	return fallback
}
