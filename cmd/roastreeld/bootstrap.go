package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"roastreel/internal/config"
	"roastreel/internal/daemon"
	"roastreel/internal/history"
	"roastreel/internal/logging"
	"roastreel/internal/mediaconcat"
	"roastreel/internal/mediastore"
	"roastreel/internal/notifications"
	"roastreel/internal/pipeline"
	"roastreel/internal/script"
	"roastreel/internal/services/gemini"
	"roastreel/internal/videogen"
)

// buildDaemon wires every collaborator the daemon needs from configuration.
func buildDaemon(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	store, err := mediastore.NewDiskStore(cfg.Paths.StoreDir)
	if err != nil {
		return nil, fmt.Errorf("open media store: %w", err)
	}

	ledger, err := history.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open history ledger: %w", err)
	}

	client := gemini.NewClient(gemini.Config{
		APIKey:         cfg.Gemini.APIKey,
		BaseURL:        cfg.Gemini.BaseURL,
		ScriptModel:    cfg.Gemini.ScriptModel,
		VideoModel:     cfg.Gemini.VideoModel,
		TimeoutSeconds: cfg.Gemini.RequestTimeout,
	})

	synthesizer := script.NewSynthesizer(client, cfg.Gemini.SceneCount, cfg.Gemini.MaxDocumentBytes,
		logging.NewComponentLogger(logger, "script-synthesizer"))

	runner := videogen.NewRunner(client, store,
		logging.NewComponentLogger(logger, "video-runner"),
		videogen.WithPollInterval(time.Duration(cfg.Gemini.VideoPollInterval)*time.Second))

	concatenator := mediaconcat.New(store, cfg.FFmpegBinary(), cfg.FFprobeBinary(),
		logging.NewComponentLogger(logger, "concatenator"))

	orchestrator, err := pipeline.New(pipeline.Options{
		Synthesizer:       synthesizer,
		Runner:            runner,
		Concatenator:      concatenator,
		Store:             store,
		Ledger:            ledger,
		Notifier:          notifications.NewService(cfg),
		Logger:            logging.NewComponentLogger(logger, "pipeline"),
		VideoStageTimeout: time.Duration(cfg.Workflow.VideoStageTimeout) * time.Second,
	})
	if err != nil {
		_ = ledger.Close()
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	d, err := daemon.New(cfg, orchestrator, store, ledger, logger)
	if err != nil {
		_ = ledger.Close()
		return nil, fmt.Errorf("build daemon: %w", err)
	}
	return d, nil
}
