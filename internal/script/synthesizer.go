package script

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"roastreel/internal/logging"
	"roastreel/internal/roast"
	"roastreel/internal/services"
	"roastreel/internal/services/gemini"
)

// pdfMagic is the signature every well-formed PDF starts with.
var pdfMagic = []byte("%PDF-")

// Generator is the slice of the Gemini client the synthesizer needs.
type Generator interface {
	GenerateJSON(ctx context.Context, instruction, prompt string, doc gemini.Document, schema map[string]any) (string, error)
}

// Synthesizer turns an uploaded resume into a roast profile via the script model.
type Synthesizer struct {
	generator  Generator
	sceneCount int
	maxBytes   int64
	logger     *slog.Logger
}

// NewSynthesizer wires a synthesizer against the supplied generator.
func NewSynthesizer(generator Generator, sceneCount int, maxBytes int64, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Synthesizer{
		generator:  generator,
		sceneCount: sceneCount,
		maxBytes:   maxBytes,
		logger:     logger,
	}
}

// Synthesize validates the uploaded document and asks the script model for a
// roast profile with the configured number of scenes.
func (s *Synthesizer) Synthesize(ctx context.Context, document []byte) (*roast.Profile, error) {
	if err := s.validateDocument(document); err != nil {
		return nil, err
	}

	log := logging.WithContext(ctx, s.logger)
	log.Info("requesting roast script",
		logging.Int("scene_count", s.sceneCount),
		logging.Int("document_bytes", len(document)))

	payload, err := s.generator.GenerateJSON(ctx, systemInstruction(s.sceneCount), userPrompt, gemini.Document{
		MIMEType: "application/pdf",
		Data:     document,
	}, responseSchema())
	if err != nil {
		return nil, services.Wrap(services.ErrSynthesisFailed, "script synthesizer", "generate", "script model request failed", err)
	}

	var profile roast.Profile
	if err := gemini.DecodeModelJSON(payload, &profile); err != nil {
		return nil, services.Wrap(services.ErrSynthesisFailed, "script synthesizer", "parse", "script model returned malformed JSON", err)
	}
	if err := profile.Validate(s.sceneCount); err != nil {
		return nil, services.Wrap(services.ErrSynthesisFailed, "script synthesizer", "validate", "script model returned an unusable profile", err)
	}

	log.Info("roast script ready",
		logging.String("candidate", profile.Name),
		logging.String("industry", profile.Industry),
		logging.Int("scenes", len(profile.Scenes)))
	return &profile, nil
}

func (s *Synthesizer) validateDocument(document []byte) error {
	if len(document) == 0 {
		return services.Wrap(services.ErrSynthesisFailed, "script synthesizer", "validate document", "no document provided", nil)
	}
	if s.maxBytes > 0 && int64(len(document)) > s.maxBytes {
		return services.Wrap(services.ErrSynthesisFailed, "script synthesizer", "validate document",
			fmt.Sprintf("document is %d bytes, limit is %d", len(document), s.maxBytes), nil)
	}
	if !bytes.HasPrefix(document, pdfMagic) {
		return services.Wrap(services.ErrSynthesisFailed, "script synthesizer", "validate document", "document is not a PDF", nil)
	}
	return nil
}
