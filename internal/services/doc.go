// Package services defines shared utilities consumed by the pipeline
// orchestrator and the external integrations it coordinates.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, stage names, scene indexes, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that tag failures from
//     external calls so callers can classify them without parsing text.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform across components.
package services
