// Package logging centralizes slog construction and the structured field
// vocabulary used across the pipeline.
//
// Components receive loggers rather than creating them; use WithContext to
// stamp session/stage/scene fields derived from a request context, and the
// Field* constants when adding attributes so downstream filtering stays
// consistent.
package logging
