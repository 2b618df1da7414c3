// Package pipeline orchestrates the resume-to-video lifecycle: script
// synthesis, concurrent clip generation, selection, and final export. It owns
// the in-memory session registry.
package pipeline
