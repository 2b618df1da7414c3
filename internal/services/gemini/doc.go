// Package gemini provides a thin HTTP client for the Google generative
// language API: document-grounded JSON generation for roast scripts and
// long-running Veo video prediction jobs.
package gemini
