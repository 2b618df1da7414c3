package services

import (
	"errors"
	"fmt"
	"strings"
)

// Pipeline failure markers. Every external-call failure is wrapped with one of
// these at its originating component boundary so callers can classify it with
// errors.Is without parsing message text.
var (
	ErrSynthesisFailed     = errors.New("script synthesis failed")
	ErrJobSubmissionFailed = errors.New("video job submission failed")
	ErrJobExecutionFailed  = errors.New("video job execution failed")
	ErrDownloadFailed      = errors.New("video download failed")
	ErrGenerationTimeout   = errors.New("video generation timed out")
	ErrConcatenationFailed = errors.New("concatenation failed")
	ErrNoSelection         = errors.New("no clips selected")
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation error")
	ErrConfiguration       = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Message returns the user-legible text for a pipeline error, stripping
// nothing: diagnostic text from underlying tools and services stays intact.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimSpace(err.Error())
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
