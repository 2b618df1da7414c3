// Package videogen turns a single scene prompt into a stored video clip by
// driving a long-running generation job: submit, poll, download, persist.
package videogen
