// Package session models the lifecycle of a single resume-to-video run: the
// stages it moves through, the generated clips, and the user's selection.
package session
