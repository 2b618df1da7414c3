// Package script synthesizes comedic roast profiles from uploaded resumes.
package script
