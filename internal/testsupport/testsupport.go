// Package testsupport provides helpers shared by the package test suites:
// temp configurations, seeded media stores, and stub tool binaries.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"roastreel/internal/config"
	"roastreel/internal/mediastore"
)

// NewConfig returns a validated configuration rooted in a temp directory.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StoreDir = filepath.Join(base, "media")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Gemini.APIKey = "test-key"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate test config: %v", err)
	}
	return &cfg
}

// NewStore returns a disk media store rooted in a temp directory.
func NewStore(t testing.TB) *mediastore.DiskStore {
	t.Helper()

	store, err := mediastore.NewDiskStore(filepath.Join(t.TempDir(), "media"))
	if err != nil {
		t.Fatalf("create media store: %v", err)
	}
	return store
}

// WriteStubBinary drops an executable shell script into dir and returns its
// path. Used to stand in for external tools like ffmpeg and ffprobe.
func WriteStubBinary(t testing.TB, dir, name, script string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return path
}
