package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	cmd := newConfigInitCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	if err := cmd.Flags().Set("path", target); err != nil {
		t.Fatalf("set path flag: %v", err)
	}
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init failed: %v", err)
	}

	payload, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample config: %v", err)
	}
	if !strings.Contains(string(payload), "[gemini]") {
		t.Fatalf("sample config missing gemini section:\n%s", payload)
	}
	if !strings.Contains(out.String(), target) {
		t.Fatalf("expected target in output, got %q", out.String())
	}

	// A second run without --overwrite must refuse.
	retry := newConfigInitCommand()
	retry.SetOut(&bytes.Buffer{})
	if err := retry.Flags().Set("path", target); err != nil {
		t.Fatalf("set path flag: %v", err)
	}
	if err := retry.Execute(); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestMaskSecret(t *testing.T) {
	if got := maskSecret(""); got != "(unset)" {
		t.Fatalf("empty secret: %q", got)
	}
	if got := maskSecret("abc"); got != "******" {
		t.Fatalf("short secret: %q", got)
	}
	masked := maskSecret("AIzaSyExampleKey123")
	if strings.Contains(masked, "ExampleKey") {
		t.Fatalf("secret leaked: %q", masked)
	}
	if !strings.HasPrefix(masked, "AIz") || !strings.HasSuffix(masked, "123") {
		t.Fatalf("unexpected mask shape: %q", masked)
	}
}
