package storage

import (
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Version != 1 {
		t.Errorf("expected version 1, got %d", config.Version)
	}
	if !config.Video.DrawEmulator {
		t.Error("expected drawEmulator to default to true")
	}
	if config.Video.Filter != "smooth" {
		t.Errorf("expected filter 'smooth', got '%s'", config.Video.Filter)
	}
	if config.Shader.Preset != "tft" {
		t.Errorf("expected preset 'tft', got '%s'", config.Shader.Preset)
	}
	if config.Screenshot.Format != "png" {
		t.Errorf("expected screenshot format 'png', got '%s'", config.Screenshot.Format)
	}
}

func TestGetBaseDirXDG(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("XDG_DATA_HOME only applies to Unix-like systems")
	}
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)

	old := appName
	Init("framepipe-test")
	t.Cleanup(func() { Init(old) })

	got, err := GetBaseDir()
	if err != nil {
		t.Fatalf("GetBaseDir: %v", err)
	}
	want := filepath.Join(dataHome, "framepipe-test")
	if got != want {
		t.Errorf("GetBaseDir() = %q, want %q", got, want)
	}

	if err := EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	dir, err := GetScreenshotDir(nil)
	if err != nil {
		t.Fatalf("GetScreenshotDir: %v", err)
	}
	if dir != filepath.Join(want, "screenshots") {
		t.Errorf("GetScreenshotDir(nil) = %q", dir)
	}

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath: %v", err)
	}
	if path != filepath.Join(want, "config.json") {
		t.Errorf("GetConfigPath() = %q", path)
	}
}

func TestGetScreenshotDirOverride(t *testing.T) {
	config := DefaultConfig()
	config.Screenshot.Dir = "/tmp/shots"

	dir, err := GetScreenshotDir(config)
	if err != nil {
		t.Fatalf("GetScreenshotDir: %v", err)
	}
	if dir != "/tmp/shots" {
		t.Errorf("GetScreenshotDir() = %q, want /tmp/shots", dir)
	}
}

func TestShaderOptionsRoundTrip(t *testing.T) {
	for _, name := range []string{"tft", "crt"} {
		s := presetShader(name)
		if s.Preset != name {
			t.Errorf("presetShader(%q).Preset = %q", name, s.Preset)
		}
		if got := shaderFromOptions(name, s.Options()); got != s {
			t.Errorf("shaderFromOptions(%q) = %+v, want %+v", name, got, s)
		}
	}
}
