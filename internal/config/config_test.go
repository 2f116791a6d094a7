package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFile_Defaults(t *testing.T) {
	for _, key := range []string{"DISPLAY_MODE", "DISPLAY_WAIT_MS", "COUNTER_LINE_Y", "COUNTER_MODE", "DB_PATH"} {
		t.Setenv(key, "")
	}

	cfg := LoadFile("")

	if cfg.Display != DisplayWindow {
		t.Errorf("Expected display %q, got %q", DisplayWindow, cfg.Display)
	}
	if cfg.DisplayWaitMillis != 10000 {
		t.Errorf("Expected wait 10000, got %d", cfg.DisplayWaitMillis)
	}
	if cfg.DatabasePath != "" {
		t.Errorf("Expected history disabled by default, got %q", cfg.DatabasePath)
	}

	c := cfg.Counter
	if c.LineY != 600 || c.LineOffset != 6 || c.MinWidth != 90 || c.MinHeight != 90 {
		t.Errorf("Unexpected counter defaults: %+v", c)
	}
	if c.LineStartX != 10 || c.LineEndX != 1200 {
		t.Errorf("Unexpected line span: %d..%d", c.LineStartX, c.LineEndX)
	}
	if c.Mode != "crossing" {
		t.Errorf("Expected crossing mode, got %q", c.Mode)
	}
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	t.Setenv("DISPLAY_MODE", "FILE")
	t.Setenv("COUNTER_LINE_Y", "420")
	t.Setenv("COUNTER_FRAME_STRIDE", "3")

	cfg := LoadFile("")

	if cfg.Display != DisplayFile {
		t.Errorf("Expected display mode to be lower-cased to %q, got %q", DisplayFile, cfg.Display)
	}
	if cfg.Counter.LineY != 420 {
		t.Errorf("Expected line 420, got %d", cfg.Counter.LineY)
	}
	if cfg.Counter.FrameStride != 3 {
		t.Errorf("Expected stride 3, got %d", cfg.Counter.FrameStride)
	}
}

func TestLoadFile_DotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "COUNTER_MIN_WIDTH=40\nOVERLAY_COLOR=#00ff00\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	// godotenv never overrides variables that are already present.
	os.Unsetenv("COUNTER_MIN_WIDTH")
	os.Unsetenv("OVERLAY_COLOR")
	t.Cleanup(func() {
		os.Unsetenv("COUNTER_MIN_WIDTH")
		os.Unsetenv("OVERLAY_COLOR")
	})

	cfg := LoadFile(envFile)

	if cfg.Counter.MinWidth != 40 {
		t.Errorf("Expected min width from .env, got %d", cfg.Counter.MinWidth)
	}
	if cfg.OverlayColor != "#00ff00" {
		t.Errorf("Expected overlay color from .env, got %q", cfg.OverlayColor)
	}
}

func TestGetEnvAsInt_Invalid(t *testing.T) {
	tests := []struct {
		value    string
		def      int
		expected int
	}{
		{"", 5, 5},
		{"abc", 10, 10},
		{"12.5", 5, 5},
		{"7", 5, 7},
		{"-3", 5, -3},
	}

	for _, tt := range tests {
		t.Setenv("CVLAB_TEST_INT", tt.value)
		if got := getEnvAsInt("CVLAB_TEST_INT", tt.def); got != tt.expected {
			t.Errorf("getEnvAsInt(%q, %d) = %d, expected %d", tt.value, tt.def, got, tt.expected)
		}
	}
}
