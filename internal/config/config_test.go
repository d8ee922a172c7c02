package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kschaper/goslicer/internal/config"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "slicer.cfg")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeTempConfig(t, "layer_height=0.3\nshells=3\n")

	s, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if s.LayerHeight != 0.3 {
		t.Errorf("LayerHeight = %v, want 0.3", s.LayerHeight)
	}
	if s.Shells != 3 {
		t.Errorf("Shells = %v, want 3", s.Shells)
	}
	// Unset fields retain defaults.
	if s.ExtrusionWidth != config.Default().ExtrusionWidth {
		t.Errorf("ExtrusionWidth changed unexpectedly: %v", s.ExtrusionWidth)
	}
}

func TestLoadLaterFileOverridesEarlier(t *testing.T) {
	first := writeTempConfig(t, "layer_height=0.2\n")
	second := writeTempConfig(t, "layer_height=0.15\n")

	s, err := config.Load(first, second)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if s.LayerHeight != 0.15 {
		t.Errorf("LayerHeight = %v, want 0.15 (second file should win)", s.LayerHeight)
	}
}

func TestLoadSkipsCommentsAndBlankLines(t *testing.T) {
	path := writeTempConfig(t, "# a comment\n\nlayer_height=0.25\n# trailing comment\n")
	s, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if s.LayerHeight != 0.25 {
		t.Errorf("LayerHeight = %v, want 0.25", s.LayerHeight)
	}
}

func TestLoadContinuationLine(t *testing.T) {
	path := writeTempConfig(t, "cool_on_gcode=M106 S255\n more text\n")
	s, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := "M106 S255\nmore text"
	if s.CoolOnGCode != want {
		t.Errorf("CoolOnGCode = %q, want %q", s.CoolOnGCode, want)
	}
}

func TestLoadUnknownKeyIsError(t *testing.T) {
	path := writeTempConfig(t, "bogus_key=1\n")
	_, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for unknown key, got nil")
	}
}

func TestLoadOutOfRangeIsError(t *testing.T) {
	path := writeTempConfig(t, "infill_density=1.5\n")
	_, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for out-of-range infill_density, got nil")
	}
}

func TestApplyOverride(t *testing.T) {
	s := config.Default()
	if err := s.ApplyOverride("shells=4"); err != nil {
		t.Fatalf("ApplyOverride returned error: %v", err)
	}
	if s.Shells != 4 {
		t.Errorf("Shells = %v, want 4", s.Shells)
	}

	if err := s.ApplyOverride("shells"); err == nil {
		t.Fatal("expected error for malformed override, got nil")
	}
}

func TestEffectiveRestartSpeedDefaultsToRetractSpeed(t *testing.T) {
	s := config.Default()
	s.RetractSpeed = 1234
	s.RestartSpeed = 0
	if got := s.EffectiveRestartSpeed(); got != 1234 {
		t.Errorf("EffectiveRestartSpeed() = %v, want 1234", got)
	}

	s.RestartSpeed = 500
	if got := s.EffectiveRestartSpeed(); got != 500 {
		t.Errorf("EffectiveRestartSpeed() = %v, want 500", got)
	}
}
