package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestEmbeddedMatchesDefaults(t *testing.T) {
	var embedded Engine
	if err := yaml.Unmarshal(defaultEngineYAML, &embedded); err != nil {
		t.Fatalf("embedded engine.yaml does not parse: %v", err)
	}
	if embedded != DefaultEngineConfig() {
		t.Errorf("embedded config = %+v, expected %+v", embedded, DefaultEngineConfig())
	}
}

func TestLoadEngineCustomPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	if err := os.WriteFile(path, []byte("sim:\n  fps: 30\nscreen:\n  width: 400\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	cfg, err := LoadEngine(path)
	if err != nil {
		t.Fatalf("LoadEngine() failed: %v", err)
	}
	if cfg.Sim.FPS != 30 || cfg.Screen.Width != 400 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Screen.Height != 240 || cfg.Sim.FadeLen != 20 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadEngineErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		data string
	}{
		{"not yaml", "sim: ["},
		{"zero fps", "sim:\n  fps: 0\n"},
		{"negative screen", "screen:\n  width: -1\n"},
		{"zero iterations", "sim:\n  velocity_iterations: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatalf("WriteFile() failed: %v", err)
			}
			if _, err := LoadEngine(path); err == nil {
				t.Error("LoadEngine() succeeded")
			}
		})
	}

	if _, err := LoadEngine(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadEngine() of a missing custom path succeeded")
	}
}

func TestLoadEngineFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir() failed: %v", err)
	}

	cfg, err := LoadEngine("")
	if err != nil {
		t.Fatalf("LoadEngine() failed: %v", err)
	}
	if cfg != DefaultEngineConfig() {
		t.Errorf("fallback config = %+v", cfg)
	}
}
