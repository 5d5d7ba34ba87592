package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("expected log format 'text', got %s", cfg.Log.Format)
	}
	if !cfg.Solver.GapHeuristic {
		t.Error("expected gap heuristic enabled by default")
	}
	if cfg.Solver.MaxDischargeRounds != 0 {
		t.Errorf("expected unbounded discharge rounds by default, got %d", cfg.Solver.MaxDischargeRounds)
	}
}

func TestLoader_LoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "flowsolver.yaml")

	configContent := `
log:
  level: debug
  format: json
solver:
  gap_heuristic: false
  max_discharge_rounds: 5000
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loader := NewLoader(WithConfigPaths(configPath))
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("expected log format 'json', got %s", cfg.Log.Format)
	}
	if cfg.Solver.GapHeuristic {
		t.Error("expected gap heuristic disabled by file override")
	}
	if cfg.Solver.MaxDischargeRounds != 5000 {
		t.Errorf("expected max_discharge_rounds 5000, got %d", cfg.Solver.MaxDischargeRounds)
	}
}

func TestLoader_LoadFromEnv(t *testing.T) {
	os.Setenv("FLOWSOLVER_LOG_LEVEL", "warn")
	os.Setenv("FLOWSOLVER_SOLVER_MAX_DISCHARGE_ROUNDS", "42")
	defer func() {
		os.Unsetenv("FLOWSOLVER_LOG_LEVEL")
		os.Unsetenv("FLOWSOLVER_SOLVER_MAX_DISCHARGE_ROUNDS")
	}()

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("expected log level 'warn', got %s", cfg.Log.Level)
	}
	if cfg.Solver.MaxDischargeRounds != 42 {
		t.Errorf("expected max_discharge_rounds 42, got %d", cfg.Solver.MaxDischargeRounds)
	}
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "flowsolver.yaml")

	configContent := `
log:
  level: error
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	os.Setenv("FLOWSOLVER_LOG_LEVEL", "debug")
	defer os.Unsetenv("FLOWSOLVER_LOG_LEVEL")

	cfg, err := NewLoader(WithConfigPaths(configPath)).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("expected env override 'debug', got %s", cfg.Log.Level)
	}
}

func TestLoader_WithEnvPrefix(t *testing.T) {
	os.Setenv("CUSTOM_LOG_LEVEL", "warn")
	defer os.Unsetenv("CUSTOM_LOG_LEVEL")

	cfg, err := NewLoader(WithEnvPrefix("CUSTOM_")).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("expected 'warn', got %s", cfg.Log.Level)
	}
}

func TestMustLoad_Success(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("MustLoad should not panic with valid config")
		}
	}()

	cfg := MustLoad()
	if cfg == nil {
		t.Error("expected non-nil config")
	}
}

func TestLoad_Simple(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg == nil {
		t.Error("expected non-nil config")
	}
}

func TestLoader_ConfigEnvVar(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom-config.yaml")

	configContent := `
log:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	os.Setenv("CONFIG_PATH", configPath)
	defer os.Unsetenv("CONFIG_PATH")

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("expected 'debug', got %s", cfg.Log.Level)
	}
}
