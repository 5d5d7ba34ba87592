// pkg/config/config.go
package config

import (
	"fmt"
	"strings"
)

// Config is the CLI's configuration: a Log section (shape unchanged from
// the ambient logging stack) and a Solver section governing the engine's
// safety valves. Everything else a network-facing service would carry —
// gRPC/HTTP, database, cache, tracing, rate-limit, audit, swagger, report —
// is dropped, because a single-shot batch binary has nothing for those
// sections to configure.
type Config struct {
	Log    LogConfig    `koanf:"log"`
	Solver SolverConfig `koanf:"solver"`
}

// LogConfig - настройки логирования
type LogConfig struct {
	Level      string `koanf:"level"`       // debug, info, warn, error
	Format     string `koanf:"format"`      // json, text
	Output     string `koanf:"output"`      // stdout, stderr, file
	FilePath   string `koanf:"file_path"`   // путь к файлу логов
	MaxSize    int    `koanf:"max_size"`    // MB
	MaxBackups int    `koanf:"max_backups"` // количество бэкапов
	MaxAge     int    `koanf:"max_age"`     // дней
	Compress   bool   `koanf:"compress"`
}

// SolverConfig governs the preflow-push engine's optional safety valves and
// diagnostics, per §4.13/§10.1: the gap heuristic can be disabled for
// A/B measurement against a naive highest-label implementation, a discharge
// iteration cap guards against runaway input, and MetricsPath selects where
// the CLI dumps a Prometheus text-exposition snapshot (empty disables it).
type SolverConfig struct {
	GapHeuristic       bool   `koanf:"gap_heuristic"`
	MaxDischargeRounds int    `koanf:"max_discharge_rounds"`
	MetricsPath        string `koanf:"metrics_path"`
}

// Validate checks the configuration for internally inconsistent values.
func (c *Config) Validate() error {
	var errs []string

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if c.Log.Format != "" && !validFormats[strings.ToLower(c.Log.Format)] {
		errs = append(errs, fmt.Sprintf("log.format must be one of: json, text, got %s", c.Log.Format))
	}

	if c.Solver.MaxDischargeRounds < 0 {
		errs = append(errs, "solver.max_discharge_rounds must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}
