// Package config defines service configuration and how it is loaded.
//
// Conventions:
// - New builds a Config with defaults; Load layers a file and env on top.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/appraisal/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory recompute queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of recompute workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many submission ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// CacheSize sets how many computed results are memoized.
	CacheSize int `koanf:"cache_size"`

	// MaxLeaderboardLimit caps GET /periods/{period}/leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// RecomputeConcurrency bounds the fan-out of a period recompute.
	RecomputeConcurrency int `koanf:"recompute_concurrency"`

	// SupervisorWeight and SelfWeight blend the two evaluator sides when an
	// instrument has no override. They must sum to 1.
	SupervisorWeight float64 `koanf:"supervisor_weight"`
	SelfWeight       float64 `koanf:"self_weight"`

	// InstrumentsFile points to a YAML instrument catalog. Empty uses the
	// bundled catalog.
	InstrumentsFile string `koanf:"instruments_file"`
}

// New creates a Config with defaults.
func New() *Config {
	w := model.DefaultEvaluatorWeights()
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		QueueSize:            10_000,
		WorkerCount:          runtime.NumCPU(),
		DedupeSize:           50_000,
		CacheSize:            4096,
		MaxLeaderboardLimit:  100,
		RecomputeConcurrency: runtime.NumCPU() * 2,
		SupervisorWeight:     w.Supervisor,
		SelfWeight:           w.Self,
	}
}

// EvaluatorWeights returns the configured blend.
func (c *Config) EvaluatorWeights() model.EvaluatorWeights {
	return model.EvaluatorWeights{Supervisor: c.SupervisorWeight, Self: c.SelfWeight}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.CacheSize < 1:
		return fmt.Errorf("%w: cache_size must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	if err := c.EvaluatorWeights().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
