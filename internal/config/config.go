// Package config loads the ranking weights, bloom target false-positive
// rate, and top-K defaults that drive the lookup pipeline. It mirrors
// the teacher's precedence-layered configuration style (flags > env >
// file > defaults) scoped down to the handful of knobs this module
// actually exposes — ranking weights are surfaced as configuration
// rather than guessed, per the design's open question about
// calibration.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/apex-run/apex-core/internal/rank"
)

// StorePathEnvVar is the single environment variable this module reads,
// per §6 ("a single variable selects an override path for the backing
// store").
const StorePathEnvVar = "APEX_STORE_PATH"

// defaultStorePath is used when StorePathEnvVar is unset.
const defaultStorePath = "./apex-patterns.db"

// Config is the full set of tunables loaded for the lookup pipeline.
// cmd/apex passes Weights to the orchestrator and uses DefaultK when
// --k is not positive. BloomFPRate, MaxK, MaxCandidatePaths and
// MaxTaskBytes are loaded and validated here but not read by the
// orchestrator, which builds its prefilter at the bloom package's
// default rate and enforces its own fixed request limits.
type Config struct {
	Weights           rank.Weights `yaml:"weights"`
	BloomFPRate       float64      `yaml:"bloom_fp_rate"`
	DefaultK          int          `yaml:"default_k"`
	MaxK              int          `yaml:"max_k"`
	MaxCandidatePaths int          `yaml:"max_candidate_paths"`
	MaxTaskBytes      int          `yaml:"max_task_bytes"`
	StorePath         string       `yaml:"store_path"`
}

// Default returns the spec's defaults: 0.35/0.25/0.20/0.20 ranking
// weights, a 10% bloom false-positive target, default K=10, max K=100,
// at most 32 candidate paths, an 8 KiB task text ceiling.
func Default() Config {
	return Config{
		Weights:           rank.DefaultWeights(),
		BloomFPRate:       0.1,
		DefaultK:          10,
		MaxK:              100,
		MaxCandidatePaths: 32,
		MaxTaskBytes:      8 * 1024,
		StorePath:         defaultStorePath,
	}
}

// Load returns Default(), then overlays a YAML file at path (if path is
// non-empty and exists), then overlays process environment variables.
// Later layers win, matching the teacher's flags>env>file>defaults
// precedence order read bottom-up here as file-then-env since this
// module takes no flags of its own (cmd/apex's one subcommand reads
// its own flags directly).
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(StorePathEnvVar); v != "" {
		cfg.StorePath = v
	}
	if v := os.Getenv("APEX_DEFAULT_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DefaultK = n
		}
	}
	if v := os.Getenv("APEX_BLOOM_FP_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.BloomFPRate = f
		}
	}
}

// Validate enforces the weight-sum invariant and sane bounds on the
// request limits.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.BloomFPRate <= 0 || c.BloomFPRate >= 1 {
		return fmt.Errorf("config: bloom_fp_rate %v out of (0,1)", c.BloomFPRate)
	}
	if c.DefaultK < 1 || c.DefaultK > c.MaxK {
		return fmt.Errorf("config: default_k %d out of [1, max_k=%d]", c.DefaultK, c.MaxK)
	}
	if c.MaxK < 1 || c.MaxK > 100 {
		return fmt.Errorf("config: max_k %d out of [1,100]", c.MaxK)
	}
	return nil
}
