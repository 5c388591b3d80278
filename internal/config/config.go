package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/IamSanjayGawai/eventually-consistent-form/internal/simulator"
)

// Config contains runtime configuration for the simulation server.
type Config struct {
	Addr       string
	RetryAfter time.Duration // 503 retry-after hint
	MinDelay   time.Duration // lower bound of the async completion delay
	MaxDelay   time.Duration // upper bound of the async completion delay
	Seed       int64         // outcome RNG seed; 0 seeds from the clock
}

// Load reads configuration from environment variables, with defaults so the
// server runs out-of-the-box:
//
//	ADDR                 listen address (default ":8080")
//	SIM_RETRY_AFTER_MS   transient retry-after hint in ms (default 1000)
//	SIM_MIN_DELAY_MS     min async completion delay in ms (default 5000)
//	SIM_MAX_DELAY_MS     max async completion delay in ms (default 10000)
//	SIM_SEED             RNG seed for reproducible outcome draws
func Load() (Config, error) {
	cfg := Config{
		Addr:       ":8080",
		RetryAfter: simulator.DefaultRetryAfter,
		MinDelay:   simulator.DefaultMinDelay,
		MaxDelay:   simulator.DefaultMaxDelay,
	}

	if v := os.Getenv("ADDR"); v != "" {
		cfg.Addr = v
	}

	var err error
	if cfg.RetryAfter, err = millisEnv("SIM_RETRY_AFTER_MS", cfg.RetryAfter); err != nil {
		return Config{}, err
	}
	if cfg.MinDelay, err = millisEnv("SIM_MIN_DELAY_MS", cfg.MinDelay); err != nil {
		return Config{}, err
	}
	if cfg.MaxDelay, err = millisEnv("SIM_MAX_DELAY_MS", cfg.MaxDelay); err != nil {
		return Config{}, err
	}
	if cfg.MinDelay > cfg.MaxDelay {
		return Config{}, fmt.Errorf("SIM_MIN_DELAY_MS (%v) exceeds SIM_MAX_DELAY_MS (%v)", cfg.MinDelay, cfg.MaxDelay)
	}

	if v := os.Getenv("SIM_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("SIM_SEED must be an integer: %w", err)
		}
		cfg.Seed = seed
	}

	return cfg, nil
}

func millisEnv(name string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ms < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer of milliseconds", name)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
