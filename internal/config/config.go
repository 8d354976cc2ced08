// Package config provides configuration loading and validation for the agent.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EngineConfig holds the tunables of the attachment engine. All values come
// from the environment with sensible defaults; the verification thresholds
// are exposed here because the strict-evidence rule is policy, not contract.
type EngineConfig struct {
	// SettleDelay is the fixed wait after DOM-mutating actions (clicks,
	// injections) before the next scan, giving the host page's reactive
	// logic a chance to run. Bounded and short; not a retry backoff.
	SettleDelay time.Duration
	// RequestTimeout bounds each network upload request.
	RequestTimeout time.Duration
	// RequireFormMatch and RequireNameOrSize configure the strict
	// verification threshold applied after property-injection attempts.
	RequireFormMatch  bool
	RequireNameOrSize bool
	// Verbose enables boxed progress output.
	Verbose bool
}

// NewEngineConfig creates an engine configuration from environment variables:
// APPLY_SETTLE_MS (default 800), APPLY_REQUEST_TIMEOUT_SECONDS (default 30),
// APPLY_VERIFY_REQUIRE_FORM_MATCH and APPLY_VERIFY_REQUIRE_NAME_OR_SIZE
// (default true).
func NewEngineConfig() (*EngineConfig, error) {
	cfg := &EngineConfig{
		SettleDelay:       800 * time.Millisecond,
		RequestTimeout:    30 * time.Second,
		RequireFormMatch:  true,
		RequireNameOrSize: true,
	}

	if raw := os.Getenv("APPLY_SETTLE_MS"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid APPLY_SETTLE_MS: %v", err)
		}
		cfg.SettleDelay = time.Duration(ms) * time.Millisecond
	}
	if raw := os.Getenv("APPLY_REQUEST_TIMEOUT_SECONDS"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid APPLY_REQUEST_TIMEOUT_SECONDS: %v", err)
		}
		cfg.RequestTimeout = time.Duration(secs) * time.Second
	}
	var err error
	if cfg.RequireFormMatch, err = boolEnv("APPLY_VERIFY_REQUIRE_FORM_MATCH", true); err != nil {
		return nil, err
	}
	if cfg.RequireNameOrSize, err = boolEnv("APPLY_VERIFY_REQUIRE_NAME_OR_SIZE", true); err != nil {
		return nil, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize validates the configuration.
func (c *EngineConfig) normalize() error {
	if c.SettleDelay < 0 || c.SettleDelay > 10*time.Second {
		return fmt.Errorf("APPLY_SETTLE_MS must be between 0 and 10000, got: %d", c.SettleDelay/time.Millisecond)
	}
	if c.RequestTimeout < time.Second {
		return fmt.Errorf("APPLY_REQUEST_TIMEOUT_SECONDS must be at least 1, got: %d", c.RequestTimeout/time.Second)
	}
	return nil
}

func boolEnv(name string, fallback bool) (bool, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %v", name, err)
	}
	return value, nil
}
