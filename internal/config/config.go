// Package config loads the Agent's configuration: a YAML document layered
// with environment-variable overrides and compiled-in defaults, narrowed
// to the option set the spec's Default Configuration table names.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/scentguard/scentguard/internal/quarantine"
	"github.com/scentguard/scentguard/internal/ratelimit"
)

// Quarantine mirrors the quarantine.* option group.
type Quarantine struct {
	MaxCount       int    `yaml:"maxCount"`
	MaxBytes       int64  `yaml:"maxBytes"`
	EvictionPolicy string `yaml:"evictionPolicy"`
}

// RateLimit mirrors the rateLimit.* option group.
type RateLimit struct {
	WindowMs        int64 `yaml:"windowMs"`
	MaxRequests     int   `yaml:"maxRequests"`
	BlockDurationMs int64 `yaml:"blockDurationMs"`
}

// AgentOptions mirrors the agent.* option group.
type AgentOptions struct {
	MaxPayloadSize int `yaml:"maxPayloadSize"`
}

// Runtime mirrors the runtime.* option group.
type Runtime struct {
	Strict bool `yaml:"strict"`
}

// Config is the fully-resolved, validated configuration an Agent is
// constructed from.
type Config struct {
	Quarantine Quarantine   `yaml:"quarantine"`
	RateLimit  RateLimit    `yaml:"rateLimit"`
	Agent      AgentOptions `yaml:"agent"`
	Runtime    Runtime      `yaml:"runtime"`
}

// Defaults returns the compiled-in defaults every load starts from.
func Defaults() Config {
	return Config{
		Quarantine: Quarantine{
			MaxCount:       10000,
			MaxBytes:       64 * 1024 * 1024,
			EvictionPolicy: string(quarantine.PolicyPriority),
		},
		RateLimit: RateLimit{
			WindowMs:        1000,
			MaxRequests:     100,
			BlockDurationMs: 5000,
		},
		Agent: AgentOptions{
			MaxPayloadSize: 1 << 20, // 1 MiB
		},
		Runtime: Runtime{
			Strict: false,
		},
	}
}

// EnvPrefix is the prefix environment-variable overrides are recognized
// under, e.g. SCENTINEL_RATELIMIT_MAXREQUESTS.
const EnvPrefix = "SCENTINEL_"

// Load builds a Config by layering, in order: compiled-in defaults, the
// YAML document at path (if path is non-empty), then SCENTINEL_* env var
// overrides. An empty path skips the YAML layer entirely.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideInt(&cfg.Quarantine.MaxCount, "QUARANTINE_MAXCOUNT")
	overrideInt64(&cfg.Quarantine.MaxBytes, "QUARANTINE_MAXBYTES")
	overrideString(&cfg.Quarantine.EvictionPolicy, "QUARANTINE_EVICTIONPOLICY")

	overrideInt64(&cfg.RateLimit.WindowMs, "RATELIMIT_WINDOWMS")
	overrideInt(&cfg.RateLimit.MaxRequests, "RATELIMIT_MAXREQUESTS")
	overrideInt64(&cfg.RateLimit.BlockDurationMs, "RATELIMIT_BLOCKDURATIONMS")

	overrideInt(&cfg.Agent.MaxPayloadSize, "AGENT_MAXPAYLOADSIZE")

	overrideBool(&cfg.Runtime.Strict, "RUNTIME_STRICT")
}

func envVal(suffix string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + suffix)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	return v, true
}

func overrideInt(dst *int, suffix string) {
	if v, ok := envVal(suffix); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func overrideInt64(dst *int64, suffix string) {
	if v, ok := envVal(suffix); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func overrideString(dst *string, suffix string) {
	if v, ok := envVal(suffix); ok {
		*dst = v
	}
}

func overrideBool(dst *bool, suffix string) {
	if v, ok := envVal(suffix); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func validate(cfg Config) error {
	switch quarantine.EvictionPolicy(cfg.Quarantine.EvictionPolicy) {
	case quarantine.PolicyPriority, quarantine.PolicyLRU, quarantine.PolicyFIFO:
	default:
		return fmt.Errorf("config: unsupported quarantine.evictionPolicy %q", cfg.Quarantine.EvictionPolicy)
	}
	if cfg.Quarantine.MaxCount <= 0 {
		return fmt.Errorf("config: quarantine.maxCount must be positive")
	}
	if cfg.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("config: rateLimit.maxRequests must be positive")
	}
	if cfg.Agent.MaxPayloadSize <= 0 {
		return fmt.Errorf("config: agent.maxPayloadSize must be positive")
	}
	if cfg.Runtime.Strict {
		if err := checkStrictRuntime(); err != nil {
			return err
		}
	}
	return nil
}

// RateLimitConfig adapts the loaded RateLimit section to the ratelimit
// package's Config shape.
func (c Config) RateLimitConfig() ratelimit.Config {
	return ratelimit.Config{
		WindowMs:        c.RateLimit.WindowMs,
		MaxRequests:     c.RateLimit.MaxRequests,
		BlockDurationMs: c.RateLimit.BlockDurationMs,
	}
}

// QuarantineConfig adapts the loaded Quarantine section to the quarantine
// package's Config shape.
func (c Config) QuarantineConfig() quarantine.Config {
	return quarantine.Config{
		MaxCount:       c.Quarantine.MaxCount,
		MaxBytes:       c.Quarantine.MaxBytes,
		EvictionPolicy: quarantine.EvictionPolicy(c.Quarantine.EvictionPolicy),
	}
}
