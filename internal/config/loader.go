package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables read by Load.
const (
	EnvPrefix = "CUSTOMERMATCH_"
	EnvFile   = "CUSTOMERMATCH_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if CUSTOMERMATCH_CONFIG is set
//  3. env (prefix CUSTOMERMATCH_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// CUSTOMERMATCH_SCRATCH_DIR -> scratch_dir (flat keys, underscores kept).
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ScratchDir == "":
		return fmt.Errorf("%w: scratch_dir must not be empty", ErrInvalidConfig)
	case c.AdsAPIVersion == "":
		return fmt.Errorf("%w: ads_api_version must not be empty", ErrInvalidConfig)
	case c.UserListName == "":
		return fmt.Errorf("%w: user_list_name must not be empty", ErrInvalidConfig)
	case c.WriteTimeoutSeconds <= 0:
		return fmt.Errorf("%w: write_timeout_s must be positive", ErrInvalidConfig)
	}
	if d := c.MembershipLifeSpanDays; d != UnlimitedMembershipLifeSpan && (d < 0 || d > MaxMembershipLifeSpanDays) {
		return fmt.Errorf("%w: membership_life_span_days must be within [0,%d] or %d",
			ErrInvalidConfig, MaxMembershipLifeSpanDays, UnlimitedMembershipLifeSpan)
	}
	return nil
}
