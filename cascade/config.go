package cascade

import (
	"fmt"
	"os"
	"time"

	"github.com/cascade-run/cascade/core"
	"gopkg.in/yaml.v3"
)

// fileOptions is the on-disk shape for a declarative cascade options file.
// Durations are strings ("5s", "30s", "24h") parsed through ParseDuration
// so the file uses the same human-friendly syntax as Options' defaults.
type fileOptions struct {
	StartTier      string            `yaml:"startTier"`
	SkipTiers      []string          `yaml:"skipTiers"`
	TierTimeouts   map[string]string `yaml:"tierTimeouts"`
	TotalTimeout   string            `yaml:"totalTimeout"`
	TierRetries    map[string]int    `yaml:"tierRetries"`
	EnableFallback bool              `yaml:"enableFallback"`
	EnableParallel bool              `yaml:"enableParallel"`
}

// LoadOptions reads a declarative cascade-options YAML file (tier timeouts,
// retries, skip tiers, total timeout) and returns the equivalent Options.
// Skip conditions are not expressible in the file format — they carry a Go
// predicate function and must be attached programmatically after loading.
//
// This is scoped to cascade options only; it is not a general application
// configuration/scaffolding system.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &core.FrameworkError{
			Op:      "cascade.LoadOptions",
			Kind:    "invalid-definition",
			Message: fmt.Sprintf("reading cascade options file %q", path),
			Err:     err,
		}
	}

	var fo fileOptions
	if err := yaml.Unmarshal(data, &fo); err != nil {
		return nil, &core.FrameworkError{
			Op:      "cascade.LoadOptions",
			Kind:    "invalid-definition",
			Message: fmt.Sprintf("parsing cascade options file %q", path),
			Err:     err,
		}
	}

	opts := &Options{
		StartTier:      Tier(fo.StartTier),
		EnableFallback: fo.EnableFallback,
		EnableParallel: fo.EnableParallel,
	}

	if len(fo.SkipTiers) > 0 {
		opts.SkipTiers = make(map[Tier]bool, len(fo.SkipTiers))
		for _, t := range fo.SkipTiers {
			opts.SkipTiers[Tier(t)] = true
		}
	}

	if len(fo.TierTimeouts) > 0 {
		opts.TierTimeouts = make(map[Tier]time.Duration, len(fo.TierTimeouts))
		for t, raw := range fo.TierTimeouts {
			d, err := ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("cascade.LoadOptions: tierTimeouts[%s]: %w", t, err)
			}
			opts.TierTimeouts[Tier(t)] = d
		}
	}

	if fo.TotalTimeout != "" {
		d, err := ParseDuration(fo.TotalTimeout)
		if err != nil {
			return nil, fmt.Errorf("cascade.LoadOptions: totalTimeout: %w", err)
		}
		opts.TotalTimeout = d
	}

	if len(fo.TierRetries) > 0 {
		opts.TierRetries = make(map[Tier]int, len(fo.TierRetries))
		for t, n := range fo.TierRetries {
			opts.TierRetries[Tier(t)] = n
		}
	}

	return opts, nil
}
