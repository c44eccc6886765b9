// internal/workers/quote/resolve-qualifier/config.go
package resolvequalifier

import (
	"time"

	"quote-workflow/internal/common/config"
)

type Config struct {
	QuoteTTL time.Duration
	Timeout  time.Duration

	// Effective dates are accepted from today-EffectiveDaysBack to
	// today+EffectiveDaysAhead.
	EffectiveDaysBack  int
	EffectiveDaysAhead int
}

func LoadConfig(appCfg *config.Config) *Config {
	cfg := &Config{
		QuoteTTL:           36 * time.Hour,
		Timeout:            30 * time.Second,
		EffectiveDaysBack:  15,
		EffectiveDaysAhead: 135,
	}
	if appCfg == nil {
		return cfg
	}
	if ttl := appCfg.Cache.QuoteTTLDuration(); ttl > 0 {
		cfg.QuoteTTL = ttl
	}
	if wc := config.GetWorkerConfig(appCfg, TaskType); wc.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wc.Timeout)
	}
	return cfg
}
