// internal/workers/quote/fetch-supported-states/config.go
package fetchsupportedstates

import (
	"time"

	"quote-workflow/internal/common/config"
)

type Config struct {
	CacheTTL time.Duration
	Timeout  time.Duration
}

func LoadConfig(appCfg *config.Config) *Config {
	cfg := &Config{
		CacheTTL: 7 * 24 * time.Hour,
		Timeout:  15 * time.Second,
	}
	if appCfg == nil {
		return cfg
	}
	if ttl := appCfg.Cache.SupportedStatesTTLDuration(); ttl > 0 {
		cfg.CacheTTL = ttl
	}
	if wc := config.GetWorkerConfig(appCfg, TaskType); wc.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wc.Timeout)
	}
	return cfg
}
