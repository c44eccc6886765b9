// internal/workers/renewal/submit-auto-renewal/config.go
package submitautorenewal

import (
	"time"

	"github.com/shopspring/decimal"

	"quote-workflow/internal/common/config"
)

type Config struct {
	Timeout        time.Duration
	ConvenienceFee decimal.Decimal
}

func LoadConfig(appCfg *config.Config) *Config {
	cfg := &Config{
		Timeout:        30 * time.Second,
		ConvenienceFee: decimal.NewFromInt(25),
	}
	if appCfg == nil {
		return cfg
	}
	if wc := config.GetWorkerConfig(appCfg, TaskType); wc.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wc.Timeout)
	}
	return cfg
}
