// internal/workers/quote/calculate-premium/config.go
package calculatepremium

import (
	"time"

	"github.com/shopspring/decimal"

	"quote-workflow/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// DefaultConvenienceFee is charged when the quote carries no fee of its own.
	DefaultConvenienceFee decimal.Decimal
}

func LoadConfig(appCfg *config.Config) *Config {
	cfg := &Config{
		Timeout:               5 * time.Second,
		DefaultConvenienceFee: decimal.NewFromInt(25),
	}
	if appCfg == nil {
		return cfg
	}
	if wc := config.GetWorkerConfig(appCfg, TaskType); wc.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wc.Timeout)
	}
	return cfg
}
