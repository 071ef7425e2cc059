package panel

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	MetricsInterval    time.Duration `envconfig:"METRICS_POLL_INTERVAL" default:"5s"`
	PositionsInterval  time.Duration `envconfig:"POSITIONS_POLL_INTERVAL" default:"5s"`
	WebhookLogInterval time.Duration `envconfig:"WEBHOOK_LOG_POLL_INTERVAL" default:"10s"`
	SystemLogInterval  time.Duration `envconfig:"SYSTEM_LOG_POLL_INTERVAL" default:"15s"`
	LogPageSize        int           `envconfig:"LOG_PAGE_SIZE" default:"10"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
