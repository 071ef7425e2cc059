package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	EngineBaseURL  string        `envconfig:"ENGINE_BASE_URL" default:"http://localhost:8001"`
	RequestTimeout time.Duration `envconfig:"ENGINE_REQUEST_TIMEOUT" default:"15s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
