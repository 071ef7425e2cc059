package controller

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	KeyListInterval   time.Duration `envconfig:"API_KEY_POLL_INTERVAL" default:"15s"`
	NameCheckDebounce time.Duration `envconfig:"NAME_CHECK_DEBOUNCE" default:"400ms"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
