package localstore

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Driver       string `envconfig:"PANEL_DB_DRIVER" default:"sqlite"` // "sqlite" or "postgres"
	SQLitePath   string `envconfig:"PANEL_DB_PATH" default:"operatorpanel.db"`
	PostgresDSN  string `envconfig:"PANEL_DB_DSN" default:""`
	GormLogLevel int    `envconfig:"GORM_LOG_LEVEL" default:"2"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
