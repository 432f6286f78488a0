package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Reconciler ReconcilerConfig `mapstructure:"reconciler"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

// EngineConfig tunes the materialization path.
type EngineConfig struct {
	// VersionRetries bounds the version-numbering retry loop.
	VersionRetries int `mapstructure:"version_retries"`
}

// ReconcilerConfig tunes the periodic snapshot rebuild.
type ReconcilerConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	Window      time.Duration `mapstructure:"window"`
	UserTimeout time.Duration `mapstructure:"user_timeout"`
	MaxParallel int           `mapstructure:"max_parallel"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Nested keys map to env vars with underscores,
	// e.g. reconciler.user_timeout -> RECONCILER_USER_TIMEOUT.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "coach_engine")
	viper.SetDefault("engine.version_retries", 3)
	viper.SetDefault("reconciler.interval", "24h")
	viper.SetDefault("reconciler.window", "24h")
	viper.SetDefault("reconciler.user_timeout", "30s")
	viper.SetDefault("reconciler.max_parallel", 4)

	err = viper.ReadInConfig()
	// Missing config file is fine; defaults plus env vars carry the day.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return config, nil
}
