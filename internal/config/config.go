package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Bridge struct {
		// Command is the executable invoked as the candidate implementation,
		// with run-configuration flags appended.
		Command string        `env:"BRIDGE_COMMAND" envDefault:"npm"`
		Args    []string      `env:"BRIDGE_ARGS" envSeparator:" " envDefault:"run test-combo --"`
		Dir     string        `env:"BRIDGE_DIR"`
		Timeout time.Duration `env:"BRIDGE_TIMEOUT" envDefault:"30s"`
	}
	Validation struct {
		DatasetPath string  `env:"DATASET_PATH" envDefault:"testdata/linearly_separable.json"`
		Lambda      float64 `env:"REG_LAMBDA" envDefault:"0.01"`
		Tolerance   float64 `env:"TOLERANCE" envDefault:"1e-6"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Console logs read better during local development
	if cfg.Environment == "development" && cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	return cfg, nil
}
