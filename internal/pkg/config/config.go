package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env         string `env:"ENV,          default=development"`
	LogLevel    string `env:"LOG_LEVEL,    default=info"`
	MetricsAddr string `env:"METRICS_ADDR, default=:9090"`

	Supabase SupabaseConfig
}

type SupabaseConfig struct {
	URL      string        `env:"SUPABASE_URL,      required"`
	AnonKey  string        `env:"SUPABASE_ANON_KEY, required"`
	Timeout  time.Duration `env:"SUPABASE_TIMEOUT,  default=15s"`
	Realtime bool          `env:"SUPABASE_REALTIME, default=true"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
