package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN        string `env:"DATABASE_DSN,required=true"`
	RedisURL           string `env:"REDIS_URL,required=true"`
	ServiceAccountPath string `env:"FCM_SERVICE_ACCOUNT_PATH,required=true"`
	AuthSecret         string `env:"AUTH_SECRET,required=true"`
	PublicBaseURL      string `env:"PUBLIC_BASE_URL,default=http://localhost:8080"`
	UploadDir          string `env:"UPLOAD_DIR,default=./public/uploads"`
	CleanupIntervalHrs int    `env:"CLEANUP_INTERVAL_HOURS,default=24"`
	RateLimitMax       int    `env:"RATE_LIMIT_MAX,default=100"`
	RateLimitWindowSec int    `env:"RATE_LIMIT_WINDOW_SEC,default=60"`
	AlertConcurrency   int    `env:"ALERT_CONCURRENCY,default=8"`
	APIPort            int    `env:"API_PORT,default=8080"`
	LogLevel           string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
