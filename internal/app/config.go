package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config is populated from the environment, optionally seeded from a .env
// file in the working directory.
type Config struct {
	Env       string `env:"ENV" envDefault:"dev"`
	Port      int    `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	DatabaseFile string `env:"DATABASE_FILE" envDefault:"filevault.db"`
	PepperFile   string `env:"PEPPER_FILE" envDefault:"pepper"`

	TokenIssuer        string        `env:"TOKEN_ISSUER" envDefault:"filevault"`
	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET,required"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET,required"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	S3Endpoint      string `env:"S3_ENDPOINT,required"`
	S3Region        string `env:"S3_REGION" envDefault:"us-east-1"`
	S3AccessKeyID   string `env:"S3_ACCESS_KEY_ID,required"`
	S3SecretKey     string `env:"S3_SECRET_ACCESS_KEY,required"`
	S3Bucket        string `env:"S3_BUCKET" envDefault:"filevault"`
	S3UseSSL        bool   `env:"S3_USE_SSL" envDefault:"false"`
	S3PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`

	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
}

// LoadConfig reads the environment into a Config. A missing .env file is
// fine; missing required variables are not.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}
