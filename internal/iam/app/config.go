package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Issuer is the iss claim stamped on every token.
	Issuer string `env:"IAM_ISSUER" envDefault:"teamforge-iam"`

	// JWTSecret is the process-wide HMAC key. Must be at least 32 bytes.
	JWTSecret string `env:"IAM_JWT_SECRET,required"`

	DatabaseFile string `env:"IAM_DATABASE_FILE" envDefault:"iam.db"`
	PepperFile   string `env:"IAM_PEPPER_FILE" envDefault:"pepper"`

	RedisAddr     string `env:"IAM_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"IAM_REDIS_PASSWORD"`
	RedisDB       int    `env:"IAM_REDIS_DB" envDefault:"0"`

	// NotifyChannel selects the redis pub/sub channel for outbound
	// notifications. Empty means messages are logged instead.
	NotifyChannel string `env:"IAM_NOTIFY_CHANNEL"`

	AccessTokenTTL   time.Duration `env:"IAM_ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL  time.Duration `env:"IAM_REFRESH_TOKEN_TTL" envDefault:"168h"`
	VerifyEmailTTL   time.Duration `env:"IAM_VERIFY_EMAIL_TTL" envDefault:"24h"`
	PasswordResetTTL time.Duration `env:"IAM_PASSWORD_RESET_TTL" envDefault:"1h"`

	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	Port      int    `env:"PORT" envDefault:"8080"`

	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}
