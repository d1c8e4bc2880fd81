// Package config loads service configuration from the environment.
package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting the service reads at startup.
type Config struct {
	AppPort string

	DBDriver    string // sqlite, postgres or memory
	DatabaseDSN string
	DBLogLevel  string

	JWTSecret string
	JWTTTL    time.Duration

	RabbitMQURL   string // empty disables audit publishing
	AuditExchange string
	AuditQueue    string

	LogLevel string
	LogJSON  bool
	LogFile  string

	BootstrapGodUsername string
	BootstrapGodEmail    string
	BootstrapGodPassword string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:courier.db?_foreign_keys=on")
	v.SetDefault("DB_LOG_LEVEL", "warn")
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("AUDIT_EXCHANGE", "courier.audit")
	v.SetDefault("AUDIT_QUEUE", "courier_audit")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_JSON", false)
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("BOOTSTRAP_GOD_USERNAME", "")
	v.SetDefault("BOOTSTRAP_GOD_EMAIL", "")
	v.SetDefault("BOOTSTRAP_GOD_PASSWORD", "")
}

// Load reads an optional .env file, then environment variables over the
// defaults.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		AppPort:              v.GetString("APP_PORT"),
		DBDriver:             v.GetString("DB_DRIVER"),
		DatabaseDSN:          v.GetString("DATABASE_DSN"),
		DBLogLevel:           v.GetString("DB_LOG_LEVEL"),
		JWTSecret:            v.GetString("JWT_SECRET"),
		JWTTTL:               v.GetDuration("JWT_TTL"),
		RabbitMQURL:          v.GetString("RABBITMQ_URL"),
		AuditExchange:        v.GetString("AUDIT_EXCHANGE"),
		AuditQueue:           v.GetString("AUDIT_QUEUE"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		LogJSON:              v.GetBool("LOG_JSON"),
		LogFile:              v.GetString("LOG_FILE"),
		BootstrapGodUsername: v.GetString("BOOTSTRAP_GOD_USERNAME"),
		BootstrapGodEmail:    v.GetString("BOOTSTRAP_GOD_EMAIL"),
		BootstrapGodPassword: v.GetString("BOOTSTRAP_GOD_PASSWORD"),
	}
}
