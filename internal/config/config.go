/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the cause-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort           string `mapstructure:"SERVER_PORT"`
	DatabaseURL          string `mapstructure:"DATABASE_URL"`
	RabbitMQURL          string `mapstructure:"RABBITMQ_URL"`
	RedisURL             string `mapstructure:"REDIS_URL"`
	RedisKeyPrefix       string `mapstructure:"REDIS_KEY_PREFIX"`
	GatewayAPIBaseURL    string `mapstructure:"GATEWAY_API_BASE_URL"`
	GatewayAPIKey        string `mapstructure:"GATEWAY_API_KEY"`
	GatewayWebhookSecret string `mapstructure:"GATEWAY_WEBHOOK_SECRET"`
	MailerAPIBaseURL     string `mapstructure:"MAILER_API_BASE_URL"`
	MailerAPIKey         string `mapstructure:"MAILER_API_KEY"`
	MailerFromAddress    string `mapstructure:"MAILER_FROM_ADDRESS"`
	JWKSURL              string `mapstructure:"JWKS_URL"`
	CauseShareBaseURL    string `mapstructure:"CAUSE_SHARE_BASE_URL"`

	MonthlyUpdateSchedule    string `mapstructure:"MONTHLY_UPDATE_SCHEDULE"`
	UpdateStalenessDays      int    `mapstructure:"UPDATE_STALENESS_DAYS"`
	WebhookIdempotencyTTLMin int    `mapstructure:"WEBHOOK_IDEMPOTENCY_TTL_MINUTES"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8086")
	viper.SetDefault("REDIS_KEY_PREFIX", "careconnect:cause")
	viper.SetDefault("CAUSE_SHARE_BASE_URL", "https://careconnect.health/causes")
	viper.SetDefault("MONTHLY_UPDATE_SCHEDULE", "0 8 * * *")
	viper.SetDefault("UPDATE_STALENESS_DAYS", 30)
	viper.SetDefault("WEBHOOK_IDEMPOTENCY_TTL_MINUTES", 1440)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_KEY_PREFIX")
	_ = viper.BindEnv("GATEWAY_API_BASE_URL")
	_ = viper.BindEnv("GATEWAY_API_KEY")
	_ = viper.BindEnv("GATEWAY_WEBHOOK_SECRET")
	_ = viper.BindEnv("MAILER_API_BASE_URL")
	_ = viper.BindEnv("MAILER_API_KEY")
	_ = viper.BindEnv("MAILER_FROM_ADDRESS")
	_ = viper.BindEnv("JWKS_URL")
	_ = viper.BindEnv("CAUSE_SHARE_BASE_URL")
	_ = viper.BindEnv("MONTHLY_UPDATE_SCHEDULE")
	_ = viper.BindEnv("UPDATE_STALENESS_DAYS")
	_ = viper.BindEnv("WEBHOOK_IDEMPOTENCY_TTL_MINUTES")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisKeyPrefix = strings.TrimSpace(config.RedisKeyPrefix)
	if config.RedisKeyPrefix == "" {
		config.RedisKeyPrefix = "careconnect:cause"
	}

	if config.UpdateStalenessDays <= 0 {
		log.Printf("level=warn component=config msg=\"invalid update staleness window; using default\" days=%d", config.UpdateStalenessDays)
		config.UpdateStalenessDays = 30
	}
	if config.WebhookIdempotencyTTLMin <= 0 {
		config.WebhookIdempotencyTTLMin = 1440
	}
	if strings.TrimSpace(config.MonthlyUpdateSchedule) == "" {
		config.MonthlyUpdateSchedule = "0 8 * * *"
	}

	return
}
