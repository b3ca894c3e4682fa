package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the Postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// KafkaConfig holds broker and consumer-group settings.
type KafkaConfig struct {
	Brokers []string
	GroupID string
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port   string
	AppEnv string

	DB    DatabaseConfig
	Kafka KafkaConfig

	RedisAddr    string
	StripeAPIKey string
	JWTSecret    string

	Timezone       string
	ReminderOffset time.Duration
	SweepSchedule  string
}

// Load reads configuration from BOOKING_-prefixed environment variables.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("BOOKING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "bookings")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_ID", "service-booking")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("REMINDER_OFFSET", "24h")
	v.SetDefault("NOSHOW_SWEEP_SCHEDULE", "0 * * * *")

	if v.GetString("JWT_SECRET") == "" {
		return nil, fmt.Errorf("BOOKING_JWT_SECRET is required")
	}

	reminderOffset, err := time.ParseDuration(v.GetString("REMINDER_OFFSET"))
	if err != nil {
		return nil, fmt.Errorf("invalid BOOKING_REMINDER_OFFSET: %w", err)
	}

	return &ServiceConfig{
		Port:   v.GetString("SERVICE_PORT"),
		AppEnv: v.GetString("APP_ENV"),
		DB: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(v.GetString("KAFKA_BROKERS"), ","),
			GroupID: v.GetString("KAFKA_GROUP_ID"),
		},
		RedisAddr:      v.GetString("REDIS_ADDR"),
		StripeAPIKey:   v.GetString("STRIPE_API_KEY"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		Timezone:       v.GetString("TIMEZONE"),
		ReminderOffset: reminderOffset,
		SweepSchedule:  v.GetString("NOSHOW_SWEEP_SCHEDULE"),
	}, nil
}
