// Package config loads settings for the assistant's lambdas from the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/City-Bureau/careerchat/pkg/chat"
)

// Config holds all application configuration
type Config struct {
	Database        DatabaseConfig
	SNSTopicARN     string
	Twilio          TwilioConfig
	GatewayEndpoint string
	Knowledge       KnowledgeConfig
	Airtable        AirtableConfig
	ResponseDelay   time.Duration
	InactiveAfter   time.Duration
	DefaultLanguage string
}

// DatabaseConfig points at the Postgres instance storing conversations
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// TwilioConfig holds credentials for the SMS channel
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
}

// KnowledgeConfig locates the published knowledge file. An empty bucket means the
// bundled file is used.
type KnowledgeConfig struct {
	Bucket string
	Key    string
}

// AirtableConfig locates the FAQ table editors maintain
type AirtableConfig struct {
	Base  string
	Table string
	Key   string
}

// Load reads configuration from environment variables, after loading a .env file when
// one is present
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Could not load .env file: %v", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("RDS_HOST", "localhost"),
			Port:     getEnv("RDS_PORT", "5432"),
			User:     getEnv("RDS_USERNAME", ""),
			Password: getEnv("RDS_PASSWORD", ""),
			Name:     getEnv("RDS_DB_NAME", "careerchat"),
		},
		SNSTopicARN: getEnv("SNS_TOPIC_ARN", ""),
		Twilio: TwilioConfig{
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			From:       getEnv("TWILIO_FROM", ""),
		},
		GatewayEndpoint: getEnv("GW_ENDPOINT", ""),
		Knowledge: KnowledgeConfig{
			Bucket: getEnv("S3_BUCKET", ""),
			Key:    getEnv("KNOWLEDGE_KEY", "latest.json"),
		},
		Airtable: AirtableConfig{
			Base:  getEnv("AIRTABLE_BASE", ""),
			Table: getEnv("AIRTABLE_TABLE", ""),
			Key:   getEnv("AIRTABLE_KEY", ""),
		},
		DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "en"),
	}

	var err error
	if cfg.ResponseDelay, err = getEnvDuration("RESPONSE_DELAY", 0); err != nil {
		return nil, err
	}
	if cfg.InactiveAfter, err = getEnvDuration("INACTIVE_AFTER", chat.DefaultInactiveAfter); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later in confusing ways
func (c *Config) Validate() error {
	if c.ResponseDelay < 0 {
		return fmt.Errorf("RESPONSE_DELAY cannot be negative")
	}
	if c.InactiveAfter <= 0 {
		return fmt.Errorf("INACTIVE_AFTER must be positive")
	}
	if c.Knowledge.Bucket != "" && c.Knowledge.Key == "" {
		return fmt.Errorf("KNOWLEDGE_KEY cannot be empty when S3_BUCKET is set")
	}
	return nil
}

// PostgresDSN is the connection string gorm opens
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Name,
		c.Database.Password,
	)
}

// HasAirtable reports whether an Airtable FAQ table is configured
func (c *Config) HasAirtable() bool {
	return c.Airtable.Base != "" && c.Airtable.Table != "" && c.Airtable.Key != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
