package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every environment setting the runner needs. Required
// settings are validated up front so a misconfigured deploy fails at
// startup, not mid-run.
type Config struct {
	// TimeBack platform
	TimeBackBaseURL      string
	TimeBackClientID     string
	TimeBackClientSecret string

	// CRM exports in S3
	LeadsBucket string
	LeadsKey    string
	AccountsKey string

	// Google Workspace
	ConfigSpreadsheetID string
	GoogleAccessToken   string
	TrackerFolderID     string

	// Optional collaborators
	HubSpotAccessToken     string
	HubSpotTrackerProperty string
	ChatWebhookURL         string
	DatabaseURL            string
	RabbitMQUser           string
	RabbitMQPass           string
	RabbitMQHost           string
	RabbitMQPort           string
	MailHost               string
	MailPort               int
	MailUser               string
	MailPass               string
	MailFrom               string
	MailTo                 []string

	// Pipeline tuning
	Workers    int
	CallDelay  time.Duration
	MaxLeadAge time.Duration
	ListenAddr string
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		TimeBackBaseURL:        os.Getenv("TIMEBACK_BASE_URL"),
		TimeBackClientID:       os.Getenv("TIMEBACK_CLIENT_ID"),
		TimeBackClientSecret:   os.Getenv("TIMEBACK_CLIENT_SECRET"),
		LeadsBucket:            os.Getenv("LEADS_BUCKET"),
		LeadsKey:               os.Getenv("LEADS_KEY"),
		AccountsKey:            os.Getenv("ACCOUNTS_KEY"),
		ConfigSpreadsheetID:    os.Getenv("CONFIG_SPREADSHEET_ID"),
		GoogleAccessToken:      os.Getenv("GOOGLE_ACCESS_TOKEN"),
		TrackerFolderID:        os.Getenv("TRACKER_FOLDER_ID"),
		HubSpotAccessToken:     os.Getenv("HUBSPOT_ACCESS_TOKEN"),
		HubSpotTrackerProperty: getEnv("HUBSPOT_TRACKER_PROPERTY", "program_tracker_link"),
		ChatWebhookURL:         os.Getenv("CHAT_WEBHOOK_URL"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RabbitMQUser:           getEnv("RABBITMQ_USER", "guest"),
		RabbitMQPass:           getEnv("RABBITMQ_PASS", "guest"),
		RabbitMQHost:           os.Getenv("RABBITMQ_HOST"),
		RabbitMQPort:           getEnv("RABBITMQ_PORT", "5672"),
		MailHost:               os.Getenv("MAIL_HOST"),
		MailPort:               getEnvInt("MAIL_PORT", 587),
		MailUser:               os.Getenv("MAIL_USER"),
		MailPass:               os.Getenv("MAIL_PASS"),
		MailFrom:               os.Getenv("MAIL_FROM"),
		MailTo:                 splitList(os.Getenv("MAIL_TO")),
		Workers:                getEnvInt("PIPELINE_WORKERS", 4),
		CallDelay:              getEnvDuration("PIPELINE_CALL_DELAY", 200*time.Millisecond),
		MaxLeadAge:             getEnvDuration("MAX_LEAD_AGE", 14*24*time.Hour),
		ListenAddr:             getEnv("LISTEN_ADDR", ":8080"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	required := map[string]string{
		"TIMEBACK_BASE_URL":      c.TimeBackBaseURL,
		"TIMEBACK_CLIENT_ID":     c.TimeBackClientID,
		"TIMEBACK_CLIENT_SECRET": c.TimeBackClientSecret,
		"LEADS_BUCKET":           c.LeadsBucket,
		"LEADS_KEY":              c.LeadsKey,
		"ACCOUNTS_KEY":           c.AccountsKey,
		"CONFIG_SPREADSHEET_ID":  c.ConfigSpreadsheetID,
		"GOOGLE_ACCESS_TOKEN":    c.GoogleAccessToken,
		"TRACKER_FOLDER_ID":      c.TrackerFolderID,
	}

	var missing []string
	for name, value := range required {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
