package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

type Config struct {
	// HTTP Server
	Port       string
	CORSOrigin string
	LogLevel   string

	// Backend selection
	DataBackend  string
	SQLiteDBPath string

	// AMQP, optional. Without it reminders are delivered in-process.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Response cache. Redis is used when RedisAddr is set.
	RedisAddr string
	CacheTTL  time.Duration

	// SMTP
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	// Reminders
	ReminderRecipients []string
	ReminderTimezone   string
	ReminderHours      []int
	ReminderWindow     string

	// Offline CLI
	APIBaseURL          string
	OfflineDBPath       string
	OfflineSyncInterval time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port:       getEnv("PORT", "8081"),
		CORSOrigin: getEnv("CORS_ORIGIN", ""),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/contas.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "contas"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "due_reminders"),

		RedisAddr: getEnv("REDIS_ADDR", ""),
		CacheTTL:  getEnvDuration("CACHE_TTL", 5*time.Minute),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),

		ReminderRecipients: getEnvList("REMINDER_RECIPIENTS", nil),
		ReminderTimezone:   getEnv("REMINDER_TIMEZONE", "America/Cuiaba"),
		ReminderHours:      getEnvIntList("REMINDER_HOURS", []int{8, 22}),
		ReminderWindow:     getEnv("REMINDER_WINDOW", "today-tomorrow"),

		APIBaseURL:          getEnv("API_BASE_URL", "http://localhost:8081"),
		OfflineDBPath:       getEnv("OFFLINE_DB_PATH", "./data/offline.db"),
		OfflineSyncInterval: getEnvDuration("OFFLINE_SYNC_INTERVAL", 15*time.Second),
	}

	return cfg
}

// SMTPEnabled reports whether reminder mail can be sent.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && len(c.ReminderRecipients) > 0
}

// Location resolves ReminderTimezone. Call after Validate.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReminderTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite"}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if msg := ensureDir(c.SQLiteDBPath); msg != "" {
			errors = append(errors, msg)
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}

	if c.SMTPHost != "" {
		if c.SMTPPort < 1 || c.SMTPPort > 65535 {
			errors = append(errors, fmt.Sprintf("invalid SMTP port %d: must be between 1 and 65535", c.SMTPPort))
		}
		if len(c.ReminderRecipients) == 0 {
			errors = append(errors, "REMINDER_RECIPIENTS is required when SMTP_HOST is set")
		}
	}
	for _, r := range c.ReminderRecipients {
		if !strings.Contains(r, "@") {
			errors = append(errors, fmt.Sprintf("invalid reminder recipient '%s'", r))
		}
	}

	if _, err := time.LoadLocation(c.ReminderTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid reminder timezone '%s': %v", c.ReminderTimezone, err))
	}
	if len(c.ReminderHours) == 0 {
		errors = append(errors, "REMINDER_HOURS must list at least one hour")
	}
	for _, h := range c.ReminderHours {
		if h < 0 || h > 23 {
			errors = append(errors, fmt.Sprintf("invalid reminder hour %d: must be between 0 and 23", h))
		}
	}
	if c.ReminderWindow != "today" && c.ReminderWindow != "today-tomorrow" {
		errors = append(errors, fmt.Sprintf("invalid reminder window '%s': must be 'today' or 'today-tomorrow'", c.ReminderWindow))
	}

	if c.APIBaseURL != "" {
		if u, err := url.Parse(c.APIBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid API base URL '%s': must be http or https", c.APIBaseURL))
		}
	}
	if c.OfflineSyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid offline sync interval %v: must be at least 1 second", c.OfflineSyncInterval))
	} else if c.OfflineSyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid offline sync interval %v: must be at most 24 hours", c.OfflineSyncInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ensureDir creates the parent directory of path when missing and returns a
// validation message on failure.
func ensureDir(path string) string {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return ""
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err)
		}
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blank items.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnvIntList falls back to defaultValue when any item is not a number.
func getEnvIntList(key string, defaultValue []int) []int {
	items := getEnvList(key, nil)
	if items == nil {
		return defaultValue
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		i, err := strconv.Atoi(item)
		if err != nil {
			return defaultValue
		}
		out = append(out, i)
	}
	return out
}
