package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Data backends accepted by DATA_BACKEND.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

const (
	DefaultLLMModel       = "qwen-plus"
	DefaultLLMBaseURL     = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	DefaultGeocodeBaseURL = "https://restapi.amap.com"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	ShutdownTimeout    time.Duration

	// Storage
	DataBackend  string
	SQLiteDBPath string
	DatabaseURL  string

	// AMQP. Events stay in process when AMQPURL is empty.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Process-wide credential defaults, overridable per request.
	LLMAPIKey       string
	LLMModel        string
	LLMBaseURL      string
	GeocodeAPIKey   string
	GeocodeBaseURL  string
	UpstreamTimeout time.Duration

	// Identity provider token secret (HS256).
	JWTSecret string

	// Google Sheets mirror used by the worker
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Logging
	LogLevel  string
	LogFormat string
}

// fileConfig is the layout of the optional TOML file.
type fileConfig struct {
	Server struct {
		Port               string `toml:"port"`
		RateLimitPerMinute *int   `toml:"rate_limit_per_minute"`
		ShutdownTimeout    string `toml:"shutdown_timeout"`
	} `toml:"server"`
	Storage struct {
		Backend     string `toml:"backend"`
		SQLitePath  string `toml:"sqlite_path"`
		DatabaseURL string `toml:"database_url"`
	} `toml:"storage"`
	AMQP struct {
		URL      string `toml:"url"`
		Exchange string `toml:"exchange"`
		Queue    string `toml:"queue"`
	} `toml:"amqp"`
	LLM struct {
		APIKey  string `toml:"api_key"`
		Model   string `toml:"model"`
		BaseURL string `toml:"base_url"`
	} `toml:"llm"`
	Geocode struct {
		APIKey  string `toml:"api_key"`
		BaseURL string `toml:"base_url"`
	} `toml:"geocode"`
	Upstream struct {
		Timeout string `toml:"timeout"`
	} `toml:"upstream"`
	Auth struct {
		JWTSecret string `toml:"jwt_secret"`
	} `toml:"auth"`
	Sheets struct {
		SpreadsheetID      string `toml:"spreadsheet_id"`
		SheetName          string `toml:"sheet_name"`
		ServiceAccountFile string `toml:"service_account_file"`
	} `toml:"sheets"`
	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
}

// Defaults returns the configuration used when neither a file nor the environment sets a value.
func Defaults() *Config {
	return &Config{
		Port:               "8080",
		RateLimitPerMinute: 60,
		ShutdownTimeout:    10 * time.Second,

		DataBackend:  BackendSQLite,
		SQLiteDBPath: "./data/tripplan.db",

		AMQPExchange: "tripplan",
		AMQPQueue:    "tripplan_events",

		LLMModel:       DefaultLLMModel,
		LLMBaseURL:     DefaultLLMBaseURL,
		GeocodeBaseURL: DefaultGeocodeBaseURL,

		GoogleSheetName: "Expenses",

		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load builds the configuration from defaults, then the TOML file at path (if
// path is not empty), then environment variables. Later sources win.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %s: %w", path, err)
		}
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	setString(&c.Port, fc.Server.Port)
	if fc.Server.RateLimitPerMinute != nil {
		c.RateLimitPerMinute = *fc.Server.RateLimitPerMinute
	}
	if err := setDuration(&c.ShutdownTimeout, "server.shutdown_timeout", fc.Server.ShutdownTimeout); err != nil {
		return err
	}

	setString(&c.DataBackend, fc.Storage.Backend)
	setString(&c.SQLiteDBPath, fc.Storage.SQLitePath)
	setString(&c.DatabaseURL, fc.Storage.DatabaseURL)

	setString(&c.AMQPURL, fc.AMQP.URL)
	setString(&c.AMQPExchange, fc.AMQP.Exchange)
	setString(&c.AMQPQueue, fc.AMQP.Queue)

	setString(&c.LLMAPIKey, fc.LLM.APIKey)
	setString(&c.LLMModel, fc.LLM.Model)
	setString(&c.LLMBaseURL, fc.LLM.BaseURL)
	setString(&c.GeocodeAPIKey, fc.Geocode.APIKey)
	setString(&c.GeocodeBaseURL, fc.Geocode.BaseURL)
	if err := setDuration(&c.UpstreamTimeout, "upstream.timeout", fc.Upstream.Timeout); err != nil {
		return err
	}

	setString(&c.JWTSecret, fc.Auth.JWTSecret)

	setString(&c.GoogleSpreadsheetID, fc.Sheets.SpreadsheetID)
	setString(&c.GoogleSheetName, fc.Sheets.SheetName)
	setString(&c.GoogleServiceAccountFile, fc.Sheets.ServiceAccountFile)

	setString(&c.LogLevel, fc.Log.Level)
	setString(&c.LogFormat, fc.Log.Format)
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)

	c.DataBackend = getEnv("DATA_BACKEND", c.DataBackend)
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPQueue = getEnv("AMQP_QUEUE", c.AMQPQueue)

	c.LLMAPIKey = getEnv("LLM_API_KEY", c.LLMAPIKey)
	c.LLMModel = getEnv("LLM_MODEL", c.LLMModel)
	c.LLMBaseURL = getEnv("LLM_BASE_URL", c.LLMBaseURL)
	c.GeocodeAPIKey = getEnv("GEOCODE_API_KEY", c.GeocodeAPIKey)
	c.GeocodeBaseURL = getEnv("GEOCODE_BASE_URL", c.GeocodeBaseURL)
	c.UpstreamTimeout = getEnvDuration("UPSTREAM_TIMEOUT", c.UpstreamTimeout)

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)

	c.GoogleSpreadsheetID = getEnv("GOOGLE_SPREADSHEET_ID", c.GoogleSpreadsheetID)
	c.GoogleSheetName = getEnv("GOOGLE_SHEET_NAME", c.GoogleSheetName)
	c.GoogleServiceAccountJSON = getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", c.GoogleServiceAccountJSON)
	c.GoogleServiceAccountFile = getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", c.GoogleServiceAccountFile)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
}

// EventsEnabled reports whether events go through the broker.
func (c *Config) EventsEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimitPerMinute))
	}

	validBackends := []string{BackendMemory, BackendSQLite, BackendPostgres}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == BackendPostgres {
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, "invalid DATABASE_URL: must be a postgres:// URL")
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

	for name, raw := range map[string]string{"LLM base URL": c.LLMBaseURL, "geocode base URL": c.GeocodeBaseURL} {
		if u, err := url.Parse(raw); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid %s '%s': must be an http(s) URL", name, raw))
		}
	}
	if c.UpstreamTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid upstream timeout %v: must not be negative", c.UpstreamTimeout))
	}

	if c.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required to verify identity tokens")
	}

	switch c.LogFormat {
	case "text", "json", "tint":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of [text json tint]", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateWorker checks the settings the sheets mirror worker needs on top of Validate.
func (c *Config) ValidateWorker() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the worker")
	}
	if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for the worker")
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}
	if len(errors) > 0 {
		return fmt.Errorf("worker configuration invalid:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
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
