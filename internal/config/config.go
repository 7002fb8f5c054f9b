package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"fxwatch/internal/logging"
)

const (
	BackendSheets   = "sheets"
	BackendPostgres = "postgres"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Provider ProviderConfig `mapstructure:"provider"`
	Alerting AlertingConfig `mapstructure:"alerting"`
	Trello   TrelloConfig   `mapstructure:"trello"`
	Recorder RecorderConfig `mapstructure:"recorder"`
	Sheets   SheetsConfig   `mapstructure:"sheets"`
	Database DatabaseConfig `mapstructure:"database"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Export   ExportConfig   `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// ProviderConfig covers the quote provider and the watched pair.
type ProviderConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Base           string        `mapstructure:"base"`
	Quote          string        `mapstructure:"quote"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// AlertingConfig defines the alert threshold.
type AlertingConfig struct {
	Threshold float64 `mapstructure:"threshold"`
}

// TrelloConfig holds task board credentials and routing.
type TrelloConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	Token          string        `mapstructure:"token"`
	ListID         string        `mapstructure:"list_id"`
	BaseURL        string        `mapstructure:"base_url"`
	Position       string        `mapstructure:"position"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// RecorderConfig selects where quotes are recorded.
type RecorderConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Backend string `mapstructure:"backend"`
}

// SheetsConfig covers Google Sheets access.
type SheetsConfig struct {
	CredentialsFile string        `mapstructure:"credentials_file"`
	SpreadsheetID   string        `mapstructure:"spreadsheet_id"`
	Worksheet       string        `mapstructure:"worksheet"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Sheet           string        `mapstructure:"sheet"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

// MetricsConfig points at an optional Pushgateway.
type MetricsConfig struct {
	PushgatewayURL string        `mapstructure:"pushgateway_url"`
	Job            string        `mapstructure:"job"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// envAliases binds the plain variable names used in deployment .env files.
var envAliases = map[string]string{
	"trello.api_key":          "TRELLO_API_KEY",
	"trello.token":            "TRELLO_TOKEN",
	"trello.list_id":          "TRELLO_LIST_ID",
	"sheets.spreadsheet_id":   "GOOGLE_SHEETS_SPREADSHEET_ID",
	"sheets.credentials_file": "GOOGLE_APPLICATION_CREDENTIALS",
	"database.dsn":            "DATABASE_URL",
}

// Load builds configuration from an optional .env file, the config file,
// environment, and defaults.
func Load(path, envFile string) (*Config, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("FXWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, name := range envAliases {
		if err := v.BindEnv(key, "FXWATCH_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), name); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", name, err)
		}
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadEnvFile never overrides variables already present in the environment.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "fxwatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("provider.base_url", "https://economia.awesomeapi.com.br")
	v.SetDefault("provider.base", "USD")
	v.SetDefault("provider.quote", "BRL")
	v.SetDefault("provider.request_timeout", "10s")
	v.SetDefault("provider.user_agent", "fxwatch/1.0")

	v.SetDefault("alerting.threshold", 5.50)

	v.SetDefault("trello.base_url", "https://api.trello.com/1")
	v.SetDefault("trello.position", "top")
	v.SetDefault("trello.request_timeout", "10s")

	v.SetDefault("recorder.enabled", true)
	v.SetDefault("recorder.backend", BackendSheets)

	v.SetDefault("sheets.credentials_file", "credentials.json")
	v.SetDefault("sheets.worksheet", "")
	v.SetDefault("sheets.request_timeout", "10s")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.sheet", "quotes")
	v.SetDefault("database.request_timeout", "10s")

	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "fxwatch")
	v.SetDefault("metrics.request_timeout", "5s")

	v.SetDefault("export.max_data_points", 10000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
// Missing Trello credentials are allowed; alerts are suppressed at run time.
func (c *Config) Validate() error {
	if c.Alerting.Threshold <= 0 {
		return fmt.Errorf("alerting.threshold must be greater than zero")
	}
	if strings.TrimSpace(c.Provider.Base) == "" || strings.TrimSpace(c.Provider.Quote) == "" {
		return fmt.Errorf("provider.base and provider.quote must be set")
	}
	if c.Provider.RequestTimeout <= 0 {
		return fmt.Errorf("provider.request_timeout must be greater than zero")
	}
	if c.Trello.RequestTimeout <= 0 {
		return fmt.Errorf("trello.request_timeout must be greater than zero")
	}
	switch c.Recorder.Backend {
	case BackendSheets:
		if c.Sheets.RequestTimeout <= 0 {
			return fmt.Errorf("sheets.request_timeout must be greater than zero")
		}
	case BackendPostgres:
		if c.Database.RequestTimeout <= 0 {
			return fmt.Errorf("database.request_timeout must be greater than zero")
		}
	default:
		return fmt.Errorf("recorder.backend must be %q or %q, got %q", BackendSheets, BackendPostgres, c.Recorder.Backend)
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
