package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP listener settings for the webhook front door.
type ServerConfig struct {
	Host string `yaml:"host" envconfig:"HOST"`
	Port int    `yaml:"port" envconfig:"PORT"`
}

// LineConfig holds LINE Messaging API credentials.
type LineConfig struct {
	ChannelSecret string `yaml:"channel_secret" envconfig:"LINE_CHANNEL_SECRET"`
	ChannelToken  string `yaml:"channel_token" envconfig:"LINE_CHANNEL_ACCESS_TOKEN"`
}

// ZoomConfig holds Zoom API credentials and meeting defaults.
type ZoomConfig struct {
	APIKey    string `yaml:"api_key" envconfig:"ZOOM_API_KEY"`
	APISecret string `yaml:"api_secret" envconfig:"ZOOM_API_SECRET"`
	AccountID string `yaml:"account_id" envconfig:"ZOOM_ACCOUNT_ID"`
	Timezone  string `yaml:"timezone" envconfig:"ZOOM_TIMEZONE"`
}

// GoogleConfig holds Google Calendar service-account settings.
type GoogleConfig struct {
	CredentialsJSON string `yaml:"credentials_json" envconfig:"GOOGLE_CREDENTIALS_JSON"`
	CalendarID      string `yaml:"calendar_id" envconfig:"GOOGLE_CALENDAR_ID"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// QueueConfig sizes a bounded worker queue.
type QueueConfig struct {
	Size    int `yaml:"size"`
	Workers int `yaml:"workers"`
}

// QueuesConfig groups the async queues used by the bot.
type QueuesConfig struct {
	Send      QueueConfig `yaml:"send"`
	Provision QueueConfig `yaml:"provision"`
}

// Config aggregates the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Line     LineConfig     `yaml:"line"`
	Zoom     ZoomConfig     `yaml:"zoom"`
	Google   GoogleConfig   `yaml:"google"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Queues   QueuesConfig   `yaml:"queues"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	var missing []string
	if strings.TrimSpace(cfg.Line.ChannelSecret) == "" {
		missing = append(missing, "line.channel_secret")
	}
	if strings.TrimSpace(cfg.Line.ChannelToken) == "" {
		missing = append(missing, "line.channel_token")
	}
	if strings.TrimSpace(cfg.Zoom.APIKey) == "" {
		missing = append(missing, "zoom.api_key")
	}
	if strings.TrimSpace(cfg.Zoom.APISecret) == "" {
		missing = append(missing, "zoom.api_secret")
	}
	if strings.TrimSpace(cfg.Google.CredentialsJSON) == "" {
		missing = append(missing, "google.credentials_json")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if strings.TrimSpace(cfg.Server.Host) == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8000
	}
	if strings.TrimSpace(cfg.Zoom.Timezone) == "" {
		cfg.Zoom.Timezone = "Asia/Tokyo"
	}
	if strings.TrimSpace(cfg.Google.CalendarID) == "" {
		cfg.Google.CalendarID = "primary"
	}

	if strings.TrimSpace(cfg.Database.SSLMode) == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConnections <= 0 {
		cfg.Database.MaxConnections = 10
	}

	if cfg.Queues.Send.Size < 0 || cfg.Queues.Provision.Size < 0 {
		return fmt.Errorf("queue size must be >= 0")
	}
	if cfg.Queues.Send.Workers < 0 || cfg.Queues.Provision.Workers < 0 {
		return fmt.Errorf("queue workers must be >= 0")
	}
	return nil
}

// ListenAddr joins the configured host and port into a net listen address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
