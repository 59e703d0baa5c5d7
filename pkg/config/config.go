package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the Instagram publisher
type Config struct {
	// Graph API credentials and endpoint settings
	Graph GraphConfig `yaml:"graph" json:"graph"`

	// Pacing controls for the publish protocol
	Pacing PacingConfig `yaml:"pacing" json:"pacing"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// GraphConfig holds Graph API specific configuration
type GraphConfig struct {
	AccessToken string        `yaml:"access_token" json:"access_token"`
	AccountID   string        `yaml:"account_id" json:"account_id"`
	APIVersion  string        `yaml:"api_version" json:"api_version"`
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

// PacingConfig holds the timing knobs of the publish state machine.
// CreationDelay is the flat sleep between consecutive container creation
// calls; PollInterval and MaxPollAttempts bound status polling;
// PostCooldown is the pause between posts in a batch run.
type PacingConfig struct {
	CreationDelay     time.Duration `yaml:"creation_delay" json:"creation_delay"`
	PollInterval      time.Duration `yaml:"poll_interval" json:"poll_interval"`
	MaxPollAttempts   int           `yaml:"max_poll_attempts" json:"max_poll_attempts"`
	PostCooldown      time.Duration `yaml:"post_cooldown" json:"post_cooldown"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Graph: GraphConfig{
			APIVersion: "v19.0",
			BaseURL:    "https://graph.facebook.com",
			Timeout:    30 * time.Second,
		},
		Pacing: PacingConfig{
			CreationDelay:     time.Second,
			PollInterval:      2 * time.Second,
			MaxPollAttempts:   30,
			PostCooldown:      time.Minute,
			RequestsPerMinute: 60,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if token := os.Getenv("IGPUBLISHER_ACCESS_TOKEN"); token != "" {
		c.Graph.AccessToken = token
	}
	if accountID := os.Getenv("IGPUBLISHER_ACCOUNT_ID"); accountID != "" {
		c.Graph.AccountID = accountID
	}
	if version := os.Getenv("IGPUBLISHER_API_VERSION"); version != "" {
		c.Graph.APIVersion = version
	}
	if baseURL := os.Getenv("IGPUBLISHER_BASE_URL"); baseURL != "" {
		c.Graph.BaseURL = baseURL
	}

	if rpm := os.Getenv("IGPUBLISHER_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.Pacing.RequestsPerMinute = val
		}
	}
	if attempts := os.Getenv("IGPUBLISHER_MAX_POLL_ATTEMPTS"); attempts != "" {
		var val int
		fmt.Sscanf(attempts, "%d", &val)
		if val > 0 {
			c.Pacing.MaxPollAttempts = val
		}
	}
	if cooldown := os.Getenv("IGPUBLISHER_POST_COOLDOWN"); cooldown != "" {
		if d, err := time.ParseDuration(cooldown); err == nil && d >= 0 {
			c.Pacing.PostCooldown = d
		}
	}

	if logLevel := os.Getenv("IGPUBLISHER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".igpublisher.yaml",
		".igpublisher.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "igpublisher", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "igpublisher", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".igpublisher.yaml"),
		filepath.Join(os.Getenv("HOME"), ".igpublisher.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Graph.AccessToken == "" {
		errs = append(errs, errors.New("Graph API access token is required"))
	}
	if c.Graph.APIVersion == "" {
		errs = append(errs, errors.New("Graph API version is required"))
	}
	if c.Graph.BaseURL == "" {
		errs = append(errs, errors.New("Graph API base URL is required"))
	}
	if c.Graph.Timeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Pacing.CreationDelay < 0 {
		errs = append(errs, errors.New("creation delay cannot be negative"))
	}
	if c.Pacing.PollInterval <= 0 {
		errs = append(errs, errors.New("poll interval must be positive"))
	}
	if c.Pacing.MaxPollAttempts <= 0 {
		errs = append(errs, errors.New("max poll attempts must be positive"))
	}
	if c.Pacing.PostCooldown < 0 {
		errs = append(errs, errors.New("post cooldown cannot be negative"))
	}
	if c.Pacing.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if token, ok := flags["access-token"].(string); ok && token != "" {
		c.Graph.AccessToken = token
	}
	if accountID, ok := flags["account-id"].(string); ok && accountID != "" {
		c.Graph.AccountID = accountID
	}
	if version, ok := flags["api-version"].(string); ok && version != "" {
		c.Graph.APIVersion = version
	}
	if rpm, ok := flags["rate-limit"].(int); ok && rpm > 0 {
		c.Pacing.RequestsPerMinute = rpm
	}
	if cooldown, ok := flags["cooldown"].(time.Duration); ok && cooldown >= 0 {
		c.Pacing.PostCooldown = cooldown
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igpublisher.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
