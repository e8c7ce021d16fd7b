package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for birbbot
type Config struct {
	Reddit    RedditConfig    `yaml:"reddit" json:"reddit"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Scrapers  []ScraperConfig `yaml:"scrapers" json:"scrapers"`
	Schedule  ScheduleConfig  `yaml:"schedule" json:"schedule"`
	Download  DownloadConfig  `yaml:"download" json:"download"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Retry     RetryConfig     `yaml:"retry" json:"retry"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// RedditConfig holds feed client credentials and access mode
type RedditConfig struct {
	ClientID     string `yaml:"client_id" json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"client_secret"`
	Username     string `yaml:"username" json:"username"`
	Password     string `yaml:"password" json:"password"`
	UserAgent    string `yaml:"user_agent" json:"user_agent"`
	// Mode selects the feed client: api, public or mock
	Mode string `yaml:"mode" json:"mode"`
	// RequestTimeout bounds each Reddit API call; zero disables it
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// CacheConfig locates the shared dedup store
type CacheConfig struct {
	StorePath string `yaml:"store_path" json:"store_path"`
	// Backend is bolt or json
	Backend string `yaml:"backend" json:"backend"`
}

// ScraperConfig describes one feed to crawl
type ScraperConfig struct {
	Subreddit    string `yaml:"subreddit" json:"subreddit"`
	Folder       string `yaml:"folder" json:"folder"`
	NamespaceKey string `yaml:"namespace_key" json:"namespace_key"`
}

// ScheduleConfig controls how often crawls repeat
type ScheduleConfig struct {
	Interval     time.Duration `yaml:"interval" json:"interval"`
	Cron         string        `yaml:"cron" json:"cron"`
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
}

// DownloadConfig holds image fetch settings
type DownloadConfig struct {
	ListingLimit int           `yaml:"listing_limit" json:"listing_limit"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	MaxFileSize  int64         `yaml:"max_file_size" json:"max_file_size"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
}

// RateLimitConfig paces outgoing requests
type RateLimitConfig struct {
	FeedRequestsPerMinute     int `yaml:"feed_requests_per_minute" json:"feed_requests_per_minute"`
	DownloadRequestsPerMinute int `yaml:"download_requests_per_minute" json:"download_requests_per_minute"`
	BurstSize                 int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds retry settings for image fetches
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier  float64       `yaml:"multiplier" json:"multiplier"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

const (
	ModeAPI    = "api"
	ModePublic = "public"
	ModeMock   = "mock"

	BackendBolt = "bolt"
	BackendJSON = "json"
)

var subredditPattern = regexp.MustCompile(`^[A-Za-z0-9_]{2,21}$`)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Reddit: RedditConfig{
			UserAgent:      "birbbot/1.0",
			Mode:           ModePublic,
			RequestTimeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			StorePath: "./birbbot.db",
			Backend:   BackendBolt,
		},
		Scrapers: []ScraperConfig{
			{Subreddit: "birbs", Folder: "./Birbs/", NamespaceKey: "birbs"},
		},
		Schedule: ScheduleConfig{
			Interval:     24 * time.Hour,
			PollInterval: 30 * time.Second,
		},
		Download: DownloadConfig{
			ListingLimit: 30,
			Timeout:      30 * time.Second,
			UserAgent:    "birbbot/1.0",
		},
		RateLimit: RateLimitConfig{
			FeedRequestsPerMinute:     60,
			DownloadRequestsPerMinute: 120,
			BurstSize:                 5,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
			Multiplier:  2.0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadFromEnv loads configuration from BIRBBOT_* environment variables.
// Subreddit, folder and namespace variables apply to the first scraper.
func (c *Config) LoadFromEnv() error {
	setString(&c.Reddit.ClientID, "BIRBBOT_CLIENT_ID")
	setString(&c.Reddit.ClientSecret, "BIRBBOT_CLIENT_SECRET")
	setString(&c.Reddit.Username, "BIRBBOT_USERNAME")
	setString(&c.Reddit.Password, "BIRBBOT_PASSWORD")
	setString(&c.Reddit.UserAgent, "BIRBBOT_USER_AGENT")
	setString(&c.Reddit.Mode, "BIRBBOT_COLLECTOR_MODE")
	setString(&c.Cache.StorePath, "BIRBBOT_STORE_PATH")
	setString(&c.Cache.Backend, "BIRBBOT_CACHE_BACKEND")
	setString(&c.Logging.Level, "BIRBBOT_LOG_LEVEL")

	sub, folder, ns := os.Getenv("BIRBBOT_SUBREDDIT"), os.Getenv("BIRBBOT_FOLDER"), os.Getenv("BIRBBOT_NAMESPACE_KEY")
	if sub != "" || folder != "" || ns != "" {
		if len(c.Scrapers) == 0 {
			c.Scrapers = append(c.Scrapers, ScraperConfig{})
		}
		setIfNotEmpty(&c.Scrapers[0].Subreddit, sub)
		setIfNotEmpty(&c.Scrapers[0].Folder, folder)
		setIfNotEmpty(&c.Scrapers[0].NamespaceKey, ns)
	}

	if v := os.Getenv("BIRBBOT_SCHEDULE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BIRBBOT_SCHEDULE_INTERVAL: %w", err)
		}
		c.Schedule.Interval = d
	}

	if v := os.Getenv("BIRBBOT_LISTING_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BIRBBOT_LISTING_LIMIT: %w", err)
		}
		c.Download.ListingLimit = n
	}

	return nil
}

func setString(dst *string, env string) {
	setIfNotEmpty(dst, os.Getenv(env))
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
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
	home := os.Getenv("HOME")
	locations := []string{
		".birbbot.yaml",
		".birbbot.yml",
		filepath.Join(home, ".config", "birbbot", "config.yaml"),
		filepath.Join(home, ".config", "birbbot", "config.yml"),
		filepath.Join(home, ".birbbot.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Normalize fills in values derived from other fields
func (c *Config) Normalize() {
	for i := range c.Scrapers {
		s := &c.Scrapers[i]
		if s.NamespaceKey == "" {
			s.NamespaceKey = s.Subreddit
		}
		if s.Folder == "" && s.Subreddit != "" {
			s.Folder = filepath.Join(".", s.Subreddit)
		}
	}
	if c.Download.UserAgent == "" {
		c.Download.UserAgent = c.Reddit.UserAgent
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	switch c.Reddit.Mode {
	case ModeAPI, ModePublic, ModeMock:
	default:
		errs = append(errs, fmt.Errorf("unknown reddit mode %q (use api, public or mock)", c.Reddit.Mode))
	}
	if c.Reddit.UserAgent == "" {
		errs = append(errs, errors.New("reddit user agent is required"))
	}
	if c.Reddit.RequestTimeout < 0 {
		errs = append(errs, errors.New("reddit request timeout cannot be negative"))
	}

	if c.Cache.StorePath == "" {
		errs = append(errs, errors.New("cache store path is required"))
	}
	if c.Cache.Backend != BackendBolt && c.Cache.Backend != BackendJSON {
		errs = append(errs, fmt.Errorf("unknown cache backend %q (use bolt or json)", c.Cache.Backend))
	}

	if len(c.Scrapers) == 0 {
		errs = append(errs, errors.New("at least one scraper is required"))
	}
	namespaces := make(map[string]bool)
	for i, s := range c.Scrapers {
		if !subredditPattern.MatchString(s.Subreddit) {
			errs = append(errs, fmt.Errorf("scraper %d: invalid subreddit name %q", i, s.Subreddit))
		}
		if s.Folder == "" {
			errs = append(errs, fmt.Errorf("scraper %d: folder is required", i))
		}
		if s.NamespaceKey == "" {
			errs = append(errs, fmt.Errorf("scraper %d: namespace key is required", i))
		} else if namespaces[s.NamespaceKey] {
			errs = append(errs, fmt.Errorf("scraper %d: namespace key %q is used twice", i, s.NamespaceKey))
		}
		namespaces[s.NamespaceKey] = true
	}

	if c.Schedule.Interval <= 0 && c.Schedule.Cron == "" {
		errs = append(errs, errors.New("schedule interval must be positive"))
	}
	if c.Schedule.PollInterval <= 0 {
		errs = append(errs, errors.New("schedule poll interval must be positive"))
	}

	if c.Download.ListingLimit <= 0 || c.Download.ListingLimit > 100 {
		errs = append(errs, errors.New("listing limit must be between 1 and 100"))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.MaxFileSize < 0 {
		errs = append(errs, errors.New("max file size cannot be negative"))
	}

	if c.RateLimit.FeedRequestsPerMinute <= 0 || c.RateLimit.DownloadRequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry max attempts must be at least 1"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
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
	if v, ok := flags["store-path"].(string); ok && v != "" {
		c.Cache.StorePath = v
	}
	if v, ok := flags["backend"].(string); ok && v != "" {
		c.Cache.Backend = v
	}
	if v, ok := flags["mode"].(string); ok && v != "" {
		c.Reddit.Mode = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["interval"].(time.Duration); ok && v > 0 {
		c.Schedule.Interval = v
	}
	if v, ok := flags["listing-limit"].(int); ok && v > 0 {
		c.Download.ListingLimit = v
	}

	sub, _ := flags["subreddit"].(string)
	if sub == "" {
		return
	}
	// a subreddit on the command line replaces the configured scraper list
	folder, _ := flags["folder"].(string)
	ns, _ := flags["namespace-key"].(string)
	c.Scrapers = []ScraperConfig{{Subreddit: sub, Folder: folder, NamespaceKey: ns}}
}

// Load loads configuration from all sources with proper precedence:
// command line flags > environment variables > .env file > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".birbbot.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)
	config.Normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
