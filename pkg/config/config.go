package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Asset describes one tracked asset: how to find mentions of it and how to
// price it. Keywords default to the asset name when empty.
type Asset struct {
	Name        string   `yaml:"name"`
	CoinGeckoID string   `yaml:"coingecko_id"`
	Keywords    []string `yaml:"keywords"`
	Monitor     struct {
		ThresholdUpPct   float64 `yaml:"threshold_up_pct"`
		ThresholdDownPct float64 `yaml:"threshold_down_pct"`
		Upper            float64 `yaml:"upper"`
		Lower            float64 `yaml:"lower"`
	} `yaml:"monitor"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Logging     struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Storage struct {
		Dir              string `yaml:"dir"`
		ObservationsFile string `yaml:"observations_file"`
		SummariesFile    string `yaml:"summaries_file"`
		PredictionsFile  string `yaml:"predictions_file"`
		AlertStateFile   string `yaml:"alert_state_file"`
	} `yaml:"storage"`
	Assets     []Asset `yaml:"assets"`
	Collectors struct {
		Timeout time.Duration `yaml:"timeout"`
		Reddit  struct {
			Enabled   bool   `yaml:"enabled"`
			BaseURL   string `yaml:"base_url"`
			Subreddit string `yaml:"subreddit"`
			Limit     int    `yaml:"limit"`
			PerAsset  int    `yaml:"per_asset"`
			UserAgent string `yaml:"user_agent"`
		} `yaml:"reddit"`
		RSS struct {
			Enabled  bool     `yaml:"enabled"`
			Feeds    []string `yaml:"feeds"`
			PerAsset int      `yaml:"per_asset"`
		} `yaml:"rss"`
	} `yaml:"collectors"`
	Prices struct {
		BaseURL  string        `yaml:"base_url"`
		Timeout  time.Duration `yaml:"timeout"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
		Redis    struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"prices"`
	Forecast struct {
		Horizon      time.Duration `yaml:"horizon"`
		TolerancePct float64       `yaml:"tolerance_pct"`
		Sensitivity  float64       `yaml:"sensitivity"`
	} `yaml:"forecast"`
	Alerts struct {
		MinInterval    time.Duration `yaml:"min_interval"`
		TrailingWindow time.Duration `yaml:"trailing_window"`
		Telegram       struct {
			Enabled  bool          `yaml:"enabled"`
			BaseURL  string        `yaml:"base_url"`
			BotToken string        `yaml:"bot_token"`
			ChatID   string        `yaml:"chat_id"`
			Timeout  time.Duration `yaml:"timeout"`
		} `yaml:"telegram"`
	} `yaml:"alerts"`
	Loop struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"loop"`
	Monitor struct {
		Interval       time.Duration `yaml:"interval"`
		UseStream      bool          `yaml:"use_stream"`
		WebSocketURL   string        `yaml:"websocket_url"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		AlertInterval  time.Duration `yaml:"alert_interval"`
	} `yaml:"monitor"`
	Feed struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		Compression  string        `yaml:"compression"`
		RequiredAcks int           `yaml:"required_acks"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		MaxAttempts  int           `yaml:"max_attempts"`
	} `yaml:"feed"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Alerts.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Alerts.Telegram.ChatID = v
	}
	if v := os.Getenv("STORAGE_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Feed.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Feed.Topic = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Prices.Redis.Host = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = "data"
	}
	if c.Storage.ObservationsFile == "" {
		c.Storage.ObservationsFile = "sentiment_history.csv"
	}
	if c.Storage.SummariesFile == "" {
		c.Storage.SummariesFile = "sentiment_summary.csv"
	}
	if c.Storage.PredictionsFile == "" {
		c.Storage.PredictionsFile = "prediction_log.json"
	}
	if c.Storage.AlertStateFile == "" {
		c.Storage.AlertStateFile = "alert_state.json"
	}
	if c.Collectors.Timeout <= 0 {
		c.Collectors.Timeout = 20 * time.Second
	}
	if c.Collectors.Reddit.Limit <= 0 {
		c.Collectors.Reddit.Limit = 50
	}
	if c.Collectors.Reddit.PerAsset <= 0 {
		c.Collectors.Reddit.PerAsset = 5
	}
	if c.Collectors.RSS.PerAsset <= 0 {
		c.Collectors.RSS.PerAsset = 5
	}
	if c.Prices.Timeout <= 0 {
		c.Prices.Timeout = 10 * time.Second
	}
	if c.Prices.CacheTTL <= 0 {
		c.Prices.CacheTTL = 5 * time.Minute
	}
	if c.Forecast.Horizon <= 0 {
		c.Forecast.Horizon = time.Hour
	}
	if c.Forecast.TolerancePct <= 0 {
		c.Forecast.TolerancePct = 4.0
	}
	if c.Forecast.Sensitivity == 0 {
		c.Forecast.Sensitivity = 0.02
	}
	if c.Alerts.MinInterval <= 0 {
		c.Alerts.MinInterval = time.Hour
	}
	if c.Alerts.TrailingWindow <= 0 {
		c.Alerts.TrailingWindow = 24 * time.Hour
	}
	if c.Alerts.Telegram.Timeout <= 0 {
		c.Alerts.Telegram.Timeout = 10 * time.Second
	}
	if c.Loop.Interval <= 0 {
		c.Loop.Interval = time.Hour
	}
	if c.Monitor.Interval <= 0 {
		c.Monitor.Interval = time.Minute
	}
	if c.Monitor.ReconnectDelay <= 0 {
		c.Monitor.ReconnectDelay = 5 * time.Second
	}
	if c.Monitor.PingInterval <= 0 {
		c.Monitor.PingInterval = 30 * time.Second
	}
	if c.Monitor.AlertInterval <= 0 {
		c.Monitor.AlertInterval = 15 * time.Minute
	}
	for i := range c.Assets {
		if len(c.Assets[i].Keywords) == 0 {
			c.Assets[i].Keywords = []string{c.Assets[i].Name}
		}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Assets) == 0 {
		return fmt.Errorf("assets cannot be empty")
	}
	for _, a := range c.Assets {
		if a.Name == "" {
			return fmt.Errorf("asset name is required")
		}
	}
	if c.Forecast.TolerancePct <= 0 {
		return fmt.Errorf("forecast.tolerance_pct must be positive")
	}
	if c.Alerts.Telegram.Enabled && c.Alerts.Telegram.BotToken == "" {
		return fmt.Errorf("alerts.telegram.bot_token is required when telegram is enabled")
	}
	if c.Feed.Enabled && len(c.Feed.Brokers) == 0 {
		return fmt.Errorf("feed.brokers cannot be empty when feed is enabled")
	}
	return nil
}

// AssetNames returns the configured asset names in order.
func (c *Config) AssetNames() []string {
	names := make([]string, 0, len(c.Assets))
	for _, a := range c.Assets {
		names = append(names, a.Name)
	}
	return names
}
