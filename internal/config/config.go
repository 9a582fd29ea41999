package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Database DatabaseConfig `mapstructure:"database"`
	UI       UIConfig       `mapstructure:"ui"`
	Keys     KeyConfig      `mapstructure:"keys"`
}

type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

type FeedConfig struct {
	// PageSize is the articles-per-page limit; the backend accepts 1-200.
	PageSize int `mapstructure:"page_size"`
	// RefreshPerSource is the per-source item cap sent with refresh requests.
	RefreshPerSource int           `mapstructure:"refresh_per_source"`
	CacheRetention   time.Duration `mapstructure:"cache_retention"`
	CheckTimeout     time.Duration `mapstructure:"check_timeout"`
}

type DatabaseConfig struct {
	Path        string `mapstructure:"path"`
	SearchIndex string `mapstructure:"search_index"`
}

type UIConfig struct {
	Dark  Palette `mapstructure:"dark"`
	Light Palette `mapstructure:"light"`
}

type Palette struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit      string `mapstructure:"quit"`
	Refresh   string `mapstructure:"refresh"`
	Reload    string `mapstructure:"reload"`
	LoadMore  string `mapstructure:"load_more"`
	Sources   string `mapstructure:"sources"`
	Filters   string `mapstructure:"filters"`
	Search    string `mapstructure:"search"`
	ExtraFeed string `mapstructure:"extra_feed"`
	Theme     string `mapstructure:"theme"`
	Open      string `mapstructure:"open"`
	Back      string `mapstructure:"back"`
	Help      string `mapstructure:"help"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dbPath := filepath.Join(homeDir, ".newsdeck.db")
	searchIndexPath := filepath.Join(homeDir, ".newsdeck", "index.bleve")

	return &Config{
		API: APIConfig{
			BaseURL:   "http://localhost:8000",
			Timeout:   30 * time.Second,
			UserAgent: "newsdeck/1.0 (github.com/jsokolov/newsdeck)",
		},
		Feed: FeedConfig{
			PageSize:         50,
			RefreshPerSource: 20,
			CacheRetention:   7 * 24 * time.Hour,
			CheckTimeout:     15 * time.Second,
		},
		Database: DatabaseConfig{
			Path:        dbPath,
			SearchIndex: searchIndexPath,
		},
		UI: UIConfig{
			Dark: Palette{
				Primary:    "#FF6B6B",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
			Light: Palette{
				Primary:    "#C53030",
				Secondary:  "#0E7C7B",
				Accent:     "#2B6CB0",
				Background: "#FAFAFA",
				Surface:    "#EDF2F7",
				Text:       "#1A202C",
				Muted:      "#718096",
				Error:      "#C53030",
				Success:    "#276749",
			},
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:      "q",
				Refresh:   "r",
				Reload:    "l",
				LoadMore:  "m",
				Sources:   "s",
				Filters:   "f",
				Search:    "/",
				ExtraFeed: "e",
				Theme:     "t",
				Open:      "o",
				Back:      "esc",
				Help:      "?",
			},
		},
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("api", cfg.API)
	v.SetDefault("feed", cfg.Feed)
	v.SetDefault("database", cfg.Database)
	v.SetDefault("ui", cfg.UI)
	v.SetDefault("keys", cfg.Keys)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "newsdeck")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("NEWSDECK")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	clampFeed(&config.Feed)
	expandPaths(&config)

	return &config, nil
}

// clampFeed keeps page sizes inside the backend's accepted range.
func clampFeed(feed *FeedConfig) {
	if feed.PageSize < 1 {
		feed.PageSize = 1
	}
	if feed.PageSize > 200 {
		feed.PageSize = 200
	}
	if feed.RefreshPerSource < 1 {
		feed.RefreshPerSource = 20
	}
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Convert durations to strings for TOML readability
	apiCfg := map[string]interface{}{
		"base_url":   config.API.BaseURL,
		"timeout":    config.API.Timeout.String(),
		"user_agent": config.API.UserAgent,
	}

	feedCfg := map[string]interface{}{
		"page_size":          config.Feed.PageSize,
		"refresh_per_source": config.Feed.RefreshPerSource,
		"cache_retention":    config.Feed.CacheRetention.String(),
		"check_timeout":      config.Feed.CheckTimeout.String(),
	}

	v.Set("api", apiCfg)
	v.Set("feed", feedCfg)
	v.Set("database", map[string]interface{}{
		"path":         config.Database.Path,
		"search_index": config.Database.SearchIndex,
	})
	v.Set("ui", config.UI)
	v.Set("keys", config.Keys)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}

// TestConfig returns a default config for unit tests.
func TestConfig() *Config {
	return defaultConfig()
}
