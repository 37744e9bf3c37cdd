package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Feeds         []Feed        `yaml:"feeds"`
	Keywords      []string      `yaml:"keywords"`
	Collection    Collection    `yaml:"collection"`
	Dedup         Dedup         `yaml:"dedup"`
	Ranking       Ranking       `yaml:"ranking"`
	Summarization Summarization `yaml:"summarization"`
	Output        Output        `yaml:"output"`
	Server        Server        `yaml:"server"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

// Collection controls the per-source collection stage.
type Collection struct {
	ArticlesPerSource  int `yaml:"articles_per_source"`
	MaxArticleAgeDays  int `yaml:"max_article_age_days"`
	MaxFeeds           int `yaml:"max_feeds"` // 0 = all configured feeds
	FeedTimeoutSeconds int `yaml:"feed_timeout_seconds"`
}

// Dedup controls the duplicate-removal stage.
type Dedup struct {
	// Threshold is the title similarity at or above which two articles
	// are treated as the same story. Must be in (0, 1].
	Threshold float64 `yaml:"threshold"`
}

// Ranking controls the final selection stage.
type Ranking struct {
	MaxArticles int `yaml:"max_articles"`
	// Margin is the overage (beyond MaxArticles) up to which the pool is
	// trimmed by recency alone. Above it the LLM ranker is consulted.
	Margin              int  `yaml:"margin"`
	SmartRanking        bool `yaml:"smart_ranking"`
	TimeoutSeconds      int  `yaml:"timeout_seconds"`
	MaxExecutionSeconds int  `yaml:"max_execution_seconds"`
}

type Summarization struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	OllamaURL   string `yaml:"ollama_url"`
	OpenAIModel string `yaml:"openai_model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	MaxTokens   int    `yaml:"max_tokens"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

// ConfigDir returns the XDG config directory for ainews.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "ainews")
}

// DataDir returns the XDG data directory for ainews.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "ainews")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/ainews/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'ainews init' to create a default config",
		xdgConfig,
	)
}

// Load reads, parses, and validates a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Collection: Collection{
			ArticlesPerSource:  5,
			MaxArticleAgeDays:  7,
			FeedTimeoutSeconds: 10,
		},
		Dedup: Dedup{Threshold: 0.85},
		Ranking: Ranking{
			MaxArticles:         10,
			Margin:              5,
			SmartRanking:        true,
			TimeoutSeconds:      30,
			MaxExecutionSeconds: 300,
		},
		Summarization: Summarization{
			Provider:    "ollama",
			Model:       "qwen2.5:7b",
			OllamaURL:   "http://localhost:11434",
			OpenAIModel: "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			MaxTokens:   512,
		},
		Server: Server{Port: 8000},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Validate rejects configurations no sensible pipeline run can be built
// from. It runs before any feed is fetched.
func (c *Config) Validate() error {
	if len(c.Feeds) == 0 {
		return fmt.Errorf("at least one feed must be configured")
	}
	if len(c.Keywords) == 0 {
		return fmt.Errorf("at least one relevance keyword must be configured")
	}
	if c.Ranking.MaxArticles <= 0 {
		return fmt.Errorf("ranking.max_articles must be positive, got %d", c.Ranking.MaxArticles)
	}
	if c.Ranking.Margin < 0 {
		return fmt.Errorf("ranking.margin must not be negative, got %d", c.Ranking.Margin)
	}
	if c.Collection.ArticlesPerSource <= 0 {
		return fmt.Errorf("collection.articles_per_source must be positive, got %d", c.Collection.ArticlesPerSource)
	}
	if c.Collection.MaxArticleAgeDays <= 0 {
		return fmt.Errorf("collection.max_article_age_days must be positive, got %d", c.Collection.MaxArticleAgeDays)
	}
	if c.Collection.MaxFeeds < 0 {
		return fmt.Errorf("collection.max_feeds must not be negative, got %d", c.Collection.MaxFeeds)
	}
	if c.Dedup.Threshold <= 0 || c.Dedup.Threshold > 1 {
		return fmt.Errorf("dedup.threshold must be in (0, 1], got %g", c.Dedup.Threshold)
	}
	if c.Ranking.TimeoutSeconds <= 0 {
		return fmt.Errorf("ranking.timeout_seconds must be positive, got %d", c.Ranking.TimeoutSeconds)
	}
	if c.Ranking.MaxExecutionSeconds <= 0 {
		return fmt.Errorf("ranking.max_execution_seconds must be positive, got %d", c.Ranking.MaxExecutionSeconds)
	}
	return nil
}

// MaxArticleAge returns the freshness window as a duration.
func (c *Config) MaxArticleAge() time.Duration {
	return time.Duration(c.Collection.MaxArticleAgeDays) * 24 * time.Hour
}

// FeedTimeout returns the per-feed fetch timeout.
func (c *Config) FeedTimeout() time.Duration {
	return time.Duration(c.Collection.FeedTimeoutSeconds) * time.Second
}

// RankingTimeout returns the timeout for a single LLM ranking call.
func (c *Config) RankingTimeout() time.Duration {
	return time.Duration(c.Ranking.TimeoutSeconds) * time.Second
}

// MaxExecution returns the overall pipeline deadline.
func (c *Config) MaxExecution() time.Duration {
	return time.Duration(c.Ranking.MaxExecutionSeconds) * time.Second
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
