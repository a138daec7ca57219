package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Feed      FeedConfig      `yaml:"feed" mapstructure:"feed"`
	Cluster   ClusterConfig   `yaml:"cluster" mapstructure:"cluster"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	GitHub    GitHubConfig    `yaml:"github" mapstructure:"github"`
	YouTube   YouTubeConfig   `yaml:"youtube" mapstructure:"youtube"`
	Events    EventsConfig    `yaml:"events" mapstructure:"events"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend for events and projects.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// FeedConfig configures discovery sources and the persisted feed window.
type FeedConfig struct {
	WhitelistPath  string   `yaml:"whitelist_path" mapstructure:"whitelist_path"`
	SnapshotPath   string   `yaml:"snapshot_path" mapstructure:"snapshot_path"`
	Keywords       []string `yaml:"keywords" mapstructure:"keywords"`
	PrioritySites  []string `yaml:"priority_sites" mapstructure:"priority_sites"`
	DelistSites    []string `yaml:"delist_sites" mapstructure:"delist_sites"`
	BannedSources  []string `yaml:"banned_sources" mapstructure:"banned_sources"`
	MaxItems       int      `yaml:"max_items" mapstructure:"max_items"`
	FreshnessHours int      `yaml:"freshness_hours" mapstructure:"freshness_hours"`
	MaxBriefs      int      `yaml:"max_briefs" mapstructure:"max_briefs"`
	BriefPauseSecs float64  `yaml:"brief_pause_secs" mapstructure:"brief_pause_secs"`
	ScanResearch   bool     `yaml:"scan_research" mapstructure:"scan_research"`
}

// ClusterConfig configures the semantic clustering engine.
type ClusterConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	BatchSize           int     `yaml:"batch_size" mapstructure:"batch_size"`
	BatchPauseSecs      float64 `yaml:"batch_pause_secs" mapstructure:"batch_pause_secs"`
	SummaryChars        int     `yaml:"summary_chars" mapstructure:"summary_chars"`
}

// GeminiConfig holds embedding service settings.
type GeminiConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds intel-brief generation settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// GitHubConfig holds GitHub Search API settings for the rubric backfill.
type GitHubConfig struct {
	Token string `yaml:"token" mapstructure:"token"`
	Query string `yaml:"query" mapstructure:"query"`
}

// YouTubeConfig holds YouTube Data API settings.
type YouTubeConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	MaxUploads int    `yaml:"max_uploads" mapstructure:"max_uploads"`
}

// EventsConfig configures the event discovery scanners.
type EventsConfig struct {
	Queries       []string `yaml:"queries" mapstructure:"queries"`
	RedditQueries []string `yaml:"reddit_queries" mapstructure:"reddit_queries"`
	UserAgent     string   `yaml:"user_agent" mapstructure:"user_agent"`
	FetchTimeout  int      `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
}

// ServerConfig configures the read-only API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CLAWBEAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "clawbeat.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("feed.whitelist_path", "whitelist.yaml")
	v.SetDefault("feed.snapshot_path", "public/data.json")
	v.SetDefault("feed.keywords", []string{
		"openclaw", "moltbot", "clawdbot", "moltbook", "steinberger", "claudbot", "openclaw foundation",
	})
	v.SetDefault("feed.priority_sites", []string{
		"substack.com", "beehiiv.com", "techcrunch.com", "wired.com", "theverge.com", "venturebeat.com",
	})
	v.SetDefault("feed.delist_sites", []string{
		"prnewswire.com", "businesswire.com", "globenewswire.com",
	})
	v.SetDefault("feed.banned_sources", []string{
		"access newswire", "globenewswire", "prnewswire", "business wire",
	})
	v.SetDefault("feed.max_items", 1000)
	v.SetDefault("feed.freshness_hours", 48)
	v.SetDefault("feed.max_briefs", 50)
	v.SetDefault("feed.brief_pause_secs", 6.5)
	v.SetDefault("feed.scan_research", false)
	v.SetDefault("cluster.similarity_threshold", 0.85)
	v.SetDefault("cluster.batch_size", 5)
	v.SetDefault("cluster.batch_pause_secs", 2.0)
	v.SetDefault("cluster.summary_chars", 200)
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("gemini.model", "gemini-embedding-001")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 256)
	v.SetDefault("github.query", "openclaw")
	v.SetDefault("youtube.max_uploads", 5)
	v.SetDefault("events.queries", []string{
		"openclaw event", "openclaw meetup", "openclaw hackathon", "openclaw conference",
		"openclaw workshop", "openclaw livestream", "openclaw demo day",
	})
	v.SetDefault("events.reddit_queries", []string{
		"openclaw+event", "openclaw+meetup", "openclaw+hackathon", "openclaw+workshop",
	})
	v.SetDefault("events.user_agent", "ClawBeatEventBot/1.0 (events discovery)")
	v.SetDefault("events.fetch_timeout_secs", 8)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
