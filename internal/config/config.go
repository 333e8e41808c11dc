// Package config loads application configuration from file and environment
// and owns the global logger setup.
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
	Geoapify GeoapifyConfig `yaml:"geoapify" mapstructure:"geoapify"`
	Jina     JinaConfig     `yaml:"jina" mapstructure:"jina"`
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Scorer   ScorerConfig   `yaml:"scorer" mapstructure:"scorer"`
	Rerank   RerankConfig   `yaml:"rerank" mapstructure:"rerank"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// GeoapifyConfig holds Geoapify API settings.
type GeoapifyConfig struct {
	Key          string  `yaml:"key" mapstructure:"key"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec   float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	CacheEntries int     `yaml:"cache_entries" mapstructure:"cache_entries"`
	CacheTTLMins int     `yaml:"cache_ttl_mins" mapstructure:"cache_ttl_mins"`
}

// JinaConfig holds Jina reranker API settings.
type JinaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// SearchConfig configures the radius/category expansion loop.
type SearchConfig struct {
	DefaultDistanceKm float64 `yaml:"default_distance_km" mapstructure:"default_distance_km"`
	MaxRadiusKm       float64 `yaml:"max_radius_km" mapstructure:"max_radius_km"`
	PaddingKm         float64 `yaml:"padding_km" mapstructure:"padding_km"`
	CircleLimit       int     `yaml:"circle_limit" mapstructure:"circle_limit"`
	RectLimit         int     `yaml:"rect_limit" mapstructure:"rect_limit"`
	MinResults        int     `yaml:"min_results" mapstructure:"min_results"`
	MaxResults        int     `yaml:"max_results" mapstructure:"max_results"`
	DefaultLang       string  `yaml:"default_lang" mapstructure:"default_lang"`
}

// ScorerConfig holds sub-score weights and violation penalties.
type ScorerConfig struct {
	CuisineWeight  float64 `yaml:"cuisine_weight" mapstructure:"cuisine_weight"`
	DistanceWeight float64 `yaml:"distance_weight" mapstructure:"distance_weight"`
	RatingWeight   float64 `yaml:"rating_weight" mapstructure:"rating_weight"`
	AmbienceWeight float64 `yaml:"ambience_weight" mapstructure:"ambience_weight"`
	WebsiteWeight  float64 `yaml:"website_weight" mapstructure:"website_weight"`

	MissingCuisinePenalty float64 `yaml:"missing_cuisine_penalty" mapstructure:"missing_cuisine_penalty"`
	CategoryRelaxPenalty  float64 `yaml:"category_relax_penalty" mapstructure:"category_relax_penalty"`
}

// RerankConfig configures the optional external rerank pass.
type RerankConfig struct {
	Enabled bool    `yaml:"enabled" mapstructure:"enabled"`
	TopN    int     `yaml:"top_n" mapstructure:"top_n"`
	Weight  float64 `yaml:"weight" mapstructure:"weight"`
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
	v.SetEnvPrefix("TABLESCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("geoapify.key", "")
	v.SetDefault("geoapify.base_url", "https://api.geoapify.com")
	v.SetDefault("geoapify.timeout_secs", 10)
	v.SetDefault("geoapify.rate_per_sec", 5)
	v.SetDefault("geoapify.cache_entries", 128)
	v.SetDefault("geoapify.cache_ttl_mins", 30)
	v.SetDefault("jina.key", "")
	v.SetDefault("jina.base_url", "https://api.jina.ai")
	v.SetDefault("jina.model", "jina-reranker-v2-base-multilingual")
	v.SetDefault("search.default_distance_km", 3.0)
	v.SetDefault("search.max_radius_km", 20.0)
	v.SetDefault("search.padding_km", 0.6)
	v.SetDefault("search.circle_limit", 20)
	v.SetDefault("search.rect_limit", 50)
	v.SetDefault("search.min_results", 5)
	v.SetDefault("search.max_results", 24)
	v.SetDefault("search.default_lang", "en")
	v.SetDefault("scorer.cuisine_weight", 0.35)
	v.SetDefault("scorer.distance_weight", 0.25)
	v.SetDefault("scorer.rating_weight", 0.25)
	v.SetDefault("scorer.ambience_weight", 0.10)
	v.SetDefault("scorer.website_weight", 0.05)
	v.SetDefault("scorer.missing_cuisine_penalty", 0.3)
	v.SetDefault("scorer.category_relax_penalty", 0.1)
	v.SetDefault("rerank.enabled", false)
	v.SetDefault("rerank.top_n", 10)
	v.SetDefault("rerank.weight", 0.4)

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
