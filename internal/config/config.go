package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Ranking      RankingConfig      `mapstructure:"ranking"`
	Segmentation SegmentationConfig `mapstructure:"segmentation"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring"`
	Security     SecurityConfig     `mapstructure:"security"`
}

type ServerConfig struct {
	Port      string          `mapstructure:"port"`
	Mode      string          `mapstructure:"mode"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdleTime    time.Duration `mapstructure:"max_idle_time"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout"`
}

type RedisConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	URL        string        `mapstructure:"url"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topics  struct {
		UserRecords string `mapstructure:"user_records"`
	} `mapstructure:"topics"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RankingConfig carries the tunables of the hybrid ranking pipeline.
// UserWeight/SegmentWeight is the convex blend split; the two legacy
// deployments disagree on its value (0.8/0.2 vs 0.7/0.3), so it is
// configuration rather than a constant, as is the filter fallback
// policy ("union" or "none").
type RankingConfig struct {
	UserWeight            float64       `mapstructure:"user_weight"`
	SegmentWeight         float64       `mapstructure:"segment_weight"`
	ConsistencyThreshold  float64       `mapstructure:"consistency_threshold"`
	MinStrictMatches      int           `mapstructure:"min_strict_matches"`
	FilterFallback        string        `mapstructure:"filter_fallback"`
	MaxResults            int           `mapstructure:"max_results"`
	TopN                  int           `mapstructure:"top_n"`
	CatalogCacheTTL       time.Duration `mapstructure:"catalog_cache_ttl"`
	SegmentWeightCacheTTL time.Duration `mapstructure:"segment_weight_cache_ttl"`
}

type SegmentationConfig struct {
	MinTrainingRows   int   `mapstructure:"min_training_rows"`
	SilhouetteMinRows int   `mapstructure:"silhouette_min_rows"`
	MaxClusters       int   `mapstructure:"max_clusters"`
	DefaultClusters   int   `mapstructure:"default_clusters"`
	SyntheticRows     int   `mapstructure:"synthetic_rows"`
	MaxIterations     int   `mapstructure:"max_iterations"`
	Seed              int64 `mapstructure:"seed"`
}

type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
}

type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func Load() (*Config, error) {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	setDefaults()

	// Environment variable overrides
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "development")
	viper.SetDefault("server.rate_limit.enabled", true)
	viper.SetDefault("server.rate_limit.requests", 120)
	viper.SetDefault("server.rate_limit.window", "1m")

	// Database defaults
	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.max_idle_time", "15m")
	viper.SetDefault("database.max_lifetime", "1h")
	viper.SetDefault("database.connect_timeout", "10s")
	viper.SetDefault("database.query_timeout", "5s")

	// Redis defaults
	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.timeout", "5s")

	// Kafka defaults
	viper.SetDefault("kafka.enabled", false)
	viper.SetDefault("kafka.topics.user_records", "recommendation-user-records")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	// Ranking defaults
	viper.SetDefault("ranking.user_weight", 0.7)
	viper.SetDefault("ranking.segment_weight", 0.3)
	viper.SetDefault("ranking.consistency_threshold", 0.10)
	viper.SetDefault("ranking.min_strict_matches", 3)
	viper.SetDefault("ranking.filter_fallback", "union")
	viper.SetDefault("ranking.max_results", 10)
	viper.SetDefault("ranking.top_n", 3)
	viper.SetDefault("ranking.catalog_cache_ttl", "10m")
	viper.SetDefault("ranking.segment_weight_cache_ttl", "5m")

	// Segmentation defaults
	viper.SetDefault("segmentation.min_training_rows", 5)
	viper.SetDefault("segmentation.silhouette_min_rows", 10)
	viper.SetDefault("segmentation.max_clusters", 10)
	viper.SetDefault("segmentation.default_clusters", 2)
	viper.SetDefault("segmentation.synthetic_rows", 24)
	viper.SetDefault("segmentation.max_iterations", 100)
	viper.SetDefault("segmentation.seed", 42)

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")

	// Security defaults
	viper.SetDefault("security.cors.allowed_origins", []string{"*"})
	viper.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	viper.SetDefault("security.cors.allowed_headers", []string{"*"})
}
