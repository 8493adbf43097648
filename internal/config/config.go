package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Analytics   AnalyticsConfig `mapstructure:"analytics"`
	ML          MLConfig        `mapstructure:"ml"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AnalyticsConfig tunes the analytics engine. BaselineCapital is the fixed
// notional used to express absolute PnL as percentages.
type AnalyticsConfig struct {
	BaselineCapital     float64 `mapstructure:"baseline_capital"`
	DefaultAnalysisDays int     `mapstructure:"default_analysis_days"`
	RiskWindowDays      int     `mapstructure:"risk_window_days"`
	OptimizerWindowDays int     `mapstructure:"optimizer_window_days"`
	CacheTTLMinutes     int     `mapstructure:"cache_ttl_minutes"`
}

// MLConfig tunes the prediction pipeline.
type MLConfig struct {
	MinPredictionTrades int     `mapstructure:"min_prediction_trades"`
	MinTrainingSamples  int     `mapstructure:"min_training_samples"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	FeatureWindowDays   int     `mapstructure:"feature_window_days"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if config.Analytics.BaselineCapital <= 0 {
		return nil, fmt.Errorf("analytics baseline_capital must be positive, got %v", config.Analytics.BaselineCapital)
	}
	if config.ML.ConfidenceThreshold < 0 || config.ML.ConfidenceThreshold > 1 {
		return nil, fmt.Errorf("ml confidence_threshold must be in [0,1], got %v", config.ML.ConfidenceThreshold)
	}

	return &config, nil
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8081)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "copytrading")
	viper.SetDefault("database.sslmode", "disable")

	// Redis
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Analytics
	viper.SetDefault("analytics.baseline_capital", 10000.0)
	viper.SetDefault("analytics.default_analysis_days", 30)
	viper.SetDefault("analytics.risk_window_days", 90)
	viper.SetDefault("analytics.optimizer_window_days", 90)
	viper.SetDefault("analytics.cache_ttl_minutes", 15)

	// ML
	viper.SetDefault("ml.min_prediction_trades", 20)
	viper.SetDefault("ml.min_training_samples", 100)
	viper.SetDefault("ml.confidence_threshold", 0.7)
	viper.SetDefault("ml.feature_window_days", 90)
}
