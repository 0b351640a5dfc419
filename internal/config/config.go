package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the compliance service
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Screening  ScreeningConfig  `mapstructure:"screening"`
	KYC        KYCConfig        `mapstructure:"kyc"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxRequestSize  int64         `mapstructure:"max_request_size"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	Password         string        `mapstructure:"password"`
	DB               int           `mapstructure:"db"`
	PoolSize         int           `mapstructure:"pool_size"`
	MinIdleConns     int           `mapstructure:"min_idle_conns"`
	MaxRetries       int           `mapstructure:"max_retries"`
	DialTimeout      time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	SanctionsListTTL time.Duration `mapstructure:"sanctions_list_ttl"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers          []string `mapstructure:"brokers"`
	ConsumerGroup    string   `mapstructure:"consumer_group"`
	TransactionTopic string   `mapstructure:"transaction_topic"`
	AlertsTopic      string   `mapstructure:"alerts_topic"`
}

// ScreeningConfig holds sanctions screening configuration
type ScreeningConfig struct {
	FuzzyMatchThreshold float64       `mapstructure:"fuzzy_match_threshold"`
	ListRefreshInterval time.Duration `mapstructure:"list_refresh_interval"`
	MaxScreeningLatency time.Duration `mapstructure:"max_screening_latency"`
	MaxMatches          int           `mapstructure:"max_matches"`
}

// KYCConfig holds customer risk assessment configuration
type KYCConfig struct {
	BaselineScore         int      `mapstructure:"baseline_score"`
	HighRiskCountries     []string `mapstructure:"high_risk_countries"`
	HighRiskCountryWeight int      `mapstructure:"high_risk_country_weight"`
	PEPWeight             int      `mapstructure:"pep_weight"`
	AdverseMediaWeight    int      `mapstructure:"adverse_media_weight"`
	HighRiskOccupations   []string `mapstructure:"high_risk_occupations"`
	OccupationWeight      int      `mapstructure:"occupation_weight"`
	BeneficialOwnerWeight int      `mapstructure:"beneficial_owner_weight"`
	ProhibitedThreshold   int      `mapstructure:"prohibited_threshold"`
	HighThreshold         int      `mapstructure:"high_threshold"`
	MediumThreshold       int      `mapstructure:"medium_threshold"`
	ProhibitedReviewDays  int      `mapstructure:"prohibited_review_days"`
	HighReviewDays        int      `mapstructure:"high_review_days"`
	MediumReviewDays      int      `mapstructure:"medium_review_days"`
	LowReviewDays         int      `mapstructure:"low_review_days"`
}

// MonitoringConfig holds transaction pattern detection configuration
type MonitoringConfig struct {
	CTRThreshold           float64  `mapstructure:"ctr_threshold"`
	StructuringWindowHours int      `mapstructure:"structuring_window_hours"`
	StructuringMinTxCount  int      `mapstructure:"structuring_min_tx_count"`
	MaxTransactionsPerDay  int      `mapstructure:"max_transactions_per_day"`
	MaxVolumePerDay        float64  `mapstructure:"max_volume_per_day"`
	RoundAmountUnit        float64  `mapstructure:"round_amount_unit"`
	RoundAmountMin         float64  `mapstructure:"round_amount_min"`
	HighRiskJurisdictions  []string `mapstructure:"high_risk_jurisdictions"`
	RetentionDays          int      `mapstructure:"retention_days"`
}

// TelemetryConfig holds observability configuration
type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// Load loads configuration from environment and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix("COMPLIANCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/compliance-service")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found, use defaults + env
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8086)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.max_request_size", 1048576) // 1MB

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 50)
	v.SetDefault("redis.min_idle_conns", 10)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "1s")
	v.SetDefault("redis.write_timeout", "1s")
	v.SetDefault("redis.sanctions_list_ttl", "24h")

	// Kafka defaults
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.consumer_group", "compliance-service-group")
	v.SetDefault("kafka.transaction_topic", "banking.transactions.created")
	v.SetDefault("kafka.alerts_topic", "banking.compliance.alerts")

	// Screening defaults
	v.SetDefault("screening.fuzzy_match_threshold", 0.85)
	v.SetDefault("screening.list_refresh_interval", "24h")
	v.SetDefault("screening.max_screening_latency", "200ms")
	v.SetDefault("screening.max_matches", 10)

	// KYC defaults
	v.SetDefault("kyc.baseline_score", 20)
	v.SetDefault("kyc.high_risk_countries", []string{
		"IR", "KP", "SY", "CU", "MM", "AF", "YE", "SO",
	})
	v.SetDefault("kyc.high_risk_country_weight", 25)
	v.SetDefault("kyc.pep_weight", 30)
	v.SetDefault("kyc.adverse_media_weight", 20)
	v.SetDefault("kyc.high_risk_occupations", []string{
		"arms dealer", "casino operator", "money services business",
		"precious metals dealer", "art dealer",
	})
	v.SetDefault("kyc.occupation_weight", 15)
	v.SetDefault("kyc.beneficial_owner_weight", 10)
	v.SetDefault("kyc.prohibited_threshold", 80)
	v.SetDefault("kyc.high_threshold", 60)
	v.SetDefault("kyc.medium_threshold", 35)
	v.SetDefault("kyc.prohibited_review_days", 30)
	v.SetDefault("kyc.high_review_days", 90)
	v.SetDefault("kyc.medium_review_days", 180)
	v.SetDefault("kyc.low_review_days", 365)

	// Monitoring defaults
	v.SetDefault("monitoring.ctr_threshold", 10000.0)
	v.SetDefault("monitoring.structuring_window_hours", 24)
	v.SetDefault("monitoring.structuring_min_tx_count", 3)
	v.SetDefault("monitoring.max_transactions_per_day", 50)
	v.SetDefault("monitoring.max_volume_per_day", 100000.0)
	v.SetDefault("monitoring.round_amount_unit", 1000.0)
	v.SetDefault("monitoring.round_amount_min", 1000.0)
	v.SetDefault("monitoring.high_risk_jurisdictions", []string{
		"IR", "KP", "SY", "CU", "MM",
	})
	v.SetDefault("monitoring.retention_days", 30)

	// Telemetry defaults
	v.SetDefault("telemetry.service_name", "compliance-service")
	v.SetDefault("telemetry.environment", "development")
	v.SetDefault("telemetry.debug", false)
}
