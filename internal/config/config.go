package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type AppConfig struct {
	API      *APIConfig      `mapstructure:"api"`
	Gin      *GinConfig      `mapstructure:"gin"`
	Postgres *PostgresConfig `mapstructure:"postgres"`
	Engine   *EngineConfig   `mapstructure:"engine"`
	Fraud    *FraudConfig    `mapstructure:"fraud"`
}

type APIConfig struct {
	Environment        string   `mapstructure:"environment"`
	BaseURL            string   `mapstructure:"base_url"`
	Port               string   `mapstructure:"port"`
	JWTSigningKey      string   `mapstructure:"jwt_signing_key"`
	AllowedCORSDomains []string `mapstructure:"allowed_cors_domains"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
}

// EngineConfig holds the scheduler and reservation knobs.
type EngineConfig struct {
	ReservationTimeoutMinutes int `mapstructure:"reservation_timeout_minutes"`
	ClosingLeadMinutes        int `mapstructure:"closing_lead_minutes"`
	SweeperIntervalSeconds    int `mapstructure:"sweeper_interval_seconds"`
	CloserIntervalSeconds     int `mapstructure:"closer_interval_seconds"`
	AnalyzerIntervalSeconds   int `mapstructure:"analyzer_interval_seconds"`
}

// FraudConfig holds the synchronous gate limits and the analyzer thresholds.
// CapScope selects whether MaxReservations counts reservations per raffle or
// across the whole tenant ("raffle" or "tenant").
type FraudConfig struct {
	MaxReservations    int    `mapstructure:"max_reservations"`
	CapScope           string `mapstructure:"cap_scope"`
	CooldownSeconds    int    `mapstructure:"cooldown_seconds"`
	IPRatePerMinute    int    `mapstructure:"ip_rate_per_minute"`
	AnalyzerIPPerHour  int    `mapstructure:"analyzer_ip_per_hour"`
	AnalyzerExpPerHour int    `mapstructure:"analyzer_expirations_per_hour"`
}

func Load(configPath string) (*AppConfig, error) {
	viper.SetConfigFile(configPath)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("viper.ReadInConfig -> %w", err)
	}

	config := &AppConfig{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("viper.Unmarshal -> %w", err)
	}

	config.applyDefaults()

	return config, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Engine == nil {
		c.Engine = &EngineConfig{}
	}
	if c.Engine.ReservationTimeoutMinutes <= 0 {
		c.Engine.ReservationTimeoutMinutes = 20
	}
	if c.Engine.ClosingLeadMinutes <= 0 {
		c.Engine.ClosingLeadMinutes = 20
	}
	if c.Engine.SweeperIntervalSeconds <= 0 {
		c.Engine.SweeperIntervalSeconds = 60
	}
	if c.Engine.CloserIntervalSeconds <= 0 {
		c.Engine.CloserIntervalSeconds = 60
	}
	if c.Engine.AnalyzerIntervalSeconds <= 0 {
		c.Engine.AnalyzerIntervalSeconds = 300
	}

	if c.Fraud == nil {
		c.Fraud = &FraudConfig{}
	}
	if c.Fraud.MaxReservations <= 0 {
		c.Fraud.MaxReservations = 5
	}
	if c.Fraud.CapScope == "" {
		c.Fraud.CapScope = "tenant"
	}
	if c.Fraud.IPRatePerMinute <= 0 {
		c.Fraud.IPRatePerMinute = 10
	}
	if c.Fraud.AnalyzerIPPerHour <= 0 {
		c.Fraud.AnalyzerIPPerHour = 100
	}
	if c.Fraud.AnalyzerExpPerHour <= 0 {
		c.Fraud.AnalyzerExpPerHour = 10
	}
}
