package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port           int      `mapstructure:"port"`
	LogLevel       string   `mapstructure:"log_level"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	DatabaseURL string `mapstructure:"database_url"`
	DemoMode    bool   `mapstructure:"demo_mode"` // disables DB and LLM; in-memory store, deterministic parameters

	OpenAIAPIKey            string  `mapstructure:"openai_api_key"`
	OpenAIModel             string  `mapstructure:"openai_model"`
	OpenAIMaxTokens         int     `mapstructure:"openai_max_tokens"`
	OpenAITemperature       float64 `mapstructure:"openai_temperature"`
	OpenAIMaxRetries        int     `mapstructure:"openai_max_retries"`
	OpenAIRetryDelaySeconds int     `mapstructure:"openai_retry_delay_seconds"`
	OpenAITimeoutSec        int     `mapstructure:"openai_timeout_sec"` // per-attempt

	EIAAPIKey    string `mapstructure:"eia_api_key"`
	NOAAAPIToken string `mapstructure:"noaa_api_token"`

	IngestionHistoryYears int `mapstructure:"ingestion_history_years"`
	FetchTimeoutSec       int `mapstructure:"fetch_timeout_sec"` // per upstream HTTP request

	ProjectionDaysDefault      int     `mapstructure:"projection_days_default"`
	HeatRateMMBtuPerMWh        float64 `mapstructure:"heat_rate_mmbtu_per_mwh"`
	FallbackMarginalPriceMWh   float64 `mapstructure:"fallback_marginal_price_usd_mwh"`
	FallbackFuelPriceMMBtu     float64 `mapstructure:"fallback_fuel_price_usd_mmbtu"`

	RequestTimeoutSec  int `mapstructure:"request_timeout_sec"`
	ShutdownTimeoutSec int `mapstructure:"shutdown_timeout_sec"`
}

// knownKeys is the closed set of recognized options; anything else in the
// config file is rejected at startup.
var knownKeys = map[string]bool{
	"port":                            true,
	"log_level":                       true,
	"allowed_origins":                 true,
	"database_url":                    true,
	"demo_mode":                       true,
	"openai_api_key":                  true,
	"openai_model":                    true,
	"openai_max_tokens":               true,
	"openai_temperature":              true,
	"openai_max_retries":              true,
	"openai_retry_delay_seconds":      true,
	"openai_timeout_sec":              true,
	"eia_api_key":                     true,
	"noaa_api_token":                  true,
	"ingestion_history_years":         true,
	"fetch_timeout_sec":               true,
	"projection_days_default":         true,
	"heat_rate_mmbtu_per_mwh":         true,
	"fallback_marginal_price_usd_mwh": true,
	"fallback_fuel_price_usd_mmbtu":   true,
	"request_timeout_sec":             true,
	"shutdown_timeout_sec":            true,
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/droughtwatch/")
	v.AddConfigPath("$HOME/.droughtwatch")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix("DROUGHTWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		fileFound = false
	}

	if fileFound {
		if err := rejectUnknown(v); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if !cfg.DemoMode && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database_url is required unless demo_mode is enabled")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("database_url", "")
	v.SetDefault("demo_mode", false)
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("openai_max_tokens", 1000)
	v.SetDefault("openai_temperature", 0.3)
	v.SetDefault("openai_max_retries", 3)
	v.SetDefault("openai_retry_delay_seconds", 1)
	v.SetDefault("openai_timeout_sec", 30)
	v.SetDefault("eia_api_key", "")
	v.SetDefault("noaa_api_token", "")
	v.SetDefault("ingestion_history_years", 30)
	v.SetDefault("fetch_timeout_sec", 30)
	v.SetDefault("projection_days_default", 90)
	v.SetDefault("heat_rate_mmbtu_per_mwh", 7.0)
	v.SetDefault("fallback_marginal_price_usd_mwh", 100.0)
	v.SetDefault("fallback_fuel_price_usd_mmbtu", 3.0)
	v.SetDefault("request_timeout_sec", 60)
	v.SetDefault("shutdown_timeout_sec", 15)
}

// rejectUnknown fails startup when the config file carries keys outside the
// recognized set. Env vars are not checked; only the file is authoritative.
func rejectUnknown(v *viper.Viper) error {
	for _, key := range v.AllKeys() {
		top := key
		if i := strings.Index(key, "."); i >= 0 {
			top = key[:i]
		}
		if !knownKeys[top] {
			return fmt.Errorf("unknown config option %q", key)
		}
	}
	return nil
}
