// Package config provides configuration management for the trading engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Trading       TradingConfig      `mapstructure:"trading"`
	Indicators    IndicatorConfig    `mapstructure:"indicators"`
	Scanner       ScannerConfig      `mapstructure:"scanner"`
	Schedule      ScheduleConfig     `mapstructure:"schedule"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Broker        BrokerConfig       `mapstructure:"broker"`
	Storage       StorageConfig      `mapstructure:"storage"`
}

// TradingConfig holds trading-related configuration.
type TradingConfig struct {
	Mode           string   `mapstructure:"mode"` // "live", "paper"
	SharesPerTrade int      `mapstructure:"shares_per_trade"`
	TradeSymbols   []string `mapstructure:"trade_symbols"`
	ScanSymbols    []string `mapstructure:"scan_symbols"`
}

// IndicatorConfig holds indicator periods.
type IndicatorConfig struct {
	SMAFast    int `mapstructure:"sma_fast"`
	SMASlow    int `mapstructure:"sma_slow"`
	RSIPeriod  int `mapstructure:"rsi_period"`
	MACDFast   int `mapstructure:"macd_fast"`
	MACDSlow   int `mapstructure:"macd_slow"`
	MACDSignal int `mapstructure:"macd_signal"`
	ATRPeriod  int `mapstructure:"atr_period"`
	VolPeriod  int `mapstructure:"vol_period"`
}

// ScannerConfig holds scan pass configuration.
type ScannerConfig struct {
	Concurrency   int     `mapstructure:"concurrency"`
	Lookback      int     `mapstructure:"lookback"`
	RSIOversold   float64 `mapstructure:"rsi_oversold"`
	RSIOverbought float64 `mapstructure:"rsi_overbought"`
	MinVolume     int64   `mapstructure:"min_volume"`
	MaxATRPct     float64 `mapstructure:"max_atr_pct"`
}

// ScheduleConfig holds the daily fire times, local wall-clock "HH:MM".
type ScheduleConfig struct {
	ReportTimes []string `mapstructure:"report_times"`
	Timezone    string   `mapstructure:"timezone"`
}

// NotificationConfig holds notification configuration.
type NotificationConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Level    string         `mapstructure:"level"` // all, trades_only, errors_only
	Telegram TelegramConfig `mapstructure:"telegram"`
	Email    EmailConfig    `mapstructure:"email"`
	WhatsApp WhatsAppConfig `mapstructure:"whatsapp"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// EmailConfig holds email notification configuration.
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
}

// WhatsAppConfig holds Twilio WhatsApp notification configuration.
type WhatsAppConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	From       string `mapstructure:"from"`
	To         string `mapstructure:"to"`
}

// BrokerConfig holds broker connection configuration.
type BrokerConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	ClientID int    `mapstructure:"client_id"`
}

// StorageConfig holds storage paths.
type StorageConfig struct {
	DatabasePath string `mapstructure:"database_path"`
	ReportsDir   string `mapstructure:"reports_dir"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/algobot"
	}
	return filepath.Join(home, ".config", "algobot")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		// Config file not found, write the template and continue on defaults
		if err := createTemplateConfig(configDir); err != nil {
			return nil, fmt.Errorf("creating template config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("trading.mode", "paper")
	v.SetDefault("trading.shares_per_trade", 1)
	v.SetDefault("trading.trade_symbols", []string{"AAPL", "MSFT"})
	v.SetDefault("trading.scan_symbols", []string{"AAPL", "MSFT", "GOOG", "AMZN", "NVDA"})

	v.SetDefault("indicators.sma_fast", 10)
	v.SetDefault("indicators.sma_slow", 50)
	v.SetDefault("indicators.rsi_period", 14)
	v.SetDefault("indicators.macd_fast", 12)
	v.SetDefault("indicators.macd_slow", 26)
	v.SetDefault("indicators.macd_signal", 9)
	v.SetDefault("indicators.atr_period", 14)
	v.SetDefault("indicators.vol_period", 20)

	v.SetDefault("scanner.concurrency", 4)
	v.SetDefault("scanner.lookback", 120)
	v.SetDefault("scanner.rsi_oversold", 30.0)
	v.SetDefault("scanner.rsi_overbought", 70.0)

	v.SetDefault("schedule.report_times", []string{"08:00", "20:00"})
	v.SetDefault("schedule.timezone", "Local")

	v.SetDefault("notifications.enabled", false)
	v.SetDefault("notifications.level", "all")

	v.SetDefault("broker.host", "127.0.0.1")
	v.SetDefault("broker.port", 7497)
	v.SetDefault("broker.client_id", 1)

	v.SetDefault("storage.database_path", filepath.Join(configDir, "algobot.db"))
	v.SetDefault("storage.reports_dir", filepath.Join(configDir, "reports"))
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ALGOBOT_TRADING_MODE"); v != "" {
		cfg.Trading.Mode = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Notifications.Telegram.ChatID = v
	}
	if v := os.Getenv("TWILIO_ACCOUNT_SID"); v != "" {
		cfg.Notifications.WhatsApp.AccountSID = v
	}
	if v := os.Getenv("TWILIO_AUTH_TOKEN"); v != "" {
		cfg.Notifications.WhatsApp.AuthToken = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Notifications.Email.Password = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Trading.Mode != "" && c.Trading.Mode != "live" && c.Trading.Mode != "paper" {
		return fmt.Errorf("invalid trading mode: %s (must be 'live' or 'paper')", c.Trading.Mode)
	}
	if c.Trading.SharesPerTrade < 0 {
		return fmt.Errorf("shares_per_trade must be non-negative")
	}
	if c.Indicators.SMAFast <= 0 || c.Indicators.SMASlow <= 0 {
		return fmt.Errorf("SMA periods must be positive")
	}
	if c.Indicators.SMAFast >= c.Indicators.SMASlow {
		return fmt.Errorf("sma_fast (%d) must be shorter than sma_slow (%d)", c.Indicators.SMAFast, c.Indicators.SMASlow)
	}
	if c.Scanner.Concurrency < 0 {
		return fmt.Errorf("scanner concurrency must be non-negative")
	}
	if len(c.Schedule.ReportTimes) == 0 {
		return fmt.Errorf("at least one report time is required")
	}
	for _, t := range c.Schedule.ReportTimes {
		if err := validateWallClock(t); err != nil {
			return fmt.Errorf("invalid report time %q: %w", t, err)
		}
	}
	return nil
}

// validateWallClock checks an "HH:MM" string.
func validateWallClock(s string) error {
	if len(s) != 5 || s[2] != ':' {
		return fmt.Errorf("expected HH:MM")
	}
	hh := int(s[0]-'0')*10 + int(s[1]-'0')
	mm := int(s[3]-'0')*10 + int(s[4]-'0')
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' ||
		s[3] < '0' || s[3] > '9' || s[4] < '0' || s[4] > '9' {
		return fmt.Errorf("expected HH:MM")
	}
	if hh > 23 || mm > 59 {
		return fmt.Errorf("out of range")
	}
	return nil
}

// IsPaperMode returns true if paper trading mode is enabled.
func (c *Config) IsPaperMode() bool {
	return c.Trading.Mode != "live"
}
