/*
Package config loads server settings from an optional YAML file and
WORKLEDGER_* environment variables.

KEYS (defaults):
  server.port                 8080
  server.cors_origins         [http://localhost:5173]
  database.path               worktime.db   (":memory:" for a throwaway db)
  ledger.timezone             Asia/Kolkata  (the business timezone)
  ledger.daily_lookback_days  30
  ledger.standard_day_hours   8
  directory.seed_file         ""            (optional YAML directory seed)

ENVIRONMENT:
  Dots become underscores: WORKLEDGER_DATABASE_PATH, WORKLEDGER_LEDGER_TIMEZONE.
  List values are comma separated.
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // business timezone must resolve on hosts without zoneinfo

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/warp/work-ledger/worktime"
)

const EnvPrefix = "WORKLEDGER"

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Directory DirectoryConfig `mapstructure:"directory"`

	location *time.Location
}

type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LedgerConfig struct {
	Timezone          string  `mapstructure:"timezone"`
	DailyLookbackDays int     `mapstructure:"daily_lookback_days"`
	StandardDayHours  float64 `mapstructure:"standard_day_hours"`
}

type DirectoryConfig struct {
	SeedFile string `mapstructure:"seed_file"`
}

// Load reads path (skipped when empty), applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("database.path", "worktime.db")
	v.SetDefault("ledger.timezone", "Asia/Kolkata")
	v.SetDefault("ledger.daily_lookback_days", worktime.DefaultDailyLookbackDays)
	v.SetDefault("ledger.standard_day_hours", worktime.DefaultStandardDayHours)
	v.SetDefault("directory.seed_file", "")
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required", ErrInvalidConfig)
	}
	if c.Ledger.DailyLookbackDays <= 0 {
		return fmt.Errorf("%w: ledger.daily_lookback_days must be positive", ErrInvalidConfig)
	}
	if c.Ledger.StandardDayHours <= 0 || c.Ledger.StandardDayHours > 24 {
		return fmt.Errorf("%w: ledger.standard_day_hours must be in (0, 24]", ErrInvalidConfig)
	}
	loc, err := worktime.LoadLocation(c.Ledger.Timezone)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	c.location = loc
	return nil
}

// Location is the business timezone resolved by Load.
func (c *Config) Location() *time.Location { return c.location }

// StandardDay returns ledger.standard_day_hours as a decimal.
func (c *Config) StandardDay() decimal.Decimal {
	return decimal.NewFromFloat(c.Ledger.StandardDayHours)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Server.Port) }
