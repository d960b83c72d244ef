package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/work-ledger/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "worktime.db", cfg.Database.Path)
	assert.Equal(t, "Asia/Kolkata", cfg.Ledger.Timezone)
	assert.Equal(t, 30, cfg.Ledger.DailyLookbackDays)
	assert.True(t, decimal.NewFromInt(8).Equal(cfg.StandardDay()))
	assert.Empty(t, cfg.Directory.SeedFile)
	assert.Equal(t, "Asia/Kolkata", cfg.Location().String())
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  cors_origins: [https://ledger.example.com]
database:
  path: /var/lib/ledger.db
ledger:
  timezone: UTC
  standard_day_hours: 7.5
directory:
  seed_file: seed.yaml
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://ledger.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "/var/lib/ledger.db", cfg.Database.Path)
	assert.Equal(t, "UTC", cfg.Location().String())
	assert.True(t, decimal.RequireFromString("7.5").Equal(cfg.StandardDay()))
	// Unset keys keep their defaults.
	assert.Equal(t, 30, cfg.Ledger.DailyLookbackDays)
	assert.Equal(t, "seed.yaml", cfg.Directory.SeedFile)
}

func TestLoad_EnvironmentWins(t *testing.T) {
	path := writeConfig(t, "database:\n  path: from-file.db\n")
	t.Setenv("WORKLEDGER_DATABASE_PATH", ":memory:")
	t.Setenv("WORKLEDGER_LEDGER_DAILY_LOOKBACK_DAYS", "14")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, 14, cfg.Ledger.DailyLookbackDays)
}

func TestLoad_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown timezone":   "ledger:\n  timezone: Mars/Olympus\n",
		"zero lookback":      "ledger:\n  daily_lookback_days: 0\n",
		"negative day hours": "ledger:\n  standard_day_hours: -1\n",
		"port out of range":  "server:\n  port: 70000\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, body))
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
