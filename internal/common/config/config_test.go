package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "ledgerchat", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, 1, cfg.Engine.MinScore)
	assert.Equal(t, 20, cfg.Engine.ListPageSize)
	assert.Equal(t, 5*time.Second, cfg.Engine.StoreTimeoutDuration())
	assert.Equal(t, time.Minute, cfg.Engine.SumCacheTTLDuration())
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Engine.ListPageSize = 50
	cfg.Server.Address = ":9000"
	applyDefaults(cfg)

	assert.Equal(t, 50, cfg.Engine.ListPageSize)
	assert.Equal(t, ":9000", cfg.Server.Address)
}

func TestValidateConfigRequiresPostgres(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	err := validateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.postgres.host")

	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Postgres.Database = "ledgerchat"
	cfg.Database.Postgres.User = "ledgerchat"
	assert.NoError(t, validateConfig(cfg))
}

func TestGetDSN(t *testing.T) {
	p := PostgresConfig{
		Host:     "db",
		Port:     5433,
		Database: "ledger",
		User:     "app",
		Password: "secret",
		SSLMode:  "disable",
	}
	assert.Equal(t, "host=db port=5433 user=app password=secret dbname=ledger sslmode=disable", p.GetDSN())
}
