package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "backend_brokers", cfg.Database.DBName)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, int32(20), cfg.Database.MaxConns)
	assert.Equal(t, int32(5), cfg.Database.MinConns)

	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, "backend-brokers", cfg.JWT.Issuer)

	assert.Equal(t, "PLN", cfg.Broker.ReferenceCurrency)
	assert.Equal(t, "0.01", cfg.Broker.PromoSpread)
	assert.Equal(t, "0.02", cfg.Broker.StandardSpread)
	assert.Equal(t, 3, cfg.Broker.CommitRetries)
	assert.Equal(t, 50*time.Millisecond, cfg.Broker.CommitBackoff)

	assert.Equal(t, "https://api.nbp.pl/api", cfg.RateFeed.URL)
	assert.Equal(t, time.Hour, cfg.RateFeed.RefreshInterval)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
}

func TestLoad_FromYAMLFile(t *testing.T) {
	content := []byte(`
server:
  host: "127.0.0.1"
  port: 9090
  mode: "release"
database:
  host: "db.example.com"
  port: 5433
  user: "appuser"
  password: "secret123"
  dbname: "brokersdb"
  sslmode: "require"
redis:
  host: "redis.example.com"
  port: 6380
  db: 2
broker:
  reference_currency: "PLN"
  master_account_id: "1c8f5c3e-0000-4000-8000-000000000010"
  promo_spread: "0.005"
  standard_spread: "0.015"
  commit_retries: 5
ratefeed:
  url: "http://localhost:9999/api"
  refresh_interval: "30m"
log:
  level: "debug"
  pretty: true
`)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "db.example.com", cfg.Database.Host)
	assert.Equal(t, "brokersdb", cfg.Database.DBName)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "1c8f5c3e-0000-4000-8000-000000000010", cfg.Broker.MasterAccountID)
	assert.Equal(t, "0.005", cfg.Broker.PromoSpread)
	assert.Equal(t, "0.015", cfg.Broker.StandardSpread)
	assert.Equal(t, 5, cfg.Broker.CommitRetries)
	assert.Equal(t, "http://localhost:9999/api", cfg.RateFeed.URL)
	assert.Equal(t, 30*time.Minute, cfg.RateFeed.RefreshInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "u", Password: "p",
		DBName: "brokers", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://u:p@localhost:5432/brokers?sslmode=disable", d.DSN())
}

func TestRedisConfig_Addr(t *testing.T) {
	r := RedisConfig{Host: "cache.local", Port: 6380}
	assert.Equal(t, "cache.local:6380", r.Addr())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("BRK_BROKER_STANDARD_SPREAD", "0.03")
	t.Setenv("BRK_DATABASE_HOST", "envhost")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.03", cfg.Broker.StandardSpread)
	assert.Equal(t, "envhost", cfg.Database.Host)
}
