package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-core/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, 5*time.Second, cfg.DB.TxTimeout)
	assert.Equal(t, 2*time.Second, cfg.DB.LockTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Redis.IdempotencyTTL)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "default", cfg.Queue.LowStockQueue)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, "./docs/swagger.json", cfg.HTTP.SwaggerFile)
	assert.Equal(t, "retail-core", cfg.JWT.Issuer)
	assert.Empty(t, cfg.JWT.Secret)
}

func TestLoad_DesdeEntorno(t *testing.T) {
	t.Setenv("DB_DRIVER", "MEMORY")
	t.Setenv("DB_TX_TIMEOUT", "10s")
	t.Setenv("DB_LOCK_TIMEOUT", "3")
	t.Setenv("DB_AUTO_MIGRATE", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("IDEMPOTENCY_TTL", "1h")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SWAGGER_FILE", "/srv/docs/api.json")
	t.Setenv("JWT_SECRET", "s3cr3t")
	t.Setenv("JWT_ISSUER", "pos")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.DriverMemory, cfg.DB.Driver)
	assert.Equal(t, 10*time.Second, cfg.DB.TxTimeout)
	assert.Equal(t, 3*time.Second, cfg.DB.LockTimeout)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, time.Hour, cfg.Redis.IdempotencyTTL)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "/srv/docs/api.json", cfg.HTTP.SwaggerFile)
	assert.Equal(t, config.JWTConfig{Secret: "s3cr3t", Issuer: "pos"}, cfg.JWT)
}

func TestLoad_DriverDesconocido(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_LockTimeoutMayorQueTx(t *testing.T) {
	t.Setenv("DB_TX_TIMEOUT", "1s")
	t.Setenv("DB_LOCK_TIMEOUT", "2s")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "retail", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/retail?sslmode=disable", c.DSN())
	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
