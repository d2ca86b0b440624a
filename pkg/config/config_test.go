package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billy-api/pkg/config"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, config.StorageMemory, cfg.App.StorageDriver)
	assert.Equal(t, config.AuthoritySimulated, cfg.Authority.Mode)
	assert.Equal(t, 30*time.Second, cfg.Authority.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Authority.MinDelay)
	assert.Equal(t, 5*time.Second, cfg.Authority.MaxDelay)
	assert.InDelta(t, 0.9, cfg.Authority.AcceptRate, 1e-9)
	assert.Equal(t, 5, cfg.Lockout.MaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Lockout.Duration)
	assert.Equal(t, "0614-123456-001-2", cfg.Emitter.NIT)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_ValoresComoTexto(t *testing.T) {
	v := viper.New()
	v.Set("HTTP_PORT", "9090")
	v.Set("AUTHORITY_TIMEOUT_SECONDS", "5")
	v.Set("AUTHORITY_ACCEPT_RATE", "0.5")
	v.Set("STORAGE_DRIVER", "POSTGRES")

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 5*time.Second, cfg.Authority.Timeout)
	assert.InDelta(t, 0.5, cfg.Authority.AcceptRate, 1e-9)
	assert.Equal(t, config.StoragePostgres, cfg.App.StorageDriver)
}

func TestFromViper_SOAPSinURL(t *testing.T) {
	v := viper.New()
	v.Set("AUTHORITY_MODE", "soap")
	_, err := config.FromViper(v)
	assert.Error(t, err)

	v.Set("AUTHORITY_URL", "https://dte.example/ws")
	_, err = config.FromViper(v)
	assert.NoError(t, err)
}

func TestFromViper_DriverInvalido(t *testing.T) {
	v := viper.New()
	v.Set("STORAGE_DRIVER", "sqlite")
	_, err := config.FromViper(v)
	assert.Error(t, err)
}

func TestDBConfig_DSN(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "billy", Password: "p@ss/word", DBName: "billy", SSLMode: "disable"}
	assert.Equal(t, "postgres://billy:p%40ss%2Fword@db:5432/billy?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://u:p@h/d"
	assert.Equal(t, "postgres://u:p@h/d", c.ConnectionString())
}
