package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Implementacion-api/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "RON", cfg.App.DefaultCurrency)
	assert.Equal(t, "21", cfg.App.DefaultVATRate.String())
	assert.Equal(t, config.StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, int32(25), cfg.DB.MaxConns)
	assert.True(t, cfg.DB.Migrate)
}

func TestLoad_VariablesDeEntorno(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("APP_DEFAULT_CURRENCY", "eur")
	t.Setenv("APP_DEFAULT_VAT_RATE", "19")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DB_MIGRATE", "false")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, "EUR", cfg.App.DefaultCurrency)
	assert.Equal(t, "19", cfg.App.DefaultVATRate.String())
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.False(t, cfg.DB.Migrate)
}

func TestLoad_ValoresInvalidos(t *testing.T) {
	t.Run("driver", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "sqlite")
		_, err := config.Load()
		assert.ErrorContains(t, err, "STORAGE_DRIVER")
	})
	t.Run("tasa", func(t *testing.T) {
		t.Setenv("APP_DEFAULT_VAT_RATE", "120")
		_, err := config.Load()
		assert.ErrorContains(t, err, "APP_DEFAULT_VAT_RATE")
	})
	t.Run("tasa no numérica", func(t *testing.T) {
		t.Setenv("APP_DEFAULT_VAT_RATE", "veintiuno")
		_, err := config.Load()
		assert.Error(t, err)
	})
}

func TestDSN_EscapaLaContraseña(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:w/rd", DBName: "impl", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aw%2Frd@db:5432/impl?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
