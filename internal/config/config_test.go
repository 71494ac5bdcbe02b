package config_test

import (
	"testing"

	"minicrm/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, config.DriverPostgres, cfg.DBDriver)
	assert.Equal(t, 100, cfg.CustomerListLimit)
	assert.Equal(t, 0, cfg.OrderListLimit)
	assert.True(t, cfg.DBAutoMigrate)
	assert.Empty(t, cfg.RabbitMQURL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", "file::memory:")
	t.Setenv("ORDER_LIST_LIMIT", "25")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "file::memory:", cfg.DatabaseDSN)
	assert.Equal(t, 25, cfg.OrderListLimit)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestValidateRejectsBadValues(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.Set("DB_DRIVER", "oracle")
	_, err := config.FromViper(v)
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")

	v = viper.New()
	config.SetDefaults(v)
	v.Set("CUSTOMER_LIST_LIMIT", -1)
	_, err = config.FromViper(v)
	assert.ErrorContains(t, err, "must not be negative")
}
