package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the runtime settings of the service.
type Config struct {
	AppPort       string
	DBDriver      string
	DatabaseDSN   string
	DBAutoMigrate bool
	RabbitMQURL   string
	LogLevel      string
	LogFormat     string

	// List caps per endpoint; zero means no limit.
	CustomerListLimit int
	ProductListLimit  int
	OrderListLimit    int
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=mini_crm_dev port=5432 sslmode=disable")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("CUSTOMER_LIST_LIMIT", 100)
	v.SetDefault("PRODUCT_LIST_LIMIT", 0)
	v.SetDefault("ORDER_LIST_LIMIT", 0)
}

// Load reads the configuration from environment variables.
func Load() (Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		AppPort:           v.GetString("APP_PORT"),
		DBDriver:          v.GetString("DB_DRIVER"),
		DatabaseDSN:       v.GetString("DATABASE_DSN"),
		DBAutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
		RabbitMQURL:       v.GetString("RABBITMQ_URL"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogFormat:         v.GetString("LOG_FORMAT"),
		CustomerListLimit: v.GetInt("CUSTOMER_LIST_LIMIT"),
		ProductListLimit:  v.GetInt("PRODUCT_LIST_LIMIT"),
		OrderListLimit:    v.GetInt("ORDER_LIST_LIMIT"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted sensibly.
func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}
	if c.CustomerListLimit < 0 || c.ProductListLimit < 0 || c.OrderListLimit < 0 {
		return fmt.Errorf("list limits must not be negative")
	}
	return nil
}
