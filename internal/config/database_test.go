package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		Name:     "checkout",
		User:     "checkout",
		Password: "secret",
		SSLMode:  "require",
		TimeZone: "Europe/Paris",
	}

	assert.Equal(t,
		"host=db.internal port=5432 user=checkout password=secret dbname=checkout sslmode=require TimeZone=Europe/Paris",
		cfg.DSN())
}

func TestDatabaseConfig_DSNDefaults(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		Name:     "checkout",
		User:     "checkout",
		Password: "checkout",
	}

	// unset ssl mode and timezone fall back to safe values
	assert.Contains(t, cfg.DSN(), "sslmode=disable")
	assert.Contains(t, cfg.DSN(), "TimeZone=UTC")
}
