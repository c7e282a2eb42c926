package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"FACTOR_DB_DRIVER", "FACTOR_SQLITE_PATH",
	"FACTOR_MYSQL_HOST", "FACTOR_MYSQL_PORT", "FACTOR_MYSQL_USER",
	"FACTOR_MYSQL_PASSWORD", "FACTOR_MYSQL_DATABASE",
	"PORT", "LOG_LEVEL", "LOG_PRETTY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, DriverSQLite, cfg.Driver)
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoad_MySQLFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("FACTOR_DB_DRIVER", "mysql")
	t.Setenv("FACTOR_MYSQL_HOST", "db.internal")
	t.Setenv("FACTOR_MYSQL_PORT", "3307")
	t.Setenv("FACTOR_MYSQL_PASSWORD", "s3cret")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMySQL, cfg.Driver)
	assert.Equal(t, "db.internal", cfg.MySQL.Host)
	assert.Equal(t, 3307, cfg.MySQL.Port)
	assert.Equal(t, "s3cret", cfg.MySQL.Password)
	assert.Equal(t, "factor_pool", cfg.MySQL.Database)
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.LogPretty)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"PORT", "eighty"},
		{"PORT", "70000"},
		{"FACTOR_MYSQL_PORT", "x"},
		{"LOG_PRETTY", "maybe"},
		{"FACTOR_DB_DRIVER", "postgres"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
