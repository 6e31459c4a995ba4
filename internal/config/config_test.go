package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missingEnvFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "HOST", "DB_PATH", "DB_BUSY_TIMEOUT", "OWNER_ID", "LOG_LEVEL",
		"LOG_FORMAT", "PROMETHEUS_METRICS_ENABLED", "PROMETHEUS_METRICS_PATH", "GO_APP_ENV", "SHUTDOWN_TIMEOUT"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	c, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, 5000, c.ServerPort)
	assert.Equal(t, "localhost", c.Host)
	assert.Equal(t, "requirements.db", c.Database.Path)
	assert.Equal(t, 5*time.Second, c.Database.BusyTimeout)
	assert.Equal(t, int64(1), c.OwnerID)
	assert.Equal(t, "info", c.LogLevel)
	assert.True(t, c.Prometheus.Enabled)
	assert.Equal(t, "/debug/prometheus", c.Prometheus.Path)
	assert.Equal(t, 10*time.Second, c.ShutdownTimeout)
	assert.Equal(t, "X-Request-ID", c.RequestIDHeader)
	assert.Equal(t, "localhost:5000", c.SocketAddress)
	assert.Equal(t, logrus.InfoLevel, c.Logger().GetLevel())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("DB_PATH", "/tmp/x.db")
	t.Setenv("OWNER_ID", "7")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("PROMETHEUS_METRICS_ENABLED", "false")
	t.Setenv("GO_APP_ENV", "development")

	c, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", c.SocketAddress)
	assert.Equal(t, "/tmp/x.db", c.Database.Path)
	assert.Equal(t, int64(7), c.OwnerID)
	assert.False(t, c.Prometheus.Enabled)
	assert.Equal(t, logrus.DebugLevel, c.Logger().GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, c.Logger().Formatter)
}

func TestLoad_ProductionBindsAllInterfaces(t *testing.T) {
	t.Setenv("GO_APP_ENV", Production)
	t.Setenv("PORT", "9000")

	c, err := Load(missingEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, ":9000", c.SocketAddress)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("DB_PATH=from-file.db\nOWNER_ID=3\n"), 0o644))

	// godotenv does not override variables that are already set
	t.Setenv("OWNER_ID", "5")
	t.Setenv("DB_PATH", "")
	require.NoError(t, os.Unsetenv("DB_PATH"))
	t.Cleanup(func() { _ = os.Unsetenv("DB_PATH") })

	c, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "from-file.db", c.Database.Path)
	assert.Equal(t, int64(5), c.OwnerID)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"port not a number", "PORT", "abc"},
		{"port out of range", "PORT", "70000"},
		{"owner id zero", "OWNER_ID", "0"},
		{"unknown log format", "LOG_FORMAT", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load(missingEnvFile(t))
			assert.Error(t, err)
		})
	}
}

func TestLoadEnv_SkipsMissingFiles(t *testing.T) {
	n, err := LoadEnv([]string{missingEnvFile(t)})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestLogrusLogLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"silent": logrus.PanicLevel,
		"error":  logrus.ErrorLevel,
		"warn":   logrus.WarnLevel,
		"info":   logrus.InfoLevel,
		"debug":  logrus.DebugLevel,
		"bogus":  logrus.InfoLevel,
	}
	for level, want := range tests {
		c := &Configuration{LogLevel: level}
		assert.Equal(t, want, c.LogrusLogLevel(), level)
	}
}
