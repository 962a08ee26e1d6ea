package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/config"
)

func TestParse_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_PATH", "POLICY_FILE", "LOG_LEVEL", "LOG_FORMAT", "METRICS_PATH", "CORS_ALLOWED_ORIGINS", "TIMEZONE"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := config.Parse()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, "payroll.db", cfg.DBPath)
	assert.Equal(t, "/metrics", cfg.MetricsPath)
	assert.Len(t, cfg.CORSAllowedOrigins, 2)
	assert.Equal(t, logrus.InfoLevel, cfg.LogrusLogLevel())
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("PORT", "3200")
	t.Setenv("DB_PATH", ":memory:")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("TIMEZONE", "Not/AZone")

	cfg, err := config.Parse()
	require.NoError(t, err)

	assert.Equal(t, 3200, cfg.Port)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "UTC", cfg.Location().String())

	log := cfg.NewLogger()
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestParse_RejectsBadPort(t *testing.T) {
	t.Setenv("PORT", "0")
	_, err := config.Parse()
	assert.Error(t, err)

	t.Setenv("PORT", "abc")
	_, err = config.Parse()
	assert.Error(t, err)
}

func TestLoadEnv_SkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("PAYROLL_TEST_VALUE=from-file\n"), 0o600))
	t.Setenv("PAYROLL_TEST_VALUE", "")
	os.Unsetenv("PAYROLL_TEST_VALUE")

	n, err := config.LoadEnv([]string{path, filepath.Join(dir, "missing.env")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "from-file", os.Getenv("PAYROLL_TEST_VALUE"))
}
