package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigRequiresSecretKey(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	t.Setenv("CSRF_SECRET", "csrf")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "server-secret")
	t.Setenv("CSRF_SECRET", "csrf")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, 72*time.Hour, cfg.SessionTTL)
	require.Equal(t, 720*time.Hour, cfg.NotificationRetention)
	require.Equal(t, "0 * * * *", cfg.NotificationSweepCron)
	require.False(t, cfg.IsProduction())
	require.Equal(t, cfg.RedisAddr, cfg.Redis().Addr)
}

func TestLoadConfigReadsDotenv(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	t.Setenv("CSRF_SECRET", "from-env")
	require.NoError(t, os.Unsetenv("SECRET_KEY"))

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SECRET_KEY=from-file\nCSRF_SECRET=from-file\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "from-file", cfg.SecretKey)
	require.Equal(t, "from-env", cfg.CSRFSecret)
}

func TestInTestMode(t *testing.T) {
	t.Setenv("SITE_TEST_MODE", "1")
	require.True(t, InTestMode())
	t.Setenv("SITE_TEST_MODE", "0")
	require.False(t, InTestMode())
}
