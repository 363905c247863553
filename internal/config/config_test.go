package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "database:\n  path: \""+filepath.Join(dir, "db", "app.db")+"\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 30, cfg.Server.SlotMinutes)
	assert.Equal(t, "Bookings", cfg.Sheets.SheetName)
	assert.Equal(t, 60*time.Second, cfg.CacheTTL())
	assert.Equal(t, 6*time.Hour, cfg.Backup.Interval())

	// The database directory is created so opening the file works.
	_, err = os.Stat(filepath.Join(dir, "db"))
	assert.NoError(t, err)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_ADMIN_KEY", "secret-key")

	dir := t.TempDir()
	path := writeConfig(t, `
server:
  address: ":9000"
  admin_key: "${TEST_ADMIN_KEY}"
  slot_minutes: 15
database:
  path: "`+filepath.Join(dir, "app.db")+`"
backup:
  enabled: true
  interval_hours: 12
redis:
  enabled: true
  ttl_seconds: 120
retention:
  booking_days: 30
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, "secret-key", cfg.Server.AdminKey)
	assert.Equal(t, 15, cfg.Server.SlotMinutes)
	assert.Equal(t, 12*time.Hour, cfg.Backup.Interval())
	assert.Equal(t, 120*time.Second, cfg.CacheTTL())
	assert.Equal(t, 30*24*time.Hour, cfg.BookingRetention())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
