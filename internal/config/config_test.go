package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var cfg Config
	cfg.LoadDefaults()

	assert.Equal(t, "smartcook.db", cfg.LocalDBPath)
	assert.Equal(t, 30*time.Second, cfg.DrainInterval)
	assert.Equal(t, 60*time.Second, cfg.ProbeInterval)
	assert.Equal(t, 5*time.Minute, cfg.PullInterval)
	assert.Equal(t, 200, cfg.CatalogPageSize)
	assert.Equal(t, 0, cfg.MaxSyncAttempts) // retry forever
}

func TestParseJson_OverlaysOnlyGivenFields(t *testing.T) {
	file := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(file, []byte(`{
		"local_db_path": "/tmp/test.db",
		"owner_id": "u1",
		"drain_interval": "10s",
		"pull_interval": 120000000000,
		"max_sync_attempts": 5
	}`), 0o600))

	orig := os.Args
	t.Cleanup(func() { os.Args = orig })
	os.Args = []string{"syncd", "-c", file}

	var cfg Config
	cfg.LoadDefaults()
	parseJson(&cfg)

	assert.Equal(t, "/tmp/test.db", cfg.LocalDBPath)
	assert.Equal(t, "u1", cfg.OwnerID)
	assert.Equal(t, 10*time.Second, cfg.DrainInterval)
	assert.Equal(t, 2*time.Minute, cfg.PullInterval)
	assert.Equal(t, 5, cfg.MaxSyncAttempts)

	// untouched fields keep their defaults
	assert.Equal(t, 60*time.Second, cfg.ProbeInterval)
	assert.Equal(t, 200, cfg.CatalogPageSize)
}

func TestParseJson_NoFlagIsNoop(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })
	os.Args = []string{"syncd"}

	var cfg Config
	cfg.LoadDefaults()
	want := cfg
	parseJson(&cfg)

	assert.Equal(t, want, cfg)
}

func TestParseEnv_OverlaysConnectionSettings(t *testing.T) {
	t.Setenv("SMARTCOOK_DB", "/var/lib/smartcook/cache.db")
	t.Setenv("SMARTCOOK_REMOTE_DSN", "postgres://app@db:5432/smartcook")
	t.Setenv("SMARTCOOK_OWNER", "u42")

	var cfg Config
	cfg.LoadDefaults()
	parseEnv(&cfg)

	assert.Equal(t, "/var/lib/smartcook/cache.db", cfg.LocalDBPath)
	assert.Equal(t, "postgres://app@db:5432/smartcook", cfg.RemoteDSN)
	assert.Equal(t, "u42", cfg.OwnerID)
}

func TestParseEnv_EmptyValuesIgnored(t *testing.T) {
	t.Setenv("SMARTCOOK_DB", "")
	t.Setenv("SMARTCOOK_REMOTE_DSN", "")

	var cfg Config
	cfg.LoadDefaults()
	want := cfg
	parseEnv(&cfg)

	assert.Equal(t, want, cfg)
}
