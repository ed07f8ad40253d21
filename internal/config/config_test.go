package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/davidleitw/bahathread/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults without a config file", func(t *testing.T) {
		cfg, err := config.Load(t.TempDir())

		require.NoError(t, err)
		assert.Equal(t, "https://forum.gamer.com.tw", cfg.Domain)
		assert.Equal(t, "data/baha.db", cfg.DBPath)
		assert.Equal(t, time.Second, cfg.RequestInterval)
		assert.Equal(t, "Mozilla/5.0", cfg.UserAgent)
		assert.Equal(t, 4, cfg.PrefetchWorkers)
		assert.Empty(t, cfg.Rules)
	})

	t.Run("reads config.yaml", func(t *testing.T) {
		dir := t.TempDir()
		yaml := `
domain: https://forum.test
request_interval: 250ms
rules:
  - bsn: 60076
    sna: 3146926
    author: leichitw
    interval: 10s
    max_failure: 5
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

		cfg, err := config.Load(dir)

		require.NoError(t, err)
		assert.Equal(t, "https://forum.test", cfg.Domain)
		assert.Equal(t, 250*time.Millisecond, cfg.RequestInterval)
		require.Len(t, cfg.Rules, 1)
		assert.Equal(t, config.RuleConfig{
			Bsn:        60076,
			Sna:        3146926,
			Author:     "leichitw",
			Interval:   10 * time.Second,
			MaxFailure: 5,
		}, cfg.Rules[0])
	})

	t.Run("environment wins over the file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("domain: https://file.test\n"), 0o644))
		t.Setenv("DOMAIN", "https://env.test")
		t.Setenv("ACCOUNT", "alice")

		cfg, err := config.Load(dir)

		require.NoError(t, err)
		assert.Equal(t, "https://env.test", cfg.Domain)
		assert.Equal(t, "alice", cfg.Account)
	})

	t.Run("invalid log level", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "loud")

		_, err := config.Load(t.TempDir())

		assert.Error(t, err)
	})
}
