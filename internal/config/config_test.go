package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 15*time.Minute, cfg.S3.ReportURLExpiry)
	assert.Equal(t, "beginner", cfg.Intensity.Defaults["strength"])
	assert.Equal(t, "rest", cfg.Intensity.Fallback)
	assert.Equal(t, 40, cfg.Hooks.Burst)
	assert.False(t, cfg.S3.Enabled())
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
database:
  driver: Memory
jwt:
  secret: from-file
  expiration: 30m
intensity:
  defaults:
    mobility: light
  fallback: easy
jobs:
  finish_schedule: ""
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("HOOKS_SECRET", "from-env")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, 30*time.Minute, cfg.JWT.Expiration)
	assert.Equal(t, "from-env", cfg.Hooks.Secret)
	assert.Equal(t, "light", cfg.Intensity.Defaults["mobility"])
	assert.Equal(t, "easy", cfg.Intensity.Fallback)
	assert.Empty(t, cfg.Jobs.FinishSchedule)
}
