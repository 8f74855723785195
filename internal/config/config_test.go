package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/meterdash/internal/config"
	"codeberg.org/mutker/meterdash/internal/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, ".cache"))
	t.Setenv("METERDASH_CONFIG", "")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meterdash.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
backend = "http://meter.local:5000"
device = "UM25C"
address = "/dev/ttyUSB0"
rate = 0.5
session = "charger test"
left_axis = "power"
right_axis = "temperature"
color_mode = "dark"
log_level = "debug"
record = true
record_db = "/tmp/meterdash-test.db"
`)
	t.Setenv("METERDASH_CONFIG", path)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "http://meter.local:5000", cfg.Backend)
	assert.Equal(t, "UM25C", cfg.Device)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Address)
	assert.InDelta(t, 0.5, cfg.Rate, 1e-9)
	assert.Equal(t, "charger test", cfg.Session)
	assert.Equal(t, "power", cfg.LeftAxis)
	assert.Equal(t, "temperature", cfg.RightAxis)
	assert.Equal(t, "dark", cfg.ColorMode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Record)
	assert.Equal(t, "/tmp/meterdash-test.db", cfg.RecordDB)
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := config.Load()
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, config.DefaultBackend, cfg.Backend)
	assert.Equal(t, config.DefaultDevice, cfg.Device)
	assert.InDelta(t, config.DefaultRate, cfg.Rate, 1e-9)
	assert.Equal(t, "voltage", cfg.LeftAxis)
	assert.Equal(t, "current", cfg.RightAxis)
	assert.Equal(t, "light", cfg.ColorMode)
	assert.Equal(t, "backend", cfg.Snapshots)
	assert.Equal(t, config.DefaultLogLines, cfg.LogLines)
	assert.False(t, cfg.Record)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
}

func TestEnvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
device = "UM25C"
session = "from file"
`)
	t.Setenv("METERDASH_CONFIG", path)
	t.Setenv("METERDASH_SESSION", "from env")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "UM25C", cfg.Device)
	assert.Equal(t, "from env", cfg.Session)
}

func TestFlagsOverrideEnv(t *testing.T) {
	isolate(t)
	t.Setenv("METERDASH_DEVICE", "UM24C")
	t.Setenv("METERDASH_RATE", "2")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--device", "TC66C", "--left-axis", "power"}))

	cfg, err := config.Load(config.WithFlags(fs))
	require.NoError(t, err)
	assert.Equal(t, "TC66C", cfg.Device)
	assert.Equal(t, "power", cfg.LeftAxis)
	assert.InDelta(t, 2.0, cfg.Rate, 1e-9, "unset flag must not mask the environment")
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
This is not a valid TOML file
`)

	_, err := config.Load(config.WithConfigFile(path))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
	assert.Contains(t, err.Error(), "Failed to read config file")
}

func TestInvalidLogLevel(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
log_level = "invalid"
`)

	_, err := config.Load(config.WithConfigFile(path))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
}

func TestInvalidRate(t *testing.T) {
	isolate(t)
	t.Setenv("METERDASH_RATE", "0")

	_, err := config.Load()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidRate))
}

func TestEffectiveLogLevel(t *testing.T) {
	cfg := &config.Config{LogLevel: "error"}
	assert.Equal(t, "error", cfg.EffectiveLogLevel())

	cfg.Verbose = true
	assert.Equal(t, "info", cfg.EffectiveLogLevel())

	cfg.Debug = true
	assert.Equal(t, "debug", cfg.EffectiveLogLevel())
}

func TestRegisterFlagsCoversEveryKey(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(fs)

	for _, name := range []string{"backend", "left-axis", "record-db", "batch-timeout", "log-level", "rate", "record"} {
		assert.NotNil(t, fs.Lookup(name), name)
	}
	def, err := fs.GetFloat64("rate")
	require.NoError(t, err)
	assert.InDelta(t, config.DefaultRate, def, 1e-9)
}

func TestInvalidSnapshotMode(t *testing.T) {
	isolate(t)
	t.Setenv("METERDASH_SNAPSHOTS", "cloud")

	_, err := config.Load()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidConfig))
}
