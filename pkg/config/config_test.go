package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bastiangx/wordindex/pkg/dictionary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1024, cfg.Server.MaxBatch)
	assert.True(t, cfg.Index.UseMmap)
	assert.Equal(t, dictionary.DefaultLayout(), cfg.Index.Layout())

	opts := cfg.Index.LoaderOptions()
	assert.Equal(t, cfg.Index.MaxOpen, opts.MaxOpen)
	assert.Equal(t, cfg.Index.UseMmap, opts.UseMmap)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[server]
max_batch = 64
reload_every = 10

[index]
data_dir = "/srv/idx"
use_mmap = false
max_open = 2
keys_ext = ".k"
values_ext = ".v"
values2_ext = ""

[cli]
default_set = "meanings"
default_limit = 5
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.Server.MaxBatch)
	assert.Equal(t, 10, cfg.Server.ReloadEvery)
	assert.Equal(t, "/srv/idx", cfg.Index.DataDir)
	assert.False(t, cfg.Index.UseMmap)
	assert.Equal(t, 2, cfg.Index.MaxOpen)
	assert.Equal(t, dictionary.Layout{KeysExt: ".k", ValuesExt: ".v"}, cfg.Index.Layout())
	assert.Equal(t, "meanings", cfg.CLI.DefaultSet)
	assert.Equal(t, 5, cfg.CLI.DefaultLimit)
}

func TestLoadConfigMissingKeysKeepDefaults(t *testing.T) {
	path := writeConfig(t, "[server]\nmax_batch = 8\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, 8, cfg.Server.MaxBatch)
	assert.Equal(t, def.Index, cfg.Index)
	assert.Equal(t, def.CLI, cfg.CLI)
}

func TestLoadConfigPartialRecovery(t *testing.T) {
	// max_open has the wrong type, so typed decoding fails as a whole.
	path := writeConfig(t, `
[server]
max_batch = 32

[index]
max_open = "lots"
use_mmap = false
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.Server.MaxBatch)
	assert.False(t, cfg.Index.UseMmap)
	assert.Equal(t, DefaultConfig().Index.MaxOpen, cfg.Index.MaxOpen)
}

func TestLoadConfigGarbage(t *testing.T) {
	path := writeConfig(t, "this is = = not toml [")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		check  func(*testing.T, *Config)
	}{
		{
			name:   "zero batch",
			modify: func(c *Config) { c.Server.MaxBatch = 0 },
			check:  func(t *testing.T, c *Config) { assert.Equal(t, 1024, c.Server.MaxBatch) },
		},
		{
			name:   "negative max open",
			modify: func(c *Config) { c.Index.MaxOpen = -3 },
			check:  func(t *testing.T, c *Config) { assert.Equal(t, 0, c.Index.MaxOpen) },
		},
		{
			name:   "clashing extensions",
			modify: func(c *Config) { c.Index.ValuesExt = c.Index.KeysExt },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, dictionary.DefaultLayout(), c.Index.Layout())
			},
		},
		{
			name:   "values2 clashes with keys",
			modify: func(c *Config) { c.Index.Values2Ext = c.Index.KeysExt },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, dictionary.DefaultLayout(), c.Index.Layout())
			},
		},
		{
			name:   "missing keys extension",
			modify: func(c *Config) { c.Index.KeysExt = "" },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, ".valIds", c.Index.KeysExt)
			},
		},
		{
			name:   "zero limit",
			modify: func(c *Config) { c.CLI.DefaultLimit = 0 },
			check:  func(t *testing.T, c *Config) { assert.Equal(t, 24, c.CLI.DefaultLimit) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			cfg.Sanitize()
			tt.check(t, cfg)
		})
	}
}

func TestInitConfigCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.FileExists(t, path)

	again, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := DefaultConfig()
	cfg.Server.MetricsAddr = "127.0.0.1:9464"
	cfg.CLI.DefaultSet = "meanings.text"
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadConfigWithPriorityCustomPath(t *testing.T) {
	path := writeConfig(t, "[cli]\ndefault_limit = 3\n")
	cfg, used, err := LoadConfigWithPriority(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, 3, cfg.CLI.DefaultLimit)
}

func TestRebuildConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path, err := GetDefaultConfigPath()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("[server]\nmax_batch = 2\n"), 0644))

	require.NoError(t, RebuildConfigFile())

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}
