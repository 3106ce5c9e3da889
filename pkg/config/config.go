/*
Package config manages TOML config for wordindex services.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/bastiangx/wordindex/internal/utils"
	"github.com/bastiangx/wordindex/pkg/dictionary"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Server ServerConfig `toml:"server"`
	Index  IndexConfig  `toml:"index"`
	CLI    CliConfig    `toml:"cli"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MaxBatch    int    `toml:"max_batch"`
	ReloadEvery int    `toml:"reload_every"`
	MetricsAddr string `toml:"metrics_addr"`
}

// IndexConfig holds index set options.
type IndexConfig struct {
	DataDir    string `toml:"data_dir"`
	UseMmap    bool   `toml:"use_mmap"`
	MaxOpen    int    `toml:"max_open"`
	KeysExt    string `toml:"keys_ext"`
	ValuesExt  string `toml:"values_ext"`
	Values2Ext string `toml:"values2_ext"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultSet   string `toml:"default_set"`
	DefaultLimit int    `toml:"default_limit"`
}

// Layout returns the file layout of index sets.
func (ic IndexConfig) Layout() dictionary.Layout {
	return dictionary.Layout{
		KeysExt:    ic.KeysExt,
		ValuesExt:  ic.ValuesExt,
		Values2Ext: ic.Values2Ext,
	}
}

// LoaderOptions returns the options for a dictionary.Loader.
func (ic IndexConfig) LoaderOptions() dictionary.Options {
	return dictionary.Options{
		Layout:  ic.Layout(),
		UseMmap: ic.UseMmap,
		MaxOpen: ic.MaxOpen,
	}
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	layout := dictionary.DefaultLayout()
	return &Config{
		Server: ServerConfig{
			MaxBatch:    1024,
			ReloadEvery: 500,
			MetricsAddr: "",
		},
		Index: IndexConfig{
			DataDir:    "data/",
			UseMmap:    true,
			MaxOpen:    16,
			KeysExt:    layout.KeysExt,
			ValuesExt:  layout.ValuesExt,
			Values2Ext: layout.Values2Ext,
		},
		CLI: CliConfig{
			DefaultSet:   "",
			DefaultLimit: 24,
		},
	}
}

// Sanitize replaces values that cannot work with their defaults.
func (c *Config) Sanitize() {
	def := DefaultConfig()
	if c.Server.MaxBatch < 1 {
		log.Warnf("max_batch must be at least 1, got %d. Using %d", c.Server.MaxBatch, def.Server.MaxBatch)
		c.Server.MaxBatch = def.Server.MaxBatch
	}
	if c.Server.ReloadEvery < 0 {
		c.Server.ReloadEvery = 0
	}
	if c.Index.MaxOpen < 0 {
		log.Warnf("max_open must not be negative, got %d. Using unlimited", c.Index.MaxOpen)
		c.Index.MaxOpen = 0
	}
	if c.Index.KeysExt == "" || c.Index.ValuesExt == "" {
		log.Warnf("keys_ext and values_ext are required. Using %s and %s", def.Index.KeysExt, def.Index.ValuesExt)
		c.Index.KeysExt = def.Index.KeysExt
		c.Index.ValuesExt = def.Index.ValuesExt
	}
	if c.Index.KeysExt == c.Index.ValuesExt || (c.Index.Values2Ext != "" &&
		(c.Index.Values2Ext == c.Index.KeysExt || c.Index.Values2Ext == c.Index.ValuesExt)) {
		log.Warnf("index extensions must differ. Using defaults")
		c.Index.KeysExt = def.Index.KeysExt
		c.Index.ValuesExt = def.Index.ValuesExt
		c.Index.Values2Ext = def.Index.Values2Ext
	}
	if c.CLI.DefaultLimit < 1 {
		c.CLI.DefaultLimit = def.CLI.DefaultLimit
	}
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/wordindex
// 2. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", "wordindex")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/wordindex/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)
	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file. Sections that fail to decode fall back
// to their defaults while well-formed ones are kept.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath), nil
	}
	config.Sanitize()
	return config, nil
}

// tryPartialParse salvages what it can from a file that failed typed decoding
func tryPartialParse(configPath string) *Config {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config
	}

	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "index"); ok {
		extractIndexConfig(section, &config.Index)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	config.Sanitize()
	return config
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt(data, "max_batch"); ok {
		server.MaxBatch = val
	}
	if val, ok := utils.ExtractInt(data, "reload_every"); ok {
		server.ReloadEvery = val
	}
	if val, ok := utils.ExtractString(data, "metrics_addr"); ok {
		server.MetricsAddr = val
	}
}

func extractIndexConfig(data map[string]any, idx *IndexConfig) {
	if val, ok := utils.ExtractString(data, "data_dir"); ok {
		idx.DataDir = val
	}
	if val, ok := utils.ExtractBool(data, "use_mmap"); ok {
		idx.UseMmap = val
	}
	if val, ok := utils.ExtractInt(data, "max_open"); ok {
		idx.MaxOpen = val
	}
	if val, ok := utils.ExtractString(data, "keys_ext"); ok {
		idx.KeysExt = val
	}
	if val, ok := utils.ExtractString(data, "values_ext"); ok {
		idx.ValuesExt = val
	}
	if val, ok := utils.ExtractString(data, "values2_ext"); ok {
		idx.Values2Ext = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractString(data, "default_set"); ok {
		cli.DefaultSet = val
	}
	if val, ok := utils.ExtractInt(data, "default_limit"); ok {
		cli.DefaultLimit = val
	}
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(defaultPath)); err != nil {
		return err
	}
	return SaveConfig(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
