package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

// Config is the top-level slate configuration loaded from TOML.
type Config struct {
	StorageDir string `toml:"storage_dir"`
	ListenAddr string `toml:"listen_addr"`

	Search   SearchConfig   `toml:"search"`
	Saved    SavedConfig    `toml:"saved"`
	Identity IdentityConfig `toml:"identity"`
}

// SearchConfig tunes the debounced dispatcher and the default result limit.
type SearchConfig struct {
	// MinQueryLength is the minimum trimmed query length that triggers a
	// search. Shorter queries clear the results instead.
	MinQueryLength int `toml:"min_query_length"`

	// Debounce is the quiet period after the last keystroke before a
	// search is dispatched.
	Debounce Duration `toml:"debounce"`

	// Limit is the default maximum number of results per search.
	Limit int `toml:"limit"`
}

// SavedConfig tunes saved-search behavior.
type SavedConfig struct {
	// RefreshInterval is how often the server refreshes its saved-search
	// listing cache. The poller is cancelled on shutdown.
	RefreshInterval Duration `toml:"refresh_interval"`
}

// IdentityConfig identifies the caller for saved-search ownership and
// visibility scoping. The CLI uses it when no explicit flags are given.
type IdentityConfig struct {
	User         string `toml:"user"`
	Email        string `toml:"email"`
	Organization string `toml:"organization"`
}

// Duration wraps time.Duration with TOML text marshalling ("300ms", "10s").
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// GetDefaultConfig returns a configuration with every default applied.
func GetDefaultConfig() (*Config, error) {
	storageDir, err := GetDefaultStorageDir()
	if err != nil {
		return nil, fmt.Errorf("getting default storage directory: %w", err)
	}
	cfg := &Config{
		StorageDir: storageDir,
		ListenAddr: "localhost:8787",
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadConfig reads the TOML config at configPath. A missing file yields the
// defaults; a present file has defaults applied to any omitted setting.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.StorageDir == "" {
		storageDir, err := GetDefaultStorageDir()
		if err != nil {
			return nil, fmt.Errorf("getting default storage directory: %w", err)
		}
		config.StorageDir = storageDir
	}
	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = "localhost:8787"
	}
	if c.Search.MinQueryLength == 0 {
		c.Search.MinQueryLength = 2
	}
	if c.Search.Debounce.Duration == 0 {
		c.Search.Debounce = Duration{300 * time.Millisecond}
	}
	if c.Search.Limit == 0 {
		c.Search.Limit = 30
	}
	if c.Saved.RefreshInterval.Duration == 0 {
		c.Saved.RefreshInterval = Duration{10 * time.Second}
	}
}

// SaveConfig writes the configuration as TOML.
func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// SaveTemplateConfig writes the commented sample config, substituting the
// actual storage directory.
func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	storageDir := c.StorageDir
	if storageDir == "" {
		var err error
		storageDir, err = GetDefaultStorageDir()
		if err != nil {
			return fmt.Errorf("getting default storage directory: %w", err)
		}
	}

	template := strings.Replace(configTemplate, "/home/user/.local/share/slate", storageDir, 1)
	return os.WriteFile(configPath, []byte(template), 0644)
}

// GetDefaultStorageDir returns the default directory for the search index
// database, creating it if needed.
func GetDefaultStorageDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	slateDir := filepath.Join(dataDir, "slate")
	if err := os.MkdirAll(slateDir, 0755); err != nil {
		return "", fmt.Errorf("creating storage directory %s: %w", slateDir, err)
	}

	return slateDir, nil
}

// GetDefaultDBPath returns the default database path.
func GetDefaultDBPath() (string, error) {
	storageDir, err := GetDefaultStorageDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(storageDir, "slate.db"), nil
}

// GetConfigDir returns the slate configuration directory, creating it if
// needed.
func GetConfigDir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	slateConfigDir := filepath.Join(configDir, "slate")
	if err := os.MkdirAll(slateConfigDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", slateConfigDir, err)
	}

	return slateConfigDir, nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
