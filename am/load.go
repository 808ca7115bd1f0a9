package am

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/teranos/epicdash/errors"
)

// ConfigFileName is the file name searched for in every config location.
const ConfigFileName = "epicdash.toml"

var (
	mu            sync.Mutex
	globalConfig  *Config
	viperInstance *viper.Viper

	// ConfigSources records, per dotted key, the file that last set it.
	// Keys absent from the map come from defaults or the environment.
	ConfigSources = map[string]SourceInfo{}
)

// Load reads the epicdash configuration using Viper. The result is cached
// until Reset.
func Load() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalConfig != nil {
		return globalConfig, nil
	}

	cfg, err := LoadWithViper(initViperLocked())
	if err != nil {
		return nil, err
	}
	globalConfig = cfg
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	mu.Lock()
	defer mu.Unlock()
	return initViperLocked()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path on top of the
// defaults, ignoring the environment and the search path.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}
	return LoadWithViper(v)
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
	viperInstance = nil
	ConfigSources = map[string]SourceInfo{}
}

func initViperLocked() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	v.SetEnvPrefix("EPICDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindEnvVars(v)

	SetDefaults(v)

	// system -> user -> project; env vars still win through AutomaticEnv
	mergeConfigFiles(v)

	viperInstance = v
	return v
}

// SearchPaths returns the candidate config files in precedence order,
// lowest first, paired with their source kind.
func SearchPaths() []SourceInfo {
	paths := []SourceInfo{
		{Source: SourceSystem, Path: filepath.Join("/etc/epicdash", ConfigFileName)},
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, SourceInfo{Source: SourceUser, Path: UserConfigPath(home)})
	}
	if project := findProjectConfig(); project != "" {
		paths = append(paths, SourceInfo{Source: SourceProject, Path: project})
	}
	return paths
}

// UserConfigPath returns ~/.epicdash/epicdash.toml for the given home.
func UserConfigPath(home string) string {
	return filepath.Join(home, ".epicdash", ConfigFileName)
}

// findProjectConfig walks up from the working directory looking for
// epicdash.toml. Returns "" if none is found.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// mergeConfigFiles merges every existing config file into v, recording which
// file each key came from.
func mergeConfigFiles(v *viper.Viper) {
	for _, candidate := range SearchPaths() {
		if _, err := os.Stat(candidate.Path); err != nil {
			continue
		}

		fileViper := viper.New()
		fileViper.SetConfigFile(candidate.Path)
		fileViper.SetConfigType("toml")
		if err := fileViper.ReadInConfig(); err != nil {
			continue
		}

		// MergeConfigMap keeps files below env vars; v.Set would not.
		if err := v.MergeConfigMap(fileViper.AllSettings()); err != nil {
			continue
		}
		for _, key := range fileViper.AllKeys() {
			ConfigSources[key] = candidate
		}
	}
}

// ActiveConfigFiles lists the config files that exist, lowest precedence first.
func ActiveConfigFiles() []string {
	var files []string
	for _, candidate := range SearchPaths() {
		if _, err := os.Stat(candidate.Path); err == nil {
			files = append(files, candidate.Path)
		}
	}
	return files
}

// Get returns a configuration value using dot notation
func Get(key string) interface{} {
	return GetViper().Get(key)
}

// GetString returns a configuration value as string using dot notation
func GetString(key string) string {
	return GetViper().GetString(key)
}

// GetInt returns a configuration value as int using dot notation
func GetInt(key string) int {
	return GetViper().GetInt(key)
}
