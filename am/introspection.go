package am

import (
	"os"
	"sort"
	"strings"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/epicdash/epicdash.toml
	SourceUser        ConfigSource = "user"        // ~/.epicdash/epicdash.toml
	SourceProject     ConfigSource = "project"     // nearest epicdash.toml
	SourceEnvironment ConfigSource = "environment" // EPICDASH_* env vars
)

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource `json:"source"`
	Path   string       `json:"path,omitempty"` // file path or env var name
}

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key"`
	Value      interface{}  `json:"value"`
	Source     ConfigSource `json:"source"`
	SourcePath string       `json:"source_path,omitempty"`
}

// ConfigIntrospection describes the active configuration, key by key.
type ConfigIntrospection struct {
	ConfigFiles []string      `json:"config_files"`
	Settings    []SettingInfo `json:"settings"`
}

// GetConfigIntrospection returns every effective setting with its source.
func GetConfigIntrospection() (*ConfigIntrospection, error) {
	if _, err := Load(); err != nil {
		return nil, err
	}
	v := GetViper()

	mu.Lock()
	sources := make(map[string]SourceInfo, len(ConfigSources))
	for k, s := range ConfigSources {
		sources[k] = s
	}
	mu.Unlock()

	keys := v.AllKeys()
	sort.Strings(keys)

	out := &ConfigIntrospection{
		ConfigFiles: ActiveConfigFiles(),
		Settings:    make([]SettingInfo, 0, len(keys)),
	}
	for _, key := range keys {
		info := SourceInfo{Source: SourceDefault}
		if s, ok := sources[key]; ok {
			info = s
		}
		envKey := EnvKey(key)
		if _, ok := os.LookupEnv(envKey); ok {
			info = SourceInfo{Source: SourceEnvironment, Path: envKey}
		}
		out.Settings = append(out.Settings, SettingInfo{
			Key:        key,
			Value:      v.Get(key),
			Source:     info.Source,
			SourcePath: info.Path,
		})
	}
	return out, nil
}

// EnvKey returns the environment variable that overrides a dotted key.
func EnvKey(key string) string {
	return "EPICDASH_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
