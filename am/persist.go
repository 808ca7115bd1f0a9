package am

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/epicdash/errors"
)

// backupCount is how many rotated copies (.back1 ... .back3) are kept.
const backupCount = 3

// createBackup rotates .back1..backN before the config file is rewritten.
func createBackup(configPath string) error {
	content, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	for i := backupCount; i > 1; i-- {
		older := backupName(configPath, i)
		newer := backupName(configPath, i-1)
		if _, err := os.Stat(newer); err == nil {
			if err := os.Rename(newer, older); err != nil {
				return errors.Wrapf(err, "failed to rotate %s", filepath.Base(newer))
			}
		}
	}

	if err := os.WriteFile(backupName(configPath, 1), content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}
	return nil
}

func backupName(configPath string, n int) string {
	return configPath + ".back" + string(rune('0'+n))
}

// SetValue writes a single dotted key into the TOML file at configPath,
// keeping every other key. The cached config is reset so the next Load
// sees the change.
func SetValue(configPath, key string, value interface{}) error {
	parts := strings.Split(key, ".")
	if key == "" || len(parts) < 2 {
		return errors.Newf("config key %q must be section.key", key)
	}

	doc := map[string]interface{}{}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := toml.Unmarshal(data, &doc); err != nil {
			return errors.Wrapf(err, "failed to parse %s", configPath)
		}
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to read %s", configPath)
	}

	section := doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := section[p].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			section[p] = next
		}
		section = next
	}
	section[parts[len(parts)-1]] = value

	data, err := toml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.MkdirAll(filepath.Dir(configPath), DefaultDirPermissions); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	if err := createBackup(configPath); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}

	if w := GetGlobalWatcher(); w != nil {
		w.MarkOwnWrite()
	}
	if err := os.WriteFile(configPath, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", configPath)
	}

	Reset()
	return nil
}
