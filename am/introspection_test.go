package am

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settingByKey(t *testing.T, in *ConfigIntrospection, key string) SettingInfo {
	t.Helper()
	for _, s := range in.Settings {
		if s.Key == key {
			return s
		}
	}
	t.Fatalf("setting %q not found", key)
	return SettingInfo{}
}

func TestGetConfigIntrospection(t *testing.T) {
	home := isolate(t)
	userFile := UserConfigPath(home)
	writeFile(t, userFile, "[simulator]\nport = 8181\n")
	t.Setenv("EPICDASH_LOG_THEME", "gruvbox")

	in, err := GetConfigIntrospection()
	require.NoError(t, err)

	assert.Equal(t, []string{userFile}, in.ConfigFiles)

	sim := settingByKey(t, in, "simulator.port")
	assert.Equal(t, SourceUser, sim.Source)
	assert.Equal(t, userFile, sim.SourcePath)

	theme := settingByKey(t, in, "log.theme")
	assert.Equal(t, SourceEnvironment, theme.Source)
	assert.Equal(t, "EPICDASH_LOG_THEME", theme.SourcePath)
	assert.Equal(t, "gruvbox", theme.Value)

	poll := settingByKey(t, in, "feed.poll_interval_ms")
	assert.Equal(t, SourceDefault, poll.Source)

	for i := 1; i < len(in.Settings); i++ {
		assert.Less(t, in.Settings[i-1].Key, in.Settings[i].Key)
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "EPICDASH_FEED_POLL_INTERVAL_MS", EnvKey("feed.poll_interval_ms"))
}

func TestSearchPaths_ProjectFile(t *testing.T) {
	home := isolate(t)
	project := filepath.Join(home, ConfigFileName)
	writeFile(t, project, "")

	paths := SearchPaths()
	require.Len(t, paths, 3)
	assert.Equal(t, SourceSystem, paths[0].Source)
	assert.Equal(t, SourceUser, paths[1].Source)
	assert.Equal(t, SourceProject, paths[2].Source)
}
