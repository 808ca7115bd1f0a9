package am

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	writeFile(t, path, "[feed]\npoll_interval_ms = 1000\n")

	cw, err := NewConfigWatcher(path)
	require.NoError(t, err)
	cw.debouncePeriod = 100 * time.Millisecond
	cw.load = func() (*Config, error) { return LoadFromFile(path) }

	got := make(chan int, 4)
	cw.OnReload(func(c *Config) error {
		got <- c.Feed.PollIntervalMS
		return nil
	})
	cw.Start()
	defer cw.Stop()

	require.NoError(t, os.WriteFile(path, []byte("[feed]\npoll_interval_ms = 300\n"), 0644))

	select {
	case ms := <-got:
		assert.Equal(t, 300, ms)
	case <-time.After(3 * time.Second):
		t.Fatal("reload callback not called")
	}
}

func TestConfigWatcher_IgnoresOwnWriteAndBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	writeFile(t, path, "")

	cw, err := NewConfigWatcher(path)
	require.NoError(t, err)
	cw.debouncePeriod = 10 * time.Millisecond

	var calls atomic.Int32
	cw.load = func() (*Config, error) {
		calls.Add(1)
		return &Config{}, nil
	}
	cw.Start()
	defer cw.Stop()

	cw.MarkOwnWrite()
	require.NoError(t, os.WriteFile(path, []byte("[log]\ntheme = \"gruvbox\"\n"), 0644))
	require.NoError(t, os.WriteFile(path+".back1", []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte(""), 0644))

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestNewConfigWatcher_NoPaths(t *testing.T) {
	_, err := NewConfigWatcher()
	assert.Error(t, err)
}

func TestIsBackupFile(t *testing.T) {
	assert.True(t, isBackupFile("/x/epicdash.toml.back2"))
	assert.False(t, isBackupFile("/x/epicdash.toml"))
}
