package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vthunder/daybook/internal/store"
)

// isolate keeps the developer's own config and environment out of the test
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	for _, k := range []string{"DAYBOOK_CONFIG", "DAYBOOK_STATE_PATH", "DAYBOOK_STORE_BACKEND", "DAYBOOK_STORE_PATH", "DAYBOOK_THEME", "DAYBOOK_TIMEZONE", "DAYBOOK_DEBUG", "DAYBOOK_ACTIVITY_LOG"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)
	t.Setenv("DAYBOOK_STATE_PATH", filepath.Join(dir, "state"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "state"), cfg.StatePath)
	assert.Equal(t, store.BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(dir, "state", "daybook.db"), cfg.Store.Path)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.True(t, cfg.ActivityLog)
	assert.Empty(t, cfg.Theme)
	assert.Empty(t, cfg.File)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
state_path: `+filepath.Join(dir, "data")+`
store:
  backend: file
timezone: Europe/Berlin
theme: Dark
activity_log: false
`), 0644))
	t.Setenv("DAYBOOK_TIMEZONE", "America/New_York")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.File)
	assert.Equal(t, store.BackendFile, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(dir, "data", "documents"), cfg.Store.Path)
	assert.Equal(t, "America/New_York", cfg.Timezone)
	assert.Equal(t, ThemeDark, cfg.Theme)
	assert.False(t, cfg.ActivityLog)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())

	opts := cfg.StoreOptions()
	assert.Equal(t, store.BackendFile, opts.Backend)
}

func TestLoad_ConfigFromEnvVar(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "elsewhere.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: memory\n"), 0644))
	t.Setenv("DAYBOOK_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, path, cfg.File)
	assert.Equal(t, store.BackendMemory, cfg.Store.Backend)
	assert.Empty(t, cfg.Store.Path)
}

func TestLoad_Invalid(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")

	require.NoError(t, os.WriteFile(path, []byte("theme: sepia\n"), 0644))
	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: redis\n"), 0644))
	_, err = Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("timezone: Mars/Olympus\n"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestResolveTheme(t *testing.T) {
	assert.Equal(t, ThemeDark, ResolveTheme("dark", "light", "0;15"))
	assert.Equal(t, ThemeLight, ResolveTheme("", "light", "15;0"))
	assert.Equal(t, ThemeDark, ResolveTheme("", "", "15;0"))
	assert.Equal(t, ThemeLight, ResolveTheme("", "", "0;15"))
	assert.Equal(t, ThemeLight, ResolveTheme("", "", ""))
	assert.Equal(t, ThemeDark, ResolveTheme("bogus", "", "7;default;0"))
}

func TestTerminalTheme(t *testing.T) {
	assert.Equal(t, ThemeDark, TerminalTheme("15;0"))
	assert.Equal(t, ThemeDark, TerminalTheme("15;8"))
	assert.Equal(t, ThemeLight, TerminalTheme("0;7"))
	assert.Equal(t, "", TerminalTheme("garbage"))
	assert.Equal(t, "", TerminalTheme(""))
}
