package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	m := NewManagerAt(path)

	require.NoError(t, m.Load())
	assert.FileExists(t, path)
	assert.NoError(t, m.ParseError())
	assert.Equal(t, *DefaultConfig(), m.Get())
}

func TestLoadParseErrorFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	m := NewManagerAt(path)
	require.NoError(t, m.Load())
	assert.Error(t, m.ParseError())
	assert.Equal(t, *DefaultConfig(), m.Get())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data), "broken file must be left for the user")
}

func TestLoadPartialAndNormalize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	raw := `{"editor":{"autoSave":true,"changeCheckIntervalSec":0},"tabs":{"lastTabBehavior":"bogus"},"recent":{"maxEntries":-3}}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	m := NewManagerAt(path)
	require.NoError(t, m.Load())
	cfg := m.Get()

	assert.True(t, cfg.Editor.AutoSave)
	assert.Equal(t, time.Duration(0), cfg.ChangeCheckInterval())
	assert.Equal(t, LastTabNewUntitled, cfg.Tabs.LastTabBehavior)
	assert.Equal(t, 10, cfg.Recent.MaxEntries)
	assert.Equal(t, []string{".md", ".txt"}, cfg.Files.Extensions)
	assert.Equal(t, 500*time.Millisecond, cfg.PersistDebounce())
	assert.Equal(t, 2*time.Second, cfg.OpenDebounce())

	var verrs validation.Errors
	require.ErrorAs(t, m.ValidationError(), &verrs)
	assert.Contains(t, verrs, "tabs")
	assert.Contains(t, verrs, "recent")
	assert.NotContains(t, verrs, "editor", "a zero check interval disables the check and is valid")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Files.Extensions = []string{".md", "txt", ""}
	cfg.Files.MaxFileSize = -1
	err := cfg.Validate()
	require.Error(t, err)

	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	files, ok := verrs["files"].(validation.Errors)
	require.True(t, ok)
	assert.Contains(t, files, "extensions")
	assert.Contains(t, files, "maxFileSize")
}

func TestSettersPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	m := NewManagerAt(path)
	require.NoError(t, m.Load())

	require.NoError(t, m.SetAutoSave(true))
	require.NoError(t, m.SetRestoreTabsOnStart(false))

	reloaded := NewManagerAt(path)
	require.NoError(t, reloaded.Load())
	assert.True(t, reloaded.Get().Editor.AutoSave)
	assert.False(t, reloaded.Get().Tabs.RestoreTabsOnStart)
}

func TestGetReturnsCopy(t *testing.T) {
	m := NewManagerAt(filepath.Join(t.TempDir(), "config.json"))
	cfg := m.Get()
	cfg.Files.Extensions[0] = ".go"
	assert.Equal(t, ".md", m.Get().Files.Extensions[0])
}

func TestGenerateConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	backup, err := GenerateConfig(path)
	require.NoError(t, err)
	assert.Empty(t, backup)
	assert.FileExists(t, path)

	require.NoError(t, os.WriteFile(path, []byte(`{"editor":{"autoSave":true}}`), 0o644))
	backup, err = GenerateConfig(path)
	require.NoError(t, err)
	require.NotEmpty(t, backup)

	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Contains(t, string(data), "autoSave\":true")

	m := NewManagerAt(path)
	require.NoError(t, m.Load())
	assert.False(t, m.Get().Editor.AutoSave)
}
