package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config holds all user-configurable settings loaded from config.json
type Config struct {
	Editor EditorConfig `json:"editor"`
	Tabs   TabsConfig   `json:"tabs"`
	Files  FilesConfig  `json:"files"`
	Recent RecentConfig `json:"recent"`
}

// EditorConfig holds save and change-detection settings
type EditorConfig struct {
	AutoSave               bool `json:"autoSave"`
	AutoSaveIntervalSec    int  `json:"autoSaveIntervalSec"`
	ChangeCheckIntervalSec int  `json:"changeCheckIntervalSec"` // 0 disables the periodic check
	WatchFiles             bool `json:"watchFiles"`
}

// TabsConfig holds tab collection settings
type TabsConfig struct {
	RestoreTabsOnStart bool   `json:"restoreTabsOnStart"`
	LastTabBehavior    string `json:"lastTabBehavior"` // "new_untitled" | "keep_empty"
	PersistDebounceMs  int    `json:"persistDebounceMs"`
}

// FilesConfig holds file gateway settings
type FilesConfig struct {
	MaxFileSize    int64    `json:"maxFileSize"` // bytes
	Extensions     []string `json:"extensions"`
	OpenDebounceMs int      `json:"openDebounceMs"`
}

// RecentConfig holds recent-files list settings
type RecentConfig struct {
	MaxEntries   int `json:"maxEntries"`
	PreviewChars int `json:"previewChars"`
}

const (
	LastTabNewUntitled = "new_untitled"
	LastTabKeepEmpty   = "keep_empty"
)

// Manager handles loading, saving, and accessing configuration
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	parseErr error
	invalid  error
}

// NewManager creates a manager for the default config path
func NewManager() *Manager {
	return NewManagerAt(ConfigPath())
}

// NewManagerAt creates a manager backed by the given file
func NewManagerAt(path string) *Manager {
	return &Manager{
		config: DefaultConfig(),
		path:   path,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Editor: EditorConfig{
			AutoSave:               false,
			AutoSaveIntervalSec:    30,
			ChangeCheckIntervalSec: 5,
			WatchFiles:             true,
		},
		Tabs: TabsConfig{
			RestoreTabsOnStart: true,
			LastTabBehavior:    LastTabNewUntitled,
			PersistDebounceMs:  500,
		},
		Files: FilesConfig{
			MaxFileSize:    10 * 1024 * 1024,
			Extensions:     []string{".md", ".txt"},
			OpenDebounceMs: 2000,
		},
		Recent: RecentConfig{
			MaxEntries:   10,
			PreviewChars: 100,
		},
	}
}

// ConfigPath returns the config file path: ~/.config/bokuchi/config.json
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "bokuchi", "config.json")
}

// Path returns the file this manager reads and writes
func (m *Manager) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

// Load reads the configuration from the config file.
// A missing file is created with defaults. A file that fails to parse is left
// alone, the error is kept for ParseError and defaults are used.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.parseErr = nil
	m.invalid = nil

	configDir := filepath.Dir(m.path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		log.Printf("Config: failed to create directory %s: %v", configDir, err)
		return err
	}

	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		log.Printf("Config: creating default config at %s", m.path)
		m.config = DefaultConfig()
		if saveErr := m.saveUnlocked(); saveErr != nil {
			log.Printf("Config: failed to save default config: %v", saveErr)
			return saveErr
		}
		return nil
	}
	if err != nil {
		log.Printf("Config: failed to read %s: %v", m.path, err)
		return err
	}

	// Start from defaults so sections missing from an older file keep sane values.
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		log.Printf("Config: JSON parse error: %v", err)
		m.parseErr = err
		m.config = DefaultConfig()
		return nil
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("Config: invalid values, defaults used instead: %v", err)
		m.invalid = err
	}
	cfg.normalize()

	log.Printf("Config: loaded from %s", m.path)
	m.config = cfg
	return nil
}

var extPattern = regexp.MustCompile(`^\.[A-Za-z0-9]+$`)

// Validate reports values that are out of range. Load still accepts such a
// file and replaces the offending values with defaults.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Editor),
		validation.Field(&c.Tabs),
		validation.Field(&c.Files),
		validation.Field(&c.Recent),
	)
}

func (e EditorConfig) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.AutoSaveIntervalSec, validation.Required, validation.Min(1)),
		validation.Field(&e.ChangeCheckIntervalSec, validation.Min(0)),
	)
}

func (t TabsConfig) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.LastTabBehavior, validation.Required, validation.In(LastTabNewUntitled, LastTabKeepEmpty)),
		validation.Field(&t.PersistDebounceMs, validation.Required, validation.Min(1)),
	)
}

func (f FilesConfig) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.MaxFileSize, validation.Required, validation.Min(int64(1))),
		validation.Field(&f.Extensions, validation.Required, validation.Each(validation.Required, validation.Match(extPattern))),
		validation.Field(&f.OpenDebounceMs, validation.Min(0)),
	)
}

func (r RecentConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MaxEntries, validation.Required, validation.Min(1)),
		validation.Field(&r.PreviewChars, validation.Required, validation.Min(1)),
	)
}

// normalize replaces out-of-range values with their defaults.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Editor.AutoSaveIntervalSec <= 0 {
		c.Editor.AutoSaveIntervalSec = def.Editor.AutoSaveIntervalSec
	}
	if c.Editor.ChangeCheckIntervalSec < 0 {
		c.Editor.ChangeCheckIntervalSec = def.Editor.ChangeCheckIntervalSec
	}
	switch c.Tabs.LastTabBehavior {
	case LastTabNewUntitled, LastTabKeepEmpty:
	default:
		c.Tabs.LastTabBehavior = def.Tabs.LastTabBehavior
	}
	if c.Tabs.PersistDebounceMs <= 0 {
		c.Tabs.PersistDebounceMs = def.Tabs.PersistDebounceMs
	}
	if c.Files.MaxFileSize <= 0 {
		c.Files.MaxFileSize = def.Files.MaxFileSize
	}
	if len(c.Files.Extensions) == 0 {
		c.Files.Extensions = def.Files.Extensions
	}
	if c.Files.OpenDebounceMs < 0 {
		c.Files.OpenDebounceMs = def.Files.OpenDebounceMs
	}
	if c.Recent.MaxEntries <= 0 {
		c.Recent.MaxEntries = def.Recent.MaxEntries
	}
	if c.Recent.PreviewChars <= 0 {
		c.Recent.PreviewChars = def.Recent.PreviewChars
	}
}

// saveUnlocked saves config without acquiring lock (caller must hold lock)
func (m *Manager) saveUnlocked() error {
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o644)
}

// Save writes the current configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveUnlocked()
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return *DefaultConfig()
	}
	cfg := *m.config
	cfg.Files.Extensions = append([]string(nil), m.config.Files.Extensions...)
	return cfg
}

// ParseError returns the parsing error if config failed to load
func (m *Manager) ParseError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parseErr
}

// ValidationError returns the validation failure of the last Load, if any.
func (m *Manager) ValidationError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.invalid
}

// SetAutoSave toggles autosave and persists the change
func (m *Manager) SetAutoSave(enabled bool) error {
	m.mu.Lock()
	m.config.Editor.AutoSave = enabled
	m.mu.Unlock()
	return m.Save()
}

// SetRestoreTabsOnStart toggles session restore and persists the change
func (m *Manager) SetRestoreTabsOnStart(enabled bool) error {
	m.mu.Lock()
	m.config.Tabs.RestoreTabsOnStart = enabled
	m.mu.Unlock()
	return m.Save()
}

// ChangeCheckInterval returns the periodic check interval, zero when disabled
func (c Config) ChangeCheckInterval() time.Duration {
	return time.Duration(c.Editor.ChangeCheckIntervalSec) * time.Second
}

// AutoSaveInterval returns the autosave interval
func (c Config) AutoSaveInterval() time.Duration {
	return time.Duration(c.Editor.AutoSaveIntervalSec) * time.Second
}

// PersistDebounce returns the snapshot persist debounce window
func (c Config) PersistDebounce() time.Duration {
	return time.Duration(c.Tabs.PersistDebounceMs) * time.Millisecond
}

// OpenDebounce returns the external open-signal debounce window
func (c Config) OpenDebounce() time.Duration {
	return time.Duration(c.Files.OpenDebounceMs) * time.Millisecond
}

// GenerateConfig backs up the config at path and writes a fresh default config.
// Returns the backup path if a backup was created, or empty string if no existing config
func GenerateConfig(configPath string) (backupPath string, err error) {
	if _, err := os.Stat(configPath); err == nil {
		timestamp := time.Now().Format("20060102-150405")
		backupPath = filepath.Join(filepath.Dir(configPath), "config.backup."+timestamp+".json")

		data, err := os.ReadFile(configPath)
		if err != nil {
			return "", fmt.Errorf("failed to read existing config: %w", err)
		}
		if err := os.WriteFile(backupPath, data, 0o644); err != nil {
			return "", fmt.Errorf("failed to write backup: %w", err)
		}
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return backupPath, fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(DefaultConfig(), "", "  ")
	if err != nil {
		return backupPath, fmt.Errorf("failed to marshal default config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return backupPath, fmt.Errorf("failed to write config: %w", err)
	}

	return backupPath, nil
}
