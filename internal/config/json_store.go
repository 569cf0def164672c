package config

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

const settingsFileName = "settings.json"

// JSONStore keeps Settings in settings.json inside the config directory.
// Writes are atomic (temp file + rename). The directory is watched so an
// external edit of the file is picked up and reported through OnChange.
type JSONStore struct {
	mu       sync.RWMutex
	path     string
	settings Settings
	watcher  *fsnotify.Watcher
	onChange func(Settings)
}

// NewJSONStore loads settings from configDir. A missing or corrupt file
// yields defaults. onChange may be nil.
func NewJSONStore(configDir string, onChange func(Settings)) (*JSONStore, error) {
	s := &JSONStore{
		path:     filepath.Join(configDir, settingsFileName),
		settings: DefaultSettings(),
		onChange: onChange,
	}
	if _, err := s.Reload(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("config: could not create fsnotify watcher", "err", err)
		return s, nil
	}
	if err := watcher.Add(configDir); err != nil {
		slog.Warn("config: could not watch config dir", "dir", configDir, "err", err)
		watcher.Close()
		return s, nil
	}
	s.watcher = watcher
	go s.watchLoop()
	return s, nil
}

// Path returns the settings file path.
func (s *JSONStore) Path() string { return s.path }

// Settings returns the current settings.
func (s *JSONStore) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *JSONStore) NativeAPIsEnabled() bool {
	return s.Settings().UseNativeAPIs
}

// SetNativeAPIsEnabled updates the flag and writes it to disk.
// The in-memory value changes even if the write fails.
func (s *JSONStore) SetNativeAPIsEnabled(enabled bool) error {
	s.mu.Lock()
	s.settings.UseNativeAPIs = enabled
	st := s.settings
	s.mu.Unlock()
	return s.writeAtomic(st)
}

// Reload re-reads the settings file and reports whether the settings changed.
func (s *JSONStore) Reload() (bool, error) {
	next := DefaultSettings()
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return false, err
	default:
		if err := json.Unmarshal(data, &next); err != nil {
			slog.Warn("config: corrupt settings file, using defaults", "path", s.path, "err", err)
			next = DefaultSettings()
		}
	}

	s.mu.Lock()
	changed := next != s.settings
	s.settings = next
	s.mu.Unlock()
	return changed, nil
}

// Close stops the file watcher.
func (s *JSONStore) Close() {
	if s.watcher != nil {
		s.watcher.Close()
	}
}

func (s *JSONStore) watchLoop() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Name != s.path || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)) {
				continue
			}
			changed, err := s.Reload()
			if err != nil {
				slog.Warn("config: failed to reload settings", "err", err)
				continue
			}
			if changed && s.onChange != nil {
				s.onChange(s.Settings())
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("config: watcher error", "err", err)
		}
	}
}

func (s *JSONStore) writeAtomic(st Settings) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}

// Ensure JSONStore implements FlagStore
var _ FlagStore = (*JSONStore)(nil)
