// Package identity resolves what the adapter announces about itself: its
// version and the host it runs on.
package identity

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultVersion is the fallback version string when metadata.json is not found.
const DefaultVersion = "1.0.0"

// AppDir is the directory name used under the user config dir.
const AppDir = "nowplaying-redux"

// Info holds system identity information.
type Info struct {
	Hostname string
	Version  string // major.minor.patch, as sent in the handshake
}

// Resolve gathers identity information, reading the version from configDir.
func Resolve(configDir string) Info {
	return Info{
		Hostname: GetHostname(),
		Version:  GetVersionFromDir(configDir),
	}
}

// GetHostname returns the system hostname.
func GetHostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "nowplaying"
	}
	return h
}

// DefaultConfigDir returns the per-user config directory of the adapter,
// or "" when the platform has none.
func DefaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, AppDir)
}

// GetVersionFromDir reads the version from metadata.json in dir.
// If dir is empty, uses DefaultConfigDir. Falls back to DefaultVersion if
// the file is missing, unreadable or holds no usable version.
func GetVersionFromDir(dir string) string {
	if dir == "" {
		dir = DefaultConfigDir()
		if dir == "" {
			return DefaultVersion
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return DefaultVersion
	}

	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return DefaultVersion
	}

	if v, ok := meta["version"].(string); ok {
		if norm, ok := NormalizeVersion(v); ok {
			return norm
		}
	}
	return DefaultVersion
}

// NormalizeVersion reduces v to major.minor.patch. A leading "v" and any
// pre-release or build suffix are dropped.
func NormalizeVersion(v string) (string, bool) {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	parts := strings.Split(v, ".")
	if len(parts) != 3 {
		return "", false
	}
	for _, p := range parts {
		if _, err := strconv.ParseUint(p, 10, 32); err != nil {
			return "", false
		}
	}
	return v, true
}
