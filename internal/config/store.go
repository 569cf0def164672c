// Package config persists the adapter's process-wide settings.
package config

// Settings is the persisted adapter configuration.
type Settings struct {
	// UseNativeAPIs opts in to native (OS media API) sources.
	UseNativeAPIs bool `json:"use_native_apis"`
}

// DefaultSettings returns the settings used when nothing has been saved.
func DefaultSettings() Settings {
	return Settings{}
}

// FlagStore is the persisted native-API opt-in read by the arbitration engine.
type FlagStore interface {
	NativeAPIsEnabled() bool
	SetNativeAPIsEnabled(enabled bool) error
}
