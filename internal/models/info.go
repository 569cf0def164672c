package models

// Info describes the running adapter.
type Info struct {
	Version          string `json:"version"`
	ProtocolRevision int    `json:"protocol_revision"`
	Hostname         string `json:"hostname,omitempty"`
	Clients          int    `json:"clients"`
	NativeAPIs       bool   `json:"native_apis"`
}

// NativeUpdate is the body of a native API opt-in change.
type NativeUpdate struct {
	Enabled *bool `json:"enabled"`
}
