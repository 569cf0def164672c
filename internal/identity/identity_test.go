package identity_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nowplaying-redux/adapter-go/internal/identity"
)

func writeMeta(t *testing.T, dir string, meta any) {
	t.Helper()
	data, _ := json.Marshal(meta)
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestGetVersion_Fallback(t *testing.T) {
	// Use a temp dir that contains no metadata.json
	dir := t.TempDir()
	got := identity.GetVersionFromDir(dir)
	if got != identity.DefaultVersion {
		t.Errorf("GetVersionFromDir(%q) = %q; want %q", dir, got, identity.DefaultVersion)
	}
}

func TestGetVersion_FromFile(t *testing.T) {
	dir := t.TempDir()
	writeMeta(t, dir, map[string]any{"version": "v2.3.4-beta.1"})

	if got := identity.GetVersionFromDir(dir); got != "2.3.4" {
		t.Errorf("GetVersionFromDir = %q; want 2.3.4", got)
	}
}

func TestGetVersion_Invalid(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := identity.GetVersionFromDir(dir); got != identity.DefaultVersion {
		t.Errorf("invalid JSON: got %q; want %q", got, identity.DefaultVersion)
	}

	writeMeta(t, dir, map[string]any{"version": "latest"})
	if got := identity.GetVersionFromDir(dir); got != identity.DefaultVersion {
		t.Errorf("non-semver version: got %q; want %q", got, identity.DefaultVersion)
	}
}

func TestNormalizeVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1.2.3", "1.2.3", true},
		{" v0.10.0+build.5 ", "0.10.0", true},
		{"1.2", "", false},
		{"1.2.x", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := identity.NormalizeVersion(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NormalizeVersion(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeMeta(t, dir, map[string]any{"version": "3.0.1"})

	info := identity.Resolve(dir)
	if info.Version != "3.0.1" || info.Hostname == "" {
		t.Errorf("Resolve = %+v", info)
	}
}
