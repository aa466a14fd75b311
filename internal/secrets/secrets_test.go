// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T) string
		want   map[string]string
		errMsg string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "serphouse-api-key", "  pk_abc123  \n")
				writeFile(t, dir, "gcp-access-token", "sk_xyz789")
				writeFile(t, dir, "discovery-project", "sustainability-evals\n")
				return dir
			},
			want: map[string]string{
				"serphouse-api-key": "pk_abc123",
				"gcp-access-token":  "sk_xyz789",
				"discovery-project": "sustainability-evals",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "serphouse-api-key", "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: map[string]string{
				"serphouse-api-key": "valid-key",
			},
		},
		{
			name: "skips dotfiles",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, "serphouse-api-key", "pk_real")
				return dir
			},
			want: map[string]string{
				"serphouse-api-key": "pk_real",
			},
		},
		{
			name: "skips subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "serphouse-api-key", "ak_123")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{
				"serphouse-api-key": "ak_123",
			},
		},
		{
			name: "returns empty map for empty directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.setup(t)
			got, err := Load(dir, nil)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read files without permission bits")
	}
	dir := t.TempDir()
	writeFile(t, dir, "good-key", "value123")

	// Create a file then remove read permission.
	badPath := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	got, err := Load(dir, nil)
	require.NoError(t, err)
	// The good file should still be returned; the bad file is skipped with a warning.
	assert.Equal(t, "value123", got["good-key"])
	_, hasBad := got["bad-key"]
	assert.False(t, hasBad, "unreadable file should not appear in result")
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keys.yaml")
	writeFile(t, dir, "keys.yaml", `serphouse:
  key: "  sk_live_123 "
gcp:
  access_token: ya29.token
  project: 12345
empty:
  key: ""
list:
  - a
  - b
`)

	got, err := LoadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"serphouse.key":    "sk_live_123",
		"gcp.access_token": "ya29.token",
		"gcp.project":      "12345",
		"list.0":           "a",
		"list.1":           "b",
	}, got)
}

func TestLoadYAMLMissingFile(t *testing.T) {
	got, err := LoadYAML(filepath.Join(t.TempDir(), "keys.yaml"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadYAMLInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keys.yaml", "serphouse: [unterminated\n")
	_, err := LoadYAML(filepath.Join(dir, "keys.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing keys file")
}

func TestMergeAndLookup(t *testing.T) {
	fromYAML := map[string]string{"serphouse.key": "yaml-key"}
	fromDir := map[string]string{"serphouse-api-key": "dir-key", "gcp-access-token": "tok"}

	merged := Merge(fromYAML, fromDir, map[string]string{"gcp-access-token": "override"})

	key, ok := Lookup(merged, SerpHouseKey)
	assert.True(t, ok)
	assert.Equal(t, "dir-key", key, "directory form is preferred")

	key, ok = Lookup(fromYAML, SerpHouseKey)
	assert.True(t, ok)
	assert.Equal(t, "yaml-key", key)

	tok, _ := Lookup(merged, GCPAccessToken)
	assert.Equal(t, "override", tok)

	_, ok = Lookup(map[string]string{}, GCPAccessToken)
	assert.False(t, ok)

	assert.Equal(t, []string{"gcp-access-token", "serphouse-api-key", "serphouse.key"}, Names(merged))
}
