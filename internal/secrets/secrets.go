// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials.
//
// Two sources are supported. A directory of plain-text files, where the
// filename is the key name and the trimmed contents are the value, and a
// YAML keys file whose nested maps are flattened to dotted names:
//
//	serphouse:
//	  key: sk_live_...
//
// becomes "serphouse.key".
//
// Supported keys: serphouse-api-key (or serphouse.key), gcp-access-token
// (or gcp.access_token).
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"go.yaml.in/yaml/v3"
)

// Key names looked up by the search backends. Each name lists the
// directory form first and the YAML form second.
var (
	SerpHouseKey   = []string{"serphouse-api-key", "serphouse.key"}
	GCPAccessToken = []string{"gcp-access-token", "gcp.access_token"}
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string, log logrus.FieldLogger) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if log != nil {
				log.WithField("secret", name).WithError(err).Warn("could not read secret")
			}
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadYAML reads a YAML keys file and flattens it to dotted names. Scalar
// values are stringified and trimmed; empty values are dropped. A missing
// file returns an empty map.
func LoadYAML(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading keys file %s: %w", path, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing keys file %s: %w", path, err)
	}

	out := make(map[string]string)
	flatten("", doc, out)
	return out, nil
}

func flatten(prefix string, v any, out map[string]string) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			flatten(join(prefix, k), child, out)
		}
	case nil:
	case []any:
		for i, child := range t {
			flatten(join(prefix, fmt.Sprint(i)), child, out)
		}
	default:
		if s := strings.TrimSpace(fmt.Sprint(t)); s != "" && prefix != "" {
			out[prefix] = s
		}
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// Merge combines secret maps. Later maps win on conflicting keys.
func Merge(maps ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// Lookup returns the value of the first name present in secrets.
func Lookup(secrets map[string]string, names []string) (string, bool) {
	for _, n := range names {
		if v, ok := secrets[n]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// Names returns the loaded key names in sorted order. Values are never
// exposed, so the result is safe to log.
func Names(secrets map[string]string) []string {
	names := make([]string, 0, len(secrets))
	for k := range secrets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
