// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials for provider calls.
// Credentials come from the process environment first, with a directory of
// plain-text key files as fallback: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: openai-api-key, deepseek-api-key, anthropic-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
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
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Lookup returns a credential resolver keyed by environment variable name
// (e.g. "OPENAI_API_KEY"). The process environment wins; when the variable
// is unset the loaded key-file map is consulted under the file-name form
// of the key ("openai-api-key"). Missing credentials resolve to "" so the
// failure surfaces at call time as an authentication error, not earlier.
func Lookup(loaded map[string]string) func(string) string {
	return func(envVar string) string {
		if v := os.Getenv(envVar); v != "" {
			return v
		}
		return loaded[fileKey(envVar)]
	}
}

// fileKey converts an environment variable name to its key-file form:
// OPENAI_API_KEY -> openai-api-key.
func fileKey(envVar string) string {
	return strings.ReplaceAll(strings.ToLower(envVar), "_", "-")
}
