package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is the configuration file name looked up in the
	// current and home directories.
	DefaultConfigFile = ".mailcrawl"

	// XDGConfigFile is the file name inside XDGConfigDir.
	XDGConfigFile = "config.yaml"
)

// LoadConfigFile loads site configurations from a YAML file.
// A missing file yields ErrConfigNotFound; whether that matters depends
// on whether the user named the file explicitly.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cf.Sites == nil {
		cf.Sites = make(map[string]SiteConfig)
	}
	return &cf, nil
}

// FindConfigFile returns the configuration file to load, or "" if there
// is none. The search order is:
//  1. configPath, if given (it must exist)
//  2. .mailcrawl in the current directory
//  3. config.yaml in the XDG config directory (~/.config/mailcrawl)
//  4. .mailcrawl in the home directory
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), XDGConfigFile))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	return firstExisting(candidates)
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}
