package main

import (
	"os"
	"path/filepath"
)

// fileExists reports whether the given path exists and is a file (not a directory).
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// xdgConfigDir returns $XDG_CONFIG_HOME or falls back to $HOME/.config.
func xdgConfigDir() string {
	if d := os.Getenv("XDG_CONFIG_HOME"); d != "" {
		return d
	}
	home := os.Getenv("HOME")
	if home == "" {
		cwd, _ := os.Getwd()
		return filepath.Join(cwd, ".config")
	}
	return filepath.Join(home, ".config")
}

// xdgCacheDir returns $XDG_CACHE_HOME or falls back to $HOME/.cache.
func xdgCacheDir() string {
	if d := os.Getenv("XDG_CACHE_HOME"); d != "" {
		return d
	}
	home := os.Getenv("HOME")
	if home == "" {
		cwd, _ := os.Getwd()
		return filepath.Join(cwd, ".cache")
	}
	return filepath.Join(home, ".cache")
}

// effectiveConfigDir resolves the configuration directory. It prefers the
// explicit global `configDir` if set; otherwise it derives a XDG fallback.
func effectiveConfigDir() string {
	if configDir != "" {
		return configDir
	}
	return filepath.Join(xdgConfigDir(), "trashcompass")
}

// effectiveCacheDir resolves the cache directory (geocode cache). It
// prefers the explicit global `cacheDir` if set; otherwise it derives a
// XDG fallback.
func effectiveCacheDir() string {
	if cacheDir != "" {
		return cacheDir
	}
	return filepath.Join(xdgCacheDir(), "trashcompass")
}

// ensureDir creates the directory and any necessary parents if it doesn't exist.
func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
