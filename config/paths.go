package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appName = "pharmascribe"

// GetConfigDir holds settings.toml: ~/.config/pharmascribe on every platform.
func GetConfigDir() string {
	return filepath.Join(GetHomeDir(), ".config", appName)
}

// GetDefaultDataDir is where reports, memories and conversations live when
// settings.toml does not name a data directory.
func GetDefaultDataDir() string {
	if runtime.GOOS != "windows" {
		return filepath.Join(GetHomeDir(), ".local", "share", appName)
	}
	base := os.Getenv("LOCALAPPDATA")
	if base == "" {
		base = filepath.Join(GetHomeDir(), "AppData", "Local")
	}
	return filepath.Join(base, appName)
}

// GetSettingsFilePath honours PHARMASCRIBE_SETTINGS before the default location.
func GetSettingsFilePath() string {
	if path := os.Getenv("PHARMASCRIBE_SETTINGS"); path != "" {
		return ExpandPath(path)
	}
	return filepath.Join(GetConfigDir(), "settings.toml")
}

func userConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config.toml")
}

func GetHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return string(filepath.Separator)
	}
	return home
}

// ExpandPath resolves a leading ~/ and $VARS, then cleans the result.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		path = filepath.Join(GetHomeDir(), rest)
	}
	return filepath.Clean(os.ExpandEnv(path))
}

// EnsureDir creates path with user-only access.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0700)
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDataDirPermissions creates dataDir or tightens it to 0700. Report
// data and agent memory are confidential study material.
func EnsureDataDirPermissions(dataDir string) error {
	info, err := os.Stat(dataDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return EnsureDir(dataDir)
	case err != nil:
		return err
	case info.Mode().Perm() != 0700:
		return os.Chmod(dataDir, 0700)
	}
	return nil
}
