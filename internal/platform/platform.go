package platform

import (
	"os"
	"path/filepath"
	"runtime"
)

// Platform identifies the host operating system family.
type Platform string

const (
	MacOS   Platform = "darwin"
	Linux   Platform = "linux"
	Windows Platform = "windows"
	Unknown Platform = "unknown"
)

// Detect returns the current platform.
func Detect() Platform {
	switch runtime.GOOS {
	case "darwin":
		return MacOS
	case "linux":
		return Linux
	case "windows":
		return Windows
	default:
		return Unknown
	}
}

// ConfigDir returns the directory under which per-user configuration for
// this program lives: $XDG_CONFIG_HOME (or ~/.config) on Unix,
// ~/Library/Application Support on macOS, %APPDATA% on Windows.
func ConfigDir() (string, error) {
	switch Detect() {
	case Windows:
		if dir := os.Getenv("APPDATA"); dir != "" {
			return dir, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "AppData", "Roaming"), nil
	case MacOS:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	default:
		if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
			return dir, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config"), nil
	}
}

// GlobalIgnoreFilePath returns the location of the global ignore file
// consulted during traversal unless --no-global-ignore-file is set.
func GlobalIgnoreFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "hunt", "ignore"), nil
}

// PlatformError reports a platform-detection failure.
type PlatformError struct {
	Message string
}

func (e *PlatformError) Error() string {
	return e.Message
}

var ErrUnsupportedPlatform = &PlatformError{"unsupported platform"}
