package config

import "github.com/fenilsonani/hunt/internal/platform"

// ResolveGlobalIgnorePath locates the platform-dependent global ignore
// file path from spec §6's environment-variable interface: under XDG
// config on Unix, under %APPDATA% on Windows. A lookup failure is a
// Configuration-class error (§7): logged and the run continues without a
// global ignore file, never fatal.
func ResolveGlobalIgnorePath() (string, error) {
	return platform.GlobalIgnoreFilePath()
}
