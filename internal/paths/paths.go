// Package paths resolves the configuration, application data and Espanso
// directory locations.
package paths

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Directory names under the platform base directories.
const (
	ConfigDirName  = "brm"
	AppDataDirName = "BetterReplacementsManager"
	EspansoDirName = "espanso"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir  = "BRM_CONFIG_DIR"
	EnvDataDir    = "BRM_DATA_DIR"
	EnvEspansoDir = "BRM_ESPANSO_DIR"
	EnvMatchDir   = "BRM_MATCH_DIR"
)

// errNoEspansoPath is returned when `espanso path` output has no Config line.
var errNoEspansoPath = errors.New("could not parse espanso path output")

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	espansoPath   func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	espansoPath:   espansoPathFromCLI,
}

// configBase returns the per-user configuration base directory.
//
// Linux:   $XDG_CONFIG_HOME (fallback ~/.config)
// macOS:   ~/Library/Application Support
// Windows: %APPDATA%
func configBase() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return xdg, nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config"), nil
	default:
		return platformDir.userConfigDir()
	}
}

// DefaultConfigDir returns the platform-specific directory holding config.yaml.
func DefaultConfigDir() (string, error) {
	base, err := configBase()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, ConfigDirName), nil
}

// DefaultDataDir returns the application data directory, where catalogues
// written by earlier releases are looked for.
func DefaultDataDir() (string, error) {
	base, err := configBase()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppDataDirName), nil
}

// DefaultEspansoDir returns the Espanso configuration directory. The path
// reported by `espanso path` wins; without a working espanso binary the
// platform default is used.
func DefaultEspansoDir() (string, error) {
	if dir, err := platformDir.espansoPath(); err == nil && dir != "" {
		return dir, nil
	}
	base, err := configBase()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, EspansoDirName), nil
}

// espansoPathFromCLI runs `espanso path` and returns its Config entry.
func espansoPathFromCLI() (string, error) {
	name := "espanso"
	if runtime.GOOS == "windows" {
		name = "espanso.exe"
	}
	out, err := exec.Command(name, "path").Output()
	if err != nil {
		return "", err
	}
	return parseEspansoPath(out)
}

// parseEspansoPath extracts the directory from a "Config: <dir>" line.
func parseEspansoPath(out []byte) (string, error) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if rest, ok := strings.CutPrefix(line, "Config:"); ok {
			if dir := strings.TrimSpace(rest); dir != "" {
				return dir, nil
			}
		}
	}
	return "", errNoEspansoPath
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > BRM_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configYAMLValue > BRM_DATA_DIR env > DefaultDataDir().
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	return resolve(flag, configYAMLValue, EnvDataDir, DefaultDataDir)
}

// ResolveEspansoDir returns the Espanso directory following the precedence
// chain: flag > configYAMLValue > BRM_ESPANSO_DIR env > DefaultEspansoDir().
func ResolveEspansoDir(flag, configYAMLValue string) (string, error) {
	return resolve(flag, configYAMLValue, EnvEspansoDir, DefaultEspansoDir)
}

// ResolveMatchDir returns the generated-rule directory override, or "" when
// none is set and the Espanso match directory applies.
func ResolveMatchDir(flag, configYAMLValue string) (string, error) {
	return resolve(flag, configYAMLValue, EnvMatchDir, func() (string, error) { return "", nil })
}

func resolve(flag, configYAMLValue, envName string, fallback func() (string, error)) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(envName); env != "" {
		return filepath.Abs(env)
	}
	return fallback()
}
