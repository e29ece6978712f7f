package xdg

import (
	"os"
	"path/filepath"
)

// XDGDirs resolves the XDG base directories the feeder uses.
type XDGDirs struct {
	configHome string
	stateHome  string
}

// NewXDGDirs reads XDG_CONFIG_HOME and XDG_STATE_HOME, falling back to the
// defaults under the home directory.
func NewXDGDirs() *XDGDirs {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv("HOME")
		if homeDir == "" {
			homeDir = os.TempDir()
		}
	}

	xdg := &XDGDirs{}

	xdg.configHome = os.Getenv("XDG_CONFIG_HOME")
	if xdg.configHome == "" {
		xdg.configHome = filepath.Join(homeDir, ".config")
	}

	xdg.stateHome = os.Getenv("XDG_STATE_HOME")
	if xdg.stateHome == "" {
		xdg.stateHome = filepath.Join(homeDir, ".local", "state")
	}

	return xdg
}

func (x *XDGDirs) ConfigHome() string {
	return x.configHome
}

func (x *XDGDirs) StateHome() string {
	return x.stateHome
}

// AppConfigDir returns the application-specific config directory
func (x *XDGDirs) AppConfigDir(appName string) string {
	return filepath.Join(x.configHome, appName)
}

// AppStateDir returns the application-specific state directory
func (x *XDGDirs) AppStateDir(appName string) string {
	return filepath.Join(x.stateHome, appName)
}

// EnsureDir creates the directory if it doesn't exist
func (x *XDGDirs) EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
