// Package hostapp locates the host application the generated backgrounds
// belong to and verifies it is in a usable state: installed on this machine,
// with an active login session, and with a backgrounds directory to write
// into. All checks run before any image is generated so the user never waits
// on a network call that cannot end in a save.
package hostapp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bgforge/core"
)

// Defaults, overridable through the environment for non-standard installs.
const (
	defaultAppName        = "Studio"
	defaultSessionFile    = "session.json"
	defaultBackgroundsDir = "backgrounds"
)

// App describes the host application installation this tool writes into.
type App struct {
	name        string
	rootDir     string
	sessionFile string
	bgDir       string
}

// session is the on-disk shape of the host application's session file.
type session struct {
	User      string `json:"user"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// Discover builds an App from the environment. HOST_APP_NAME, HOST_APP_ROOT,
// HOST_APP_SESSION_FILE and HOST_APP_BACKGROUNDS_DIR override each default.
// The default root is <user config dir>/<lowercased app name>.
func Discover() (*App, error) {
	name := core.EnvOrDefault("HOST_APP_NAME", defaultAppName)

	rootDir := os.Getenv("HOST_APP_ROOT")
	if rootDir == "" {
		cfgDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("hostapp: locate user config dir: %w", err)
		}
		rootDir = filepath.Join(cfgDir, strings.ToLower(name))
	}

	sessionFile := core.EnvOrDefault("HOST_APP_SESSION_FILE", filepath.Join(rootDir, defaultSessionFile))
	bgDir := core.EnvOrDefault("HOST_APP_BACKGROUNDS_DIR", filepath.Join(rootDir, defaultBackgroundsDir))

	return &App{
		name:        name,
		rootDir:     rootDir,
		sessionFile: sessionFile,
		bgDir:       bgDir,
	}, nil
}

// Name returns the host application's display name.
func (a *App) Name() string { return a.name }

// BackgroundsDir returns the directory approved images are saved into.
func (a *App) BackgroundsDir() string { return a.bgDir }

// CheckInstalled verifies the application's data directory exists.
func (a *App) CheckInstalled() error {
	info, err := os.Stat(a.rootDir)
	if err != nil || !info.IsDir() {
		return core.ErrHostNotInstalled(a.name, a.rootDir)
	}
	return nil
}

// CheckLoggedIn verifies an active session: the session file exists, parses,
// and names a user. A corrupt or empty session file counts as logged out.
func (a *App) CheckLoggedIn() error {
	raw, err := os.ReadFile(a.sessionFile)
	if err != nil {
		return core.ErrHostNotLoggedIn(a.name)
	}
	var s session
	if err := json.Unmarshal(raw, &s); err != nil || s.User == "" {
		return core.ErrHostNotLoggedIn(a.name)
	}
	return nil
}

// CheckBackgroundsDir verifies the save target exists and is a directory.
func (a *App) CheckBackgroundsDir() error {
	info, err := os.Stat(a.bgDir)
	if err != nil {
		return core.ErrTargetDirMissing(a.bgDir, err)
	}
	if !info.IsDir() {
		return core.ErrTargetDirMissing(a.bgDir, fmt.Errorf("not a directory"))
	}
	return nil
}

// Verify runs every precondition in order: installed, logged in, writable
// target. The first failure is returned.
func (a *App) Verify() error {
	if err := a.CheckInstalled(); err != nil {
		return err
	}
	if err := a.CheckLoggedIn(); err != nil {
		return err
	}
	return a.CheckBackgroundsDir()
}
