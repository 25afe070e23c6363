package config

import (
	"path/filepath"
	"runtime"
)

// currentOS is the platform used to resolve default paths.
var currentOS = runtime.GOOS

// Paths are the default locations of the editor's files and of the tool's
// own data, resolved from a home directory.
type Paths struct {
	StateDB     string
	StorageJSON string
	SessionDir  string
	AccountsDir string
	JournalDB   string
	ConfigFile  string
}

// DefaultPaths returns the default locations for the given home directory
// and GOOS value.
func DefaultPaths(home, goos string) Paths {
	var editorDir string
	switch goos {
	case "windows":
		editorDir = filepath.Join(home, "AppData", "Roaming", "Cursor")
	case "darwin":
		editorDir = filepath.Join(home, "Library", "Application Support", "Cursor")
	default:
		editorDir = filepath.Join(home, ".config", "Cursor")
	}
	globalStorage := filepath.Join(editorDir, "User", "globalStorage")
	toolDir := filepath.Join(home, ".config", "cursorswitch")

	return Paths{
		StateDB:     filepath.Join(globalStorage, "state.vscdb"),
		StorageJSON: filepath.Join(globalStorage, "storage.json"),
		SessionDir:  filepath.Join(editorDir, "Session Storage"),
		AccountsDir: filepath.Join(home, "Documents", "cursor_account_data"),
		JournalDB:   filepath.Join(toolDir, "journal.db"),
		ConfigFile:  filepath.Join(toolDir, "config.yaml"),
	}
}
