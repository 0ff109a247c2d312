// Package config resolves where the database and its backups live. Values
// come through viper (flags, config file, KAKEIBO_* environment variables)
// and fall back to XDG-style defaults under the home directory.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ExpandPath substitutes $VAR environment variables and resolves a leading
// tilde against the home directory, so config values read as typed.
func ExpandPath(path string) string {
	if home, err := os.UserHomeDir(); err == nil {
		switch {
		case path == "~":
			path = home
		case strings.HasPrefix(path, "~/"):
			path = filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}
	return os.ExpandEnv(path)
}

// DatabasePath resolves the SQLite database location from configuration,
// defaulting to ~/.local/share/kakeibo/kakeibo.db.
func DatabasePath() string {
	if configured := viper.GetString("database.path"); configured != "" {
		return ExpandPath(configured)
	}
	return ExpandPath(filepath.Join("~", ".local", "share", "kakeibo", "kakeibo.db"))
}

// BackupDir resolves where auto-backups are retained, defaulting to a
// "backups" directory beside the database file.
func BackupDir() string {
	if configured := viper.GetString("backup.dir"); configured != "" {
		return ExpandPath(configured)
	}
	return filepath.Join(filepath.Dir(DatabasePath()), "backups")
}
