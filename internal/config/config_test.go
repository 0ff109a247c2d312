package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spf13/viper"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty stays empty", in: "", want: ""},
		{name: "plain path untouched", in: "/var/lib/app.db", want: "/var/lib/app.db"},
		{name: "tilde prefix", in: "~/data/app.db", want: filepath.Join(home, "data", "app.db")},
		{name: "bare tilde", in: "~", want: home},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}

	t.Run("environment variables", func(t *testing.T) {
		t.Setenv("KAKEIBO_TEST_DIR", "/srv/kakeibo")
		assert.Equal(t, "/srv/kakeibo/app.db", ExpandPath("$KAKEIBO_TEST_DIR/app.db"))
	})
}

func TestDatabasePath(t *testing.T) {
	t.Run("default under the home directory", func(t *testing.T) {
		viper.Reset()
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(home, ".local", "share", "kakeibo", "kakeibo.db"), DatabasePath())
	})

	t.Run("configured path wins", func(t *testing.T) {
		viper.Reset()
		t.Cleanup(viper.Reset)
		viper.Set("database.path", "/tmp/custom.db")

		assert.Equal(t, "/tmp/custom.db", DatabasePath())
	})
}

func TestBackupDir(t *testing.T) {
	t.Run("defaults beside the database", func(t *testing.T) {
		viper.Reset()
		t.Cleanup(viper.Reset)
		viper.Set("database.path", "/data/kakeibo/app.db")

		assert.Equal(t, "/data/kakeibo/backups", BackupDir())
	})

	t.Run("configured directory wins", func(t *testing.T) {
		viper.Reset()
		t.Cleanup(viper.Reset)
		viper.Set("backup.dir", "/backups/kakeibo")

		assert.Equal(t, "/backups/kakeibo", BackupDir())
	})
}
