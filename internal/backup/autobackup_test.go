package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoBackupPruning(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	seedStore(t, store)

	dir := filepath.Join(t.TempDir(), "backups")
	service, err := NewService(store, dir)
	require.NoError(t, err)

	// Snapshot keys have millisecond resolution; space them out so each
	// write lands under its own filename.
	for i := 0; i < 8; i++ {
		require.NoError(t, service.takeAutoBackup(ctx))
		time.Sleep(3 * time.Millisecond)
	}

	names, err := service.autoBackupFiles()
	require.NoError(t, err)
	assert.Len(t, names, maxAutoBackups)

	backups, err := service.GetAutoBackups()
	require.NoError(t, err)
	require.Len(t, backups, maxAutoBackups)

	// Newest first.
	for i := 1; i < len(backups); i++ {
		assert.False(t, backups[i].Timestamp.After(backups[i-1].Timestamp))
	}
}

func TestGetAutoBackupsSkipsCorrupted(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	seedStore(t, store)

	dir := filepath.Join(t.TempDir(), "backups")
	service, err := NewService(store, dir)
	require.NoError(t, err)

	require.NoError(t, service.takeAutoBackup(ctx))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "auto-9999999999999.json"), []byte("{not json"), 0600))

	backups, err := service.GetAutoBackups()
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestStartAndStopAutoBackup(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	seedStore(t, store)

	dir := filepath.Join(t.TempDir(), "backups")
	service, err := NewService(store, dir)
	require.NoError(t, err)

	t.Run("rejects a non-positive interval", func(t *testing.T) {
		require.Error(t, service.StartAutoBackup(ctx, 0))
	})

	t.Run("takes snapshots until stopped", func(t *testing.T) {
		require.NoError(t, service.StartAutoBackup(ctx, 20*time.Millisecond))

		require.Eventually(t, func() bool {
			names, listErr := service.autoBackupFiles()
			return listErr == nil && len(names) > 0
		}, 2*time.Second, 10*time.Millisecond, "expected at least one auto snapshot")

		service.StopAutoBackup()
		names, err := service.autoBackupFiles()
		require.NoError(t, err)
		count := len(names)

		// No new snapshots after stopping.
		time.Sleep(60 * time.Millisecond)
		names, err = service.autoBackupFiles()
		require.NoError(t, err)
		assert.Equal(t, count, len(names))
	})

	t.Run("stop is safe when not running", func(t *testing.T) {
		service.StopAutoBackup()
		service.StopAutoBackup()
	})

	t.Run("restart replaces the previous timer", func(t *testing.T) {
		require.NoError(t, service.StartAutoBackup(ctx, time.Hour))
		require.NoError(t, service.StartAutoBackup(ctx, time.Hour))
		service.StopAutoBackup()
	})

	t.Run("context cancellation stops the timer", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(ctx)
		require.NoError(t, service.StartAutoBackup(cancelCtx, time.Hour))
		cancel()
		// StopAutoBackup still cleans up the bookkeeping.
		service.StopAutoBackup()
	})
}
