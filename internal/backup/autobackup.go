package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fumisaki/kakeibo/internal/common"
	"github.com/fumisaki/kakeibo/internal/model"
)

// autoBackupPrefix namespaces the rotating snapshot files; the suffix is the
// backup creation timestamp so every snapshot has a unique key.
const autoBackupPrefix = "auto-"

// maxAutoBackups bounds the rotating window of retained auto-snapshots.
const maxAutoBackups = 5

// StartAutoBackup launches the repeating snapshot timer. Starting while a
// timer is already running stops the prior one first, so there is never
// more than one ticker alive.
func (s *Service) StartAutoBackup(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("auto-backup interval must be positive")
	}

	// Replace any running timer so two tickers never overlap.
	s.StopAutoBackup()

	s.mu.Lock()
	defer s.mu.Unlock()

	stop := make(chan struct{})
	s.stopAuto = stop
	s.autoWG.Add(1)

	go func() {
		defer s.autoWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.takeAutoBackup(ctx); err != nil {
					slog.Error("auto-backup failed", "error", err)
				}
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	slog.Info("started auto-backup", "interval", interval)
	return nil
}

// StopAutoBackup halts the timer and waits for the worker to exit. Safe to
// call when not running.
func (s *Service) StopAutoBackup() {
	s.mu.Lock()
	stop := s.stopAuto
	s.stopAuto = nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		s.autoWG.Wait()
	}
}

// takeAutoBackup writes one snapshot keyed by its creation timestamp and
// prunes the window to the newest five. Interleaving with a manual backup
// is harmless: each write lands under its own unique key. Transient storage
// failures are retried since no user is around to re-run the timer tick.
func (s *Service) takeAutoBackup(ctx context.Context) error {
	var data *model.BackupData
	err := common.WithRetry(ctx, func() error {
		snapshot, backupErr := s.CreateManualBackup(ctx, Options{
			IncludeTransactions: true,
			IncludeCategories:   true,
		}, nil)
		if backupErr != nil {
			return backupErr
		}
		data = snapshot
		return nil
	}, common.RetryOptions{MaxAttempts: 3, InitialDelay: 200 * time.Millisecond})
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode auto-backup: %w", err)
	}

	name := fmt.Sprintf("%s%d.json", autoBackupPrefix, data.Timestamp.UnixMilli())
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, encoded, 0600); err != nil {
		return fmt.Errorf("failed to write auto-backup: %w", err)
	}

	if err := s.pruneAutoBackups(); err != nil {
		slog.Warn("failed to prune auto-backups", "error", err)
	}

	slog.Debug("wrote auto-backup", "file", name)
	return nil
}

// pruneAutoBackups keeps only the newest maxAutoBackups snapshot files.
func (s *Service) pruneAutoBackups() error {
	names, err := s.autoBackupFiles()
	if err != nil {
		return err
	}
	for i := maxAutoBackups; i < len(names); i++ {
		if err := os.Remove(filepath.Join(s.dir, names[i])); err != nil {
			slog.Debug("failed to remove old auto-backup", "file", names[i], "error", err)
		}
	}
	return nil
}

// autoBackupFiles lists snapshot filenames, newest first.
func (s *Service) autoBackupFiles() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, autoBackupPrefix) && strings.HasSuffix(name, ".json") {
			names = append(names, name)
		}
	}
	// Timestamp keys are fixed-width enough to sort lexically; newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// GetAutoBackups loads all retained auto-snapshots, newest first, with date
// fields rehydrated by the JSON decoder. Corrupted files are skipped.
func (s *Service) GetAutoBackups() ([]model.BackupData, error) {
	names, err := s.autoBackupFiles()
	if err != nil {
		return nil, err
	}

	backups := make([]model.BackupData, 0, len(names))
	for _, name := range names {
		raw, readErr := os.ReadFile(filepath.Join(s.dir, name)) // #nosec G304 - bounded to backup dir
		if readErr != nil {
			slog.Debug("failed to read auto-backup", "file", name, "error", readErr)
			continue
		}
		var data model.BackupData
		if unmarshalErr := json.Unmarshal(raw, &data); unmarshalErr != nil {
			slog.Debug("skipping corrupted auto-backup", "file", name, "error", unmarshalErr)
			continue
		}
		backups = append(backups, data)
	}
	return backups, nil
}
