package model

import "time"

// BackupVersion is the format version written into new backups.
const BackupVersion = "1.0"

// BackupMetadata describes the contents of a backup for integrity checking.
// Checksum is a casual corruption detector, not a cryptographic digest.
type BackupMetadata struct {
	TransactionCount int    `json:"transactionCount"`
	CategoryCount    int    `json:"categoryCount"`
	Checksum         string `json:"checksum"`
}

// BackupData is a full-dataset snapshot suitable for export and restore.
// Invariants: Metadata counts match the array lengths and Metadata.Checksum
// matches a recomputation over the normalized projection of both arrays.
type BackupData struct {
	Timestamp    time.Time      `json:"timestamp"`
	Version      string         `json:"version"`
	Metadata     BackupMetadata `json:"metadata"`
	Transactions []Transaction  `json:"transactions"`
	Categories   []Category     `json:"categories"`
}
