// Package backup provides point-in-time backups of the dossier SQLite
// database with integrity verification and a simple retention policy.
package backup

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const filePrefix = "dossier-"

// Info contains metadata about one backup file.
type Info struct {
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
	Size      int64     `json:"size"`
}

// Create writes a consistent backup of the database at dbPath into
// backupDir and verifies it before returning. It uses SQLite's VACUUM
// INTO, which produces a consistent point-in-time copy even with WAL
// mode active.
func Create(dbPath, backupDir string) (*Info, error) {
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("backup: failed to create directory: %w", err)
	}

	dest := filepath.Join(backupDir,
		fmt.Sprintf("%s%s.db", filePrefix, time.Now().UTC().Format("20060102-150405")))
	if _, err := os.Stat(dest); err == nil {
		return nil, fmt.Errorf("backup: %s already exists", dest)
	}

	source, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", dbPath))
	if err != nil {
		return nil, fmt.Errorf("backup: failed to open database: %w", err)
	}
	defer func() { _ = source.Close() }()

	if err := source.Ping(); err != nil {
		return nil, fmt.Errorf("backup: failed to ping database: %w", err)
	}

	if _, err := source.Exec(fmt.Sprintf("VACUUM INTO '%s'", dest)); err != nil {
		return nil, fmt.Errorf("backup: vacuum failed: %w", err)
	}

	if err := Verify(dest); err != nil {
		_ = os.Remove(dest)
		return nil, err
	}

	stat, err := os.Stat(dest)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to stat backup: %w", err)
	}

	return &Info{Path: dest, Timestamp: stat.ModTime(), Size: stat.Size()}, nil
}

// Verify opens a backup read-only and runs SQLite's integrity check.
func Verify(path string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return fmt.Errorf("backup: failed to open %s: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("backup: integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("backup: integrity check failed: %s", result)
	}
	return nil
}

// Restore copies a verified backup over the database at dbPath. The
// database must not be in use.
func Restore(backupPath, dbPath string) error {
	if err := Verify(backupPath); err != nil {
		return err
	}

	src, err := os.Open(backupPath)
	if err != nil {
		return fmt.Errorf("backup: failed to open %s: %w", backupPath, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(dbPath)
	if err != nil {
		return fmt.Errorf("backup: failed to create %s: %w", dbPath, err)
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("backup: failed to copy: %w", err)
	}
	if err := dst.Sync(); err != nil {
		return fmt.Errorf("backup: failed to sync: %w", err)
	}

	return Verify(dbPath)
}

// List returns all backups in the directory, newest first.
func List(backupDir string) ([]Info, error) {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("backup: failed to read directory: %w", err)
	}

	var backups []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), filePrefix) ||
			!strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		stat, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Path:      filepath.Join(backupDir, entry.Name()),
			Timestamp: stat.ModTime(),
			Size:      stat.Size(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// Prune deletes all but the keep newest backups. Returns the number of
// files removed.
func Prune(backupDir string, keep int) (int, error) {
	if keep < 1 {
		return 0, fmt.Errorf("backup: keep must be at least 1, got %d", keep)
	}

	backups, err := List(backupDir)
	if err != nil {
		return 0, err
	}
	if len(backups) <= keep {
		return 0, nil
	}

	removed := 0
	for _, b := range backups[keep:] {
		if err := os.Remove(b.Path); err != nil {
			return removed, fmt.Errorf("backup: failed to remove %s: %w", b.Path, err)
		}
		removed++
	}
	return removed, nil
}
