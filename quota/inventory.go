// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package quota tracks files under a managed directory and evicts the
// least-recently-used ones once a size or age budget is exceeded.
package quota

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mutecomm/go-sqlcipher/v4"
)

// FileInfo describes one file discovered under the managed directory,
// as reported by an initial filesystem walk.
type FileInfo struct {
	Path           string
	SizeBytes      uint64
	CreationTime   time.Time
	LastAccessTime time.Time
}

// Inventory is a SQLite-backed record of every file under a managed
// root directory, indexed by last-access time so the size and age
// eviction passes can run as simple, fast queries.
//
// An Inventory is not safe for concurrent use; Manager serializes all
// access to it behind its own mutex.
type Inventory struct {
	rootPath string
	db       *sql.DB
}

// OpenInventory opens (creating if necessary) the inventory database
// at dbPath, tracking files under rootPath. existing is consulted only
// the first time the database is created, to seed it with files that
// already exist on disk.
func OpenInventory(rootPath, dbPath string, existing []FileInfo) (*Inventory, error) {
	rootPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("quota: resolving root path %q: %w", rootPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("quota: creating database directory: %w", err)
	}
	isNew := !fileExists(dbPath)

	// No encryption key: the driver's SQLCipher support is not used
	// here, only its bundled SQLite engine.
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", dbPath))
	if err != nil {
		return nil, fmt.Errorf("quota: opening %s: %w", dbPath, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("quota: connecting to %s: %w", dbPath, err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("quota: %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("quota: creating schema: %w", err)
	}

	inv := &Inventory{rootPath: rootPath, db: db}
	if isNew {
		if err := inv.seed(existing); err != nil {
			db.Close()
			return nil, err
		}
	}
	return inv, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	Path TEXT NOT NULL PRIMARY KEY,
	Size INTEGER NOT NULL,
	CreationTime INTEGER NOT NULL,
	LastAccessTime INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_files_LastAccessTime ON files (LastAccessTime);
`

const upsertSQL = `
INSERT INTO files (Path, Size, CreationTime, LastAccessTime)
VALUES (?, ?, ?, ?)
ON CONFLICT(Path) DO UPDATE SET
	Size = excluded.Size,
	CreationTime = excluded.CreationTime,
	LastAccessTime = excluded.LastAccessTime
`

func (inv *Inventory) seed(files []FileInfo) error {
	tx, err := inv.db.Begin()
	if err != nil {
		return fmt.Errorf("quota: seeding inventory: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(upsertSQL)
	if err != nil {
		return fmt.Errorf("quota: preparing seed insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range files {
		rel, ok := inv.relativePath(f.Path)
		if !ok {
			continue
		}
		if _, err := stmt.Exec(rel, f.SizeBytes, f.CreationTime.Unix(), f.LastAccessTime.Unix()); err != nil {
			return fmt.Errorf("quota: seeding %s: %w", rel, err)
		}
	}
	return tx.Commit()
}

// relativePath returns path relative to the inventory's root, or
// false if path does not lie under the root.
func (inv *Inventory) relativePath(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(inv.rootPath, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

func (inv *Inventory) absolutePath(rel string) string {
	return filepath.Join(inv.rootPath, rel)
}

// OnFileCreated records a newly created (or overwritten) file.
func (inv *Inventory) OnFileCreated(path string, sizeBytes uint64, creationTime time.Time) error {
	rel, ok := inv.relativePath(path)
	if !ok {
		return nil
	}
	_, err := inv.db.Exec(upsertSQL, rel, sizeBytes, creationTime.Unix(), creationTime.Unix())
	if err != nil {
		return fmt.Errorf("quota: recording created file %s: %w", rel, err)
	}
	return nil
}

// OnFileAccessed bumps path's last-access time.
func (inv *Inventory) OnFileAccessed(path string, accessTime time.Time) error {
	rel, ok := inv.relativePath(path)
	if !ok {
		return nil
	}
	_, err := inv.db.Exec(`UPDATE files SET LastAccessTime = ? WHERE Path = ?`, accessTime.Unix(), rel)
	if err != nil {
		return fmt.Errorf("quota: recording access to %s: %w", rel, err)
	}
	return nil
}

// OnFileDeleted removes path from the inventory.
func (inv *Inventory) OnFileDeleted(path string) error {
	rel, ok := inv.relativePath(path)
	if !ok {
		return nil
	}
	if _, err := inv.db.Exec(`DELETE FROM files WHERE Path = ?`, rel); err != nil {
		return fmt.Errorf("quota: removing %s from inventory: %w", rel, err)
	}
	return nil
}

// OnFileFoundAbsent is OnFileDeleted under another name, used when an
// eviction pass discovers a file the inventory thought existed no
// longer does.
func (inv *Inventory) OnFileFoundAbsent(path string) error {
	return inv.OnFileDeleted(path)
}

// TotalSizeBytes returns the sum of every tracked file's size.
func (inv *Inventory) TotalSizeBytes() (uint64, error) {
	var total sql.NullInt64
	if err := inv.db.QueryRow(`SELECT SUM(Size) FROM files`).Scan(&total); err != nil {
		return 0, fmt.Errorf("quota: summing inventory size: %w", err)
	}
	if !total.Valid {
		return 0, nil
	}
	return uint64(total.Int64), nil
}

// FilesToDeleteForMaxSize returns, oldest-accessed first, just enough
// files to bring the tracked total at or under maxSizeBytes. It
// returns no files if the inventory is already within budget.
func (inv *Inventory) FilesToDeleteForMaxSize(maxSizeBytes uint64) ([]string, error) {
	total, err := inv.TotalSizeBytes()
	if err != nil {
		return nil, err
	}
	if total <= maxSizeBytes {
		return nil, nil
	}
	excess := total - maxSizeBytes

	rows, err := inv.db.Query(`SELECT Path, Size FROM files ORDER BY LastAccessTime ASC`)
	if err != nil {
		return nil, fmt.Errorf("quota: listing files by age: %w", err)
	}
	defer rows.Close()

	var toDelete []string
	for rows.Next() && excess > 0 {
		var rel string
		var size int64
		if err := rows.Scan(&rel, &size); err != nil {
			return nil, fmt.Errorf("quota: scanning file row: %w", err)
		}
		toDelete = append(toDelete, inv.absolutePath(rel))
		if uint64(size) >= excess {
			excess = 0
		} else {
			excess -= uint64(size)
		}
	}
	return toDelete, rows.Err()
}

// FilesToDeleteForMaxAge returns every file whose last access predates
// now by more than maxAge.
func (inv *Inventory) FilesToDeleteForMaxAge(maxAge time.Duration, now time.Time) ([]string, error) {
	cutoff := now.Add(-maxAge).Unix()

	rows, err := inv.db.Query(`SELECT Path FROM files WHERE LastAccessTime < ?`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("quota: listing stale files: %w", err)
	}
	defer rows.Close()

	var toDelete []string
	for rows.Next() {
		var rel string
		if err := rows.Scan(&rel); err != nil {
			return nil, fmt.Errorf("quota: scanning stale file row: %w", err)
		}
		toDelete = append(toDelete, inv.absolutePath(rel))
	}
	return toDelete, rows.Err()
}

// Close releases the underlying database handle.
func (inv *Inventory) Close() error {
	return inv.db.Close()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
