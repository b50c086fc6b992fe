package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Lookup returns the stored fingerprint for path when the recorded size and
// modification time both match.
func (db *DB) Lookup(path string, size int64, modTime time.Time) (string, bool, error) {
	var fp string
	err := db.conn.QueryRow(
		`SELECT fingerprint FROM fingerprints WHERE path = ? AND size = ? AND mod_time = ?`,
		path, size, modTime.UnixNano(),
	).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("index: lookup %s: %w", path, err)
	}
	return fp, true, nil
}

// Upsert records the fingerprint observed for path.
func (db *DB) Upsert(path string, size int64, modTime time.Time, fingerprint string) error {
	_, err := db.conn.Exec(`
		INSERT INTO fingerprints (path, size, mod_time, fingerprint, checked_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size        = excluded.size,
			mod_time    = excluded.mod_time,
			fingerprint = excluded.fingerprint,
			checked_at  = excluded.checked_at
	`, path, size, modTime.UnixNano(), fingerprint, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("index: upsert %s: %w", path, err)
	}
	return nil
}

// Delete removes the entry for path.
func (db *DB) Delete(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM fingerprints WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete %s: %w", path, err)
	}
	return nil
}

// AllPaths returns every path with a stored fingerprint.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM fingerprints`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("index: scan path: %w", err)
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// Prune deletes every entry whose path is not in keep and returns how many
// rows were removed.
func (db *DB) Prune(keep map[string]struct{}) (int, error) {
	existing, err := db.AllPaths()
	if err != nil {
		return 0, err
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	removed := 0
	for p := range existing {
		if _, ok := keep[p]; ok {
			continue
		}
		if _, err := tx.Exec(`DELETE FROM fingerprints WHERE path = ?`, p); err != nil {
			return 0, fmt.Errorf("index: prune %s: %w", p, err)
		}
		removed++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("index: commit prune: %w", err)
	}
	return removed, nil
}
