package index

import "time"

// FingerprintIndex defines the interface for the fingerprint memo.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type FingerprintIndex interface {
	Lookup(path string, size int64, modTime time.Time) (string, bool, error)
	Upsert(path string, size int64, modTime time.Time, fingerprint string) error
	Delete(path string) error
	Prune(keep map[string]struct{}) (int, error)
	AllPaths() (map[string]struct{}, error)
	Close() error
}

// Verify *DB satisfies FingerprintIndex at compile time.
var _ FingerprintIndex = (*DB)(nil)
