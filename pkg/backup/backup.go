// Package backup stores immutable byte-for-byte snapshots of tracked
// artifacts.
//
// Snapshots are addressed by (artifact basename, version id) and live as
// plain files named "<basename>.<version_id>" beneath a dedicated backup
// directory, so collaborating tooling can inspect them directly. A
// snapshot, once written, is never changed: re-snapshotting the same key
// succeeds only when the bytes are identical.
package backup

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

var (
	// ErrSourceMissing is returned by Snapshot when the artifact to copy
	// does not exist.
	ErrSourceMissing = errors.New("snapshot source missing")

	// ErrSnapshotMissing is returned by Restore and Read when no snapshot
	// exists for the requested key.
	ErrSnapshotMissing = errors.New("snapshot missing")

	// ErrConflict is returned by Snapshot when a snapshot already exists
	// for the key with different content.
	ErrConflict = errors.New("snapshot conflict")
)

// Store manages snapshot files under a single backup directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a Store rooted at dir, creating the directory if needed.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the backup directory path.
func (s *Store) Dir() string { return s.dir }

// Snapshot copies the current bytes of the artifact into the store under
// (basename(artifactPath), versionID). A second call with the same key is
// a no-op when the bytes are identical and fails with ErrConflict
// otherwise.
func (s *Store) Snapshot(artifactPath, versionID string) error {
	data, err := os.ReadFile(artifactPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSourceMissing, artifactPath)
		}
		return fmt.Errorf("read snapshot source: %w", err)
	}

	key := s.keyPath(artifactPath, versionID)
	if existing, err := os.ReadFile(key); err == nil {
		if bytes.Equal(existing, data) {
			return nil
		}
		return fmt.Errorf("%w: %s already recorded with different content", ErrConflict, filepath.Base(key))
	}

	if err := os.WriteFile(key, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	s.logger.Info("snapshot written", "artifact", filepath.Base(artifactPath), "version", versionID)
	return nil
}

// Restore copies the stored snapshot back onto artifactPath, overwriting
// whatever is there.
func (s *Store) Restore(artifactPath, versionID string) error {
	data, err := s.Read(artifactPath, versionID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(artifactPath, data, 0o644); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	s.logger.Info("snapshot restored", "artifact", filepath.Base(artifactPath), "version", versionID)
	return nil
}

// Read returns the stored snapshot bytes for the key.
func (s *Store) Read(artifactPath, versionID string) ([]byte, error) {
	data, err := os.ReadFile(s.keyPath(artifactPath, versionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s version %s", ErrSnapshotMissing, filepath.Base(artifactPath), versionID)
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}

// Exists reports whether a snapshot is stored for the key.
func (s *Store) Exists(artifactPath, versionID string) bool {
	_, err := os.Stat(s.keyPath(artifactPath, versionID))
	return err == nil
}

// Discard removes the snapshot for the key. It exists so a failed create
// can clean up the snapshot it just wrote; committed snapshots are never
// discarded.
func (s *Store) Discard(artifactPath, versionID string) error {
	if err := os.Remove(s.keyPath(artifactPath, versionID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("discard snapshot: %w", err)
	}
	return nil
}

func (s *Store) keyPath(artifactPath, versionID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.%s", filepath.Base(artifactPath), versionID))
}
