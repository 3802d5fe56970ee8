// Package ledger is the authoritative, durable record of all versions of
// a repository's tracked artifacts and of the history-of-actions log.
//
// The ledger is a single JSON document ("standards_versions.json" by
// default) holding two ordered collections, versions and history. It is
// loaded once at construction, mutated in memory, and rewritten whole on
// every persist. A corrupt ledger file is never discarded silently: the
// bad copy is archived under a timestamped name first, then an empty
// ledger is substituted.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/solaius/standards-registry/pkg/semver"
)

// DefaultFileName is the durable ledger file name under the repository root.
const DefaultFileName = "standards_versions.json"

// ErrVersionNotFound is returned when a version id is absent from the ledger.
var ErrVersionNotFound = errors.New("version not found")

// Ledger owns the version and history collections for one repository root.
// It is not safe for concurrent use; callers serialize access (the
// controller holds an exclusive lock around every public operation).
type Ledger struct {
	path       string
	archiveDir string
	logger     *slog.Logger

	versions []Version
	history  []HistoryEntry
}

// Open loads the ledger from path. A missing file yields an empty ledger.
// A file that cannot be parsed is copied into archiveDir under a
// timestamped ".bak" name and replaced by an empty ledger; Open fails only
// when the corrupt copy cannot be archived or the file is unreadable for
// reasons other than absence.
func Open(path, archiveDir string, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Ledger{path: path, archiveDir: archiveDir, logger: logger}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		archived, archiveErr := l.archiveCorrupt(data)
		if archiveErr != nil {
			return nil, fmt.Errorf("ledger corrupt and archive failed: %w", archiveErr)
		}
		logger.Warn("ledger file corrupt, archived and reset",
			"ledger", path, "archive", archived, "parseError", err)
		return l, nil
	}

	l.versions = doc.Versions
	l.history = doc.History
	logger.Info("ledger loaded", "ledger", path, "versions", len(l.versions))
	return l, nil
}

// archiveCorrupt preserves a copy of an unparseable ledger file.
func (l *Ledger) archiveCorrupt(data []byte) (string, error) {
	if err := os.MkdirAll(l.archiveDir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}
	name := fmt.Sprintf("%s.%s.bak", filepath.Base(l.path), time.Now().UTC().Format("20060102150405"))
	dest := filepath.Join(l.archiveDir, name)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", fmt.Errorf("write archive copy: %w", err)
	}
	return dest, nil
}

// Save rewrites the durable ledger file atomically (temp file + rename).
// On failure the previous on-disk state is left intact.
func (l *Ledger) Save() error {
	doc := document{Versions: l.versions, History: l.history}
	if doc.Versions == nil {
		doc.Versions = []Version{}
	}
	if doc.History == nil {
		doc.History = []HistoryEntry{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create ledger temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close ledger temp file: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

// Memento captures ledger state so a failed persist can be rolled back.
type Memento struct {
	versions []Version
	history  []HistoryEntry
}

// Snapshot returns a deep copy of the in-memory state.
func (l *Ledger) Snapshot() Memento {
	m := Memento{
		versions: make([]Version, len(l.versions)),
		history:  append([]HistoryEntry(nil), l.history...),
	}
	for i, v := range l.versions {
		m.versions[i] = v.clone()
	}
	return m
}

// Restore resets the in-memory state to a previously captured Memento.
func (l *Ledger) Restore(m Memento) {
	l.versions = m.versions
	l.history = m.history
}

// AppendVersion inserts a version. The caller guarantees id uniqueness
// and monotonicity before calling.
func (l *Ledger) AppendVersion(v Version) {
	l.versions = append(l.versions, v.clone())
}

// AppendHistory appends an entry to the history log. Entries are never
// mutated or removed.
func (l *Ledger) AppendHistory(e HistoryEntry) {
	l.history = append(l.history, e)
}

// Find returns the version with the given id.
func (l *Ledger) Find(versionID string) (Version, bool) {
	for _, v := range l.versions {
		if v.VersionID == versionID {
			return v.clone(), true
		}
	}
	return Version{}, false
}

// Latest returns the version with the greatest semantic-version id among
// all recorded, regardless of active or stable status.
func (l *Ledger) Latest() (Version, bool) {
	var (
		best    Version
		bestID  semver.Version
		found   bool
	)
	for _, v := range l.versions {
		id, err := semver.Parse(v.VersionID)
		if err != nil {
			l.logger.Warn("skipping version with unparseable id", "id", v.VersionID)
			continue
		}
		if !found || bestID.Less(id) {
			best, bestID, found = v, id, true
		}
	}
	if !found {
		return Version{}, false
	}
	return best.clone(), true
}

// Active returns the currently active version, if any.
func (l *Ledger) Active() (Version, bool) {
	for _, v := range l.versions {
		if v.Active {
			return v.clone(), true
		}
	}
	return Version{}, false
}

// SetActive marks the target version active and every other version
// inactive in the same operation, preserving the single-active invariant.
func (l *Ledger) SetActive(versionID string) error {
	if _, ok := l.Find(versionID); !ok {
		return fmt.Errorf("%w: %s", ErrVersionNotFound, versionID)
	}
	for i := range l.versions {
		l.versions[i].Active = l.versions[i].VersionID == versionID
	}
	return nil
}

// SetStable marks the version stable. Stability is monotone: it is never
// cleared here. The call is idempotent.
func (l *Ledger) SetStable(versionID string) error {
	for i := range l.versions {
		if l.versions[i].VersionID == versionID {
			l.versions[i].Stable = true
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrVersionNotFound, versionID)
}

// Versions returns a copy of all recorded versions in creation order.
func (l *Ledger) Versions() []Version {
	out := make([]Version, len(l.versions))
	for i, v := range l.versions {
		out[i] = v.clone()
	}
	return out
}

// StableVersions returns all versions marked stable, in creation order.
func (l *Ledger) StableVersions() []Version {
	var out []Version
	for _, v := range l.versions {
		if v.Stable {
			out = append(out, v.clone())
		}
	}
	return out
}

// History returns a copy of the full history log in append order.
func (l *Ledger) History() []HistoryEntry {
	return append([]HistoryEntry(nil), l.history...)
}

// Len returns the number of recorded versions.
func (l *Ledger) Len() int { return len(l.versions) }

// Path returns the durable ledger file path.
func (l *Ledger) Path() string { return l.path }
